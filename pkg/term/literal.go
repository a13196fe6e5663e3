package term

import (
	"fmt"
	"strings"
)

// Literal is the external (readable) representation of a predicate
// application: a predicate symbol plus a fixed-arity argument list of
// Terms. Literals are immutable once built.
type Literal struct {
	Pred string
	Args []*Term
}

// NewLiteral builds a Literal from a predicate symbol and its arguments.
func NewLiteral(pred string, args ...*Term) *Literal {
	cp := make([]*Term, len(args))
	copy(cp, args)
	return &Literal{Pred: pred, Args: cp}
}

func (l *Literal) Arity() int { return len(l.Args) }

func (l *Literal) String() string {
	if len(l.Args) == 0 {
		return l.Pred
	}
	parts := make([]string, len(l.Args))
	for i, a := range l.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", l.Pred, strings.Join(parts, ", "))
}

// IsGround reports whether every argument is ground.
func (l *Literal) IsGround() bool {
	for _, a := range l.Args {
		if !IsGround(a) {
			return false
		}
	}
	return true
}

// IntLiteral is the internal integer-vector representation of a Literal:
// Pred is the interned int for the predicate symbol (interned as an
// id-constant, so two literals with the same predicate name always share
// the same Pred int) and Args holds one interned int per argument. This is
// what the discrimination index (pkg/index) and unifier (pkg/unify)
// operate on: plain int slices, cheap to compare, shift and copy.
type IntLiteral struct {
	Pred int
	Args []int
}

// Vector returns the literal as a single flat []int with the predicate in
// position 0, the representation the discrimination index keys on.
func (il *IntLiteral) Vector() []int {
	v := make([]int, 0, len(il.Args)+1)
	v = append(v, il.Pred)
	v = append(v, il.Args...)
	return v
}

// InternLiteral converts a Literal to its IntLiteral form under a
// clause-local variable scope. Pass a fresh, empty vars map for a
// standalone literal (e.g. a query); pass a shared map across every
// literal of one clause so repeated variable names resolve to the same
// int within that clause.
func (f *Factory) InternLiteral(l *Literal, vars map[string]int) (*IntLiteral, error) {
	predInt := f.internConst(NewIDConst(l.Pred))
	args := make([]int, len(l.Args))
	for i, a := range l.Args {
		v, err := f.InternTerm(a, vars)
		if err != nil {
			return nil, fmt.Errorf("term: literal %s: argument %d: %w", l.Pred, i, err)
		}
		args[i] = v
	}
	return &IntLiteral{Pred: predInt, Args: args}, nil
}

// ExternalizeLiteral converts an IntLiteral back to a readable Literal.
func (f *Factory) ExternalizeLiteral(il *IntLiteral) (*Literal, error) {
	predTerm, err := f.Externalize(il.Pred)
	if err != nil {
		return nil, fmt.Errorf("term: externalize literal predicate: %w", err)
	}
	if predTerm.Kind() != KindIDConst {
		return nil, fmt.Errorf("term: externalize literal: predicate int %d is not an id constant", il.Pred)
	}
	args := make([]*Term, len(il.Args))
	for i, a := range il.Args {
		t, err := f.Externalize(a)
		if err != nil {
			return nil, fmt.Errorf("term: externalize literal: argument %d: %w", i, err)
		}
		args[i] = t
	}
	return &Literal{Pred: predTerm.IDValue(), Args: args}, nil
}

// IsInternalVar reports whether an interned int denotes a variable
// (variables are always negative; constants are always positive; 0 is
// never assigned).
func IsInternalVar(i int) bool { return i < 0 }
