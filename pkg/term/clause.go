package term

import (
	"fmt"
	"strings"
)

// ClauseKind discriminates the three clause subtypes named in spec.md §3.
type ClauseKind int

const (
	// KindFactRule is a clause with no body: always derivable.
	KindFactRule ClauseKind = iota
	// KindDerivationRule is a ":-" clause: head holds whenever every body
	// literal holds.
	KindDerivationRule
	// KindInferenceRule is a "<=" clause. The kind records only which arrow
	// the source used: the inference engine resolves both rule kinds the
	// same way, and neither kind restricts which predicates (interpreted or
	// not) appear in the body.
	KindInferenceRule
)

func (k ClauseKind) String() string {
	switch k {
	case KindFactRule:
		return "fact"
	case KindDerivationRule:
		return "derivation"
	case KindInferenceRule:
		return "inference"
	default:
		return "unknown"
	}
}

// Clause is the external representation of a Datalog clause: a head
// literal and a (possibly empty) ordered body.
type Clause struct {
	Kind ClauseKind
	Head *Literal
	Body []*Literal
}

// NewFact builds a fact clause (empty body).
func NewFact(head *Literal) *Clause {
	return &Clause{Kind: KindFactRule, Head: head}
}

// NewRule builds a clause with a body. kind must be KindDerivationRule or
// KindInferenceRule; NewRule does not itself decide which — callers
// (typically the parser, which knows whether it saw ":-" or "<=") supply
// it directly.
func NewRule(kind ClauseKind, head *Literal, body ...*Literal) *Clause {
	cp := make([]*Literal, len(body))
	copy(cp, body)
	return &Clause{Kind: kind, Head: head, Body: cp}
}

func (c *Clause) String() string {
	if len(c.Body) == 0 {
		return c.Head.String() + "."
	}
	sep := " :- "
	if c.Kind == KindInferenceRule {
		sep = " <= "
	}
	parts := make([]string, len(c.Body))
	for i, l := range c.Body {
		parts[i] = l.String()
	}
	return c.Head.String() + sep + strings.Join(parts, ", ") + "."
}

// CheckSafety enforces the Datalog safety invariant (spec.md §3): every
// variable in the head, and every variable in every body literal, must
// occur in at least one body literal of a *non-negated* position — since
// this engine has no negation (spec.md Non-goals), the rule simplifies to
// "every head variable appears somewhere in the body" (facts vacuously
// satisfy this, having an empty body and, to be safe, no variables at
// all — a fact with a free variable is rejected too, since it could never
// be grounded).
func (c *Clause) CheckSafety() error {
	bodyVars := make(map[string]bool)
	for _, lit := range c.Body {
		collectVarNames(lit.Args, bodyVars)
	}
	headVars := make(map[string]bool)
	collectVarNames(c.Head.Args, headVars)

	if len(c.Body) == 0 {
		if len(headVars) > 0 {
			return fmt.Errorf("term: clause %q is unsafe: a fact may not contain variables", c.String())
		}
		return nil
	}
	for v := range headVars {
		if !bodyVars[v] {
			return fmt.Errorf("term: clause %q is unsafe: head variable %q does not occur in the body", c.String(), v)
		}
	}
	return nil
}

func collectVarNames(args []*Term, into map[string]bool) {
	for _, a := range args {
		switch a.Kind() {
		case KindVar:
			into[a.VarName()] = true
		case KindArray:
			collectVarNames(a.Elements(), into)
		case KindMap:
			vs := make([]*Term, 0, len(a.Entries()))
			for _, v := range a.Entries() {
				vs = append(vs, v)
			}
			collectVarNames(vs, into)
		}
	}
}

// IntClause is the internal integer-vector form of a Clause: Head and each
// element of Body are IntLiterals interned under one shared clause-local
// variable scope, so a variable named "X" in the head and in the body
// refers to the same int.
type IntClause struct {
	Kind ClauseKind
	Head *IntLiteral
	Body []*IntLiteral
}

// InternClause interns a whole clause under one fresh, shared variable
// scope (mk_clause in the original model.py).
func (f *Factory) InternClause(c *Clause) (*IntClause, error) {
	if err := c.CheckSafety(); err != nil {
		return nil, err
	}
	vars := make(map[string]int)
	head, err := f.InternLiteral(c.Head, vars)
	if err != nil {
		return nil, fmt.Errorf("term: intern clause head: %w", err)
	}
	body := make([]*IntLiteral, len(c.Body))
	for i, lit := range c.Body {
		il, err := f.InternLiteral(lit, vars)
		if err != nil {
			return nil, fmt.Errorf("term: intern clause body[%d]: %w", i, err)
		}
		body[i] = il
	}
	return &IntClause{Kind: c.Kind, Head: head, Body: body}, nil
}

// ExternalizeClause converts an IntClause back to a readable Clause.
func (f *Factory) ExternalizeClause(ic *IntClause) (*Clause, error) {
	head, err := f.ExternalizeLiteral(ic.Head)
	if err != nil {
		return nil, fmt.Errorf("term: externalize clause head: %w", err)
	}
	body := make([]*Literal, len(ic.Body))
	for i, il := range ic.Body {
		lit, err := f.ExternalizeLiteral(il)
		if err != nil {
			return nil, fmt.Errorf("term: externalize clause body[%d]: %w", i, err)
		}
		body[i] = lit
	}
	return &Clause{Kind: ic.Kind, Head: head, Body: body}, nil
}

// IsFact reports whether the clause has no body.
func (ic *IntClause) IsFact() bool { return len(ic.Body) == 0 }
