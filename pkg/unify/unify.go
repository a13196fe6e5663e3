// Package unify implements unification and substitution over the
// integer-vector representation produced by pkg/term: IntLiterals whose
// arguments are either constant ints (positive) or variable ints
// (negative). Callers are responsible for arranging disjoint variable
// scopes between the two sides being unified (pkg/term.Factory.InternClause
// gives every clause its own scope; Offset/ShiftLiteral renumber a clause's
// variables into a scope known to be free before a resolution step reuses
// it), mirroring spec.md §4.3.
package unify

import "github.com/evidentialbus/etbcore/pkg/term"

// Substitution maps variable ints to the int they are bound to (which may
// itself be a variable int, forming a binding chain that Walk follows to
// its end).
type Substitution map[int]int

// NewSubstitution returns an empty substitution.
func NewSubstitution() Substitution { return make(Substitution) }

// Clone returns an independent copy.
func (s Substitution) Clone() Substitution {
	cp := make(Substitution, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// Walk follows i's binding chain to its end: if i is a variable bound in
// s, follow the binding; repeat until reaching an unbound variable or a
// constant. Terminates even on a (rejected-at-bind-time, see Bind) cycle
// by tracking visited variables.
func (s Substitution) Walk(i int) int {
	seen := map[int]bool{}
	for term.IsInternalVar(i) {
		next, ok := s[i]
		if !ok || seen[i] {
			return i
		}
		seen[i] = true
		i = next
	}
	return i
}

// Bind extends s with i -> to, rejecting the binding if it would make i
// occur in its own binding chain (the occurs check spec.md §9(a) notes
// the original implementation omits — this implementation adds it).
// Reports ok=false when the binding is rejected.
func (s Substitution) Bind(i, to int) (Substitution, bool) {
	if i == to {
		return s, true
	}
	// occurs check: walking from `to` must never reach `i`.
	cursor := to
	seen := map[int]bool{}
	for term.IsInternalVar(cursor) {
		if cursor == i {
			return s, false
		}
		if seen[cursor] {
			break
		}
		seen[cursor] = true
		next, ok := s[cursor]
		if !ok {
			break
		}
		cursor = next
	}
	next := s.Clone()
	next[i] = to
	return next, true
}

// unifyInt unifies two raw ints under substitution s, returning the
// extended substitution or ok=false if they cannot be unified.
func unifyInt(a, b int, s Substitution) (Substitution, bool) {
	a = s.Walk(a)
	b = s.Walk(b)
	if a == b {
		return s, true
	}
	if term.IsInternalVar(a) {
		return s.Bind(a, b)
	}
	if term.IsInternalVar(b) {
		return s.Bind(b, a)
	}
	return s, false // two distinct constants
}

// Unify attempts to unify two IntLiterals (predicate and every argument,
// in order) under an existing substitution, returning the extended
// substitution or ok=false. Arity or predicate mismatch always fails.
func Unify(a, b *term.IntLiteral, s Substitution) (Substitution, bool) {
	if a.Pred != b.Pred || len(a.Args) != len(b.Args) {
		return s, false
	}
	cur := s
	for i := range a.Args {
		var ok bool
		cur, ok = unifyInt(a.Args[i], b.Args[i], cur)
		if !ok {
			return s, false
		}
	}
	return cur, true
}

// IsSubstitution reports whether s, applied to its own codomain, produces
// no further bindable variables — i.e. s is already fully walked
// (idempotent): no variable is bound to another variable that s also
// binds. This mirrors the original model.py.is_substitution sanity check
// used defensively before applying a substitution built by hand rather
// than by Unify.
func IsSubstitution(s Substitution) bool {
	for _, v := range s {
		if term.IsInternalVar(v) {
			if _, bound := s[v]; bound {
				return false
			}
		}
	}
	return true
}

// Offset returns a copy of vector with every variable int shifted by
// subtracting delta (constants are untouched), so a positive delta moves
// every variable further into the negative range, renaming it into a
// fresh scope known not to collide with the caller's current variables.
// delta must be chosen so that the result cannot coincide with any
// variable already in play. The inference engine does not call Offset; it
// renames rules apart with Factory.FreshVar.
func Offset(vector []int, delta int) []int {
	out := make([]int, len(vector))
	for i, v := range vector {
		if term.IsInternalVar(v) {
			out[i] = v - delta
		} else {
			out[i] = v
		}
	}
	return out
}

// ShiftLiteral returns a copy of lit with every variable argument (and the
// predicate, which is never a variable) shifted by delta via Offset.
func ShiftLiteral(lit *term.IntLiteral, delta int) *term.IntLiteral {
	return &term.IntLiteral{Pred: lit.Pred, Args: Offset(lit.Args, delta)}
}

// ShiftClause shifts every literal of a clause by the same delta, keeping
// the clause internally consistent (a variable appearing in both head and
// body still refers to the same shifted int).
func ShiftClause(c *term.IntClause, delta int) *term.IntClause {
	body := make([]*term.IntLiteral, len(c.Body))
	for i, l := range c.Body {
		body[i] = ShiftLiteral(l, delta)
	}
	return &term.IntClause{Kind: c.Kind, Head: ShiftLiteral(c.Head, delta), Body: body}
}

// ApplySubstitution returns a copy of lit with every variable argument
// replaced by its walked value under s. Any variable left unbound by s
// stays a variable in the result.
func ApplySubstitution(lit *term.IntLiteral, s Substitution) *term.IntLiteral {
	args := make([]int, len(lit.Args))
	for i, a := range lit.Args {
		args[i] = s.Walk(a)
	}
	return &term.IntLiteral{Pred: lit.Pred, Args: args}
}

// ApplySubstitutionClause applies s to every literal of a clause.
func ApplySubstitutionClause(c *term.IntClause, s Substitution) *term.IntClause {
	body := make([]*term.IntLiteral, len(c.Body))
	for i, l := range c.Body {
		body[i] = ApplySubstitution(l, s)
	}
	return &term.IntClause{Kind: c.Kind, Head: ApplySubstitution(c.Head, s), Body: body}
}

// IsGround reports whether every argument of lit is a constant under s.
func IsGround(lit *term.IntLiteral, s Substitution) bool {
	for _, a := range lit.Args {
		if term.IsInternalVar(s.Walk(a)) {
			return false
		}
	}
	return true
}

// IsRenaming reports whether a maps onto b via a bijective variable-only
// substitution: every argument position where a has a variable, b must
// also have a variable, with a consistent 1:1 correspondence, and every
// position where a has a constant, b must have the identical constant.
// This is the "Renaming" relation of spec.md's glossary, used by the
// discrimination index's renaming-candidate query and by goal
// deduplication.
func IsRenaming(a, b *term.IntLiteral) bool {
	if a.Pred != b.Pred || len(a.Args) != len(b.Args) {
		return false
	}
	fwd := map[int]int{}
	bwd := map[int]int{}
	for i := range a.Args {
		x, y := a.Args[i], b.Args[i]
		xVar, yVar := term.IsInternalVar(x), term.IsInternalVar(y)
		if xVar != yVar {
			return false
		}
		if !xVar {
			if x != y {
				return false
			}
			continue
		}
		if f, ok := fwd[x]; ok {
			if f != y {
				return false
			}
		} else {
			fwd[x] = y
		}
		if b2, ok := bwd[y]; ok {
			if b2 != x {
				return false
			}
		} else {
			bwd[y] = x
		}
	}
	return true
}
