package term

import (
	"fmt"
	"sync"
)

// Factory interns Terms into a shared integer space: every distinct
// constant is assigned a positive int the first time it is seen, and every
// distinct variable name within a clause is assigned a negative int local
// to that clause. Two structurally equal constants always intern to the
// same int; two occurrences of a variable with the same surface name
// within one clause intern to the same int, but the same name in a
// different clause gets its own (fresh) negative int — this is what makes
// clause bodies independent for unification (spec.md §4.3's "assuming
// disjoint variable sets").
//
// Factory is safe for concurrent use; all bookkeeping is guarded by mu.
type Factory struct {
	mu sync.RWMutex

	constToInt map[string]int
	intToTerm  map[int]*Term
	nextConst  int

	nextVar int
}

// NewFactory creates an empty, ready-to-use Factory.
func NewFactory() *Factory {
	return &Factory{
		constToInt: make(map[string]int),
		intToTerm:  make(map[int]*Term),
		nextConst:  1,
		nextVar:    -1,
	}
}

// Clear discards all interned state. Any ints handed out before Clear are
// no longer meaningful against the factory afterward.
func (f *Factory) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constToInt = make(map[string]int)
	f.intToTerm = make(map[int]*Term)
	f.nextConst = 1
	f.nextVar = -1
}

// internConst returns the stable positive int for a ground term, assigning
// a fresh one on first sight.
func (f *Factory) internConst(t *Term) int {
	key := t.Key()

	f.mu.RLock()
	if i, ok := f.constToInt[key]; ok {
		f.mu.RUnlock()
		return i
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.constToInt[key]; ok {
		return i
	}
	i := f.nextConst
	f.nextConst++
	f.constToInt[key] = i
	f.intToTerm[i] = t
	return i
}

// FreshVar allocates a brand new, never-before-used variable int and
// registers a readable placeholder term for it. Used when the inference
// engine needs a variable that cannot collide with any clause's variables
// (e.g. renaming a rule's variables apart before a goal is resolved
// against it, pkg/inference's freshInstance).
func (f *Factory) FreshVar(hint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.nextVar
	f.nextVar--
	f.intToTerm[i] = NewVar(hint)
	return i
}

// IsGround reports whether a term contains no variables anywhere in its
// structure.
func IsGround(t *Term) bool {
	switch t.kind {
	case KindVar:
		return false
	case KindArray:
		for _, e := range t.elems {
			if !IsGround(e) {
				return false
			}
		}
		return true
	case KindMap:
		for _, v := range t.entries {
			if !IsGround(v) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// InternTerm maps a single term to its internal int under the given
// clause-local variable scope (vars maps a variable's surface name to the
// int assigned to it within the current clause; InternTerm mutates vars on
// first sight of a new variable name, and records the variable's Term
// against its new int so Externalize gives back the original name).
// Compound (array/map) terms must be
// ground: this factory's internal integer-vector representation, like the
// discrimination index built on top of it, treats a compound term as a
// single opaque interned value rather than unifying into its elements —
// variables are not supported inside array/map literal arguments. This
// matches how array/map terms are used across the system: as opaque
// file-reference-like handles (spec.md §6), not as places one unifies
// substructure.
func (f *Factory) InternTerm(t *Term, vars map[string]int) (int, error) {
	if t.kind == KindVar {
		if i, ok := vars[t.varName]; ok {
			return i, nil
		}
		i := f.allocClauseVar()
		f.mu.Lock()
		f.intToTerm[i] = t
		f.mu.Unlock()
		vars[t.varName] = i
		return i, nil
	}
	if (t.kind == KindArray || t.kind == KindMap) && !IsGround(t) {
		return 0, fmt.Errorf("term: variables are not supported inside %s arguments (%s)", t.kind, t.String())
	}
	return f.internConst(t), nil
}

func (f *Factory) allocClauseVar() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.nextVar
	f.nextVar--
	return i
}

// InternConst interns a ground term as a constant, returning its stable
// int. Exposed for callers that build literals directly out of internal
// ints without going through InternLiteral's clause-local variable
// scoping (e.g. the inference engine's synthetic error-reporting
// predicate).
func (f *Factory) InternConst(t *Term) int { return f.internConst(t) }

// Externalize converts an internal int back to its Term. InternTerm records
// every clause variable it allocates under its surface name, and FreshVar
// records its hint, so those come back by name. A negative int that was
// never recorded (allocClauseVar called on its own) is not an error but an
// unnamed variable, and gets a synthetic name built from its own int so
// repeated calls with the same int are stable. Positive ints are always registered
// by internConst, so an unregistered positive int is a genuine misuse.
func (f *Factory) Externalize(i int) (*Term, error) {
	f.mu.RLock()
	t, ok := f.intToTerm[i]
	f.mu.RUnlock()
	if ok {
		return t, nil
	}
	if i < 0 {
		return NewVar(fmt.Sprintf("X%d", -i)), nil
	}
	return nil, fmt.Errorf("term: int %d was never interned by this factory", i)
}

// MustExternalize is Externalize but panics on failure; used where the int
// is known (by invariant) to have come from this factory, e.g. when
// rendering an internal literal for logging.
func (f *Factory) MustExternalize(i int) *Term {
	t, err := f.Externalize(i)
	if err != nil {
		panic(err)
	}
	return t
}
