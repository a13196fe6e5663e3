// Package index implements the discrimination-tree index over interned
// literals described in spec.md §4.2, grounded on
// _examples/original_source/etb/datalog/index.py. The tree is keyed on a
// literal's int vector (predicate followed by arguments) with every
// variable position normalized to a single wildcard key (-1), exactly as
// the original does, so that a path lookup narrows candidates in
// logarithmic-ish fan-out before the caller does the final, precise
// unification/generalization/renaming test with pkg/unify.
package index

import (
	"sync"

	"github.com/evidentialbus/etbcore/pkg/term"
	"github.com/evidentialbus/etbcore/pkg/unify"
)

const wildcard = -1

// entry is a leaf payload: the literal as it was actually inserted (with
// real variable ints, needed to recover renamings) plus the caller's
// value.
type entry[V any] struct {
	lit *term.IntLiteral
	val V
}

type node[V any] struct {
	children map[int]*node[V]
	entries  []*entry[V]
}

func newNode[V any]() *node[V] {
	return &node[V]{children: make(map[int]*node[V])}
}

// Index is a thread-safe discrimination tree from literals to values of
// type V, supporting the four retrieval modes of spec.md §4.2.
type Index[V any] struct {
	mu   sync.RWMutex
	root *node[V]
}

// New creates an empty Index.
func New[V any]() *Index[V] {
	return &Index[V]{root: newNode[V]()}
}

func path(lit *term.IntLiteral) []int {
	v := lit.Vector()
	p := make([]int, len(v))
	for i, x := range v {
		if term.IsInternalVar(x) {
			p[i] = wildcard
		} else {
			p[i] = x
		}
	}
	return p
}

// Add inserts (lit, val) into the index (model.py's add_to_index, via
// LogicalState.db_add_clause/db_add_claim in the original).
func (ix *Index[V]) Add(lit *term.IntLiteral, val V) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	n := ix.root
	for _, k := range path(lit) {
		child, ok := n.children[k]
		if !ok {
			child = newNode[V]()
			n.children[k] = child
		}
		n = child
	}
	n.entries = append(n.entries, &entry[V]{lit: lit, val: val})
}

// Remove deletes the first stored entry whose literal equals lit exactly
// (same predicate, same argument ints) and whose value matches eq, if
// provided. It reports whether anything was removed.
func (ix *Index[V]) Remove(lit *term.IntLiteral, eq func(V) bool) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	n := ix.root
	for _, k := range path(lit) {
		child, ok := n.children[k]
		if !ok {
			return false
		}
		n = child
	}
	for i, e := range n.entries {
		if literalEqual(e.lit, lit) && (eq == nil || eq(e.val)) {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return true
		}
	}
	return false
}

func literalEqual(a, b *term.IntLiteral) bool {
	if a.Pred != b.Pred || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] != b.Args[i] {
			return false
		}
	}
	return true
}

// collect walks every node reachable from n, appending all stored entries.
func collect[V any](n *node[V], out *[]*entry[V]) {
	*out = append(*out, n.entries...)
	for _, c := range n.children {
		collect(c, out)
	}
}

// candidates returns every stored entry whose path could possibly be
// compatible with query at the tree level: a wildcard on either side
// always matches; otherwise the keys must be identical. This is a
// superset of every retrieval mode below; callers apply the precise test.
func (ix *Index[V]) candidates(query []int) []*entry[V] {
	var out []*entry[V]
	var walk func(n *node[V], i int)
	walk = func(n *node[V], i int) {
		if i == len(query) {
			out = append(out, n.entries...)
			return
		}
		k := query[i]
		if k == wildcard {
			for _, c := range n.children {
				walk(c, i+1)
			}
			return
		}
		if c, ok := n.children[k]; ok {
			walk(c, i+1)
		}
		if c, ok := n.children[wildcard]; ok {
			walk(c, i+1)
		}
	}
	walk(ix.root, 0)
	return out
}

func (ix *Index[V]) snapshot(query []int) []*entry[V] {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.candidates(query)
}

// All returns every stored (literal, value) pair, unfiltered.
func (ix *Index[V]) All() []V {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var es []*entry[V]
	collect(ix.root, &es)
	out := make([]V, len(es))
	for i, e := range es {
		out[i] = e.val
	}
	return out
}

// Generalizations returns every stored entry whose literal is a
// generalization of query: wherever query has a constant, the stored
// literal has either the same constant or a variable; wherever query has
// a variable, the stored literal must also have a variable there (a
// constant could never generalize a free variable). This answers "which
// stored rule heads / facts could this goal resolve against" (spec.md
// §4.2).
func (ix *Index[V]) Generalizations(query *term.IntLiteral) []V {
	qv := query.Vector()
	cands := ix.snapshot(path(query))
	var out []V
	for _, e := range cands {
		sv := e.lit.Vector()
		if len(sv) != len(qv) {
			continue
		}
		ok := true
		for i := range qv {
			if term.IsInternalVar(qv[i]) && !term.IsInternalVar(sv[i]) {
				ok = false
				break
			}
			if !term.IsInternalVar(sv[i]) && !term.IsInternalVar(qv[i]) && sv[i] != qv[i] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, e.val)
		}
	}
	return out
}

// Specializations returns every stored entry whose literal is a
// specialization of query: the mirror image of Generalizations, used e.g.
// when a newly added general clause needs to find already-stored ground
// facts it now covers.
func (ix *Index[V]) Specializations(query *term.IntLiteral) []V {
	qv := query.Vector()
	cands := ix.snapshot(path(query))
	var out []V
	for _, e := range cands {
		sv := e.lit.Vector()
		if len(sv) != len(qv) {
			continue
		}
		ok := true
		for i := range qv {
			if !term.IsInternalVar(qv[i]) && term.IsInternalVar(sv[i]) {
				ok = false
				break
			}
			if !term.IsInternalVar(sv[i]) && !term.IsInternalVar(qv[i]) && sv[i] != qv[i] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, e.val)
		}
	}
	return out
}

// Matchings returns every stored entry whose literal unifies with query
// (in disjoint variable scopes — see pkg/unify's package doc), together
// with the resulting substitution.
type Matching[V any] struct {
	Val   V
	Subst unify.Substitution
}

func (ix *Index[V]) Matchings(query *term.IntLiteral) []Matching[V] {
	cands := ix.snapshot(path(query))
	var out []Matching[V]
	for _, e := range cands {
		if s, ok := unify.Unify(query, e.lit, unify.NewSubstitution()); ok {
			out = append(out, Matching[V]{Val: e.val, Subst: s})
		}
	}
	return out
}

// Renamings returns every stored entry whose literal is a variable-only
// renaming of query (spec.md glossary "Renaming"), used for goal
// deduplication (is_renaming_present).
func (ix *Index[V]) Renamings(query *term.IntLiteral) []V {
	cands := ix.snapshot(path(query))
	var out []V
	for _, e := range cands {
		if unify.IsRenaming(query, e.lit) {
			out = append(out, e.val)
		}
	}
	return out
}
