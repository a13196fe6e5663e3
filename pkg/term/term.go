// Package term implements the ETB term model: a small, hash-consed,
// immutable sum type covering variables, constants, arrays and maps, plus
// the integer-interned internal representation the rest of the inference
// core operates on.
//
// Hash-consing (via Factory, see factory.go) keeps equal terms identical in
// memory, so structural equality reduces to a pointer/int comparison once a
// term has passed through a Factory. Terms themselves never hold a lock:
// they are immutable after construction, and all synchronization lives in
// Factory.
package term

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind discriminates the variants of Term.
type Kind int

const (
	KindVar Kind = iota
	KindIDConst
	KindStringConst
	KindNumberConst
	KindBoolConst
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindVar:
		return "var"
	case KindIDConst:
		return "id"
	case KindStringConst:
		return "string"
	case KindNumberConst:
		return "number"
	case KindBoolConst:
		return "bool"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Term is the external (readable, non-interned) representation of an ETB
// value. Terms are immutable; every field is read-only after construction.
type Term struct {
	kind Kind

	varName string // KindVar
	idVal   string // KindIDConst
	strVal  string // KindStringConst
	numVal  float64
	boolVal bool
	elems   []*Term          // KindArray
	entries map[string]*Term // KindMap
}

// NewVar builds a variable term with the given surface name (e.g. "X").
func NewVar(name string) *Term { return &Term{kind: KindVar, varName: name} }

// NewIDConst builds an identifier constant (a bare symbol such as a
// predicate name or a node id).
func NewIDConst(id string) *Term { return &Term{kind: KindIDConst, idVal: id} }

// NewStringConst builds a quoted string constant.
func NewStringConst(s string) *Term { return &Term{kind: KindStringConst, strVal: s} }

// NewNumberConst builds a numeric constant.
func NewNumberConst(n float64) *Term { return &Term{kind: KindNumberConst, numVal: n} }

// NewBoolConst builds a boolean constant.
func NewBoolConst(b bool) *Term { return &Term{kind: KindBoolConst, boolVal: b} }

// NewArray builds an array term from its elements, in order.
func NewArray(elems ...*Term) *Term {
	cp := make([]*Term, len(elems))
	copy(cp, elems)
	return &Term{kind: KindArray, elems: cp}
}

// NewMap builds a map term from string keys to term values.
func NewMap(entries map[string]*Term) *Term {
	cp := make(map[string]*Term, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	return &Term{kind: KindMap, entries: cp}
}

func (t *Term) Kind() Kind { return t.kind }
func (t *Term) IsVar() bool { return t.kind == KindVar }
func (t *Term) IsGroundKind() bool { return t.kind != KindVar }

// VarName returns the surface name of a variable term; panics on other kinds.
func (t *Term) VarName() string {
	if t.kind != KindVar {
		panic("term: VarName on non-variable term")
	}
	return t.varName
}

func (t *Term) IDValue() string {
	if t.kind != KindIDConst {
		panic("term: IDValue on non-id term")
	}
	return t.idVal
}

func (t *Term) StringValue() string {
	if t.kind != KindStringConst {
		panic("term: StringValue on non-string term")
	}
	return t.strVal
}

func (t *Term) NumberValue() float64 {
	if t.kind != KindNumberConst {
		panic("term: NumberValue on non-number term")
	}
	return t.numVal
}

func (t *Term) BoolValue() bool {
	if t.kind != KindBoolConst {
		panic("term: BoolValue on non-bool term")
	}
	return t.boolVal
}

func (t *Term) Elements() []*Term {
	if t.kind != KindArray {
		panic("term: Elements on non-array term")
	}
	return t.elems
}

func (t *Term) Entries() map[string]*Term {
	if t.kind != KindMap {
		panic("term: Entries on non-map term")
	}
	return t.entries
}

// Key returns a canonical string uniquely identifying the term's shape and
// value, used as the map key for hash-consing in Factory. Two structurally
// equal terms always produce the same key.
func (t *Term) Key() string {
	var b strings.Builder
	t.writeKey(&b)
	return b.String()
}

func (t *Term) writeKey(b *strings.Builder) {
	switch t.kind {
	case KindVar:
		b.WriteString("v:")
		b.WriteString(t.varName)
	case KindIDConst:
		b.WriteString("i:")
		b.WriteString(t.idVal)
	case KindStringConst:
		b.WriteString("s:")
		b.WriteString(strconv.Quote(t.strVal))
	case KindNumberConst:
		b.WriteString("n:")
		b.WriteString(strconv.FormatFloat(t.numVal, 'g', -1, 64))
	case KindBoolConst:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(t.boolVal))
	case KindArray:
		b.WriteString("a:[")
		for i, e := range t.elems {
			if i > 0 {
				b.WriteByte(',')
			}
			e.writeKey(b)
		}
		b.WriteByte(']')
	case KindMap:
		keys := make([]string, 0, len(t.entries))
		for k := range t.entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("m:{")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			t.entries[k].writeKey(b)
		}
		b.WriteByte('}')
	}
}

// String renders a term in the Datalog text surface syntax.
func (t *Term) String() string {
	switch t.kind {
	case KindVar:
		return t.varName
	case KindIDConst:
		return t.idVal
	case KindStringConst:
		return strconv.Quote(t.strVal)
	case KindNumberConst:
		return strconv.FormatFloat(t.numVal, 'g', -1, 64)
	case KindBoolConst:
		return strconv.FormatBool(t.boolVal)
	case KindArray:
		parts := make([]string, len(t.elems))
		for i, e := range t.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(t.entries))
		for k := range t.entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", strconv.Quote(k), t.entries[k].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<?term>"
	}
}

// Equal reports structural equality, independent of hash-consing.
func (t *Term) Equal(other *Term) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	return t.Key() == other.Key()
}
