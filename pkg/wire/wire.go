// Package wire implements the persisted-state JSON encoding for terms,
// literals, clauses and claims (spec.md §6's "persisted state" interface).
// Grounded on _examples/original_source/etb/terms.py's TermJSONEncoder and
// term_object_hook: every term is tagged with its kind so the decoder never
// has to guess whether a bare string is an id constant or a variable name.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/evidentialbus/etbcore/pkg/term"
)

// Term is the tagged wire form of a term.Term. Exactly the fields relevant
// to Kind are populated, mirroring term.Term's own internal discipline.
type Term struct {
	Kind    string           `json:"kind"`
	Var     string           `json:"var,omitempty"`
	ID      string           `json:"id,omitempty"`
	Str     string           `json:"str,omitempty"`
	Num     float64          `json:"num,omitempty"`
	Bool    bool             `json:"bool,omitempty"`
	Elems   []Term           `json:"elems,omitempty"`
	Entries map[string]*Term `json:"entries,omitempty"`
}

// EncodeTerm converts t to its wire form.
func EncodeTerm(t *term.Term) Term {
	switch t.Kind() {
	case term.KindVar:
		return Term{Kind: "var", Var: t.VarName()}
	case term.KindIDConst:
		return Term{Kind: "id", ID: t.IDValue()}
	case term.KindStringConst:
		return Term{Kind: "string", Str: t.StringValue()}
	case term.KindNumberConst:
		return Term{Kind: "number", Num: t.NumberValue()}
	case term.KindBoolConst:
		return Term{Kind: "bool", Bool: t.BoolValue()}
	case term.KindArray:
		elems := t.Elements()
		out := make([]Term, len(elems))
		for i, e := range elems {
			out[i] = EncodeTerm(e)
		}
		return Term{Kind: "array", Elems: out}
	case term.KindMap:
		entries := t.Entries()
		out := make(map[string]*Term, len(entries))
		for k, v := range entries {
			w := EncodeTerm(v)
			out[k] = &w
		}
		return Term{Kind: "map", Entries: out}
	default:
		return Term{Kind: "unknown"}
	}
}

// DecodeTerm converts a wire Term back to a term.Term.
func DecodeTerm(w Term) (*term.Term, error) {
	switch w.Kind {
	case "var":
		return term.NewVar(w.Var), nil
	case "id":
		return term.NewIDConst(w.ID), nil
	case "string":
		return term.NewStringConst(w.Str), nil
	case "number":
		return term.NewNumberConst(w.Num), nil
	case "bool":
		return term.NewBoolConst(w.Bool), nil
	case "array":
		elems := make([]*term.Term, len(w.Elems))
		for i, e := range w.Elems {
			t, err := DecodeTerm(e)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return term.NewArray(elems...), nil
	case "map":
		entries := make(map[string]*term.Term, len(w.Entries))
		for k, v := range w.Entries {
			t, err := DecodeTerm(*v)
			if err != nil {
				return nil, err
			}
			entries[k] = t
		}
		return term.NewMap(entries), nil
	default:
		return nil, fmt.Errorf("wire: unknown term kind %q", w.Kind)
	}
}

// Literal is the tagged wire form of a term.Literal.
type Literal struct {
	Pred string `json:"pred"`
	Args []Term `json:"args"`
}

// EncodeLiteral converts l to its wire form.
func EncodeLiteral(l *term.Literal) Literal {
	args := make([]Term, len(l.Args))
	for i, a := range l.Args {
		args[i] = EncodeTerm(a)
	}
	return Literal{Pred: l.Pred, Args: args}
}

// decodeLiteralExternal converts a wire Literal to a term.Literal (readable
// form, not yet interned).
func decodeLiteralExternal(w Literal) (*term.Literal, error) {
	args := make([]*term.Term, len(w.Args))
	for i, a := range w.Args {
		t, err := DecodeTerm(a)
		if err != nil {
			return nil, fmt.Errorf("wire: literal %s: arg %d: %w", w.Pred, i, err)
		}
		args[i] = t
	}
	return term.NewLiteral(w.Pred, args...), nil
}

// DecodeLiteral converts a wire Literal directly into an interned
// term.IntLiteral under a fresh variable scope (one per call, since a
// persisted goal or claim literal is its own clause as far as variable
// scoping goes).
func DecodeLiteral(f *term.Factory, w Literal) (*term.IntLiteral, error) {
	l, err := decodeLiteralExternal(w)
	if err != nil {
		return nil, err
	}
	return f.InternLiteral(l, map[string]int{})
}

// Clause is the tagged wire form of a term.Clause.
type Clause struct {
	Kind string    `json:"kind"`
	Head Literal   `json:"head"`
	Body []Literal `json:"body,omitempty"`
}

func clauseKindToWire(k term.ClauseKind) string {
	switch k {
	case term.KindFactRule:
		return "fact"
	case term.KindDerivationRule:
		return "derivation"
	case term.KindInferenceRule:
		return "inference"
	default:
		return "fact"
	}
}

func clauseKindFromWire(s string) term.ClauseKind {
	switch s {
	case "derivation":
		return term.KindDerivationRule
	case "inference":
		return term.KindInferenceRule
	default:
		return term.KindFactRule
	}
}

// EncodeClause converts ic to its wire form.
func EncodeClause(f *term.Factory, ic *term.IntClause) (Clause, error) {
	c, err := f.ExternalizeClause(ic)
	if err != nil {
		return Clause{}, fmt.Errorf("wire: encode clause: %w", err)
	}
	body := make([]Literal, len(c.Body))
	for i, l := range c.Body {
		body[i] = EncodeLiteral(l)
	}
	return Clause{Kind: clauseKindToWire(c.Kind), Head: EncodeLiteral(c.Head), Body: body}, nil
}

// DecodeClause converts a wire Clause directly into an interned
// term.IntClause, under one shared variable scope for head and body
// (matching Factory.InternClause's own discipline).
func DecodeClause(f *term.Factory, w Clause) (*term.IntClause, error) {
	head, err := decodeLiteralExternal(w.Head)
	if err != nil {
		return nil, fmt.Errorf("wire: decode clause head: %w", err)
	}
	body := make([]*term.Literal, len(w.Body))
	for i, l := range w.Body {
		bl, err := decodeLiteralExternal(l)
		if err != nil {
			return nil, fmt.Errorf("wire: decode clause body[%d]: %w", i, err)
		}
		body[i] = bl
	}
	c := term.NewRule(clauseKindFromWire(w.Kind), head, body...)
	return f.InternClause(c)
}

// Reason is the tagged wire form of a term.Reason. Nested claims (evidence,
// body claims) are encoded recursively, each with its Index; decoding
// keeps that Index as written and does not assign a fresh insertion-order
// one (that is LogicalState.AddClaim's job).
type Reason struct {
	Kind     string    `json:"kind"`
	Axiom    *Clause   `json:"axiom,omitempty"`
	Tool     string    `json:"tool,omitempty"`
	Evidence []Claim   `json:"evidence,omitempty"`
	Rule     *Clause   `json:"rule,omitempty"`
	Goal     *Literal  `json:"goal,omitempty"`
	Body     []Claim   `json:"body,omitempty"`
	Opaque   string    `json:"opaque,omitempty"`
}

// Claim is the tagged wire form of a term.Claim.
type Claim struct {
	Literal Literal `json:"literal"`
	Reason  Reason  `json:"reason"`
	Index   int     `json:"index"`
}

// EncodeClaim converts c to its wire form.
func EncodeClaim(f *term.Factory, c *term.Claim) (Claim, error) {
	lit, err := f.ExternalizeLiteral(c.Literal)
	if err != nil {
		return Claim{}, fmt.Errorf("wire: encode claim literal: %w", err)
	}
	r, err := encodeReason(f, c.Reason)
	if err != nil {
		return Claim{}, err
	}
	return Claim{Literal: EncodeLiteral(lit), Reason: r, Index: c.Index}, nil
}

func encodeReason(f *term.Factory, r *term.Reason) (Reason, error) {
	out := Reason{Kind: r.Kind.String()}
	switch r.Kind {
	case term.ReasonAxiom:
		wc, err := EncodeClause(f, r.AxiomClause)
		if err != nil {
			return Reason{}, fmt.Errorf("wire: encode axiom reason: %w", err)
		}
		out.Axiom = &wc
	case term.ReasonExternal:
		out.Tool = r.ExternalTool
		evidence, err := encodeClaims(f, r.ExternalClaims)
		if err != nil {
			return Reason{}, err
		}
		out.Evidence = evidence
	case term.ReasonResolutionTopDown, term.ReasonResolutionBottomUp:
		wc, err := EncodeClause(f, r.Rule)
		if err != nil {
			return Reason{}, fmt.Errorf("wire: encode resolution reason rule: %w", err)
		}
		out.Rule = &wc
		if r.Goal != nil {
			lit, err := f.ExternalizeLiteral(r.Goal)
			if err != nil {
				return Reason{}, fmt.Errorf("wire: encode resolution reason goal: %w", err)
			}
			wl := EncodeLiteral(lit)
			out.Goal = &wl
		}
		body, err := encodeClaims(f, r.BodyClaims)
		if err != nil {
			return Reason{}, err
		}
		out.Body = body
	case term.ReasonOpaque:
		out.Opaque = r.Opaque
	}
	return out, nil
}

func encodeClaims(f *term.Factory, cs []*term.Claim) ([]Claim, error) {
	out := make([]Claim, len(cs))
	for i, c := range cs {
		wc, err := EncodeClaim(f, c)
		if err != nil {
			return nil, fmt.Errorf("wire: encode nested claim %d: %w", i, err)
		}
		out[i] = wc
	}
	return out, nil
}

// DecodeClaim converts a wire Claim back into a term.Claim whose literal and
// every literal/clause in its reason chain are interned against f. The
// decoded claim's Index is taken verbatim from the wire form; a caller
// re-storing it via LogicalState.AddClaim will get a fresh index assigned,
// which is the expected path for a bulk reload (engine.AddGoalResults).
func DecodeClaim(f *term.Factory, w Claim) (*term.Claim, error) {
	lit, err := DecodeLiteral(f, w.Literal)
	if err != nil {
		return nil, fmt.Errorf("wire: decode claim literal: %w", err)
	}
	reason, err := decodeReason(f, w.Reason)
	if err != nil {
		return nil, err
	}
	c := term.NewClaim(lit, reason)
	c.Index = w.Index
	return c, nil
}

func decodeReason(f *term.Factory, w Reason) (*term.Reason, error) {
	switch w.Kind {
	case "axiom":
		if w.Axiom == nil {
			return nil, fmt.Errorf("wire: axiom reason missing clause")
		}
		ic, err := DecodeClause(f, *w.Axiom)
		if err != nil {
			return nil, fmt.Errorf("wire: decode axiom reason: %w", err)
		}
		return term.AxiomReason(ic), nil
	case "external":
		evidence, err := decodeClaims(f, w.Evidence)
		if err != nil {
			return nil, err
		}
		return term.ExternalReason(w.Tool, evidence...), nil
	case "resolution-top-down":
		rule, goal, body, err := decodeRuleGoalBody(f, w)
		if err != nil {
			return nil, err
		}
		return term.ResolutionTopDownReason(rule, goal, body...), nil
	case "resolution-bottom-up":
		rule, _, body, err := decodeRuleGoalBody(f, w)
		if err != nil {
			return nil, err
		}
		return term.ResolutionBottomUpReason(rule, body...), nil
	case "opaque", "":
		return term.OpaqueReason(w.Opaque), nil
	default:
		return nil, fmt.Errorf("wire: unknown reason kind %q", w.Kind)
	}
}

func decodeRuleGoalBody(f *term.Factory, w Reason) (*term.IntClause, *term.IntLiteral, []*term.Claim, error) {
	if w.Rule == nil {
		return nil, nil, nil, fmt.Errorf("wire: resolution reason missing rule")
	}
	rule, err := DecodeClause(f, *w.Rule)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("wire: decode resolution reason rule: %w", err)
	}
	var goal *term.IntLiteral
	if w.Goal != nil {
		goal, err = DecodeLiteral(f, *w.Goal)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("wire: decode resolution reason goal: %w", err)
		}
	}
	body, err := decodeClaims(f, w.Body)
	if err != nil {
		return nil, nil, nil, err
	}
	return rule, goal, body, nil
}

func decodeClaims(f *term.Factory, ws []Claim) ([]*term.Claim, error) {
	out := make([]*term.Claim, len(ws))
	for i, w := range ws {
		c, err := DecodeClaim(f, w)
		if err != nil {
			return nil, fmt.Errorf("wire: decode nested claim %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// Document is the top-level persisted-state file (spec.md §6): every claim
// currently held, every open goal, and every rule clause loaded so far.
// Marshaled with plain encoding/json; no custom MarshalJSON is needed since
// Term/Literal/Clause/Claim are already plain tagged structs.
type Document struct {
	Claims []Claim   `json:"claims"`
	Goals  []Literal `json:"goals"`
	Rules  []Clause  `json:"rules,omitempty"`
}

// EncodeDocument externalizes a full snapshot of claims, goals and rules
// into a persistable Document.
func EncodeDocument(f *term.Factory, claims []*term.Claim, goals []*term.IntLiteral, rules []*term.IntClause) (*Document, error) {
	doc := &Document{}
	for _, c := range claims {
		wc, err := EncodeClaim(f, c)
		if err != nil {
			return nil, err
		}
		doc.Claims = append(doc.Claims, wc)
	}
	for _, g := range goals {
		lit, err := f.ExternalizeLiteral(g)
		if err != nil {
			return nil, fmt.Errorf("wire: encode goal: %w", err)
		}
		doc.Goals = append(doc.Goals, EncodeLiteral(lit))
	}
	for _, r := range rules {
		wc, err := EncodeClause(f, r)
		if err != nil {
			return nil, err
		}
		doc.Rules = append(doc.Rules, wc)
	}
	return doc, nil
}

// Marshal renders doc as indented JSON, matching the original's
// human-diffable persisted-state file convention.
func Marshal(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// Unmarshal parses a persisted-state file into a Document.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("wire: unmarshal document: %w", err)
	}
	return &doc, nil
}
