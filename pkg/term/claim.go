package term

import "fmt"

// ReasonKind discriminates the variants of Reason named in spec.md §3.
type ReasonKind int

const (
	// ReasonAxiom: the claim restates a fact clause directly.
	ReasonAxiom ReasonKind = iota
	// ReasonExternal: an interpreted predicate produced the claim
	// (spec.md §6, interpret-state.Interpret).
	ReasonExternal
	// ReasonResolutionTopDown: produced while resolving a goal against a
	// rule whose body literals were already satisfied.
	ReasonResolutionTopDown
	// ReasonResolutionBottomUp: produced while propagating a newly added
	// claim into a pending rule's remaining body.
	ReasonResolutionBottomUp
	// ReasonOpaque: an explanation carried as an uninterpreted string,
	// used for claims reconstructed from a persisted/externally supplied
	// explanation that this engine did not itself derive.
	ReasonOpaque
)

func (k ReasonKind) String() string {
	switch k {
	case ReasonAxiom:
		return "axiom"
	case ReasonExternal:
		return "external"
	case ReasonResolutionTopDown:
		return "resolution-top-down"
	case ReasonResolutionBottomUp:
		return "resolution-bottom-up"
	case ReasonOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Reason is the explanation a Claim carries for why it holds. Exactly the
// fields relevant to Kind are populated; see the accessor comments.
type Reason struct {
	Kind ReasonKind

	// Axiom: the fact clause (interned) that directly produced the claim.
	AxiomClause *IntClause

	// External: the name of the tool wrapper that produced the claim and
	// any sub-claims it cited as evidence.
	ExternalTool   string
	ExternalClaims []*Claim

	// ResolutionTopDown / ResolutionBottomUp: the rule being resolved and
	// the goal (for top-down) it was resolved against, plus the claims
	// that satisfied each body literal in order.
	Rule        *IntClause
	Goal        *IntLiteral
	BodyClaims  []*Claim

	// ReasonOpaque: a free-form explanation string, e.g. reconstructed
	// from a persisted claim whose original derivation is not replayed.
	Opaque string
}

func (r *Reason) String() string {
	switch r.Kind {
	case ReasonAxiom:
		return "axiom"
	case ReasonExternal:
		return fmt.Sprintf("external(%s)", r.ExternalTool)
	case ReasonResolutionTopDown:
		return "resolution-top-down"
	case ReasonResolutionBottomUp:
		return "resolution-bottom-up"
	case ReasonOpaque:
		return r.Opaque
	default:
		return "?"
	}
}

// IsTopDown reports whether this reason was produced by top-down
// resolution (get_rule_from_explanation/get_goal_from_explanation in the
// original apply only to this and the bottom-up variant).
func (r *Reason) IsTopDown() bool { return r.Kind == ReasonResolutionTopDown }

// IsBottomUp reports whether this reason was produced by bottom-up
// propagation.
func (r *Reason) IsBottomUp() bool { return r.Kind == ReasonResolutionBottomUp }

// AxiomReason builds a Reason for a claim restating a fact clause.
func AxiomReason(fact *IntClause) *Reason {
	return &Reason{Kind: ReasonAxiom, AxiomClause: fact}
}

// ExternalReason builds a Reason for a claim produced by an interpreted
// predicate.
func ExternalReason(tool string, evidence ...*Claim) *Reason {
	return &Reason{Kind: ReasonExternal, ExternalTool: tool, ExternalClaims: evidence}
}

// ResolutionTopDownReason builds a Reason for a claim produced while
// resolving goal against rule, citing the claims that satisfied the body.
func ResolutionTopDownReason(rule *IntClause, goal *IntLiteral, bodyClaims ...*Claim) *Reason {
	return &Reason{Kind: ReasonResolutionTopDown, Rule: rule, Goal: goal, BodyClaims: bodyClaims}
}

// ResolutionBottomUpReason builds a Reason for a claim produced while
// propagating a new claim against a pending rule's remaining body.
func ResolutionBottomUpReason(rule *IntClause, bodyClaims ...*Claim) *Reason {
	return &Reason{Kind: ReasonResolutionBottomUp, Rule: rule, BodyClaims: bodyClaims}
}

// OpaqueReason builds a Reason carrying only a free-form explanation.
func OpaqueReason(s string) *Reason {
	return &Reason{Kind: ReasonOpaque, Opaque: s}
}

// Claim is a ground literal the logical state holds to be true, together
// with why. Claims are immutable once constructed; Index is assigned by
// the logical state at insertion time (spec.md's insertion-order "index").
type Claim struct {
	Literal *IntLiteral
	Reason  *Reason
	Index   int
}

// NewClaim builds a Claim. Index is set to -1 until the logical state
// assigns a real insertion-order index.
func NewClaim(lit *IntLiteral, reason *Reason) *Claim {
	return &Claim{Literal: lit, Reason: reason, Index: -1}
}

func (c *Claim) String() string {
	return fmt.Sprintf("claim#%d(%v, %s)", c.Index, c.Literal.Vector(), c.Reason)
}
