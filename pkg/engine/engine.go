// Package engine implements the façade described in spec.md §4.7: the
// single entry point a caller (a CLI, a test, a tool-bus session) uses to
// load rules, issue queries, read back substitutions, and reconstruct a
// readable explanation of why a claim holds. Grounded on
// _examples/original_source/etb/datalog/engine.py; PNG/dot rendering and
// bz2/disk persistence from the original are out of scope per spec.md §1
// and are not ported.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/copystructure"

	"github.com/evidentialbus/etbcore/internal/obs"
	"github.com/evidentialbus/etbcore/pkg/inference"
	"github.com/evidentialbus/etbcore/pkg/parse"
	"github.com/evidentialbus/etbcore/pkg/state"
	"github.com/evidentialbus/etbcore/pkg/term"
	"github.com/evidentialbus/etbcore/pkg/wire"
)

// Facade is the engine entry point. It owns a term factory, a logical
// state (claims/goals/dependency graph) and an inference engine wired
// over them.
type Facade struct {
	Factory   *term.Factory
	State     *state.LogicalState
	Inference *inference.Engine
	Logger    *obs.Logger
}

// New creates an empty Facade. Pass nil for logger to get a no-op logger.
func New(logger *obs.Logger) *Facade {
	if logger == nil {
		logger = obs.Nop()
	}
	f := term.NewFactory()
	st := state.New()
	return &Facade{
		Factory:   f,
		State:     st,
		Inference: inference.New(f, st),
		Logger:    logger,
	}
}

// SetInterpretState installs the collaborator consulted for externally
// interpreted predicates (spec.md §6).
func (fc *Facade) SetInterpretState(is inference.InterpretState) {
	fc.Inference.SetInterpretState(is)
}

// GoSlow/GoNormal: see spec.md §4.7.
func (fc *Facade) GoSlow(d time.Duration) { fc.State.GoSlow(d) }
func (fc *Facade) GoNormal()              { fc.State.GoNormal() }

// CloseDuringInferencing: see spec.md §4.7.
func (fc *Facade) CloseDuringInferencing(on bool) { fc.Inference.CloseDuringInferencing(on) }

// AddRule interns and stores a single clause.
func (fc *Facade) AddRule(c *term.Clause) error {
	ic, err := fc.Factory.InternClause(c)
	if err != nil {
		return fmt.Errorf("engine: add rule: %w", err)
	}
	fc.Inference.AddRule(ic)
	return nil
}

// LoadRules parses src as a sequence of Datalog clauses (spec.md §6's text
// surface grammar) and loads every clause that parses successfully,
// skipping and logging the rest (spec.md §7's Parse-error policy: "the
// file is skipped" means the one bad clause, not the whole load). Every
// parse failure is collected into the returned error via
// github.com/hashicorp/go-multierror so a caller can see everything wrong
// with a file in one pass, not just the first error.
func (fc *Facade) LoadRules(src string) error {
	clauses, perrs := parse.ParseProgram(src)
	var result *multierror.Error
	for _, e := range perrs {
		fc.Logger.ParseError(e.Error())
		result = multierror.Append(result, e)
	}
	for _, c := range clauses {
		if err := fc.AddRule(c); err != nil {
			fc.Logger.ParseError(err.Error())
			result = multierror.Append(result, err)
			continue
		}
	}
	if result != nil {
		return result.ErrorOrNil()
	}
	return nil
}

// Query interns lit under a fresh variable scope and adds it as a
// top-level goal, returning the internal literal (needed to call
// Close/IsCompleted afterward; GetSubstitutions takes the external
// literal) and the state.Goal.
func (fc *Facade) Query(ctx context.Context, lit *term.Literal) (*term.IntLiteral, *state.Goal, error) {
	vars := map[string]int{}
	il, err := fc.Factory.InternLiteral(lit, vars)
	if err != nil {
		return nil, nil, fmt.Errorf("engine: query: %w", err)
	}
	g, _ := fc.Inference.AddGoal(ctx, il)
	return il, g, nil
}

// Substitution is one answer to a query: a binding from each of the
// query's free variable names to the term it was bound to.
type Substitution map[string]*term.Term

// GetSubstitutions returns one Substitution per claim currently satisfying
// queryLit, reading off the binding of every named variable in queryLit
// (engine.py.get_substitutions).
func (fc *Facade) GetSubstitutions(queryLit *term.Literal) ([]Substitution, error) {
	vars := map[string]int{}
	il, err := fc.Factory.InternLiteral(queryLit, vars)
	if err != nil {
		return nil, fmt.Errorf("engine: get substitutions: %w", err)
	}
	var out []Substitution
	for _, m := range fc.State.ClaimsMatching(il) {
		sub := Substitution{}
		for name, vi := range vars {
			val := m.Subst.Walk(vi)
			t, err := fc.Factory.Externalize(val)
			if err != nil {
				continue
			}
			sub[name] = t
		}
		out = append(out, sub)
	}
	return out, nil
}

// Close delegates to the inference engine (spec.md §4.6).
func (fc *Facade) Close(lit *term.IntLiteral) { fc.Inference.Close(lit) }

// IsCompleted delegates to the inference engine (spec.md §4.6).
func (fc *Facade) IsCompleted(lit *term.IntLiteral) bool { return fc.Inference.IsCompleted(lit) }

// DerivationTree is a readable reconstruction of why a claim holds,
// suitable for a caller to render however it likes (spec.md's out-of-scope
// PNG rendering is exactly such a caller, just not one this module
// provides). Grounded on engine.py.get_rule_and_facts_explanation /
// generate_children.
type DerivationTree struct {
	ID       string
	Literal  string
	Reason   string
	Children []*DerivationTree
}

// GetRuleAndFactsExplanation walks claim's reason chain and returns a
// DerivationTree.
func (fc *Facade) GetRuleAndFactsExplanation(claim *term.Claim) (*DerivationTree, error) {
	lit, err := fc.Factory.ExternalizeLiteral(claim.Literal)
	if err != nil {
		return nil, fmt.Errorf("engine: explain: %w", err)
	}
	node := &DerivationTree{
		ID:      uuid.NewString(),
		Literal: lit.String(),
		Reason:  claim.Reason.String(),
	}
	var children []*term.Claim
	switch claim.Reason.Kind {
	case term.ReasonResolutionTopDown, term.ReasonResolutionBottomUp:
		children = claim.Reason.BodyClaims
	case term.ReasonExternal:
		children = claim.Reason.ExternalClaims
	}
	for _, c := range children {
		child, err := fc.GetRuleAndFactsExplanation(c)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}

// AddGoalResults bulk-loads a previously persisted set of claims (spec.md
// §6's persisted state, engine.py.add_goal_results). Each decoded claim is
// deep-copied via github.com/mitchellh/copystructure before being stored
// so the LogicalState never aliases the wire decoder's backing slices.
func (fc *Facade) AddGoalResults(doc *wire.Document) error {
	claims, err := decodeClaims(fc.Factory, doc)
	if err != nil {
		return err
	}
	cp, err := copystructure.Copy(claims)
	if err != nil {
		return fmt.Errorf("engine: add goal results: deep copy: %w", err)
	}
	fc.Inference.AddClaims(cp.([]*term.Claim))
	return nil
}

// LoadGoals bulk-loads a previously persisted set of open goals
// (engine.py.load_goals), re-opening each as a live goal in this Facade.
func (fc *Facade) LoadGoals(ctx context.Context, doc *wire.Document) error {
	lits, err := decodeGoalLiterals(fc.Factory, doc)
	if err != nil {
		return err
	}
	for _, l := range lits {
		fc.Inference.AddGoal(ctx, l)
	}
	return nil
}

func decodeClaims(f *term.Factory, doc *wire.Document) ([]*term.Claim, error) {
	out := make([]*term.Claim, 0, len(doc.Claims))
	for _, wc := range doc.Claims {
		c, err := wire.DecodeClaim(f, wc)
		if err != nil {
			return nil, fmt.Errorf("engine: decode claim: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func decodeGoalLiterals(f *term.Factory, doc *wire.Document) ([]*term.IntLiteral, error) {
	out := make([]*term.IntLiteral, 0, len(doc.Goals))
	for _, wl := range doc.Goals {
		l, err := wire.DecodeLiteral(f, wl)
		if err != nil {
			return nil, fmt.Errorf("engine: decode goal: %w", err)
		}
		out = append(out, l)
	}
	return out, nil
}
