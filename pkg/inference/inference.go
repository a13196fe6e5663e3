// Package inference implements the inference engine described in
// spec.md §4.5: adding claims, goals and pending rules, propagating newly
// added claims into waiting pending rules (bottom-up), resolving goals
// against candidate clauses (top-down), and the stuck-goal lifecycle for
// predicates an interpret-state collaborator cannot yet (or ever)
// interpret. Grounded on
// _examples/original_source/etb/datalog/inference.py. resolve_pending_rule
// in the original is dead code (never called, marked as such in its own
// comment) and has no counterpart here; the live path is
// propagate_claim_to_pending_clause, implemented below as
// propagateIntoPendingRule.
package inference

import (
	"context"
	"fmt"
	"sync"

	"github.com/evidentialbus/etbcore/pkg/graph"
	"github.com/evidentialbus/etbcore/pkg/state"
	"github.com/evidentialbus/etbcore/pkg/term"
	"github.com/evidentialbus/etbcore/pkg/unify"
)

// Core is the engine-facing surface an InterpretState collaborator uses to
// report results back (spec.md §6's "core interface consumed by interpret
// state").
type Core interface {
	AddClaim(claim *term.Claim) *term.Claim
	AddClaims(claims []*term.Claim)
	AddErrors(errs []error)
	AddPendingRule(rule *term.IntClause) int
	PushNoSolutions(goal *term.IntLiteral)
}

// InterpretState is the interface the core consumes to dispatch goals
// whose predicate is not resolved by ordinary Datalog clauses (spec.md
// §6's "interpret-state interface consumed by core").
type InterpretState interface {
	IsInterpreted(pred string) bool
	IsValid(lit *term.IntLiteral, f *term.Factory) bool
	Interpret(ctx context.Context, core Core, lit *term.IntLiteral, f *term.Factory)
}

// pendingRuleState is the bookkeeping the engine keeps, outside the
// dependency graph's Annotation, for a rule currently being resolved
// against a particular goal: its own freshly-renamed copy (so its
// variables never collide with any other in-flight instantiation of the
// same rule) and the substitution accumulated from matched body literals
// so far.
type pendingRuleState struct {
	graphIdx int
	rule     *term.IntClause // freshly renamed
	subst    unify.Substitution
	bodyIdx  int
	goalIdx  int  // graph node index of the goal this rule serves, if any
	hasGoal  bool
}

// Engine is the inference engine. Each call it makes into the logical
// state or the dependency graph takes that structure's own lock, and mu
// guards the engine's own maps; no single lock is held for the whole of
// a multi-step operation such as AddGoal or AddClaim.
type Engine struct {
	mu sync.Mutex // serializes engine-level bookkeeping not owned by state

	factory *term.Factory
	state   *state.LogicalState
	interp  InterpretState

	goalGraphByLit map[string]int // literal.Key-ish (via Vector string) -> graph node idx, for exact dedup beyond renaming
	goalLitByIdx   map[int]*term.IntLiteral
	goalStateByIdx map[int]*state.Goal
	pending        map[int]*pendingRuleState

	closeEagerly bool
}

// New creates an Engine over an existing factory and logical state.
func New(f *term.Factory, st *state.LogicalState) *Engine {
	return &Engine{
		factory:        f,
		state:          st,
		goalGraphByLit: map[string]int{},
		goalLitByIdx:   map[int]*term.IntLiteral{},
		goalStateByIdx: map[int]*state.Goal{},
		pending:        map[int]*pendingRuleState{},
	}
}

// SetInterpretState installs the collaborator consulted for predicates not
// resolved by ordinary clauses. Passing nil disables external
// interpretation (every unresolved predicate simply has no matching
// clause, as in a purely extensional/intensional Datalog program).
func (e *Engine) SetInterpretState(is InterpretState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interp = is
}

// CloseDuringInferencing toggles whether AddClaim and AddClaims eagerly
// attempt Close on every known goal after each call (AddGoal does not) (spec.md §4.7's CLOSE_DURING_INFERENCING
// knob). Off by default: eager closing is expensive and most callers
// instead call Close explicitly once a query is thought to be settled.
func (e *Engine) CloseDuringInferencing(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeEagerly = on
}

func vecKey(lit *term.IntLiteral) string { return fmt.Sprint(lit.Vector()) }

// freshInstance returns a copy of c with every variable replaced by a
// brand-new int from the factory, so this instantiation of the rule can
// never collide with any other in-flight instantiation (spec.md §4.3's
// disjoint-variable-set assumption).
func (e *Engine) freshInstance(c *term.IntClause) *term.IntClause {
	rename := unify.Substitution{}
	var collect func(lit *term.IntLiteral)
	collect = func(lit *term.IntLiteral) {
		for _, a := range lit.Args {
			if term.IsInternalVar(a) {
				if _, ok := rename[a]; !ok {
					rename[a] = e.factory.FreshVar("_")
				}
			}
		}
	}
	collect(c.Head)
	for _, l := range c.Body {
		collect(l)
	}
	return unify.ApplySubstitutionClause(c, rename)
}

// AddRule stores a clause. A fact clause is immediately asserted as an
// axiom claim and propagated; a rule clause is only indexed for future
// goal resolution (spec.md §4.1/§4.4).
func (e *Engine) AddRule(c *term.IntClause) {
	e.state.AddClause(c)
	if c.IsFact() {
		e.AddClaim(term.NewClaim(c.Head, term.AxiomReason(c)))
	}
}

// AddClaim stores claim in the logical state (assigning its insertion
// index), propagates it into every pending rule waiting on a matching
// literal, and attaches it to the goal whose literal is identical to the
// claim's, if there is one. A goal whose literal differs from the claim's
// (e.g. one with variables) is not attached to here.
func (e *Engine) AddClaim(claim *term.Claim) *term.Claim {
	stored := e.state.AddClaim(claim)
	e.propagate(stored)
	if e.closeEagerly {
		e.closeAll()
	}
	return stored
}

// AddClaims adds a batch atomically with respect to propagation: every
// claim is stored first, then every claim is propagated, so a rule with
// two subgoals satisfied by two claims in the same batch sees both no
// matter what order they were produced in.
func (e *Engine) AddClaims(claims []*term.Claim) {
	stored := make([]*term.Claim, len(claims))
	for i, c := range claims {
		stored[i] = e.state.AddClaim(c)
	}
	for _, c := range stored {
		e.propagate(c)
	}
	if e.closeEagerly {
		e.closeAll()
	}
}

// AddErrors is the Core method an interpret-state collaborator calls to
// report wrapper errors (spec.md §7's Wrapper error taxonomy): each
// becomes an opaque-reason claim over a reserved "error/1" predicate so
// that failure is visible through the ordinary claim stream rather than
// a side channel.
func (e *Engine) AddErrors(errs []error) {
	for _, err := range errs {
		lit := &term.IntLiteral{
			Pred: e.internErrorPred(),
			Args: []int{e.internErrorString(err.Error())},
		}
		e.AddClaim(term.NewClaim(lit, term.OpaqueReason(err.Error())))
	}
}

func (e *Engine) internErrorPred() int {
	return e.factory.InternConst(term.NewIDConst("error"))
}

func (e *Engine) internErrorString(s string) int {
	return e.factory.InternConst(term.NewStringConst(s))
}

// AddPendingRule registers a bare rule instance (not yet tied to a goal)
// as a pending-rule graph node and returns its index, for callers that
// need direct control over pending-rule bookkeeping. The engine's own goal
// resolution does not go through it: resolveGoalWithRule creates its
// pending-rule nodes directly.
func (e *Engine) AddPendingRule(rule *term.IntClause) int {
	idx := e.state.Graph.AddPendingRuleNode()
	e.mu.Lock()
	e.pending[idx] = &pendingRuleState{graphIdx: idx, rule: rule, subst: unify.NewSubstitution()}
	e.mu.Unlock()
	return idx
}

// PushNoSolutions tells the engine that goal will never be satisfied
// (e.g. an interpreted predicate exhaustively searched and found nothing).
// The goal's graph node, if any, is closed directly.
func (e *Engine) PushNoSolutions(goalLit *term.IntLiteral) {
	e.mu.Lock()
	idx, ok := e.goalGraphByLit[vecKey(goalLit)]
	e.mu.Unlock()
	if ok {
		e.state.Graph.Close(idx)
	}
}

// AddGoal adds goalLit as a top-level (or subgoal) query. If an open goal
// that is a pure renaming of goalLit already exists, that goal is reused
// (spec.md's goal-deduplication design) instead of creating a new one.
func (e *Engine) AddGoal(ctx context.Context, goalLit *term.IntLiteral) (*state.Goal, int) {
	if existing, ok := e.state.IsRenamingPresent(goalLit); ok {
		e.mu.Lock()
		idx := e.goalGraphByLit[vecKey(existing.Literal)]
		e.mu.Unlock()
		return existing, idx
	}

	g := e.state.AddGoal(goalLit)
	graphIdx := e.state.Graph.AddGoalNode()
	e.mu.Lock()
	e.goalGraphByLit[vecKey(goalLit)] = graphIdx
	e.goalLitByIdx[graphIdx] = goalLit
	e.goalStateByIdx[graphIdx] = g
	e.mu.Unlock()

	// Claims already on file satisfy this goal immediately.
	for _, m := range e.state.ClaimsMatching(goalLit) {
		e.state.Graph.AddClaim(graphIdx, m.Val.Index)
	}

	if e.interp != nil && e.interp.IsInterpreted(e.predName(goalLit)) {
		e.dispatchInterpreted(ctx, goalLit)
		return g, graphIdx
	}

	for _, c := range e.state.RuleGeneralizations(goalLit) {
		if c.IsFact() {
			continue // already handled via ClaimsMatching above
		}
		e.resolveGoalWithRule(ctx, graphIdx, goalLit, c)
	}
	return g, graphIdx
}

// predName resolves lit's predicate int back to its surface name, since
// InterpretState's contract (spec.md §6) speaks in predicate names,
// matching the original Python interface's string-keyed dispatch table.
func (e *Engine) predName(lit *term.IntLiteral) string {
	t, err := e.factory.Externalize(lit.Pred)
	if err != nil || t.Kind() != term.KindIDConst {
		return ""
	}
	return t.IDValue()
}

func (e *Engine) dispatchInterpreted(ctx context.Context, goalLit *term.IntLiteral) {
	if !e.interp.IsValid(goalLit, e.factory) {
		g, ok := e.goalAsState(goalLit)
		if ok {
			e.state.MoveGoalToStuck(g)
		}
		return
	}
	e.interp.Interpret(ctx, e, goalLit, e.factory)
}

func (e *Engine) goalAsState(lit *term.IntLiteral) (*state.Goal, bool) {
	e.mu.Lock()
	idx, ok := e.goalGraphByLit[vecKey(lit)]
	e.mu.Unlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	g := e.goalStateByIdx[idx]
	e.mu.Unlock()
	return g, g != nil
}

// resolveGoalWithRule attempts to unify goalLit against rule's head using a
// fresh instantiation of rule, and if it unifies, creates a pending-rule
// node and begins working through the rule's body (spec.md §4.5's
// resolve_goal_with_rule).
func (e *Engine) resolveGoalWithRule(ctx context.Context, goalIdx int, goalLit *term.IntLiteral, rule *term.IntClause) {
	fresh := e.freshInstance(rule)
	subst, ok := unify.Unify(goalLit, fresh.Head, unify.NewSubstitution())
	if !ok {
		return
	}
	prIdx := e.state.Graph.AddPendingRuleNode()
	e.state.Graph.AddGoalToPendingRule(goalIdx, prIdx)

	ps := &pendingRuleState{graphIdx: prIdx, rule: fresh, subst: subst, goalIdx: goalIdx, hasGoal: true}
	e.mu.Lock()
	e.pending[prIdx] = ps
	e.mu.Unlock()

	e.advancePendingRule(ctx, ps)
}

// advancePendingRule resolves ps's current body literal against every
// claim that currently satisfies it. Each match spawns a fresh
// continuation pending-rule node (linked to ps via a pending-rule→
// pending-rule edge, spec.md's third edge kind) one body position further
// along, so that a subgoal with several solutions yields several
// independent continuations instead of collapsing to the first one found.
// ps itself is left registered and still waiting at the same body
// position, so a claim that arrives later (via propagate) spawns another
// continuation rather than being missed (this is what makes the
// All-SAT-loop scenario of spec.md §8 enumerate every answer instead of
// stopping at the first).
func (e *Engine) advancePendingRule(ctx context.Context, ps *pendingRuleState) {
	if ps.bodyIdx >= len(ps.rule.Body) {
		e.fireRuleHead(ps)
		e.state.Graph.Close(ps.graphIdx)
		return
	}
	lit := unify.ApplySubstitution(ps.rule.Body[ps.bodyIdx], ps.subst)

	for _, m := range e.state.ClaimsMatching(lit) {
		newSubst, ok := unify.Unify(lit, m.Val.Literal, ps.subst)
		if !ok {
			continue
		}
		e.spawnContinuation(ctx, ps, newSubst)
	}

	if e.interp != nil && e.interp.IsInterpreted(e.predName(lit)) {
		if e.interp.IsValid(lit, e.factory) {
			e.interp.Interpret(ctx, e, lit, e.factory)
		}
		_, subIdx := e.AddGoal(ctx, lit)
		e.state.Graph.AddPendingRuleToSubgoal(ps.graphIdx, subIdx)
		return
	}

	_, subIdx := e.AddGoal(ctx, lit)
	e.state.Graph.AddPendingRuleToSubgoal(ps.graphIdx, subIdx)
}

// spawnContinuation creates a new pending-rule node carrying ps one body
// position further along under the given substitution, registers it for
// future propagation, and recursively advances it.
func (e *Engine) spawnContinuation(ctx context.Context, ps *pendingRuleState, subst unify.Substitution) {
	childIdx := e.state.Graph.AddPendingRuleNode()
	e.state.Graph.AddPendingRuleToPendingRule(ps.graphIdx, childIdx)
	child := &pendingRuleState{
		graphIdx: childIdx,
		rule:     ps.rule,
		subst:    subst,
		bodyIdx:  ps.bodyIdx + 1,
		goalIdx:  ps.goalIdx,
		hasGoal:  ps.hasGoal,
	}
	e.mu.Lock()
	e.pending[childIdx] = child
	e.mu.Unlock()
	e.advancePendingRule(ctx, child)
}

func (e *Engine) fireRuleHead(ps *pendingRuleState) {
	head := unify.ApplySubstitution(ps.rule.Head, ps.subst)
	var reason *term.Reason
	if len(ps.rule.Body) > 0 {
		reason = term.ResolutionTopDownReason(ps.rule, head)
	} else {
		reason = term.AxiomReason(ps.rule)
	}
	claim := e.AddClaim(term.NewClaim(head, reason))
	if ps.hasGoal {
		e.state.Graph.AddClaim(ps.goalIdx, claim.Index)
	}
}

// propagate is the bottom-up half: for every pending rule currently
// waiting on a subgoal whose literal unifies with claim, advance it.
// Grounded on inference.py's propagate_claim_to_pending_clause.
func (e *Engine) propagate(claim *term.Claim) {
	e.mu.Lock()
	var candidates []*pendingRuleState
	for _, ps := range e.pending {
		if ps.bodyIdx >= len(ps.rule.Body) {
			continue
		}
		lit := unify.ApplySubstitution(ps.rule.Body[ps.bodyIdx], ps.subst)
		if lit.Pred != claim.Literal.Pred || len(lit.Args) != len(claim.Literal.Args) {
			continue
		}
		candidates = append(candidates, ps)
	}
	e.mu.Unlock()

	for _, ps := range candidates {
		lit := unify.ApplySubstitution(ps.rule.Body[ps.bodyIdx], ps.subst)
		newSubst, ok := unify.Unify(lit, claim.Literal, ps.subst)
		if !ok {
			continue
		}
		e.state.Graph.IncSubgoalIndex(ps.graphIdx)
		e.spawnContinuation(context.Background(), ps, newSubst)
	}

	// Attach the claim to the goal whose literal is exactly the claim's
	// literal, if there is one.
	e.mu.Lock()
	idx, ok := e.goalGraphByLit[vecKey(claim.Literal)]
	e.mu.Unlock()
	if ok {
		e.state.Graph.AddClaim(idx, claim.Index)
	}
}

// CheckStuckGoals re-validates every stuck goal against the current
// interpret-state and moves it back to open if it has become interpretable
// (spec.md §4.5's stuck-goal lifecycle).
func (e *Engine) CheckStuckGoals(ctx context.Context) {
	if e.interp == nil {
		return
	}
	for _, g := range e.state.AllStuckGoals() {
		if e.interp.IsValid(g.Literal, e.factory) {
			e.state.MoveStuckToGoal(g)
			e.interp.Interpret(ctx, e, g.Literal, e.factory)
		}
	}
}

// Close delegates to the dependency graph for the goal's graph node.
func (e *Engine) Close(goalLit *term.IntLiteral) {
	e.mu.Lock()
	idx, ok := e.goalGraphByLit[vecKey(goalLit)]
	e.mu.Unlock()
	if ok {
		e.state.Graph.Close(idx)
	}
}

// IsCompleted reports whether goalLit's graph node is Completed.
func (e *Engine) IsCompleted(goalLit *term.IntLiteral) bool {
	e.mu.Lock()
	idx, ok := e.goalGraphByLit[vecKey(goalLit)]
	e.mu.Unlock()
	return ok && e.state.Graph.IsCompleted(idx)
}

func (e *Engine) closeAll() {
	e.mu.Lock()
	idxs := make([]int, 0, len(e.goalGraphByLit))
	for _, idx := range e.goalGraphByLit {
		idxs = append(idxs, idx)
	}
	e.mu.Unlock()
	for _, idx := range idxs {
		e.state.Graph.Close(idx)
	}
}

// GetClaimsMatchingGoal returns every stored claim unifying with goalLit
// (inference.py's get_claims_matching_goal / is_entailed). The engine
// façade's GetSubstitutions reads LogicalState.ClaimsMatching directly
// and does not call this.
func (e *Engine) GetClaimsMatchingGoal(goalLit *term.IntLiteral) []*term.Claim {
	var out []*term.Claim
	for _, m := range e.state.ClaimsMatching(goalLit) {
		out = append(out, m.Val)
	}
	return out
}

// IsEntailed reports whether at least one claim satisfies goalLit. No
// code in this module calls it.
func (e *Engine) IsEntailed(goalLit *term.IntLiteral) bool {
	return len(e.GetClaimsMatchingGoal(goalLit)) > 0

}

// Status exposes the graph annotation status for logging/CLI use.
func (e *Engine) Status(goalLit *term.IntLiteral) (graph.Status, bool) {
	e.mu.Lock()
	idx, ok := e.goalGraphByLit[vecKey(goalLit)]
	e.mu.Unlock()
	if !ok {
		return graph.StatusOpen, false
	}
	a := e.state.Graph.GetAnnotation(idx)
	if a == nil {
		return graph.StatusOpen, false
	}
	return a.Status, true
}
