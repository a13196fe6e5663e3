// Package state implements the logical state described in spec.md §4.4:
// the clause store, the claims/goals/stuck-goals indexes, the global
// insertion-order clock, and the dependency graph, all reachable under one
// lock. Grounded on
// _examples/original_source/etb/datalog/model.py's LogicalState.
package state

import (
	"sync"
	"time"

	"github.com/evidentialbus/etbcore/pkg/graph"
	"github.com/evidentialbus/etbcore/pkg/index"
	"github.com/evidentialbus/etbcore/pkg/term"
)

// Goal is an open (or stuck) query literal tracked by the logical state.
// Index is the insertion-order tick it was added at (spec.md's "index"
// field, used for deterministic graph traversal and logging).
type Goal struct {
	Literal *term.IntLiteral
	Index   int
}

// LogicalState is the single source of truth for clauses, claims, goals
// and the dependency graph. Each method takes the lock for its own
// duration and never calls another locking method while holding it, so
// the lock is a plain sync.Mutex, not a re-entrant one (see DESIGN.md's
// reentrancy note). The dependency graph's close/complete recursion runs
// under the graph's own mutex, not this one.
type LogicalState struct {
	mu   sync.Mutex
	cond *sync.Cond

	allClauses []*term.IntClause
	heads      *index.Index[*term.IntClause]

	claims *index.Index[*term.Claim]

	goals      *index.Index[*Goal]
	stuckGoals *index.Index[*Goal]

	globalTime int

	Graph *graph.DependencyGraph

	slowMode time.Duration
}

// New creates an empty LogicalState.
func New() *LogicalState {
	ls := &LogicalState{
		heads:      index.New[*term.IntClause](),
		claims:     index.New[*term.Claim](),
		goals:      index.New[*Goal](),
		stuckGoals: index.New[*Goal](),
		Graph:      graph.New(),
	}
	ls.cond = sync.NewCond(&ls.mu)
	return ls
}

// Lock and Unlock expose the state's mutex directly. Nothing in this
// module calls them; every LogicalState method takes the mutex itself, so
// calling one while holding it deadlocks.
func (ls *LogicalState) Lock()   { ls.mu.Lock() }
func (ls *LogicalState) Unlock() { ls.mu.Unlock() }

// Cond returns the condition variable signaled whenever the state
// changes, used by callers waiting for a stuck goal to resolve or for
// completion to become possible.
func (ls *LogicalState) Cond() *sync.Cond { return ls.cond }

// GoSlow makes every subsequent mutation pause for d before returning,
// for debugging/demonstration (spec.md §4.7's GoSlow, grounded on
// model.py.go_slow). GoNormal cancels it.
func (ls *LogicalState) GoSlow(d time.Duration) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.slowMode = d
}

func (ls *LogicalState) GoNormal() { ls.GoSlow(0) }

func (ls *LogicalState) throttle() {
	if ls.slowMode > 0 {
		time.Sleep(ls.slowMode)
	}
}

// tick returns the next global-time value and advances the clock. Caller
// must hold the lock.
func (ls *LogicalState) tick() int {
	t := ls.globalTime
	ls.globalTime++
	return t
}

// GlobalTime returns the current clock value without advancing it.
func (ls *LogicalState) GlobalTime() int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.globalTime
}

// AddClause stores a clause (fact or rule) definition, indexed by its
// head, so that future goals can look up candidate generalizations.
// Facts are also claims once the inference engine asserts them (see
// pkg/inference); AddClause alone does not create a claim.
func (ls *LogicalState) AddClause(c *term.IntClause) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.throttle()
	ls.allClauses = append(ls.allClauses, c)
	ls.heads.Add(c.Head, c)
	ls.cond.Broadcast()
}

// AllClauses returns every clause stored so far.
func (ls *LogicalState) AllClauses() []*term.IntClause {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	out := make([]*term.IntClause, len(ls.allClauses))
	copy(out, ls.allClauses)
	return out
}

// RuleGeneralizations returns every stored clause whose head is a
// generalization of lit — candidate rules/facts that could resolve a goal
// matching lit (spec.md §4.2's "generalizations" mode).
func (ls *LogicalState) RuleGeneralizations(lit *term.IntLiteral) []*term.IntClause {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.heads.Generalizations(lit)
}

// AddClaim assigns the claim its insertion-order index, stores it, and
// wakes anything waiting on the condition variable. It does not touch the
// dependency graph; pkg/inference does that as part of claim propagation,
// since only the inference engine knows which goal or pending rule a
// claim should be attached to.
func (ls *LogicalState) AddClaim(c *term.Claim) *term.Claim {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.throttle()
	c.Index = ls.tick()
	ls.claims.Add(c.Literal, c)
	ls.cond.Broadcast()
	return c
}

// ClaimsMatching returns every stored claim that unifies with lit, paired
// with the unifying substitution (spec.md §4.2's "matchings" mode).
func (ls *LogicalState) ClaimsMatching(lit *term.IntLiteral) []index.Matching[*term.Claim] {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.claims.Matchings(lit)
}

// AllClaims returns every stored claim.
func (ls *LogicalState) AllClaims() []*term.Claim {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.claims.All()
}

// AddGoal registers a new open goal and returns it. Callers must first
// check IsRenamingPresent to avoid duplicating an equivalent goal
// (spec.md's goal-deduplication design).
func (ls *LogicalState) AddGoal(lit *term.IntLiteral) *Goal {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.throttle()
	g := &Goal{Literal: lit, Index: ls.tick()}
	ls.goals.Add(lit, g)
	ls.cond.Broadcast()
	return g
}

// IsRenamingPresent reports whether an open goal that is a pure variable
// renaming of lit already exists, and returns it if so (spec.md glossary
// "Renaming", model.py.is_renaming_present_of_goal).
func (ls *LogicalState) IsRenamingPresent(lit *term.IntLiteral) (*Goal, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	cands := ls.goals.Renamings(lit)
	if len(cands) == 0 {
		return nil, false
	}
	return cands[0], true
}

// IsGoal reports whether lit (up to exact match) is currently an open
// goal.
func (ls *LogicalState) IsGoal(lit *term.IntLiteral) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, g := range ls.goals.Renamings(lit) {
		if literalEqual(g.Literal, lit) {
			return true
		}
	}
	return false
}

// IsStuckGoal reports whether lit is currently a stuck goal.
func (ls *LogicalState) IsStuckGoal(lit *term.IntLiteral) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, g := range ls.stuckGoals.Renamings(lit) {
		if literalEqual(g.Literal, lit) {
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

// MoveGoalToStuck removes g from the open-goal index and adds it to the
// stuck-goal index (spec.md's stuck-goal lifecycle).
func (ls *LogicalState) MoveGoalToStuck(g *Goal) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.goals.Remove(g.Literal, func(c *Goal) bool { return c == g })
	ls.stuckGoals.Add(g.Literal, g)
	ls.cond.Broadcast()
}

// MoveStuckToGoal reverses MoveGoalToStuck, used when an external
// collaborator becomes able to interpret a previously-stuck predicate.
func (ls *LogicalState) MoveStuckToGoal(g *Goal) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.stuckGoals.Remove(g.Literal, func(c *Goal) bool { return c == g })
	ls.goals.Add(g.Literal, g)
	ls.cond.Broadcast()
}

// AllGoals returns every currently open goal.
func (ls *LogicalState) AllGoals() []*Goal {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.goals.All()
}

// AllStuckGoals returns every currently stuck goal.
func (ls *LogicalState) AllStuckGoals() []*Goal {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.stuckGoals.All()
}

// NoStuckSubgoals reports whether the dependency graph has no stuck
// subgoal reachable from root — delegated to Graph, exposed here because
// the stuck-goal index and the graph must agree while the lock is held.
func (ls *LogicalState) NoStuckSubgoals(root int) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	stuck := ls.stuckGoals.All()
	stuckIdx := make(map[int]bool, len(stuck))
	for _, g := range stuck {
		stuckIdx[g.Index] = true
	}
	return ls.Graph.NoStuckSubgoals(root, stuckIdx)
}
