package inference

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evidentialbus/etbcore/pkg/parse"
	"github.com/evidentialbus/etbcore/pkg/state"
	"github.com/evidentialbus/etbcore/pkg/term"
)

// newEngine builds a fresh factory/state/engine triple and loads src as a
// Datalog program, failing the test on any parse or intern error.
func newEngine(t *testing.T, src string) (*term.Factory, *state.LogicalState, *Engine) {
	t.Helper()
	f := term.NewFactory()
	st := state.New()
	e := New(f, st)

	clauses, errs := parse.ParseProgram(src)
	require.Empty(t, errs)
	for _, c := range clauses {
		ic, err := f.InternClause(c)
		require.NoError(t, err)
		e.AddRule(ic)
	}
	return f, st, e
}

func queryLit(t *testing.T, f *term.Factory, src string) *term.IntLiteral {
	t.Helper()
	lit, err := parse.ParseLiteral(src)
	require.NoError(t, err)
	il, err := f.InternLiteral(lit, map[string]int{})
	require.NoError(t, err)
	return il
}

func externalizeStrings(t *testing.T, f *term.Factory, claims []*term.Claim) []string {
	t.Helper()
	out := make([]string, len(claims))
	for i, c := range claims {
		lit, err := f.ExternalizeLiteral(c.Literal)
		require.NoError(t, err)
		out[i] = lit.String()
	}
	return out
}

func TestGraphReachabilityDerivesTransitiveClosure(t *testing.T) {
	f, _, e := newEngine(t, `
		edge(a, b).
		edge(b, c).
		path(X, Y) :- edge(X, Y).
		path(X, Y) :- edge(X, Z), path(Z, Y).
	`)
	ctx := context.Background()

	goal := queryLit(t, f, "path(a, X)")
	_, _ = e.AddGoal(ctx, goal)

	matches := externalizeStrings(t, f, e.GetClaimsMatchingGoal(goal))
	require.ElementsMatch(t, []string{"path(a, b)", "path(a, c)"}, matches)
}

// TestGoalCompletesOnceItsSubgoalIsExplicitlyClosed exercises the close
// cascade through a pending rule: closing the subgoal p(X) (re-fetched via
// the engine's renaming-dedup, since the engine never hands pending-rule or
// subgoal graph indices to callers directly) is enough for Close to
// propagate all the way up through the pending rule to the original goal.
func TestGoalCompletesOnceItsSubgoalIsExplicitlyClosed(t *testing.T) {
	f, st, e := newEngine(t, `
		p(1).
		p(2).
		q(X) :- p(X).
	`)
	ctx := context.Background()

	goal := queryLit(t, f, "q(X)")
	_, idx := e.AddGoal(ctx, goal)
	require.Len(t, e.GetClaimsMatchingGoal(goal), 2)

	pGoal := queryLit(t, f, "p(X)")
	_, pIdx := e.AddGoal(ctx, pGoal) // reuses the existing open p(X) subgoal
	st.Graph.Close(pIdx)

	require.True(t, st.Graph.IsCompleted(idx), "closing the subgoal should cascade up to the top-level goal")
}

// TestMutualRecursionClosesAsACycle mirrors spec.md §8's ping-pong-across-
// nodes scenario at the single-engine level: two predicates recurse purely
// into each other with no base case, so the goal-dependency graph forms a
// genuine cycle and neither side could ever become any child's "closed"
// prerequisite first. Both participating goals must still resolve to
// Completed once both callers agree no more solutions are coming.
func TestMutualRecursionClosesAsACycle(t *testing.T) {
	f, st, e := newEngine(t, `
		p(X) :- q(X).
		q(X) :- p(X).
	`)
	ctx := context.Background()

	pLit := queryLit(t, f, "p(a)")
	_, pIdx := e.AddGoal(ctx, pLit)
	require.Empty(t, e.GetClaimsMatchingGoal(pLit))

	qLit := queryLit(t, f, "q(a)")
	_, qIdx := e.AddGoal(ctx, qLit) // reuses the subgoal q(a) created while resolving p(a)

	st.Graph.Close(pIdx)
	st.Graph.Close(qIdx)

	require.True(t, st.Graph.IsCompleted(pIdx))
	require.True(t, st.Graph.IsCompleted(qIdx))
}

// stubInterpretState is a minimal InterpretState used only by these tests:
// "answer" asserts a single ground fact and closes, "boom" always reports
// an error, "enumerate" asserts one claim per value supplied.
type stubInterpretState struct{}

func (s *stubInterpretState) IsInterpreted(pred string) bool {
	return pred == "answer" || pred == "boom" || pred == "enumerate"
}

func (s *stubInterpretState) IsValid(lit *term.IntLiteral, f *term.Factory) bool { return true }

func (s *stubInterpretState) Interpret(ctx context.Context, core Core, lit *term.IntLiteral, f *term.Factory) {
	name, err := f.Externalize(lit.Pred)
	if err != nil {
		core.AddErrors([]error{err})
		return
	}
	switch name.IDValue() {
	case "answer":
		core.AddClaim(term.NewClaim(lit, term.OpaqueReason("stub answer")))
		core.PushNoSolutions(lit) // no further answers will ever arrive
	case "boom":
		core.AddErrors([]error{fmt.Errorf("wrapper exploded")})
		core.PushNoSolutions(lit)
	case "enumerate":
		for i := 1; i <= 3; i++ {
			v := f.InternConst(term.NewNumberConst(float64(i)))
			claimLit := &term.IntLiteral{Pred: lit.Pred, Args: []int{v}}
			core.AddClaim(term.NewClaim(claimLit, term.OpaqueReason("enumerated")))
		}
		core.PushNoSolutions(lit)
	}
}

func TestInterpretedLeafAssertsAndClosesWithoutAnyRule(t *testing.T) {
	f, st, e := newEngine(t, ``)
	e.SetInterpretState(&stubInterpretState{})
	ctx := context.Background()

	goal := queryLit(t, f, "answer(x)")
	_, idx := e.AddGoal(ctx, goal)

	require.Len(t, e.GetClaimsMatchingGoal(goal), 1)
	require.True(t, st.Graph.IsClosed(idx), "PushNoSolutions should close the goal directly")
}

func TestErrorFromWrapperBecomesAnOpaqueClaim(t *testing.T) {
	f, _, e := newEngine(t, ``)
	e.SetInterpretState(&stubInterpretState{})
	ctx := context.Background()

	goal := queryLit(t, f, "boom(x)")
	e.AddGoal(ctx, goal)

	errLit, err := parse.ParseLiteral(`error(X)`)
	require.NoError(t, err)
	errIL, err := f.InternLiteral(errLit, map[string]int{})
	require.NoError(t, err)

	matches := e.GetClaimsMatchingGoal(errIL)
	require.Len(t, matches, 1)
	require.Equal(t, term.ReasonOpaque, matches[0].Reason.Kind)
}

func TestAllSatLoopEnumeratesEveryInterpretedSolution(t *testing.T) {
	f, _, e := newEngine(t, ``)
	e.SetInterpretState(&stubInterpretState{})
	ctx := context.Background()

	goal := queryLit(t, f, "enumerate(X)")
	_, idx := e.AddGoal(ctx, goal)

	matches := externalizeStrings(t, f, e.GetClaimsMatchingGoal(goal))
	require.ElementsMatch(t, []string{"enumerate(1)", "enumerate(2)", "enumerate(3)"}, matches)
	require.True(t, e.state.Graph.IsClosed(idx))
}

func TestRangeEnumerationViaBaseFacts(t *testing.T) {
	f, _, e := newEngine(t, `
		in_range(1).
		in_range(2).
		in_range(3).
		in_range(4).
		in_range(5).
		small(X) :- in_range(X).
	`)
	ctx := context.Background()

	goal := queryLit(t, f, "small(X)")
	e.AddGoal(ctx, goal)

	matches := externalizeStrings(t, f, e.GetClaimsMatchingGoal(goal))
	require.Len(t, matches, 5)
}
