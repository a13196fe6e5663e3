package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGoalClosesOnceItHasNoOpenPendingRuleChildren(t *testing.T) {
	g := New()
	goal := g.AddGoalNode()
	pr := g.AddPendingRuleNode()
	g.AddGoalToPendingRule(goal, pr)

	require.False(t, g.IsClosed(goal), "a goal with an open pending-rule child cannot be closed yet")

	g.Close(pr)
	require.True(t, g.IsClosed(pr))
	g.Close(goal)
	require.True(t, g.IsClosed(goal))
}

func TestPendingRuleRequiresEveryContinuationClosed(t *testing.T) {
	g := New()
	parent := g.AddPendingRuleNode()
	childA := g.AddPendingRuleNode()
	childB := g.AddPendingRuleNode()
	g.AddPendingRuleToPendingRule(parent, childA)
	g.AddPendingRuleToPendingRule(parent, childB)

	g.Close(childA)
	g.Close(parent)
	require.False(t, g.IsClosed(parent), "childB is still open, so parent cannot close yet")

	g.Close(childB)
	g.Close(parent)
	require.True(t, g.IsClosed(parent))
}

func TestCompletedRequiresTransitiveClosureAcrossCycle(t *testing.T) {
	g := New()
	a := g.AddGoalNode()
	b := g.AddGoalNode()
	prA := g.AddPendingRuleNode()
	prB := g.AddPendingRuleNode()

	// A mutually-dependent pair: a's pending rule depends on b's subgoal
	// and vice versa (spec.md §9(c) allows self/mutual reference in gT).
	g.AddGoalToPendingRule(a, prA)
	g.AddPendingRuleToSubgoal(prA, b)
	g.AddGoalToPendingRule(b, prB)
	g.AddPendingRuleToSubgoal(prB, a)

	g.Close(prA)
	g.Close(prB)
	g.Close(a)
	g.Close(b)

	require.True(t, g.IsClosed(a))
	require.True(t, g.IsClosed(b))
	require.True(t, g.IsCompleted(a), "a mutually-dependent closed cluster should promote to completed")
	require.True(t, g.IsCompleted(b))
}

func TestAddClaimPromotesOpenToResolved(t *testing.T) {
	g := New()
	goal := g.AddGoalNode()
	require.Equal(t, StatusOpen, g.GetAnnotation(goal).Status)

	g.AddClaim(goal, 0)
	require.Equal(t, StatusResolved, g.GetAnnotation(goal).Status)
}
