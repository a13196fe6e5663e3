package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evidentialbus/etbcore/pkg/term"
	"github.com/evidentialbus/etbcore/pkg/wire"
)

func TestLoadRulesSkipsBadClauseButKeepsTheRest(t *testing.T) {
	fc := New(nil)
	err := fc.LoadRules(`
		junk(1).
		@@@.
		edge(a, b).
		edge(b, c).
		path(X, Y) :- edge(X, Y).
		path(X, Y) :- edge(X, Z), path(Z, Y).
	`)
	require.Error(t, err, "the malformed clause should be reported")

	ctx := context.Background()
	_, _, qerr := fc.Query(ctx, term.NewLiteral("path", term.NewIDConst("a"), term.NewVar("X")))
	require.NoError(t, qerr)

	subs, err := fc.GetSubstitutions(term.NewLiteral("path", term.NewIDConst("a"), term.NewVar("X")))
	require.NoError(t, err)
	require.Len(t, subs, 2, "the surrounding well-formed clauses should still have loaded")
}

func TestQueryAndGetSubstitutionsRoundTrip(t *testing.T) {
	fc := New(nil)
	require.NoError(t, fc.LoadRules(`
		likes(alice, bob).
		likes(alice, carol).
	`))

	ctx := context.Background()
	_, _, err := fc.Query(ctx, term.NewLiteral("likes", term.NewIDConst("alice"), term.NewVar("Who")))
	require.NoError(t, err)

	subs, err := fc.GetSubstitutions(term.NewLiteral("likes", term.NewIDConst("alice"), term.NewVar("Who")))
	require.NoError(t, err)
	require.Len(t, subs, 2)

	var whos []string
	for _, s := range subs {
		whos = append(whos, s["Who"].String())
	}
	require.ElementsMatch(t, []string{"bob", "carol"}, whos)
}

func TestCloseAndIsCompletedDelegateToInference(t *testing.T) {
	fc := New(nil)
	require.NoError(t, fc.LoadRules(`fact(1).`))

	ctx := context.Background()
	il, _, err := fc.Query(ctx, term.NewLiteral("fact", term.NewVar("X")))
	require.NoError(t, err)

	require.False(t, fc.IsCompleted(il), "nothing closes the goal until Close is called")
	fc.Close(il)
	require.True(t, fc.IsCompleted(il))
}

func TestGetRuleAndFactsExplanationWalksReasonChain(t *testing.T) {
	fc := New(nil)
	require.NoError(t, fc.LoadRules(`
		edge(a, b).
		path(X, Y) :- edge(X, Y).
	`))

	ctx := context.Background()
	il, _, err := fc.Query(ctx, term.NewLiteral("path", term.NewVar("X"), term.NewVar("Y")))
	require.NoError(t, err)

	claims := fc.Inference.GetClaimsMatchingGoal(il)
	require.Len(t, claims, 1)

	tree, err := fc.GetRuleAndFactsExplanation(claims[0])
	require.NoError(t, err)
	require.Equal(t, "path(a, b)", tree.Literal)
	require.Len(t, tree.Children, 1)
	require.Equal(t, "edge(a, b)", tree.Children[0].Literal)
	require.Empty(t, tree.Children[0].Children)
}

func TestAddGoalResultsLoadsPersistedClaims(t *testing.T) {
	f := term.NewFactory()
	fact := term.NewFact(term.NewLiteral("edge", term.NewIDConst("a"), term.NewIDConst("b")))
	ic, err := f.InternClause(fact)
	require.NoError(t, err)
	claim := term.NewClaim(ic.Head, term.AxiomReason(ic))
	claim.Index = 0
	wc, err := wire.EncodeClaim(f, claim)
	require.NoError(t, err)

	fc := New(nil)
	require.NoError(t, fc.AddGoalResults(&wire.Document{Claims: []wire.Claim{wc}}))

	matches, err := fc.GetSubstitutions(term.NewLiteral("edge", term.NewIDConst("a"), term.NewVar("Y")))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "b", matches[0]["Y"].String())
}

func TestLoadGoalsReopensPersistedGoalsAsLiveGoals(t *testing.T) {
	f := term.NewFactory()
	goalLit, err := f.InternLiteral(term.NewLiteral("edge", term.NewIDConst("a"), term.NewVar("Y")), map[string]int{})
	require.NoError(t, err)
	wl, err := f.ExternalizeLiteral(goalLit)
	require.NoError(t, err)

	fc := New(nil)
	require.NoError(t, fc.LoadRules(`edge(a, b).`))

	ctx := context.Background()
	require.NoError(t, fc.LoadGoals(ctx, &wire.Document{Goals: []wire.Literal{wire.EncodeLiteral(wl)}}))

	reopened, err := fc.Factory.InternLiteral(wl, map[string]int{})
	require.NoError(t, err)
	// reopened was interned again under a fresh variable int, so it is a
	// renaming of the reloaded goal rather than an exact match.
	_, live := fc.State.IsRenamingPresent(reopened)
	require.True(t, live)
}
