package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evidentialbus/etbcore/pkg/term"
)

func lit(pred int, args ...int) *term.IntLiteral {
	return &term.IntLiteral{Pred: pred, Args: args}
}

func TestGeneralizationsFindsVariableHeads(t *testing.T) {
	idx := New[string]()
	idx.Add(lit(1, -1), "rule-any-arg")
	idx.Add(lit(1, 5), "fact-5-only")

	got := idx.Generalizations(lit(1, 5))
	require.ElementsMatch(t, []string{"rule-any-arg", "fact-5-only"}, got)

	got = idx.Generalizations(lit(1, 6))
	require.Equal(t, []string{"rule-any-arg"}, got)
}

func TestSpecializationsFindsGroundEntries(t *testing.T) {
	idx := New[string]()
	idx.Add(lit(1, 5), "ground")
	idx.Add(lit(1, -1), "variable")

	got := idx.Specializations(lit(1, -1))
	require.ElementsMatch(t, []string{"ground", "variable"}, got)
}

func TestMatchingsUsesRealUnificationAfterTreeFilter(t *testing.T) {
	idx := New[string]()
	idx.Add(lit(1, -1, -1), "same-var-twice") // X, X
	idx.Add(lit(1, -1, -2), "distinct-vars")  // X, Y

	matches := idx.Matchings(lit(1, 5, 5))
	var labels []string
	for _, m := range matches {
		labels = append(labels, m.Val)
	}
	require.ElementsMatch(t, []string{"same-var-twice", "distinct-vars"}, labels)

	matches = idx.Matchings(lit(1, 5, 6))
	require.Len(t, matches, 1, "same-var-twice cannot unify with two different constants")
	require.Equal(t, "distinct-vars", matches[0].Val)
}

func TestRenamingsRequiresBijectiveCorrespondence(t *testing.T) {
	idx := New[string]()
	idx.Add(lit(1, -1, -2), "xy")
	idx.Add(lit(1, -1, -1), "xx")

	got := idx.Renamings(lit(1, -10, -20))
	require.Equal(t, []string{"xy"}, got)
}

func TestRemoveDeletesOnlyMatchingEntry(t *testing.T) {
	idx := New[string]()
	idx.Add(lit(1, 5), "a")
	idx.Add(lit(1, 5), "b")

	removed := idx.Remove(lit(1, 5), func(v string) bool { return v == "a" })
	require.True(t, removed)
	require.Equal(t, []string{"b"}, idx.All())
}

func TestAllReturnsEveryEntry(t *testing.T) {
	idx := New[string]()
	idx.Add(lit(1, 5), "a")
	idx.Add(lit(2, -1), "b")
	require.ElementsMatch(t, []string{"a", "b"}, idx.All())
}

