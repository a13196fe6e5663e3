package unify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evidentialbus/etbcore/pkg/term"
)

func lit(pred int, args ...int) *term.IntLiteral {
	return &term.IntLiteral{Pred: pred, Args: args}
}

func TestUnifyBindsVariableToConstant(t *testing.T) {
	s, ok := Unify(lit(1, -1), lit(1, 2), NewSubstitution())
	require.True(t, ok)
	require.Equal(t, 2, s.Walk(-1))
}

func TestUnifyFailsOnPredicateMismatch(t *testing.T) {
	_, ok := Unify(lit(1, 2), lit(2, 2), NewSubstitution())
	require.False(t, ok)
}

func TestUnifyFailsOnArityMismatch(t *testing.T) {
	_, ok := Unify(lit(1, 2), lit(1, 2, 3), NewSubstitution())
	require.False(t, ok)
}

func TestUnifyFailsOnDistinctConstants(t *testing.T) {
	_, ok := Unify(lit(1, 2), lit(1, 3), NewSubstitution())
	require.False(t, ok)
}

func TestBindRejectsOccursCycle(t *testing.T) {
	s := NewSubstitution()
	s, ok := s.Bind(-1, -2)
	require.True(t, ok)
	// Binding -2 back to -1 would close a cycle through the existing
	// binding (-1 -> -2), which the occurs check must reject.
	_, ok = s.Bind(-2, -1)
	require.False(t, ok)
}

func TestWalkFollowsChainToGround(t *testing.T) {
	s := NewSubstitution()
	s, _ = s.Bind(-1, -2)
	s, _ = s.Bind(-2, 7)
	require.Equal(t, 7, s.Walk(-1))
}

func TestApplySubstitutionLeavesUnboundVariablesAsVariables(t *testing.T) {
	s := NewSubstitution()
	s, _ = s.Bind(-1, 5)
	out := ApplySubstitution(lit(1, -1, -2), s)
	require.Equal(t, []int{5, -2}, out.Args)
}

func TestIsGroundReportsFreeVariables(t *testing.T) {
	s := NewSubstitution()
	s, _ = s.Bind(-1, 5)
	require.True(t, IsGround(lit(1, -1), s))
	require.False(t, IsGround(lit(1, -2), s))
}

func TestIsRenamingAcceptsBijectiveVariableCorrespondence(t *testing.T) {
	a := lit(1, -1, -2, -1)
	b := lit(1, -10, -20, -10)
	require.True(t, IsRenaming(a, b))
}

func TestIsRenamingRejectsNonBijectiveCorrespondence(t *testing.T) {
	a := lit(1, -1, -1)
	b := lit(1, -10, -20)
	require.False(t, IsRenaming(a, b), "both positions bind to the same variable in a but different variables in b")
}

func TestIsRenamingRejectsConstantMismatch(t *testing.T) {
	a := lit(1, -1, 5)
	b := lit(1, -10, 6)
	require.False(t, IsRenaming(a, b))
}

func TestShiftClausePreservesSharedVariableAcrossHeadAndBody(t *testing.T) {
	c := &term.IntClause{
		Kind: term.KindDerivationRule,
		Head: lit(1, -1),
		Body: []*term.IntLiteral{lit(2, -1)},
	}
	shifted := ShiftClause(c, 100)
	require.Equal(t, shifted.Head.Args[0], shifted.Body[0].Args[0])
	require.NotEqual(t, c.Head.Args[0], shifted.Head.Args[0])
}
