package interp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/evidentialbus/etbcore/pkg/term"
)

// recordingCore is a minimal inference.Core used to observe what Interpret
// reports without pulling in the real inference engine; every call also
// signals done so a test can wait for the async pool job to land.
type recordingCore struct {
	mu          sync.Mutex
	claims      []*term.Claim
	errs        []error
	noSolutions []*term.IntLiteral
	done        chan struct{}
}

func newRecordingCore() *recordingCore {
	return &recordingCore{done: make(chan struct{}, 16)}
}

func (c *recordingCore) AddClaim(claim *term.Claim) *term.Claim {
	c.mu.Lock()
	c.claims = append(c.claims, claim)
	c.mu.Unlock()
	c.done <- struct{}{}
	return claim
}

func (c *recordingCore) AddClaims(claims []*term.Claim) {
	c.mu.Lock()
	c.claims = append(c.claims, claims...)
	c.mu.Unlock()
	c.done <- struct{}{}
}

func (c *recordingCore) AddErrors(errs []error) {
	c.mu.Lock()
	c.errs = append(c.errs, errs...)
	c.mu.Unlock()
	c.done <- struct{}{}
}

func (c *recordingCore) AddPendingRule(rule *term.IntClause) int { return 0 }

func (c *recordingCore) PushNoSolutions(goal *term.IntLiteral) {
	c.mu.Lock()
	c.noSolutions = append(c.noSolutions, goal)
	c.mu.Unlock()
	c.done <- struct{}{}
}

func (c *recordingCore) waitForCall(t *testing.T) {
	t.Helper()
	select {
	case <-c.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for wrapper pool job to report back")
	}
}

func TestStateIsInterpretedOnlyForRegisteredPredicates(t *testing.T) {
	s := New(nil, 1)
	defer s.Close()

	require.True(t, s.IsInterpreted("ping"))
	require.True(t, s.IsInterpreted("in_range"))
	require.False(t, s.IsInterpreted("no_such_predicate"))
}

func TestStateIsValidChecksArityAndGroundArgs(t *testing.T) {
	s := New(nil, 1)
	defer s.Close()
	f := term.NewFactory()

	ground := &term.IntLiteral{Pred: f.InternConst(term.NewIDConst("ping")), Args: []int{f.InternConst(term.NewIDConst("n1"))}}
	require.True(t, s.IsValid(ground, f))

	notGround := &term.IntLiteral{Pred: f.InternConst(term.NewIDConst("ping")), Args: []int{f.FreshVar("X")}}
	require.False(t, s.IsValid(notGround, f))

	unregistered := &term.IntLiteral{Pred: f.InternConst(term.NewIDConst("nope")), Args: nil}
	require.False(t, s.IsValid(unregistered, f))
}

func TestStateInterpretRunsWrapperAndReportsClaim(t *testing.T) {
	s := New(nil, 1)
	defer s.Close()
	f := term.NewFactory()
	core := newRecordingCore()

	lit := &term.IntLiteral{Pred: f.InternConst(term.NewIDConst("ping")), Args: []int{f.InternConst(term.NewIDConst("n1"))}}
	s.Interpret(context.Background(), core, lit, f)
	core.waitForCall(t)

	core.mu.Lock()
	defer core.mu.Unlock()
	require.Len(t, core.claims, 1)
}

func TestStateInterpretReportsWrapperErrors(t *testing.T) {
	s := New(nil, 1)
	defer s.Close()
	f := term.NewFactory()
	core := newRecordingCore()

	lit := &term.IntLiteral{Pred: f.InternConst(term.NewIDConst("errorwrapper")), Args: []int{f.InternConst(term.NewStringConst("oops"))}}
	s.Interpret(context.Background(), core, lit, f)
	core.waitForCall(t)

	core.mu.Lock()
	defer core.mu.Unlock()
	require.Empty(t, core.claims)
	require.Len(t, core.errs, 1)
}

func TestStateInterpretPushesNoSolutionsOnEmptyResult(t *testing.T) {
	s := New(nil, 1)
	defer s.Close()
	f := term.NewFactory()
	core := newRecordingCore()

	// hi < lo yields zero claims and zero errors from in_range.
	lit := &term.IntLiteral{
		Pred: f.InternConst(term.NewIDConst("in_range")),
		Args: []int{f.FreshVar("I"), f.InternConst(term.NewNumberConst(5)), f.InternConst(term.NewNumberConst(0))},
	}
	s.Interpret(context.Background(), core, lit, f)
	core.waitForCall(t)

	core.mu.Lock()
	defer core.mu.Unlock()
	require.Len(t, core.noSolutions, 1)
}

func TestStateInterpretIgnoresUnregisteredPredicate(t *testing.T) {
	s := New(nil, 1)
	defer s.Close()
	f := term.NewFactory()
	core := newRecordingCore()

	lit := &term.IntLiteral{Pred: f.InternConst(term.NewIDConst("mystery")), Args: nil}
	s.Interpret(context.Background(), core, lit, f)

	select {
	case <-core.done:
		t.Fatal("an unregistered predicate should never reach the core")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRegisterExtendsTheDispatchTable(t *testing.T) {
	s := New(nil, 1)
	defer s.Close()
	require.False(t, s.IsInterpreted("custom"))

	s.Register("custom", genericAssertWrapper("custom"), func(lit *term.IntLiteral, f *term.Factory) bool { return true })
	require.True(t, s.IsInterpreted("custom"))
}
