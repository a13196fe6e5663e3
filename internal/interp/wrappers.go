package interp

import (
	"context"
	"fmt"

	"github.com/evidentialbus/etbcore/pkg/term"
)

// Wrapper is a single external tool call: it inspects a ground (enough)
// literal and reports the claims and/or errors it produced. Grounded on
// _examples/original_source/etb/wrapper.py's Wrapper.compute contract.
type Wrapper func(ctx context.Context, lit *term.IntLiteral, f *term.Factory) ([]*term.Claim, []error)

// Validator reports whether lit is ground enough for its Wrapper to run
// (spec.md §9.4's is_valid argument-mode check).
type Validator func(lit *term.IntLiteral, f *term.Factory) bool

func isGroundArg(i int) bool { return !term.IsInternalVar(i) }

// groundArgs reports whether every argument at the given 0-based positions
// is ground. Passing no positions means "all args must be ground".
func groundArgs(lit *term.IntLiteral, positions ...int) bool {
	if len(positions) == 0 {
		for _, a := range lit.Args {
			if !isGroundArg(a) {
				return false
			}
		}
		return true
	}
	for _, p := range positions {
		if p >= len(lit.Args) || !isGroundArg(lit.Args[p]) {
			return false
		}
	}
	return true
}

// pingWrapper answers a ping(Node) goal with a pong(Node) claim, the
// smallest possible cross-predicate external round trip (spec.md §8's
// "Ping-pong across nodes" scenario).
func pingWrapper(_ context.Context, lit *term.IntLiteral, f *term.Factory) ([]*term.Claim, []error) {
	nodeArg := lit.Args[0]
	nodeTerm, err := f.Externalize(nodeArg)
	if err != nil {
		return nil, []error{fmt.Errorf("ping: externalize node: %w", err)}
	}
	pongPred := f.InternConst(term.NewIDConst("pong"))
	claimLit := &term.IntLiteral{Pred: pongPred, Args: []int{nodeArg}}
	claim := term.NewClaim(claimLit, term.ExternalReason("ping", term.NewClaim(lit, term.OpaqueReason(nodeTerm.String()))))
	return []*term.Claim{claim}, nil
}

// pongWrapper mirrors pingWrapper so a rule body can alternate ping/pong
// calls across several hops without either predicate being a dead end.
func pongWrapper(_ context.Context, lit *term.IntLiteral, f *term.Factory) ([]*term.Claim, []error) {
	nodeArg := lit.Args[0]
	pingPred := f.InternConst(term.NewIDConst("ping"))
	claimLit := &term.IntLiteral{Pred: pingPred, Args: []int{nodeArg}}
	claim := term.NewClaim(claimLit, term.ExternalReason("pong"))
	return []*term.Claim{claim}, nil
}

// inRangeWrapper enumerates every integer in [Lo, Hi] as a ground
// in_range(I, Lo, Hi) claim (spec.md §8's "Range enumeration" scenario):
// a single interpreted goal fans out into many claims, exercising the
// engine's AddClaims batch path and the All-SAT-loop machinery together.
func inRangeWrapper(_ context.Context, lit *term.IntLiteral, f *term.Factory) ([]*term.Claim, []error) {
	loTerm, err := f.Externalize(lit.Args[1])
	if err != nil {
		return nil, []error{fmt.Errorf("in_range: externalize lo: %w", err)}
	}
	hiTerm, err := f.Externalize(lit.Args[2])
	if err != nil {
		return nil, []error{fmt.Errorf("in_range: externalize hi: %w", err)}
	}
	if loTerm.Kind() != term.KindNumberConst || hiTerm.Kind() != term.KindNumberConst {
		return nil, []error{fmt.Errorf("in_range: lo/hi must be numbers, got %s/%s", loTerm.Kind(), hiTerm.Kind())}
	}
	lo := int(loTerm.NumberValue())
	hi := int(hiTerm.NumberValue())
	if hi < lo {
		return nil, nil
	}
	const maxSpan = 10000
	if hi-lo > maxSpan {
		return nil, []error{fmt.Errorf("in_range: span %d exceeds the %d-element cap", hi-lo, maxSpan)}
	}
	claims := make([]*term.Claim, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		iInt := f.InternConst(term.NewNumberConst(float64(i)))
		claimLit := &term.IntLiteral{Pred: lit.Pred, Args: []int{iInt, lit.Args[1], lit.Args[2]}}
		claims = append(claims, term.NewClaim(claimLit, term.ExternalReason("in_range")))
	}
	return claims, nil
}

// errorWrapperFn always reports failure, used to exercise spec.md §8's
// "Error claim" scenario and §7's Wrapper-error taxonomy end to end: the
// message argument is echoed back in the reported error.
func errorWrapperFn(_ context.Context, lit *term.IntLiteral, f *term.Factory) ([]*term.Claim, []error) {
	msgTerm, err := f.Externalize(lit.Args[0])
	if err != nil {
		return nil, []error{fmt.Errorf("errorwrapper: externalize message: %w", err)}
	}
	return nil, []error{fmt.Errorf("errorwrapper: %s", msgTerm.String())}
}

// genericAssertWrapper builds a Wrapper for a config-declared predicate
// (see config.go) that simply re-asserts its literal as a claim (ground at
// the positions its validator checks), citing pred as the external tool.
func genericAssertWrapper(pred string) Wrapper {
	return func(_ context.Context, lit *term.IntLiteral, f *term.Factory) ([]*term.Claim, []error) {
		return []*term.Claim{term.NewClaim(lit, term.ExternalReason(pred))}, nil
	}
}

// yicesCheckWrapper is a stub standing in for a real SMT-solver wrapper
// (spec.md §8 Domain Stack deliberately leaves a genuine yices/SMT binding
// unwired; see DESIGN.md). It recognizes exactly two formula spellings,
// "true" and "false" wrapped as a string constant, and reports sat/unsat
// accordingly; anything else is a wrapper error, the same shape a caller
// would see if a real solver binary were missing or crashed.
func yicesCheckWrapper(_ context.Context, lit *term.IntLiteral, f *term.Factory) ([]*term.Claim, []error) {
	formulaTerm, err := f.Externalize(lit.Args[0])
	if err != nil {
		return nil, []error{fmt.Errorf("yices_check: externalize formula: %w", err)}
	}
	if formulaTerm.Kind() != term.KindStringConst {
		return nil, []error{fmt.Errorf("yices_check: formula must be a string")}
	}
	var verdict string
	switch formulaTerm.StringValue() {
	case "true":
		verdict = "sat"
	case "false":
		verdict = "unsat"
	default:
		return nil, []error{fmt.Errorf("yices_check: stub cannot decide formula %q", formulaTerm.StringValue())}
	}
	verdictPred := f.InternConst(term.NewIDConst(verdict))
	claimLit := &term.IntLiteral{Pred: verdictPred, Args: []int{lit.Args[0]}}
	return []*term.Claim{term.NewClaim(claimLit, term.ExternalReason("yices_check"))}, nil
}
