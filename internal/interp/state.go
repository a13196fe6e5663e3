package interp

import (
	"context"

	"github.com/evidentialbus/etbcore/internal/obs"
	"github.com/evidentialbus/etbcore/pkg/inference"
	"github.com/evidentialbus/etbcore/pkg/term"
)

// registration bundles a wrapper with the validator that decides whether a
// given goal literal is ground enough to run it (spec.md §9.4).
type registration struct {
	wrapper   Wrapper
	validator Validator
}

// State is the example InterpretState (spec.md §6): a predicate-name-keyed
// dispatch table of Wrappers, each run on a bounded worker Pool so a slow
// external call does not run on the goroutine that dispatched it. Grounded on
// _examples/original_source/etb/wrapper.py's WrapperState.
type State struct {
	logger   *obs.Logger
	pool     *Pool
	registry map[string]registration
}

// New builds a State with the example wrappers registered (ping, pong,
// in_range, errorwrapper, yices_check).
func New(logger *obs.Logger, workers int) *State {
	if logger == nil {
		logger = obs.Nop()
	}
	s := &State{logger: logger, pool: NewPool(workers, logger), registry: map[string]registration{}}
	s.Register("ping", pingWrapper, func(lit *term.IntLiteral, f *term.Factory) bool {
		return len(lit.Args) == 1 && groundArgs(lit)
	})
	s.Register("pong", pongWrapper, func(lit *term.IntLiteral, f *term.Factory) bool {
		return len(lit.Args) == 1 && groundArgs(lit)
	})
	s.Register("in_range", inRangeWrapper, func(lit *term.IntLiteral, f *term.Factory) bool {
		return len(lit.Args) == 3 && groundArgs(lit, 1, 2)
	})
	s.Register("errorwrapper", errorWrapperFn, func(lit *term.IntLiteral, f *term.Factory) bool {
		return len(lit.Args) == 1 && groundArgs(lit)
	})
	s.Register("yices_check", yicesCheckWrapper, func(lit *term.IntLiteral, f *term.Factory) bool {
		return len(lit.Args) == 1 && groundArgs(lit)
	})
	return s
}

// Register installs a Wrapper under pred, to be consulted whenever a goal
// or subgoal names that predicate. Exported so a caller (e.g. the CLI) can
// extend the table with its own tool wrappers beyond the built-in examples.
func (s *State) Register(pred string, w Wrapper, v Validator) {
	s.registry[pred] = registration{wrapper: w, validator: v}
}

// Close shuts down the worker pool, waiting for in-flight wrapper jobs.
func (s *State) Close() { s.pool.Close() }

// IsInterpreted reports whether pred has a registered wrapper.
func (s *State) IsInterpreted(pred string) bool {
	_, ok := s.registry[pred]
	return ok
}

func (s *State) predName(lit *term.IntLiteral, f *term.Factory) string {
	t, err := f.Externalize(lit.Pred)
	if err != nil || t.Kind() != term.KindIDConst {
		return ""
	}
	return t.IDValue()
}

// IsValid reports whether lit is ground enough for its registered
// wrapper's argument mode.
func (s *State) IsValid(lit *term.IntLiteral, f *term.Factory) bool {
	reg, ok := s.registry[s.predName(lit, f)]
	if !ok {
		return false
	}
	return reg.validator(lit, f)
}

// Interpret runs lit's wrapper on the worker pool, reporting whatever it
// produces back through core. A wrapper that returns no claims and no
// errors is treated as an exhaustive "no solutions" answer (spec.md §6's
// push_no_solutions contract), matching the original's convention that an
// empty result list is itself meaningful rather than merely "not yet".
func (s *State) Interpret(ctx context.Context, core inference.Core, lit *term.IntLiteral, f *term.Factory) {
	reg, ok := s.registry[s.predName(lit, f)]
	if !ok {
		return
	}
	err := s.pool.Submit(ctx, func() {
		claims, errs := reg.wrapper(ctx, lit, f)
		if len(errs) > 0 {
			for _, e := range errs {
				s.logger.WrapperError(e.Error())
			}
			core.AddErrors(errs)
		}
		if len(claims) > 0 {
			core.AddClaims(claims)
		} else if len(errs) == 0 {
			core.PushNoSolutions(lit)
		}
	})
	if err != nil {
		s.logger.WrapperError("submit failed", "error", err.Error())
		core.AddErrors([]error{err})
	}
}
