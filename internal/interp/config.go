package interp

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/evidentialbus/etbcore/pkg/term"
)

// WrapperSpec declares one externally interpreted predicate's argument
// mode: which positions must be ground before the wrapper is allowed to
// run (spec.md §9.4's is_valid check). Loaded from a YAML config file, the
// declarative analogue of the original's etbconfig.py wrapper section —
// scoped here to argument-mode registration rather than full tool-process
// configuration.
type WrapperSpec struct {
	Pred       string `yaml:"pred"`
	Arity      int    `yaml:"arity"`
	GroundArgs []int  `yaml:"ground_args"`
}

// Config is the top-level wrapper-configuration document.
type Config struct {
	Wrappers []WrapperSpec `yaml:"wrappers"`
}

// LoadConfig parses a wrapper-configuration YAML document.
func LoadConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("interp: parse wrapper config: %w", err)
	}
	return &cfg, nil
}

// RegisterFromConfig registers a generic wrapper for every spec in cfg that
// is not already registered under its predicate name. The generic wrapper
// simply re-asserts the goal literal as a claim (ground at the positions
// the spec lists, or at every position when it lists none): it
// models an external predicate whose only job is to confirm that the
// caller-supplied arguments check out (akin to the original's simplest
// tool wrappers, e.g. a filesystem existence check), without requiring a
// bespoke Go function per declared predicate.
func (s *State) RegisterFromConfig(cfg *Config) {
	for _, spec := range cfg.Wrappers {
		if s.IsInterpreted(spec.Pred) {
			continue
		}
		spec := spec
		s.Register(spec.Pred, genericAssertWrapper(spec.Pred), func(lit *term.IntLiteral, f *term.Factory) bool {
			if len(lit.Args) != spec.Arity {
				return false
			}
			return groundArgs(lit, spec.GroundArgs...)
		})
	}
}
