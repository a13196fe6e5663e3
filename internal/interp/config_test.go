package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evidentialbus/etbcore/pkg/term"
)

func TestLoadConfigParsesWrapperSpecs(t *testing.T) {
	cfg, err := LoadConfig([]byte(`
wrappers:
  - pred: file_exists
    arity: 1
    ground_args: [0]
  - pred: checksum
    arity: 2
    ground_args: [0, 1]
`))
	require.NoError(t, err)
	require.Len(t, cfg.Wrappers, 2)
	require.Equal(t, "file_exists", cfg.Wrappers[0].Pred)
	require.Equal(t, 1, cfg.Wrappers[0].Arity)
	require.Equal(t, []int{0}, cfg.Wrappers[0].GroundArgs)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	_, err := LoadConfig([]byte("not: [valid"))
	require.Error(t, err)
}

func TestRegisterFromConfigAddsOnlyUnregisteredPredicates(t *testing.T) {
	s := New(nil, 1)
	defer s.Close()
	require.True(t, s.IsInterpreted("ping")) // already built in

	cfg := &Config{Wrappers: []WrapperSpec{
		{Pred: "ping", Arity: 9, GroundArgs: nil},  // should not override the built-in
		{Pred: "file_exists", Arity: 1, GroundArgs: []int{0}},
	}}
	s.RegisterFromConfig(cfg)

	require.True(t, s.IsInterpreted("file_exists"))

	f := term.NewFactory()
	// The built-in ping validator expects exactly one arg; if the config
	// entry had overridden it to arity 9, this would now fail.
	lit := &term.IntLiteral{Pred: f.InternConst(term.NewIDConst("ping")), Args: []int{f.InternConst(term.NewIDConst("n1"))}}
	require.True(t, s.IsValid(lit, f))
}

func TestRegisterFromConfigValidatorChecksArityAndGroundPositions(t *testing.T) {
	s := New(nil, 1)
	defer s.Close()
	s.RegisterFromConfig(&Config{Wrappers: []WrapperSpec{
		{Pred: "checksum", Arity: 2, GroundArgs: []int{0, 1}},
	}})

	f := term.NewFactory()
	valid := &term.IntLiteral{
		Pred: f.InternConst(term.NewIDConst("checksum")),
		Args: []int{f.InternConst(term.NewIDConst("a")), f.InternConst(term.NewIDConst("b"))},
	}
	require.True(t, s.IsValid(valid, f))

	wrongArity := &term.IntLiteral{
		Pred: f.InternConst(term.NewIDConst("checksum")),
		Args: []int{f.InternConst(term.NewIDConst("a"))},
	}
	require.False(t, s.IsValid(wrongArity, f))

	notGround := &term.IntLiteral{
		Pred: f.InternConst(term.NewIDConst("checksum")),
		Args: []int{f.FreshVar("X"), f.InternConst(term.NewIDConst("b"))},
	}
	require.False(t, s.IsValid(notGround, f))
}
