package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/config"
)

type guard struct{ name string }

func (g *guard) Name() string      { return g.name }
func (g *guard) Initialize() error { return nil }
func (g *guard) Destroy()          {}

type post struct {
	fsmx.BaseState[*guard]
	entered int
}

func (s *post) OnEnter(*guard, fsmx.State[*guard]) { s.entered++ }
func (s *post) OnUpdate(*guard, *fsmx.Machine[*guard], time.Duration) error {
	return nil
}

func guardCatalog() *fsmx.Catalog[*guard] {
	return fsmx.NewCatalog[*guard]().
		MustAdd("idle", func() fsmx.State[*guard] { return &post{} }).
		MustAdd("patrol", func() fsmx.State[*guard] { return &post{} }).
		MustAdd("alert", func() fsmx.State[*guard] { return &post{} })
}

const guardYAML = `
id: gate-guard
initial: patrol
states:
  - patrol
  - alert
`

func TestParse(t *testing.T) {
	c, err := config.Parse([]byte(guardYAML))
	require.NoError(t, err)

	assert.Equal(t, "gate-guard", c.ID)
	assert.Equal(t, fsmx.StateKey("patrol"), c.InitialKey())
	assert.Equal(t, []fsmx.StateKey{"patrol", "alert"}, c.Keys())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty document", ""},
		{"missing id", "initial: a\nstates: [a]\n"},
		{"missing initial", "id: m\nstates: [a]\n"},
		{"no states", "id: m\ninitial: a\nstates: []\n"},
		{"empty state name", "id: m\ninitial: a\nstates: [a, '']\n"},
		{"repeated state", "id: m\ninitial: a\nstates: [a, b, a]\n"},
		{"initial not listed", "id: m\ninitial: c\nstates: [a, b]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := config.Parse([]byte("id: [unclosed"))
	require.ErrorIs(t, err, config.ErrParsingConfig)

	_, err = config.Parse([]byte("id: m\ninitial: a\nstates: [a]\ntransitions: {}\n"))
	require.ErrorIs(t, err, config.ErrParsingConfig, "unknown fields are rejected")
}

func TestMarshalRoundTrip(t *testing.T) {
	c, err := config.Parse([]byte(guardYAML))
	require.NoError(t, err)

	data, err := c.Marshal()
	require.NoError(t, err)
	again, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, c, again)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(guardYAML), 0o600))

	c, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gate-guard", c.ID)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOptions_DriveMachine(t *testing.T) {
	c, err := config.Parse([]byte(guardYAML))
	require.NoError(t, err)

	opts, err := config.Options(c, guardCatalog())
	require.NoError(t, err)

	m := fsmx.New(opts...)
	require.NoError(t, m.AttachOwner(&guard{name: "west"}))
	require.NoError(t, m.Initialize(c.InitialKey()))

	assert.Equal(t, "gate-guard", m.ID())
	assert.Equal(t, []fsmx.StateKey{"patrol", "alert"}, m.Registry().Keys())
	assert.False(t, m.Registry().Contains("idle"))
	require.NoError(t, m.ChangeState("alert"))
}

func TestDiscovery_UnknownState(t *testing.T) {
	c, err := config.Parse([]byte("id: m\ninitial: patrol\nstates: [patrol, flee]\n"))
	require.NoError(t, err)

	_, err = config.Discovery(c, guardCatalog())
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "flee")
}
