package benchmarks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/fsmx/config"
)

func TestRingMachineAdvances(t *testing.T) {
	m := NewRingMachine(3, true)
	for i := 0; i < 4; i++ {
		require.NoError(t, m.Tick(time.Millisecond))
	}
	assert.Equal(t, RingKey(1), m.CurrentKey())
	assert.Equal(t, 5, m.Owner().Steps)
}

func TestGenConfigYAML(t *testing.T) {
	cfg, err := config.Parse(GenConfigYAML(4))
	require.NoError(t, err)
	assert.Equal(t, "ring_4", cfg.ID)
	assert.Equal(t, []string{"s0", "s1", "s2", "s3"}, cfg.States)

	_, err = config.Discovery(cfg, GenRingCatalog(4, false))
	require.NoError(t, err)
}
