package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/config"
)

func newKnightMachine(t *testing.T, health, damage int) (*fsmx.Machine[*Knight], *Knight) {
	t.Helper()
	cfg, err := loadTable("")
	require.NoError(t, err)
	opts, err := config.Options(cfg, catalog())
	require.NoError(t, err)

	m := fsmx.New(opts...)
	m.Blackboard().Set(keyDamage, damage)
	k := NewKnight("sir-test", health)
	require.NoError(t, m.AttachOwner(k))
	require.NoError(t, m.Initialize(cfg.InitialKey()))
	return m, k
}

func TestTakeDamage_ReadsBlackboard(t *testing.T) {
	m, k := newKnightMachine(t, 5, 2)

	require.NoError(t, m.ChangeState("take_damage"))
	assert.Equal(t, 3, k.Health)
	assert.Equal(t, 1, blackboardInt(m.Blackboard(), keyHits))

	require.NoError(t, m.Tick(time.Millisecond))
	assert.Equal(t, fsmx.StateKey("idle"), m.CurrentKey())

	m.Blackboard().Set(keyDamage, 4)
	require.NoError(t, m.ChangeState("take_damage"))
	require.NoError(t, m.Tick(time.Millisecond))

	assert.Equal(t, fsmx.StateKey("die"), m.CurrentKey())
	assert.Equal(t, 2, blackboardInt(m.Blackboard(), keyHits))
	select {
	case <-k.dead:
	default:
		t.Fatal("knight not released")
	}
}

func TestTakeDamage_NoPendingDamage(t *testing.T) {
	m, k := newKnightMachine(t, 5, 0)
	m.Blackboard().Delete(keyDamage)

	require.NoError(t, m.ChangeState("take_damage"))
	assert.Equal(t, 5, k.Health)
}
