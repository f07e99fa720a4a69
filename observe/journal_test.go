package observe_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/observe"
)

func newTestJournal(t *testing.T) (*observe.Journal, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	j, err := observe.NewJournal(db, nil)
	require.NoError(t, err)
	return j, db
}

func TestJournal_Events(t *testing.T) {
	j, _ := newTestJournal(t)
	runMachine(t, j)
	require.NoError(t, j.Err())

	events, err := j.Events("m-1")
	require.NoError(t, err)
	require.Len(t, events, 5)

	first := events[0]
	assert.Equal(t, observe.KindTransition, first.Kind)
	assert.True(t, first.Transition.Initial)
	assert.Equal(t, fsmx.StateKey("idle"), first.Transition.To)
	assert.Equal(t, "hero", first.Machine.Owner)
	assert.False(t, first.Transition.Timestamp.IsZero())

	assert.Equal(t, fsmx.StateKey("run"), events[1].Transition.To)
	assert.Equal(t, fsmx.StateKey("idle"), events[1].Transition.From)

	last := events[4]
	assert.Equal(t, observe.KindRejected, last.Kind)
	assert.Equal(t, fsmx.StateKey("fly"), last.Key)
	require.Error(t, last.Err)
	assert.Contains(t, last.Err.Error(), "state not found")
}

func TestJournal_SeparatesMachines(t *testing.T) {
	j, _ := newTestJournal(t)
	runMachine(t, j)
	j.OnDuplicate(fsmx.MachineInfo{MachineID: "m-2", Owner: "villain"}, "idle")

	events, err := j.Events("m-2")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, observe.KindDuplicate, events[0].Kind)
	assert.Equal(t, "villain", events[0].Machine.Owner)

	none, err := j.Events("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJournal_WriteErrorIsKept(t *testing.T) {
	j, db := newTestJournal(t)
	_, err := db.Exec(`DROP TABLE fsm_events`)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		j.OnDuplicate(fsmx.MachineInfo{MachineID: "m"}, "idle")
	})
	require.Error(t, j.Err())
}
