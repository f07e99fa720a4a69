package realtime_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/realtime"
	"github.com/comalice/fsmx/testutil"
)

type owner = *testutil.Owner

func newLoop(t *testing.T, cfg realtime.Config, keys ...fsmx.StateKey) (*realtime.Loop[owner], []*testutil.Probe[owner], *testutil.Journal) {
	t.Helper()
	j := &testutil.Journal{}
	probes, states := testutil.Probes[owner](j, keys...)
	m := fsmx.New(fsmx.WithStates(states...))
	require.NoError(t, m.AttachOwner(testutil.NewOwner("runner", 10)))
	require.NoError(t, m.Initialize(keys[0]))
	j.Reset()
	return realtime.New(m, cfg), probes, j
}

func TestConfigDefaults(t *testing.T) {
	m := fsmx.New[owner]()
	cfg := realtime.New(m, realtime.Config{}).Config()

	assert.Equal(t, 16667*time.Microsecond, cfg.TickRate)
	assert.Equal(t, 20*time.Millisecond, cfg.FixedStep)
	assert.Equal(t, 5, cfg.MaxFixedSteps)
	assert.Equal(t, 1000, cfg.MaxRequests)
}

func TestStep_AppliesRequestsByPriority(t *testing.T) {
	loop, _, j := newLoop(t, realtime.Config{}, "idle", "walk", "run", "jump")

	require.NoError(t, loop.Request("walk", 0))
	require.NoError(t, loop.Request("run", 5))
	require.NoError(t, loop.Request("jump", 5))
	assert.Equal(t, 3, loop.Pending())

	require.NoError(t, loop.Step(16*time.Millisecond))

	assert.Equal(t, []string{
		"exit idle", "enter run <- idle",
		"exit run", "enter jump <- run",
		"exit jump", "enter walk <- jump",
		"update walk 16ms",
	}, j.Events())
	assert.Zero(t, loop.Pending())
	assert.Equal(t, uint64(1), loop.Frame())
}

func TestStep_UnknownRequestIsDropped(t *testing.T) {
	loop, probes, _ := newLoop(t, realtime.Config{}, "idle", "walk")

	require.NoError(t, loop.Request("fly", 1))
	require.NoError(t, loop.Request("walk", 0))
	require.NoError(t, loop.Step(time.Millisecond))

	assert.Equal(t, 1, probes[1].Enters)
	assert.Equal(t, 1, probes[1].Updates)
	assert.NoError(t, loop.Err())
}

func TestStep_FixedStepAccumulator(t *testing.T) {
	loop, probes, _ := newLoop(t, realtime.Config{FixedStep: 20 * time.Millisecond}, "idle")

	for i := 0; i < 5; i++ {
		require.NoError(t, loop.Step(16*time.Millisecond))
	}

	assert.Equal(t, 4, probes[0].FixedUpdates)
	assert.Equal(t, 5, probes[0].Updates)
}

func TestStep_MaxFixedStepsDropsBacklog(t *testing.T) {
	loop, probes, _ := newLoop(t, realtime.Config{
		FixedStep:     20 * time.Millisecond,
		MaxFixedSteps: 2,
	}, "idle")

	require.NoError(t, loop.Step(100*time.Millisecond))
	assert.Equal(t, 2, probes[0].FixedUpdates)

	require.NoError(t, loop.Step(10*time.Millisecond))
	assert.Equal(t, 2, probes[0].FixedUpdates)
}

func TestStep_FixedRunsBeforeUpdate(t *testing.T) {
	loop, _, j := newLoop(t, realtime.Config{FixedStep: 10 * time.Millisecond}, "idle")

	require.NoError(t, loop.Step(25*time.Millisecond))

	assert.Equal(t, []string{"fixed idle 10ms", "fixed idle 10ms", "update idle 25ms"}, j.Events())
}

func TestStep_Errors(t *testing.T) {
	loop, probes, _ := newLoop(t, realtime.Config{}, "idle")
	boom := errors.New("boom")
	probes[0].Update = func(owner, *fsmx.Machine[owner], time.Duration) error { return boom }

	err := loop.Step(time.Millisecond)
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, loop.Err(), boom)
	assert.Equal(t, uint64(1), loop.Frame())
}

func TestStep_RecoversPanics(t *testing.T) {
	loop, probes, _ := newLoop(t, realtime.Config{}, "idle")
	probes[0].Update = func(owner, *fsmx.Machine[owner], time.Duration) error { panic("bad state") }

	err := loop.Step(time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad state")

	probes[0].Update = nil
	require.NoError(t, loop.Step(time.Millisecond))
	assert.Equal(t, uint64(2), loop.Frame())
}

func TestRequest_QueueFull(t *testing.T) {
	loop, _, _ := newLoop(t, realtime.Config{MaxRequests: 2}, "idle", "walk")

	require.NoError(t, loop.Request("walk", 0))
	require.NoError(t, loop.Request("idle", 0))
	require.ErrorIs(t, loop.Request("walk", 0), realtime.ErrQueueFull)

	require.NoError(t, loop.Step(time.Millisecond))
	assert.NoError(t, loop.Request("walk", 0))
}

func TestStartRequiresInitializedMachine(t *testing.T) {
	loop := realtime.New(fsmx.New[owner](), realtime.Config{})
	require.ErrorIs(t, loop.Start(context.Background()), fsmx.ErrNotInitialized)
	require.ErrorIs(t, loop.Stop(), realtime.ErrNotRunning)
}

func TestStartStop(t *testing.T) {
	loop, probes, _ := newLoop(t, realtime.Config{TickRate: time.Millisecond}, "idle", "walk")

	require.NoError(t, loop.Start(context.Background()))
	require.ErrorIs(t, loop.Start(context.Background()), realtime.ErrRunning)

	require.NoError(t, loop.Request("walk", 0))
	require.Eventually(t, func() bool { return loop.Frame() >= 3 }, 2*time.Second, time.Millisecond)

	require.NoError(t, loop.Stop())
	require.ErrorIs(t, loop.Stop(), realtime.ErrNotRunning)

	frames := loop.Frame()
	assert.Equal(t, 1, probes[1].Enters)
	assert.Positive(t, probes[1].Updates)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, frames, loop.Frame(), "no frames after Stop")
}

func TestStartStopsWithContext(t *testing.T) {
	loop, _, _ := newLoop(t, realtime.Config{TickRate: time.Millisecond}, "idle")
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, loop.Start(ctx))
	require.Eventually(t, func() bool { return loop.Frame() >= 1 }, 2*time.Second, time.Millisecond)
	cancel()

	require.NoError(t, loop.Stop())
}

func TestStep_PanicDiscardsQueuedTransitions(t *testing.T) {
	loop, probes, _ := newLoop(t, realtime.Config{}, "idle", "hit", "die", "run")
	var m *fsmx.Machine[owner]
	probes[1].Enter = func(owner, fsmx.State[owner]) {
		m = probes[1].Machine()
		require.NoError(t, m.ChangeState("die"))
		panic("hit failed")
	}

	require.NoError(t, loop.Request("hit", 0))
	err := loop.Step(time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hit failed")

	probes[1].Enter = nil
	require.NoError(t, m.ChangeState("run"))
	assert.Equal(t, fsmx.StateKey("run"), m.CurrentKey())
	assert.Zero(t, probes[2].Enters)
}
