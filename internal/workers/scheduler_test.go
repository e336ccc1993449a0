package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chainsight/pkg/errors"
)

// stubWorker counts Run invocations
type stubWorker struct {
	*BaseWorker
	runs  int64
	err   error
	panic bool
}

func newStubWorker(name string, interval time.Duration, enabled bool) *stubWorker {
	return &stubWorker{BaseWorker: NewBaseWorker(name, interval, enabled)}
}

func (w *stubWorker) Run(ctx context.Context) error {
	atomic.AddInt64(&w.runs, 1)
	if w.panic {
		panic("worker blew up")
	}
	return w.err
}

func (w *stubWorker) Runs() int64 {
	return atomic.LoadInt64(&w.runs)
}

func TestScheduler_RunsWorkerImmediately(t *testing.T) {
	scheduler := NewScheduler()
	worker := newStubWorker("stub", time.Hour, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	assert.Eventually(t, func() bool {
		return worker.Runs() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_SkipsDisabledWorker(t *testing.T) {
	scheduler := NewScheduler()
	worker := newStubWorker("disabled", time.Millisecond, false)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, scheduler.Stop())

	assert.Zero(t, worker.Runs())
}

func TestScheduler_TicksOnInterval(t *testing.T) {
	scheduler := NewScheduler()
	worker := newStubWorker("fast", 10*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return worker.Runs() >= 3
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, scheduler.Stop())
}

func TestScheduler_StartTwiceFails(t *testing.T) {
	scheduler := NewScheduler()
	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	err := scheduler.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInternal))
}

func TestScheduler_StopWithoutStartFails(t *testing.T) {
	scheduler := NewScheduler()
	err := scheduler.Stop()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInternal))
}

func TestScheduler_StopHaltsWorkers(t *testing.T) {
	scheduler := NewScheduler()
	worker := newStubWorker("stoppable", 5*time.Millisecond, true)
	scheduler.RegisterWorker(worker)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Eventually(t, func() bool { return worker.Runs() >= 1 }, time.Second, time.Millisecond)
	require.NoError(t, scheduler.Stop())
	assert.False(t, scheduler.IsRunning())

	settled := worker.Runs()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, worker.Runs())
}

func TestScheduler_SurvivesWorkerErrorAndPanic(t *testing.T) {
	scheduler := NewScheduler()
	failing := newStubWorker("failing", 10*time.Millisecond, true)
	failing.err = errors.ErrInternal
	panicking := newStubWorker("panicking", 10*time.Millisecond, true)
	panicking.panic = true
	scheduler.RegisterWorker(failing)
	scheduler.RegisterWorker(panicking)

	require.NoError(t, scheduler.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return failing.Runs() >= 2 && panicking.Runs() >= 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, scheduler.Stop())
}

func TestScheduler_RegisterAfterStartIgnored(t *testing.T) {
	scheduler := NewScheduler()
	require.NoError(t, scheduler.Start(context.Background()))
	defer scheduler.Stop()

	scheduler.RegisterWorker(newStubWorker("late", time.Hour, true))
	assert.Empty(t, scheduler.GetWorkers())
}

func TestBaseWorker_Health(t *testing.T) {
	worker := NewBaseWorker("health", time.Minute, true)

	worker.RecordRun(20 * time.Millisecond)
	worker.RecordError(errors.ErrTimeout, 40*time.Millisecond)

	health := worker.Health()
	assert.Equal(t, int64(2), health.RunCount)
	assert.Equal(t, int64(1), health.ErrorCount)
	assert.Equal(t, errors.ErrTimeout, health.LastError)
	assert.Equal(t, 30*time.Millisecond, health.AvgDuration)
	assert.True(t, health.Enabled)

	worker.SetEnabled(false)
	assert.False(t, worker.Enabled())
}
