package trigger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
)

type countingRunner struct {
	frequent atomic.Int32
	weekly   atomic.Int32
	err      error
}

func (r *countingRunner) RunFrequentCycle(context.Context) (notify.CycleReport, error) {
	r.frequent.Add(1)
	return notify.CycleReport{Users: 1}, r.err
}

func (r *countingRunner) RunWeeklyCycle(context.Context) (notify.CycleReport, error) {
	r.weekly.Add(1)
	return notify.CycleReport{Users: 1}, r.err
}

func testConfig(interval time.Duration, schedule string) model.TriggerConfig {
	return model.TriggerConfig{FrequentInterval: interval, WeeklySchedule: schedule}
}

func TestNewValidates(t *testing.T) {
	r := &countingRunner{}

	_, err := New(r, testConfig(0, "30 9 * * MON"), time.UTC, nil)
	assert.Error(t, err)

	_, err = New(r, testConfig(time.Second, "not a schedule"), time.UTC, nil)
	assert.ErrorContains(t, err, "parsing weekly schedule")

	_, err = New(r, testConfig(time.Second, "30 9 * * MON"), time.UTC, nil)
	assert.NoError(t, err)
}

func TestNextWeekly(t *testing.T) {
	tr, err := New(&countingRunner{}, testConfig(time.Second, "30 9 * * MON"), time.UTC, nil)
	require.NoError(t, err)

	wednesday := time.Date(2025, 3, 19, 10, 0, 0, 0, time.UTC)
	next := tr.NextWeekly(wednesday)
	assert.True(t, next.Equal(time.Date(2025, 3, 24, 9, 30, 0, 0, time.UTC)), "got %s", next)
}

func TestFrequentRunsImmediatelyAndOnTicks(t *testing.T) {
	r := &countingRunner{}
	tr, err := New(r, testConfig(10*time.Millisecond, "30 9 * * MON"), time.UTC, nil)
	require.NoError(t, err)

	tr.Start(context.Background())
	assert.Eventually(t, func() bool { return r.frequent.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	tr.Stop()

	stopped := r.frequent.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, r.frequent.Load(), "no runs after Stop")
	assert.Zero(t, r.weekly.Load())

	statuses := tr.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, CycleFrequent, statuses[0].Cycle)
	assert.Equal(t, int(stopped), statuses[0].Runs)
	assert.Equal(t, StateIdle, statuses[0].State)
	assert.Equal(t, 1, statuses[0].Last.Users)
}

func TestRefreshRunsFrequentCycle(t *testing.T) {
	r := &countingRunner{}
	tr, err := New(r, testConfig(time.Hour, "30 9 * * MON"), time.UTC, nil)
	require.NoError(t, err)

	tr.Start(context.Background())
	defer tr.Stop()

	assert.Eventually(t, func() bool { return r.frequent.Load() == 1 }, time.Second, 5*time.Millisecond)
	tr.Refresh()
	assert.Eventually(t, func() bool { return r.frequent.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestWeeklyRunsOnSchedule(t *testing.T) {
	r := &countingRunner{}
	tr, err := New(r, testConfig(time.Hour, "@every 1s"), time.UTC, nil)
	require.NoError(t, err)

	tr.Start(context.Background())
	defer tr.Stop()

	assert.Eventually(t, func() bool { return r.weekly.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestStartStopIdempotent(t *testing.T) {
	r := &countingRunner{}
	tr, err := New(r, testConfig(time.Hour, "30 9 * * MON"), time.UTC, nil)
	require.NoError(t, err)

	tr.Stop()
	tr.Start(context.Background())
	tr.Start(context.Background())
	assert.Eventually(t, func() bool { return r.frequent.Load() == 1 }, time.Second, 5*time.Millisecond)
	tr.Stop()
	tr.Stop()

	// A stopped trigger can be started again.
	tr.Start(context.Background())
	assert.Eventually(t, func() bool { return r.frequent.Load() == 2 }, time.Second, 5*time.Millisecond)
	tr.Stop()
}

func TestCycleErrorsAreLoggedAndRecorded(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := &countingRunner{err: errors.New("user u1: boom")}
	tr, err := New(r, testConfig(time.Hour, "30 9 * * MON"), time.UTC, zap.New(core))
	require.NoError(t, err)

	tr.Start(context.Background())
	assert.Eventually(t, func() bool { return r.frequent.Load() == 1 }, time.Second, 5*time.Millisecond)
	tr.Stop()

	entries := logs.FilterMessage("cycle finished with errors").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "frequent", entries[0].ContextMap()["cycle"])

	status := tr.Statuses()[0]
	assert.Equal(t, StateError, status.State)
	assert.EqualError(t, status.Error, "user u1: boom")
}

func TestCancelledContextStopsLoop(t *testing.T) {
	r := &countingRunner{}
	tr, err := New(r, testConfig(10*time.Millisecond, "30 9 * * MON"), time.UTC, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	tr.Start(ctx)
	assert.Eventually(t, func() bool { return r.frequent.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		tr.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancel")
	}
}

// blockingRunner holds every frequent cycle until its context ends.
type blockingRunner struct {
	started chan struct{}
	ended   chan error
}

func (r *blockingRunner) RunFrequentCycle(ctx context.Context) (notify.CycleReport, error) {
	close(r.started)
	<-ctx.Done()
	r.ended <- ctx.Err()
	return notify.CycleReport{}, ctx.Err()
}

func (r *blockingRunner) RunWeeklyCycle(context.Context) (notify.CycleReport, error) {
	return notify.CycleReport{}, nil
}

func TestStopCancelsInFlightCycle(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{}), ended: make(chan error, 1)}
	tr, err := New(r, testConfig(time.Hour, "30 9 * * MON"), time.UTC, nil)
	require.NoError(t, err)

	tr.Start(context.Background())
	select {
	case <-r.started:
	case <-time.After(time.Second):
		t.Fatal("frequent cycle did not start")
	}

	stopped := make(chan struct{})
	go func() {
		tr.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the running cycle")
	}
	assert.ErrorIs(t, <-r.ended, context.Canceled)
}
