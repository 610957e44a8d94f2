package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	"github.com/nhle/taskboard/tests/testutil"
)

// thursday is 2025-03-20T17:40:00Z.
var thursday = time.Date(2025, 3, 20, 17, 40, 0, 0, time.UTC)

type fixture struct {
	engine *Engine
	store  *store.SQLiteStore
	clock  *clock.Manual
}

func newFixture(t *testing.T, now time.Time, opts ...Option) *fixture {
	t.Helper()

	s := testutil.NewTestStore(t)
	c := clock.NewManual(now)
	cfg := DefaultConfig()
	cfg.Location = time.UTC

	return &fixture{
		engine: New(s, c, cfg, opts...),
		store:  s,
		clock:  c,
	}
}

func (f *fixture) runFrequent(t *testing.T) CycleReport {
	t.Helper()
	report, err := f.engine.RunFrequentCycle(context.Background())
	require.NoError(t, err)
	return report
}

func (f *fixture) runWeekly(t *testing.T) CycleReport {
	t.Helper()
	report, err := f.engine.RunWeeklyCycle(context.Background())
	require.NoError(t, err)
	return report
}

func (f *fixture) messages(t *testing.T, userID string) []string {
	t.Helper()
	ns, err := f.store.GetNotifications(context.Background(), userID)
	require.NoError(t, err)

	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Message)
	}
	return out
}

func (f *fixture) task(t *testing.T, id string) *model.Task {
	t.Helper()
	task, err := f.store.GetTaskByID(context.Background(), id)
	require.NoError(t, err)
	return task
}

func ptr(t time.Time) *time.Time { return &t }
