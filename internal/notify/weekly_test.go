package notify

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
	tu "github.com/nhle/taskboard/tests/testutil"
)

var (
	// wednesday is 2025-03-19T10:00:00Z; its week starts Monday 03-17.
	wednesday = time.Date(2025, 3, 19, 10, 0, 0, 0, time.UTC)
	thisWeek  = time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)
	lastWeek  = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	longAgo   = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
)

func completedTask(title string, p model.Priority, seconds int64, at time.Time) model.Task {
	return model.Task{
		Title:       title,
		Priority:    p,
		Completed:   true,
		CompletedAt: ptr(at),
		TimeSpent:   seconds,
		CreatedAt:   longAgo,
	}
}

func TestWeeklyCycle_GreatJob(t *testing.T) {
	f := newFixture(t, wednesday)
	u := tu.MustCreateUser(t, f.store, "ana")
	tu.MustCreateTask(t, f.store, u.ID, completedTask("plan", model.PriorityA1, 3600, lastWeek.Add(50*time.Hour)))
	tu.MustCreateTask(t, f.store, u.ID, completedTask("email", model.PriorityC1, 3600, lastWeek.Add(100*time.Hour)))

	report := f.runWeekly(t)
	assert.Equal(t, 2, report.Notifications)
	assert.ElementsMatch(t, []string{
		"2 tasks completed last week.",
		"Great job! You spent 50% of your time last week on high-priority tasks.",
	}, f.messages(t, u.ID))

	got, err := f.store.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastWeeklyNotification)
	assert.True(t, got.LastWeeklyNotification.Equal(thisWeek))

	// Later in the same week the user is skipped.
	f.clock.Advance(24 * time.Hour)
	again := f.runWeekly(t)
	assert.Equal(t, 1, again.SkippedUsers)
	assert.Equal(t, 0, again.Notifications)
	assert.Len(t, f.messages(t, u.ID), 2)
}

func TestWeeklyCycle_PriorityShare(t *testing.T) {
	tests := []struct {
		name  string
		tasks []model.Task
		open  []model.Task
		want  []string
	}{
		{
			name: "no tracked time gives only the count",
			tasks: []model.Task{
				completedTask("plan", model.PriorityA1, 0, lastWeek.Add(time.Hour)),
			},
			want: []string{"1 task completed last week."},
		},
		{
			name: "no high-priority work gives only the count",
			tasks: []model.Task{
				completedTask("email", model.PriorityD, 3600, lastWeek.Add(time.Hour)),
				completedTask("chores", model.PriorityE, 60, lastWeek.Add(2*time.Hour)),
			},
			want: []string{"2 tasks completed last week."},
		},
		{
			name: "low share",
			tasks: []model.Task{
				completedTask("plan", model.PriorityA1, 1000, lastWeek.Add(time.Hour)),
				completedTask("email", model.PriorityD, 3000, lastWeek.Add(2*time.Hour)),
			},
			want: []string{
				"2 tasks completed last week.",
				"You spent only 25% of your time last week on high-priority tasks. Try to focus more on A and B tasks this week.",
			},
		},
		{
			name: "low share with a new open task",
			tasks: []model.Task{
				completedTask("plan", model.PriorityA1, 1000, lastWeek.Add(time.Hour)),
				completedTask("email", model.PriorityD, 3000, lastWeek.Add(2*time.Hour)),
			},
			open: []model.Task{
				{Title: "launch", Priority: model.PriorityB2, CreatedAt: wednesday.Add(-24 * time.Hour)},
			},
			want: []string{
				"2 tasks completed last week.",
				"You spent 25% of your time last week on high-priority tasks, with new tasks added recently. Plan time for them this week.",
			},
		},
		{
			name: "new low-priority task does not count as recent",
			tasks: []model.Task{
				completedTask("plan", model.PriorityB1, 1000, lastWeek.Add(time.Hour)),
				completedTask("email", model.PriorityD, 3000, lastWeek.Add(2*time.Hour)),
			},
			open: []model.Task{
				{Title: "laundry", Priority: model.PriorityE, CreatedAt: wednesday.Add(-time.Hour)},
			},
			want: []string{
				"2 tasks completed last week.",
				"You spent only 25% of your time last week on high-priority tasks. Try to focus more on A and B tasks this week.",
			},
		},
		{
			name: "share is rounded",
			tasks: []model.Task{
				completedTask("plan", model.PriorityB3, 2, lastWeek.Add(time.Hour)),
				completedTask("email", model.PriorityC2, 1, lastWeek.Add(2*time.Hour)),
			},
			want: []string{
				"2 tasks completed last week.",
				"Great job! You spent 67% of your time last week on high-priority tasks.",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, wednesday)
			u := tu.MustCreateUser(t, f.store, "ana")
			for _, task := range tt.tasks {
				tu.MustCreateTask(t, f.store, u.ID, task)
			}
			for _, task := range tt.open {
				tu.MustCreateTask(t, f.store, u.ID, task)
			}

			f.runWeekly(t)
			assert.ElementsMatch(t, tt.want, f.messages(t, u.ID))
		})
	}
}

func TestWeeklyCycle_WeekBoundaries(t *testing.T) {
	f := newFixture(t, wednesday)
	u := tu.MustCreateUser(t, f.store, "ana")
	tu.MustCreateTask(t, f.store, u.ID, completedTask("too old", model.PriorityD, 60, lastWeek.Add(-time.Second)))
	tu.MustCreateTask(t, f.store, u.ID, completedTask("monday", model.PriorityD, 60, lastWeek))
	tu.MustCreateTask(t, f.store, u.ID, completedTask("this week", model.PriorityD, 60, thisWeek))

	f.runWeekly(t)
	assert.Equal(t, []string{"1 task completed last week."}, f.messages(t, u.ID))
}

func TestWeeklyCycle_QuietUserIsRetried(t *testing.T) {
	f := newFixture(t, wednesday)
	u := tu.MustCreateUser(t, f.store, "ana")

	report := f.runWeekly(t)
	assert.Equal(t, 0, report.Notifications)
	assert.Equal(t, 0, report.SkippedUsers)

	got, err := f.store.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastWeeklyNotification)

	// A task back-dated into last week shows up on the next run.
	tu.MustCreateTask(t, f.store, u.ID, completedTask("late entry", model.PriorityD, 60, lastWeek.Add(time.Hour)))
	f.clock.Advance(time.Hour)
	report = f.runWeekly(t)
	assert.Equal(t, 1, report.Notifications)
	assert.Equal(t, []string{"1 task completed last week."}, f.messages(t, u.ID))
}

func TestWeeklyCycle_MarkerFromPreviousWeekDoesNotSkip(t *testing.T) {
	f := newFixture(t, wednesday)
	u := &model.User{Name: "ana", LastWeeklyNotification: ptr(lastWeek)}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	tu.MustCreateTask(t, f.store, u.ID, completedTask("plan", model.PriorityD, 60, lastWeek.Add(time.Hour)))

	report := f.runWeekly(t)
	assert.Equal(t, 0, report.SkippedUsers)
	assert.Equal(t, 1, report.Notifications)
}

type failingWeeklyStore struct {
	*store.SQLiteStore
	failUser string
}

func (s *failingWeeklyStore) GetTasksCompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Task, error) {
	if userID == s.failUser {
		return nil, errors.New("disk I/O error")
	}
	return s.SQLiteStore.GetTasksCompletedBetween(ctx, userID, from, to)
}

func TestWeeklyCycle_IsolatesFailingUsers(t *testing.T) {
	s := tu.NewTestStore(t)
	broken := tu.MustCreateUser(t, s, "broken")
	healthy := tu.MustCreateUser(t, s, "healthy")
	for _, u := range []*model.User{broken, healthy} {
		tu.MustCreateTask(t, s, u.ID, completedTask("plan", model.PriorityD, 60, lastWeek.Add(time.Hour)))
	}

	cfg := DefaultConfig()
	cfg.Location = time.UTC
	e := New(&failingWeeklyStore{SQLiteStore: s, failUser: broken.ID}, clock.Fixed(wednesday), cfg)

	report, err := e.RunWeeklyCycle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Equal(t, 1, report.FailedUsers)
	assert.Equal(t, 1, report.Notifications)

	got, err := s.GetUser(context.Background(), broken.ID)
	require.NoError(t, err)
	assert.Nil(t, got.LastWeeklyNotification)

	got, err = s.GetUser(context.Background(), healthy.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastWeeklyNotification)
}

func TestStartOfWeek(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		loc  *time.Location
		want time.Time
	}{
		{"monday midnight", thisWeek, time.UTC, thisWeek},
		{"wednesday", wednesday, time.UTC, thisWeek},
		{"sunday night", time.Date(2025, 3, 23, 23, 59, 0, 0, time.UTC), time.UTC, thisWeek},
		{"crosses month", time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC), time.UTC, time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC)},
		{
			// Monday 02:00 UTC is still Sunday evening in New York.
			"uses location", time.Date(2025, 3, 17, 2, 0, 0, 0, time.UTC), newYork,
			time.Date(2025, 3, 10, 0, 0, 0, 0, newYork),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StartOfWeek(tt.at, tt.loc)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

type stallingWeeklyStore struct {
	*store.SQLiteStore
	stallUser string
}

func (s *stallingWeeklyStore) GetTasksCompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Task, error) {
	if userID == s.stallUser {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.SQLiteStore.GetTasksCompletedBetween(ctx, userID, from, to)
}

func TestWeeklyCycle_SlowUserDoesNotStarveOthers(t *testing.T) {
	s := tu.NewTestStore(t)
	ctx := context.Background()
	slow := &model.User{Name: "slow", CreatedAt: longAgo}
	healthy := &model.User{Name: "healthy", CreatedAt: longAgo.Add(time.Hour)}
	require.NoError(t, s.CreateUser(ctx, slow))
	require.NoError(t, s.CreateUser(ctx, healthy))
	tu.MustCreateTask(t, s, healthy.ID, completedTask("plan", model.PriorityD, 60, lastWeek.Add(time.Hour)))

	cfg := DefaultConfig()
	cfg.Location = time.UTC
	cfg.UserTimeout = 50 * time.Millisecond
	e := New(&stallingWeeklyStore{SQLiteStore: s, stallUser: slow.ID}, clock.Fixed(wednesday), cfg)

	report, err := e.RunWeeklyCycle(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, report.Users)
	assert.Equal(t, 1, report.FailedUsers)
	assert.Equal(t, 1, report.Notifications)

	got, err := s.GetUser(ctx, healthy.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastWeeklyNotification)
	assert.True(t, got.LastWeeklyNotification.Equal(thisWeek))
}
