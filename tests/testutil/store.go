package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// MustCreateUser inserts a user named name and returns it.
func MustCreateUser(t *testing.T, s store.Store, name string) *model.User {
	t.Helper()

	u := &model.User{Name: name}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("creating user %s: %v", name, err)
	}
	return u
}

// MustCreateTask inserts task for the given user and returns it with its
// assigned ID.
func MustCreateTask(t *testing.T, s store.Store, userID string, task model.Task) *model.Task {
	t.Helper()

	task.UserID = userID
	if err := s.CreateTask(context.Background(), &task); err != nil {
		t.Fatalf("creating task %q: %v", task.Title, err)
	}
	return &task
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
