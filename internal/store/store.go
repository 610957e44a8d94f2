package store

import (
	"context"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// Store defines the persistence interface for users, tasks, their
// notification state, and notifications.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)

	// === Tasks ===

	CreateTask(ctx context.Context, t *model.Task) error
	UpdateTask(ctx context.Context, t *model.Task) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetIncompleteTasks(ctx context.Context, userID string) ([]model.Task, error)
	GetTasksCompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Task, error)

	// === Notification state ===

	ResetNotifyState(ctx context.Context, taskID string, kind model.NotifyKind) error

	// === Notifications ===

	InsertNotifications(ctx context.Context, ns []model.Notification) error
	NotificationExistsSince(ctx context.Context, userID, message string, since time.Time) (bool, error)
	GetNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	GetUnreadNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// === Engine commits ===

	// CommitAlerts inserts notifications and records notify states in one
	// transaction.
	CommitAlerts(ctx context.Context, ns []model.Notification, states []model.NotifyState) error

	// CommitWeekly inserts the weekly notifications and sets the user's
	// last weekly marker in one transaction.
	CommitWeekly(ctx context.Context, userID string, ns []model.Notification, weekStart time.Time) error
}

var _ Store = (*SQLiteStore)(nil)
