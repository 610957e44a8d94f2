package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskboard/internal/model"
)

const userColumns = `id, name, notify_scheduled_task_is_due, notify_non_priority_goes_overtime,
	last_weekly_notification, created_at`

// CreateUser inserts a new user. Generates a UUID if ID is empty and
// writes the assigned ID and CreatedAt back to u.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.NotifyScheduledTaskIsDue, u.NotifyNonPriorityGoesOvertime,
		utcPtr(u.LastWeeklyNotification), u.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetUser retrieves a single user by ID.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting user %s: %w", id, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user %s: %w", id, err)
	}
	return &u, nil
}

// ListUsers retrieves every user ordered by creation time.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.SelectContext(ctx, &users,
		"SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	return users, nil
}

// setLastWeeklyNotification patches the user's weekly marker inside tx.
func setLastWeeklyNotification(ctx context.Context, tx *sqlx.Tx, userID string, at time.Time) error {
	result, err := tx.ExecContext(ctx,
		"UPDATE users SET last_weekly_notification = ? WHERE id = ?",
		at.UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("updating weekly marker for user %s: %w", userID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating weekly marker for user %s: %w", userID, ErrUserNotFound)
	}
	return nil
}
