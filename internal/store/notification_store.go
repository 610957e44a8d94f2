package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskboard/internal/model"
)

const notificationColumns = `id, user_id, task_id, kind, message, read, created_at`

// InsertNotifications inserts a batch of notifications in one transaction.
func (s *SQLiteStore) InsertNotifications(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		return insertNotifications(ctx, tx, ns)
	})
}

// NotificationExistsSince reports whether the user already has a
// notification with exactly this message created at or after since.
func (s *SQLiteStore) NotificationExistsSince(
	ctx context.Context,
	userID, message string,
	since time.Time,
) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = ? AND message = ? AND created_at >= ?
		)`,
		userID, message, since.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("checking notifications for user %s: %w", userID, err)
	}
	return exists, nil
}

// GetNotifications retrieves all of a user's notifications, newest first.
func (s *SQLiteStore) GetNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	var ns []model.Notification
	err := s.db.SelectContext(ctx, &ns, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying notifications for user %s: %w", userID, err)
	}
	return ns, nil
}

// GetUnreadNotifications retrieves a user's unread notifications, newest first.
func (s *SQLiteStore) GetUnreadNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	var ns []model.Notification
	err := s.db.SelectContext(ctx, &ns, `
		SELECT `+notificationColumns+` FROM notifications
		WHERE user_id = ? AND read = 0
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying unread notifications for user %s: %w", userID, err)
	}
	return ns, nil
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("marking notification %s as read: %w", id, ErrNotificationNotFound)
	}
	return nil
}

// CommitAlerts inserts notifications and records the notify states that
// produced them in one transaction.
func (s *SQLiteStore) CommitAlerts(
	ctx context.Context,
	ns []model.Notification,
	states []model.NotifyState,
) error {
	if len(ns) == 0 && len(states) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertNotifications(ctx, tx, ns); err != nil {
			return err
		}
		for _, st := range states {
			if err := upsertNotifyState(ctx, tx, st); err != nil {
				return err
			}
		}
		return nil
	})
}

// CommitWeekly inserts the weekly notifications and moves the user's
// weekly marker to weekStart in one transaction.
func (s *SQLiteStore) CommitWeekly(
	ctx context.Context,
	userID string,
	ns []model.Notification,
	weekStart time.Time,
) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := insertNotifications(ctx, tx, ns); err != nil {
			return err
		}
		return setLastWeeklyNotification(ctx, tx, userID, weekStart)
	})
}

// insertNotifications inserts ns inside tx using one prepared statement.
func insertNotifications(ctx context.Context, tx *sqlx.Tx, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO notifications (`+notificationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing notification insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range ns {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		_, err := stmt.ExecContext(ctx,
			n.ID, n.UserID, n.TaskID, n.Kind, n.Message,
			boolToInt(n.Read), n.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting notification for user %s: %w", n.UserID, err)
		}
	}
	return nil
}
