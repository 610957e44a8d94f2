package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskboard/internal/model"
)

const taskColumns = `id, user_id, title, priority, completed, completed_at,
	due_date, scheduled_start, time_spent, is_timer_running, timer_start_time,
	created_at, updated_at`

// validateTask checks the fields the schema cannot express on its own.
func validateTask(t *model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: task title must not be empty", ErrInvalidEntity)
	}
	if t.UserID == "" {
		return fmt.Errorf("%w: task must belong to a user", ErrInvalidEntity)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidEntity, t.Priority)
	}
	if t.TimeSpent < 0 {
		return fmt.Errorf("%w: negative time spent", ErrInvalidEntity)
	}
	return nil
}

// CreateTask inserts a new task. Generates a UUID if ID is empty and
// defaults the priority to C1.
func (s *SQLiteStore) CreateTask(ctx context.Context, t *model.Task) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Priority == "" {
		t.Priority = model.PriorityC1
	}
	if err := validateTask(t); err != nil {
		return fmt.Errorf("creating task: %w", err)
	}

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	if t.Completed && t.CompletedAt == nil {
		t.CompletedAt = &now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Priority, boolToInt(t.Completed), utcPtr(t.CompletedAt),
		utcPtr(t.DueDate), utcPtr(t.ScheduledStart), t.TimeSpent,
		boolToInt(t.IsTimerRunning), utcPtr(t.TimerStartTime),
		t.CreatedAt.UTC(), t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// UpdateTask updates an existing task by ID. Notification state is not
// touched; use ResetNotifyState for that.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t *model.Task) error {
	if err := validateTask(t); err != nil {
		return fmt.Errorf("updating task %s: %w", t.ID, err)
	}

	now := time.Now().UTC()
	t.UpdatedAt = now

	// Auto-manage completed_at based on status.
	if t.Completed && t.CompletedAt == nil {
		t.CompletedAt = &now
	} else if !t.Completed {
		t.CompletedAt = nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, priority = ?, completed = ?, completed_at = ?,
			due_date = ?, scheduled_start = ?, time_spent = ?,
			is_timer_running = ?, timer_start_time = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Priority, boolToInt(t.Completed), utcPtr(t.CompletedAt),
		utcPtr(t.DueDate), utcPtr(t.ScheduledStart), t.TimeSpent,
		boolToInt(t.IsTimerRunning), utcPtr(t.TimerStartTime), t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", t.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating task %s: %w", t.ID, ErrTaskNotFound)
	}
	return nil
}

// GetTaskByID retrieves a single task by ID, including its notify states.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	err := s.db.GetContext(ctx, &t, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting task %s: %w", id, ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	tasks := []model.Task{t}
	if err := s.loadNotifyStates(ctx, tasks,
		"SELECT * FROM task_notify_state WHERE task_id = ?", id); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// GetIncompleteTasks retrieves a user's tasks that are not completed,
// including their notify states.
func (s *SQLiteStore) GetIncompleteTasks(ctx context.Context, userID string) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.SelectContext(ctx, &tasks, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND completed = 0
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying incomplete tasks for user %s: %w", userID, err)
	}

	err = s.loadNotifyStates(ctx, tasks, `
		SELECT ns.* FROM task_notify_state ns
		JOIN tasks t ON t.id = ns.task_id
		WHERE t.user_id = ? AND t.completed = 0`, userID)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTasksCompletedBetween retrieves a user's completed tasks with
// completed_at in [from, to).
func (s *SQLiteStore) GetTasksCompletedBetween(
	ctx context.Context,
	userID string,
	from, to time.Time,
) ([]model.Task, error) {
	var tasks []model.Task
	err := s.db.SelectContext(ctx, &tasks, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = ? AND completed = 1
			AND completed_at >= ? AND completed_at < ?
		ORDER BY completed_at, id`,
		userID, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying completed tasks for user %s: %w", userID, err)
	}
	return tasks, nil
}

// ResetNotifyState removes a task's state for kind so the rule can fire
// again.
func (s *SQLiteStore) ResetNotifyState(ctx context.Context, taskID string, kind model.NotifyKind) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM task_notify_state WHERE task_id = ? AND kind = ?", taskID, kind)
	if err != nil {
		return fmt.Errorf("resetting %s state for task %s: %w", kind, taskID, err)
	}
	return nil
}

// loadNotifyStates runs query and attaches each returned state to its task.
func (s *SQLiteStore) loadNotifyStates(ctx context.Context, tasks []model.Task, query string, args ...interface{}) error {
	if len(tasks) == 0 {
		return nil
	}

	var states []model.NotifyState
	if err := s.db.SelectContext(ctx, &states, query, args...); err != nil {
		return fmt.Errorf("querying notify states: %w", err)
	}

	byTask := make(map[string]model.NotifyStates, len(tasks))
	for _, st := range states {
		if byTask[st.TaskID] == nil {
			byTask[st.TaskID] = make(model.NotifyStates)
		}
		byTask[st.TaskID][st.Kind] = st
	}
	for i := range tasks {
		tasks[i].Notified = byTask[tasks[i].ID]
	}
	return nil
}

// upsertNotifyState records st inside tx, replacing any earlier state of
// the same kind.
func upsertNotifyState(ctx context.Context, tx *sqlx.Tx, st model.NotifyState) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO task_notify_state (task_id, kind, trigger_at, sent_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(task_id, kind) DO UPDATE SET
			trigger_at = excluded.trigger_at,
			sent_at = excluded.sent_at`,
		st.TaskID, st.Kind, st.Trigger.UTC(), st.SentAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s state for task %s: %w", st.Kind, st.TaskID, err)
	}
	return nil
}
