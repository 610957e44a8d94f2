package model

import "time"

// Task is a user's work item on the board.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id" db:"id"`

	// UserID is the owning user.
	UserID string `json:"user_id" db:"user_id"`

	// Title is the human-readable summary shown in notifications.
	Title string `json:"title" db:"title"`

	// Priority is the task's tier (use Priority* constants).
	Priority Priority `json:"priority" db:"priority"`

	// Completed is true once the user finishes the task.
	Completed bool `json:"completed" db:"completed"`

	// CompletedAt is when the task was completed.
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// DueDate is the optional deadline.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// ScheduledStart is the optional planned start time.
	ScheduledStart *time.Time `json:"scheduled_start,omitempty" db:"scheduled_start"`

	// TimeSpent is the accumulated tracked time in seconds, excluding
	// the currently running timer interval.
	TimeSpent int64 `json:"time_spent" db:"time_spent"`

	// IsTimerRunning is true while the time tracker runs.
	IsTimerRunning bool `json:"is_timer_running" db:"is_timer_running"`

	// TimerStartTime is when the running timer interval started.
	TimerStartTime *time.Time `json:"timer_start_time,omitempty" db:"timer_start_time"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Notified is populated by the store from task_notify_state.
	Notified NotifyStates `json:"notified,omitempty" db:"-"`
}

// Elapsed returns the tracked time, including the running interval when
// the timer is on.
func (t Task) Elapsed(now time.Time) time.Duration {
	d := time.Duration(t.TimeSpent) * time.Second
	if t.IsTimerRunning && t.TimerStartTime != nil {
		d += now.Sub(*t.TimerStartTime)
	}
	return d
}
