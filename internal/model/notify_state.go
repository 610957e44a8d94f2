package model

import "time"

// NotifyKind identifies the rule that produced a notification.
type NotifyKind string

const (
	NotifyScheduledStart NotifyKind = "scheduled_start"
	NotifyDueSoon        NotifyKind = "due_soon"
	NotifyOverdue        NotifyKind = "overdue"
	NotifyOvertime       NotifyKind = "overtime"
	NotifyWeeklyCount    NotifyKind = "weekly_count"
	NotifyWeeklyPriority NotifyKind = "weekly_priority"
)

// NotifyState records that a rule has fired for a task.
// A task has at most one state per kind.
type NotifyState struct {
	TaskID string     `json:"task_id" db:"task_id"`
	Kind   NotifyKind `json:"kind" db:"kind"`

	// Trigger is the task value the rule fired on: the scheduled start,
	// the due date, or the timer start.
	Trigger time.Time `json:"trigger" db:"trigger_at"`

	// SentAt is when the notification was generated.
	SentAt time.Time `json:"sent_at" db:"sent_at"`
}

// NotifyStates indexes a task's states by kind.
type NotifyStates map[NotifyKind]NotifyState

// Has reports whether any state exists for kind. Due-soon, overdue and
// overtime are one-shot, so presence alone means "sent".
func (s NotifyStates) Has(kind NotifyKind) bool {
	_, ok := s[kind]
	return ok
}

// ScheduledStartNotified reports whether the reminder was already sent for
// exactly this scheduled start. A different start time re-arms the rule.
func (s NotifyStates) ScheduledStartNotified(start time.Time) bool {
	st, ok := s[NotifyScheduledStart]
	return ok && st.Trigger.Equal(start)
}
