package model

import "time"

// User owns tasks and carries per-user notification thresholds.
type User struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	// NotifyScheduledTaskIsDue is the scheduled-start lead time in minutes.
	NotifyScheduledTaskIsDue *int `json:"notify_scheduled_task_is_due,omitempty" db:"notify_scheduled_task_is_due"`

	// NotifyNonPriorityGoesOvertime is the overtime threshold in hours.
	NotifyNonPriorityGoesOvertime *int `json:"notify_non_priority_goes_overtime,omitempty" db:"notify_non_priority_goes_overtime"`

	// LastWeeklyNotification is the Monday that started the most recent
	// week a weekly insight was produced for.
	LastWeeklyNotification *time.Time `json:"last_weekly_notification,omitempty" db:"last_weekly_notification"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ScheduledLeadMinutes returns the user's lead time, or def when unset
// or non-positive.
func (u User) ScheduledLeadMinutes(def int) int {
	if u.NotifyScheduledTaskIsDue != nil && *u.NotifyScheduledTaskIsDue > 0 {
		return *u.NotifyScheduledTaskIsDue
	}
	return def
}

// OvertimeHours returns the user's overtime threshold, or def when unset
// or non-positive.
func (u User) OvertimeHours(def int) int {
	if u.NotifyNonPriorityGoesOvertime != nil && *u.NotifyNonPriorityGoesOvertime > 0 {
		return *u.NotifyNonPriorityGoesOvertime
	}
	return def
}
