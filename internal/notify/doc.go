// Package notify is the notification generation engine.
//
// Each tick of the frequent cycle evaluates four rules against every
// user's incomplete tasks: scheduled-start reminders, due-soon reminders,
// overdue alerts, and non-priority overtime warnings. A weekly cycle
// summarizes the previous ISO week. Idempotency comes from two places:
// per-task notify states, which record that a rule already fired, and the
// dedup gate, which refuses a message identical to one created recently.
package notify
