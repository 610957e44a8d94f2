package model

import "time"

// Notification is an alert surfaced to a user. It is immutable once
// created apart from the read flag.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// UserID is the recipient.
	UserID string `json:"user_id" db:"user_id"`

	// TaskID optionally links this notification to a task.
	TaskID *string `json:"task_id,omitempty" db:"task_id"`

	// Kind identifies the rule that generated it.
	Kind NotifyKind `json:"kind" db:"kind"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
