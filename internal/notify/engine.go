package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/metrics"
	"github.com/nhle/taskboard/internal/model"
)

// Store is the persistence the engine reads snapshots from and writes
// results to.
type Store interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetIncompleteTasks(ctx context.Context, userID string) ([]model.Task, error)
	GetTasksCompletedBetween(ctx context.Context, userID string, from, to time.Time) ([]model.Task, error)
	NotificationExistsSince(ctx context.Context, userID, message string, since time.Time) (bool, error)
	CommitAlerts(ctx context.Context, ns []model.Notification, states []model.NotifyState) error
	CommitWeekly(ctx context.Context, userID string, ns []model.Notification, weekStart time.Time) error
}

// Config holds engine-wide defaults.
type Config struct {
	// ScheduledLeadMinutes applies to users without their own lead time.
	ScheduledLeadMinutes int

	// OvertimeHours applies to users without their own threshold.
	OvertimeHours int

	// DedupWindow is the gate window used by the due-soon and overdue rules.
	DedupWindow time.Duration

	// Location renders 12-hour times and anchors week boundaries.
	Location *time.Location

	// UserTimeout bounds the work done for one user within a cycle. A
	// user that runs out of time fails on its own; the cycle moves on.
	UserTimeout time.Duration
}

// DefaultConfig returns the stock thresholds in local time.
func DefaultConfig() Config {
	return Config{
		ScheduledLeadMinutes: 5,
		OvertimeHours:        1,
		DedupWindow:          5 * time.Minute,
		Location:             time.Local,
		UserTimeout:          30 * time.Second,
	}
}

// ConfigFrom builds a Config from the notify section of the app config.
func ConfigFrom(app *model.AppConfig) (Config, error) {
	loc, err := app.Location()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ScheduledLeadMinutes: app.Notify.ScheduledLeadMinutes,
		OvertimeHours:        app.Notify.OvertimeHours,
		DedupWindow:          app.Notify.DedupWindow,
		Location:             loc,
		UserTimeout:          app.Notify.UserTimeout,
	}, nil
}

// Engine runs the notification cycles.
type Engine struct {
	store   Store
	clock   clock.Clock
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the collectors the engine records into.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine. Zero-valued fields of cfg fall back to
// DefaultConfig.
func New(s Store, c clock.Clock, cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.ScheduledLeadMinutes <= 0 {
		cfg.ScheduledLeadMinutes = def.ScheduledLeadMinutes
	}
	if cfg.OvertimeHours <= 0 {
		cfg.OvertimeHours = def.OvertimeHours
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = def.DedupWindow
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.UserTimeout <= 0 {
		cfg.UserTimeout = def.UserTimeout
	}

	e := &Engine{
		store:  s,
		clock:  c,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CycleReport summarizes one run of a cycle.
type CycleReport struct {
	Users         int
	FailedUsers   int
	SkippedUsers  int
	Notifications int
}

// alert is a notification the rules decided to send, plus the task state
// to record alongside it.
type alert struct {
	notification model.Notification
	state        *model.NotifyState
}

// newTaskAlert builds an alert for task t that records kind fired on trigger.
func newTaskAlert(t model.Task, kind model.NotifyKind, message string, trigger, now time.Time) alert {
	taskID := t.ID
	return alert{
		notification: model.Notification{
			UserID:    t.UserID,
			TaskID:    &taskID,
			Kind:      kind,
			Message:   message,
			CreatedAt: now,
		},
		state: &model.NotifyState{
			TaskID:  t.ID,
			Kind:    kind,
			Trigger: trigger,
			SentAt:  now,
		},
	}
}

// userContext derives the deadline for processing a single user. Only
// cancellation of the parent ends the cycle early.
func (e *Engine) userContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.UserTimeout)
}

// recoverUser turns a panic raised while processing one user into an error
// so the cycle can move on to the next user.
func recoverUser(userID string, errp *error) {
	if r := recover(); r != nil {
		*errp = fmt.Errorf("panic processing user %s: %v", userID, r)
	}
}
