package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/metrics"
	"github.com/nhle/taskboard/internal/model"
)

// rule is one frequent-cycle evaluator.
type rule struct {
	kind model.NotifyKind
	eval func(ctx context.Context, u model.User, now time.Time) ([]alert, error)
}

func (e *Engine) frequentRules() []rule {
	return []rule{
		{model.NotifyScheduledStart, e.evalScheduledStart},
		{model.NotifyDueSoon, e.evalDueSoon},
		{model.NotifyOverdue, e.evalOverdue},
		{model.NotifyOvertime, e.evalOvertime},
	}
}

// RunFrequentCycle evaluates every rule for every user and stores the
// resulting notifications. Users are processed one at a time, each under
// its own UserTimeout; a user that fails or times out is logged and
// skipped, and the per-user errors are joined into the returned error once
// every user has been tried. Only cancellation of ctx stops the loop early.
func (e *Engine) RunFrequentCycle(ctx context.Context) (CycleReport, error) {
	start := e.clock.Now()
	defer func() { e.metrics.ObserveCycle(metrics.CycleFrequent, start, e.clock.Now()) }()

	var report CycleReport
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return report, fmt.Errorf("listing users: %w", err)
	}

	var errs []error
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report.Users++

		userCtx, cancel := e.userContext(ctx)
		n, err := e.runFrequentForUser(userCtx, u)
		cancel()
		if err != nil {
			report.FailedUsers++
			e.metrics.RecordUserFailure(metrics.CycleFrequent)
			e.logger.Error("frequent cycle failed for user",
				zap.String("user_id", u.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("user %s: %w", u.ID, err))
			continue
		}
		report.Notifications += n
	}

	e.logger.Debug("frequent cycle finished",
		zap.Int("users", report.Users),
		zap.Int("failed_users", report.FailedUsers),
		zap.Int("notifications", report.Notifications))

	return report, errors.Join(errs...)
}

// runFrequentForUser runs the rules in order against fresh task snapshots
// and commits everything they produced in one transaction.
func (e *Engine) runFrequentForUser(ctx context.Context, u model.User) (n int, err error) {
	defer recoverUser(u.ID, &err)

	now := e.clock.Now()

	var alerts []alert
	for _, r := range e.frequentRules() {
		as, err := r.eval(ctx, u, now)
		if err != nil {
			return 0, fmt.Errorf("%s rule: %w", r.kind, err)
		}
		alerts = append(alerts, as...)
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	ns := make([]model.Notification, 0, len(alerts))
	var states []model.NotifyState
	for _, a := range alerts {
		ns = append(ns, a.notification)
		if a.state != nil {
			states = append(states, *a.state)
		}
	}

	if err := e.store.CommitAlerts(ctx, ns, states); err != nil {
		return 0, fmt.Errorf("saving notifications: %w", err)
	}
	e.metrics.RecordNotifications(ns)

	for _, note := range ns {
		e.logger.Info("notification created",
			zap.String("user_id", note.UserID),
			zap.String("kind", string(note.Kind)),
			zap.Stringp("task_id", note.TaskID))
	}
	return len(ns), nil
}
