package notify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/metrics"
	"github.com/nhle/taskboard/internal/model"
)

// recentTaskWindow is how new a high-priority task must be to explain a
// low weekly share.
const recentTaskWindow = 48 * time.Hour

// StartOfWeek returns Monday 00:00 of the ISO week containing t, in loc.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
}

// RunWeeklyCycle produces last week's insights for every user that has not
// had them this week. As with the frequent cycle, one user's failure does
// not stop the others.
func (e *Engine) RunWeeklyCycle(ctx context.Context) (CycleReport, error) {
	start := e.clock.Now()
	defer func() { e.metrics.ObserveCycle(metrics.CycleWeekly, start, e.clock.Now()) }()

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
		n, skipped, err := e.runWeeklyForUser(userCtx, u)
		cancel()
		switch {
		case err != nil:
			report.FailedUsers++
			e.metrics.RecordUserFailure(metrics.CycleWeekly)
			e.logger.Error("weekly cycle failed for user",
				zap.String("user_id", u.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("user %s: %w", u.ID, err))
		case skipped:
			report.SkippedUsers++
		default:
			report.Notifications += n
		}
	}

	e.logger.Info("weekly cycle finished",
		zap.Int("users", report.Users),
		zap.Int("skipped_users", report.SkippedUsers),
		zap.Int("failed_users", report.FailedUsers),
		zap.Int("notifications", report.Notifications))

	return report, errors.Join(errs...)
}

// runWeeklyForUser builds and commits one user's weekly insights. The
// user's weekly marker only moves when at least one notification is
// produced, so a quiet user is looked at again on the next run.
func (e *Engine) runWeeklyForUser(ctx context.Context, u model.User) (n int, skipped bool, err error) {
	defer recoverUser(u.ID, &err)

	now := e.clock.Now()
	thisWeek := StartOfWeek(now, e.cfg.Location)
	lastWeek := thisWeek.AddDate(0, 0, -7)

	if u.LastWeeklyNotification != nil && !u.LastWeeklyNotification.Before(thisWeek) {
		return 0, true, nil
	}

	completed, err := e.store.GetTasksCompletedBetween(ctx, u.ID, lastWeek, thisWeek)
	if err != nil {
		return 0, false, fmt.Errorf("loading completed tasks: %w", err)
	}

	var ns []model.Notification

	if len(completed) > 0 {
		msg := WeeklyCountMessage(len(completed))
		ok, err := e.ShouldNotify(ctx, u.ID, msg, 0)
		if err != nil {
			return 0, false, err
		}
		if ok {
			ns = append(ns, weeklyNotification(u.ID, model.NotifyWeeklyCount, msg, now))
		}
	}

	var highTime, totalTime int64
	hasHigh := false
	for _, t := range completed {
		totalTime += t.TimeSpent
		if t.Priority.IsHigh() {
			hasHigh = true
			highTime += t.TimeSpent
		}
	}

	if hasHigh && totalTime > 0 {
		percent := int(math.Round(float64(highTime) / float64(totalTime) * 100))
		recent := false
		if percent < 50 {
			recent, err = e.hasRecentHighPriority(ctx, u.ID, completed, now)
			if err != nil {
				return 0, false, err
			}
		}
		msg := WeeklyPriorityMessage(percent, recent)
		ns = append(ns, weeklyNotification(u.ID, model.NotifyWeeklyPriority, msg, now))
	}

	if len(ns) == 0 {
		return 0, false, nil
	}

	if err := e.store.CommitWeekly(ctx, u.ID, ns, thisWeek); err != nil {
		return 0, false, fmt.Errorf("saving weekly notifications: %w", err)
	}
	e.metrics.RecordNotifications(ns)
	return len(ns), false, nil
}

// hasRecentHighPriority reports whether any high-priority task, either
// completed last week or still open, was created within recentTaskWindow.
func (e *Engine) hasRecentHighPriority(ctx context.Context, userID string, completed []model.Task, now time.Time) (bool, error) {
	cutoff := now.Add(-recentTaskWindow)
	isRecent := func(t model.Task) bool {
		return t.Priority.IsHigh() && !t.CreatedAt.Before(cutoff)
	}

	for _, t := range completed {
		if isRecent(t) {
			return true, nil
		}
	}

	open, err := e.store.GetIncompleteTasks(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("loading open tasks: %w", err)
	}
	for _, t := range open {
		if isRecent(t) {
			return true, nil
		}
	}
	return false, nil
}

func weeklyNotification(userID string, kind model.NotifyKind, msg string, now time.Time) model.Notification {
	return model.Notification{
		UserID:    userID,
		Kind:      kind,
		Message:   msg,
		CreatedAt: now,
	}
}
