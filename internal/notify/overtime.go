package notify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// evalOvertime warns when a running non-priority task has used up the
// user's overtime threshold while A or B tasks are still open.
func (e *Engine) evalOvertime(ctx context.Context, u model.User, now time.Time) ([]alert, error) {
	tasks, err := e.store.GetIncompleteTasks(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	var rest []model.Task
	seen := make(map[string]bool)
	var letters []string
	for _, t := range tasks {
		if !t.Priority.IsHigh() {
			rest = append(rest, t)
			continue
		}
		if l := t.Priority.Letter(); !seen[l] {
			seen[l] = true
			letters = append(letters, l)
		}
	}
	if len(letters) == 0 {
		return nil, nil
	}
	sort.Strings(letters)

	hours := u.OvertimeHours(e.cfg.OvertimeHours)
	limit := time.Duration(hours) * time.Hour

	var alerts []alert
	for _, t := range rest {
		if !t.IsTimerRunning || t.Notified.Has(model.NotifyOvertime) {
			continue
		}
		if t.Elapsed(now) < limit {
			continue
		}

		trigger := now
		if t.TimerStartTime != nil {
			trigger = *t.TimerStartTime
		}
		msg := OvertimeMessage(t.Title, hours, letters)
		alerts = append(alerts, newTaskAlert(t, model.NotifyOvertime, msg, trigger, now))
	}
	return alerts, nil
}
