package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// evalOverdue alerts the user once about a task whose due date has passed.
// A task due exactly now is not yet overdue.
func (e *Engine) evalOverdue(ctx context.Context, u model.User, now time.Time) ([]alert, error) {
	tasks, err := e.store.GetIncompleteTasks(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	var alerts []alert
	for _, t := range tasks {
		if t.DueDate == nil || t.Notified.Has(model.NotifyOverdue) {
			continue
		}
		if !t.DueDate.Before(now) {
			continue
		}

		msg := OverdueMessage(t.Title)
		ok, err := e.ShouldNotify(ctx, u.ID, msg, e.cfg.DedupWindow)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		alerts = append(alerts, newTaskAlert(t, model.NotifyOverdue, msg, *t.DueDate, now))
	}
	return alerts, nil
}
