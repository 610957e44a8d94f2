package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// dueSoonHorizon is how far ahead a due date counts as "soon".
const dueSoonHorizon = 24 * time.Hour

// evalDueSoon reminds the user once about a task due within the next day.
func (e *Engine) evalDueSoon(ctx context.Context, u model.User, now time.Time) ([]alert, error) {
	tasks, err := e.store.GetIncompleteTasks(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	var alerts []alert
	for _, t := range tasks {
		if t.DueDate == nil || t.Notified.Has(model.NotifyDueSoon) {
			continue
		}
		until := t.DueDate.Sub(now)
		if until <= 0 || until > dueSoonHorizon {
			continue
		}

		msg := DueSoonMessage(t.Title, *t.DueDate, e.cfg.Location)
		ok, err := e.ShouldNotify(ctx, u.ID, msg, e.cfg.DedupWindow)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		alerts = append(alerts, newTaskAlert(t, model.NotifyDueSoon, msg, *t.DueDate, now))
	}
	return alerts, nil
}
