package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// minScheduledLead is the smallest remaining time worth a reminder.
const minScheduledLead = time.Minute

// evalScheduledStart reminds the user shortly before a task's scheduled
// start. The notify state stores the start time it fired for, so a
// rescheduled task is reminded again.
func (e *Engine) evalScheduledStart(ctx context.Context, u model.User, now time.Time) ([]alert, error) {
	tasks, err := e.store.GetIncompleteTasks(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	lead := time.Duration(u.ScheduledLeadMinutes(e.cfg.ScheduledLeadMinutes)) * time.Minute

	var alerts []alert
	for _, t := range tasks {
		if t.ScheduledStart == nil {
			continue
		}
		start := *t.ScheduledStart
		delta := start.Sub(now)
		if delta < minScheduledLead || delta > lead {
			continue
		}
		if t.Notified.ScheduledStartNotified(start) {
			continue
		}

		minutes := int((delta + time.Minute - 1) / time.Minute)
		msg := ScheduledStartMessage(t.Title, start, minutes, e.cfg.Location)
		alerts = append(alerts, newTaskAlert(t, model.NotifyScheduledStart, msg, start, now))
	}
	return alerts, nil
}
