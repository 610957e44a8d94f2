package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockTime(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"afternoon", time.Date(2025, 3, 20, 17, 44, 0, 0, time.UTC), "5:44 PM"},
		{"morning", time.Date(2025, 3, 20, 9, 30, 0, 0, time.UTC), "9:30 AM"},
		{"midnight", time.Date(2025, 3, 20, 0, 5, 0, 0, time.UTC), "12:05 AM"},
		{"noon", time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC), "12:00 PM"},
		{"just before midnight", time.Date(2025, 3, 20, 23, 59, 0, 0, time.UTC), "11:59 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clockTime(tt.at, time.UTC))
		})
	}
}

func TestClockTimeUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	at := time.Date(2025, 3, 20, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "12:00 PM", clockTime(at, tokyo))
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 minute", plural(1, "minute"))
	assert.Equal(t, "4 minutes", plural(4, "minute"))
	assert.Equal(t, "0 tasks", plural(0, "task"))
}

func TestJoinLetters(t *testing.T) {
	assert.Equal(t, "", joinLetters(nil))
	assert.Equal(t, "A", joinLetters([]string{"A"}))
	assert.Equal(t, "A and B", joinLetters([]string{"A", "B"}))
	assert.Equal(t, "A, B and C", joinLetters([]string{"A", "B", "C"}))
}

func TestMessageCatalog(t *testing.T) {
	due := time.Date(2025, 3, 20, 19, 40, 0, 0, time.UTC)

	assert.Equal(t,
		`Task "standup" will start at 7:40 PM (in less than 1 minute).`,
		ScheduledStartMessage("standup", due, 1, time.UTC))
	assert.Equal(t,
		`Reminder: task "report" is due at 7:40 PM.`,
		DueSoonMessage("report", due, time.UTC))
	assert.Equal(t,
		`Alert: task "report" is overdue!`,
		OverdueMessage("report"))
	assert.Equal(t,
		`You've spent over 2 hours on "inbox" while priority A and B tasks are still pending.`,
		OvertimeMessage("inbox", 2, []string{"A", "B"}))
	assert.Equal(t, "1 task completed last week.", WeeklyCountMessage(1))
	assert.Equal(t, "3 tasks completed last week.", WeeklyCountMessage(3))
}

func TestWeeklyPriorityMessage(t *testing.T) {
	assert.Equal(t,
		"Great job! You spent 50% of your time last week on high-priority tasks.",
		WeeklyPriorityMessage(50, true))
	assert.Equal(t,
		"You spent 20% of your time last week on high-priority tasks, with new tasks added recently. Plan time for them this week.",
		WeeklyPriorityMessage(20, true))
	assert.Equal(t,
		"You spent only 20% of your time last week on high-priority tasks. Try to focus more on A and B tasks this week.",
		WeeklyPriorityMessage(20, false))
}
