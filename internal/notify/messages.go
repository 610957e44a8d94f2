package notify

import (
	"fmt"
	"strings"
	"time"
)

// clockTime renders t as a 12-hour time such as "5:44 PM".
func clockTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("3:04 PM")
}

// plural renders n with word, adding "s" unless n is 1.
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// joinLetters renders letters as "A", "A and B" or "A, B and C".
func joinLetters(letters []string) string {
	switch len(letters) {
	case 0:
		return ""
	case 1:
		return letters[0]
	}
	return strings.Join(letters[:len(letters)-1], ", ") + " and " + letters[len(letters)-1]
}

// ScheduledStartMessage is the scheduled-start reminder text.
func ScheduledStartMessage(title string, start time.Time, minutes int, loc *time.Location) string {
	return fmt.Sprintf("Task \"%s\" will start at %s (in less than %s).",
		title, clockTime(start, loc), plural(minutes, "minute"))
}

// DueSoonMessage is the due-soon reminder text.
func DueSoonMessage(title string, due time.Time, loc *time.Location) string {
	return fmt.Sprintf("Reminder: task \"%s\" is due at %s.", title, clockTime(due, loc))
}

// OverdueMessage is the overdue alert text.
func OverdueMessage(title string) string {
	return fmt.Sprintf("Alert: task \"%s\" is overdue!", title)
}

// OvertimeMessage is the non-priority overtime warning text.
func OvertimeMessage(title string, hours int, letters []string) string {
	return fmt.Sprintf("You've spent over %s on \"%s\" while priority %s tasks are still pending.",
		plural(hours, "hour"), title, joinLetters(letters))
}

// WeeklyCountMessage is the weekly completed-task count text.
func WeeklyCountMessage(completed int) string {
	return fmt.Sprintf("%s completed last week.", plural(completed, "task"))
}

// WeeklyPriorityMessage is the weekly priority-time text for the given
// high-priority share. recentTasks selects the variant used when
// high-priority tasks, completed or open, were added in the last two days.
func WeeklyPriorityMessage(percent int, recentTasks bool) string {
	switch {
	case percent >= 50:
		return fmt.Sprintf("Great job! You spent %d%% of your time last week on high-priority tasks.", percent)
	case recentTasks:
		return fmt.Sprintf("You spent %d%% of your time last week on high-priority tasks, with new tasks added recently. Plan time for them this week.", percent)
	default:
		return fmt.Sprintf("You spent only %d%% of your time last week on high-priority tasks. Try to focus more on A and B tasks this week.", percent)
	}
}
