package jira

import (
	"fmt"
	"strings"

	"launchpad/internal/domain"
)

// FormatSummary builds the ticket summary line for a team's ticket.
func FormatSummary(initiativeTitle, teamName, taskTitle string) string {
	if taskTitle != "" {
		return fmt.Sprintf("%s - %s: %s", initiativeTitle, teamName, taskTitle)
	}
	return fmt.Sprintf("%s - %s Implementation", initiativeTitle, teamName)
}

// FormatDescription builds the ticket body from the initiative and an
// optional task.
func FormatDescription(in domain.Initiative, task *domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Initiative: %s\n\n", in.Title)
	fmt.Fprintf(&b, "Description: %s\n\n", in.Description)

	if len(in.Objectives) > 0 {
		b.WriteString("Objectives:\n")
		for _, obj := range in.Objectives {
			fmt.Fprintf(&b, "• %s\n", obj)
		}
		b.WriteString("\n")
	}

	if task != nil {
		b.WriteString("Task Details:\n")
		fmt.Fprintf(&b, "• %s\n", task.Description)
		fmt.Fprintf(&b, "• Estimated Hours: %d\n", task.EstimatedHours)
		fmt.Fprintf(&b, "• Priority: %s\n", task.Priority)
	}

	fmt.Fprintf(&b, "\nThis ticket is part of the %q initiative.", in.Title)
	return b.String()
}
