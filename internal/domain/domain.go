package domain

import "fmt"

// Status is the lifecycle state of an initiative.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusAnalyzing Status = "analyzing"
	StatusReady     Status = "ready"
	StatusLaunched  Status = "launched"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// transitions is the allowed forward edge set. analyzing->draft is the
// rollback edge taken when artifact generation fails.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusAnalyzing, StatusCancelled},
	StatusAnalyzing: {StatusReady, StatusDraft},
	StatusReady:     {StatusLaunched, StatusCancelled},
	StatusLaunched:  {StatusCompleted, StatusCancelled},
}

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusDraft, StatusAnalyzing, StatusReady, StatusLaunched, StatusCompleted, StatusCancelled:
		return Status(raw), nil
	}
	return "", fmt.Errorf("invalid status %q", raw)
}

// CanTransition reports whether s -> to is an allowed status change.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// EnsureTransition returns an error describing a forbidden status change.
func EnsureTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if !from.CanTransition(to) {
		return fmt.Errorf("invalid initiative status transition %s -> %s", from, to)
	}
	return nil
}

type Initiative struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Objectives      []string       `json:"objectives"`
	Status          Status         `json:"status" enum:"draft,analyzing,ready,launched,completed,cancelled"`
	OnePager        string         `json:"one_pager,omitempty"`
	TaskBreakdown   []Task         `json:"task_breakdown,omitempty"`
	CreatedTickets  []TicketResult `json:"created_tickets,omitempty"`
	TeamAssignments []string       `json:"team_assignments,omitempty"`
	CreatedAt       string         `json:"created_at" format:"date-time"`
	UpdatedAt       string         `json:"updated_at" format:"date-time"`
}

type Task struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Team           string   `json:"team"`
	EstimatedHours int      `json:"estimated_hours"`
	Priority       string   `json:"priority" enum:"High,Medium,Low"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

type Team struct {
	ID              int64  `json:"id"`
	TeamName        string `json:"team_name"`
	PM              string `json:"pm,omitempty"`
	PMEmail         string `json:"pm_email,omitempty"`
	TL              string `json:"tl,omitempty"`
	TLEmail         string `json:"tl_email,omitempty"`
	EM              string `json:"em,omitempty"`
	EMEmail         string `json:"em_email,omitempty"`
	JiraProjectCode string `json:"jira_project_code,omitempty"`
	SlackChannel    string `json:"slack_channel,omitempty"`
	CreatedAt       string `json:"created_at" format:"date-time"`
}

// TicketResult records the outcome of one Jira ticket creation attempt.
type TicketResult struct {
	Team      string `json:"team"`
	Success   bool   `json:"success"`
	TicketKey string `json:"ticket_key,omitempty"`
	TicketURL string `json:"ticket_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ComplexityAnalysis is the model's effort estimate for an initiative.
type ComplexityAnalysis struct {
	Score     int    `json:"complexity_score"`
	Reasoning string `json:"reasoning"`
	Weeks     int    `json:"recommended_timeline_weeks"`
}

type Event struct {
	ID           int64  `json:"id"`
	TS           string `json:"ts" format:"date-time"`
	Type         string `json:"type"`
	InitiativeID string `json:"initiative_id,omitempty"`
	Payload      string `json:"payload_json"`
}
