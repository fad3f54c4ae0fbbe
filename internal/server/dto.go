package server

import (
	"encoding/json"

	"launchpad/internal/domain"
	"launchpad/internal/engine"
	"launchpad/internal/launch"
	"launchpad/internal/repo"
)

// Request payloads

type CreateInitiativeRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Objectives  []string `json:"objectives,omitempty"`
}

type UpdateInitiativeRequest struct {
	Title           *string               `json:"title,omitempty"`
	Description     *string               `json:"description,omitempty"`
	Objectives      []string              `json:"objectives,omitempty"`
	Status          *string               `json:"status,omitempty" enum:"draft,analyzing,ready,launched,completed,cancelled"`
	OnePager        *string               `json:"one_pager,omitempty"`
	TaskBreakdown   []domain.Task         `json:"task_breakdown,omitempty"`
	CreatedTickets  []domain.TicketResult `json:"created_tickets,omitempty"`
	TeamAssignments []string              `json:"team_assignments,omitempty"`
}

type CreateTeamRequest struct {
	TeamName        string  `json:"team_name"`
	PM              *string `json:"pm,omitempty"`
	PMEmail         *string `json:"pm_email,omitempty"`
	TL              *string `json:"tl,omitempty"`
	TLEmail         *string `json:"tl_email,omitempty"`
	EM              *string `json:"em,omitempty"`
	EMEmail         *string `json:"em_email,omitempty"`
	JiraProjectCode *string `json:"jira_project_code,omitempty"`
	SlackChannel    *string `json:"slack_channel,omitempty"`
}

type UpdateTeamRequest struct {
	TeamName        *string `json:"team_name,omitempty"`
	PM              *string `json:"pm,omitempty"`
	PMEmail         *string `json:"pm_email,omitempty"`
	TL              *string `json:"tl,omitempty"`
	TLEmail         *string `json:"tl_email,omitempty"`
	EM              *string `json:"em,omitempty"`
	EMEmail         *string `json:"em_email,omitempty"`
	JiraProjectCode *string `json:"jira_project_code,omitempty"`
	SlackChannel    *string `json:"slack_channel,omitempty"`
}

// Response payloads

type InitiativeResponse struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Objectives      []string              `json:"objectives"`
	Status          string                `json:"status" enum:"draft,analyzing,ready,launched,completed,cancelled"`
	OnePager        string                `json:"one_pager,omitempty"`
	TaskBreakdown   []TaskResponse        `json:"task_breakdown"`
	CreatedTickets  []domain.TicketResult `json:"created_tickets"`
	TeamAssignments []string              `json:"team_assignments"`
	CreatedAt       string                `json:"created_at" format:"date-time"`
	UpdatedAt       string                `json:"updated_at" format:"date-time"`
}

type TaskResponse struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Team           string   `json:"team"`
	EstimatedHours int      `json:"estimated_hours"`
	Priority       string   `json:"priority" enum:"High,Medium,Low"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

type TeamResponse struct {
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

type GenerateResponse struct {
	Initiative  InitiativeResponse        `json:"initiative"`
	Teams       []string                  `json:"teams"`
	OnePager    string                    `json:"one_pager"`
	Tasks       []TaskResponse            `json:"tasks"`
	Complexity  domain.ComplexityAnalysis `json:"complexity_analysis"`
	TeamDetails []TeamResponse            `json:"team_details"`
}

type LaunchResponse struct {
	Initiative InitiativeResponse    `json:"initiative"`
	Tickets    []domain.TicketResult `json:"tickets"`
	Summary    launch.Summary        `json:"summary"`
}

type DashboardResponse struct {
	Initiative     InitiativeResponse      `json:"initiative"`
	TeamDetails    []TeamResponse          `json:"team_details"`
	TicketStatuses []engine.TicketView     `json:"ticket_statuses"`
	Summary        engine.DashboardSummary `json:"summary"`
}

type TeamStatsResponse struct {
	Team            TeamResponse `json:"team"`
	InitiativeCount int          `json:"initiative_count"`
	TaskCount       int          `json:"task_count"`
	EstimatedHours  int          `json:"estimated_hours"`
}

type EventResponse struct {
	ID           int64          `json:"id"`
	TS           string         `json:"ts" format:"date-time"`
	Type         string         `json:"type"`
	InitiativeID string         `json:"initiative_id,omitempty"`
	Payload      map[string]any `json:"payload"`
}

type RepairResponse struct {
	Repaired int `json:"repaired"`
}

type JiraCheckResponse struct {
	Connected bool   `json:"connected"`
	User      string `json:"user,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// Conversion helpers

func initiativeResponse(in domain.Initiative) InitiativeResponse {
	tasks := make([]TaskResponse, 0, len(in.TaskBreakdown))
	for _, t := range in.TaskBreakdown {
		tasks = append(tasks, taskResponse(t))
	}
	return InitiativeResponse{
		ID:              in.ID,
		Title:           in.Title,
		Description:     in.Description,
		Objectives:      nonNilSlice(in.Objectives),
		Status:          string(in.Status),
		OnePager:        in.OnePager,
		TaskBreakdown:   tasks,
		CreatedTickets:  nonNilSlice(in.CreatedTickets),
		TeamAssignments: nonNilSlice(in.TeamAssignments),
		CreatedAt:       in.CreatedAt,
		UpdatedAt:       in.UpdatedAt,
	}
}

func taskResponse(t domain.Task) TaskResponse {
	return TaskResponse{
		Title:          t.Title,
		Description:    t.Description,
		Team:           t.Team,
		EstimatedHours: t.EstimatedHours,
		Priority:       t.Priority,
		Dependencies:   t.Dependencies,
	}
}

func teamResponse(t domain.Team) TeamResponse {
	return TeamResponse(t)
}

func teamResponses(teams []domain.Team) []TeamResponse {
	out := make([]TeamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, teamResponse(t))
	}
	return out
}

func generateResponse(res engine.GenerateResult) GenerateResponse {
	tasks := make([]TaskResponse, 0, len(res.Tasks))
	for _, t := range res.Tasks {
		tasks = append(tasks, taskResponse(t))
	}
	return GenerateResponse{
		Initiative:  initiativeResponse(res.Initiative),
		Teams:       nonNilSlice(res.Teams),
		OnePager:    res.OnePager,
		Tasks:       tasks,
		Complexity:  res.Complexity,
		TeamDetails: teamResponses(res.TeamDetails),
	}
}

func launchResponse(res engine.LaunchResult) LaunchResponse {
	return LaunchResponse{
		Initiative: initiativeResponse(res.Initiative),
		Tickets:    nonNilSlice(res.Tickets),
		Summary:    res.Summary,
	}
}

func dashboardResponse(d engine.Dashboard) DashboardResponse {
	return DashboardResponse{
		Initiative:     initiativeResponse(d.Initiative),
		TeamDetails:    teamResponses(d.TeamDetails),
		TicketStatuses: nonNilSlice(d.TicketStatuses),
		Summary:        d.Summary,
	}
}

func teamStatsResponse(s repo.TeamStats) TeamStatsResponse {
	return TeamStatsResponse{
		Team:            teamResponse(s.Team),
		InitiativeCount: s.InitiativeCount,
		TaskCount:       s.TaskCount,
		EstimatedHours:  s.EstimatedHours,
	}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:           e.ID,
		TS:           e.TS,
		Type:         e.Type,
		InitiativeID: e.InitiativeID,
		Payload:      decodeJSONMap(e.Payload),
	}
}

func teamUpdate(req UpdateTeamRequest) repo.TeamUpdate {
	return repo.TeamUpdate{
		TeamName:        req.TeamName,
		PM:              req.PM,
		PMEmail:         req.PMEmail,
		TL:              req.TL,
		TLEmail:         req.TLEmail,
		EM:              req.EM,
		EMEmail:         req.EMEmail,
		JiraProjectCode: req.JiraProjectCode,
		SlackChannel:    req.SlackChannel,
	}
}

// JSON helpers

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var tmp any
	if err := json.Unmarshal([]byte(raw), &tmp); err != nil {
		return nil
	}
	if obj, ok := tmp.(map[string]any); ok {
		return obj
	}
	return nil
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
