package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"launchpad/internal/ai"
	"launchpad/internal/config"
	"launchpad/internal/domain"
	"launchpad/internal/events"
	"launchpad/internal/jira"
	"launchpad/internal/launch"
	"launchpad/internal/repair"
	"launchpad/internal/repo"
	"launchpad/internal/textparse"
)

// TicketStatusGetter reads the live state of a ticket. Satisfied by
// *jira.Client and by test doubles.
type TicketStatusGetter interface {
	GetTicketStatus(ctx context.Context, ticketKey string) jira.TicketStatus
}

type Engine struct {
	DB        *sql.DB
	Repo      repo.Repo
	Events    events.Writer
	Config    *config.Config
	Generator *ai.Generator
	Launcher  *launch.Launcher
	Tickets   TicketStatusGetter
	Log       *zap.Logger
	Now       func() time.Time
}

func New(db *sql.DB, cfg *config.Config, gen *ai.Generator, launcher *launch.Launcher, tickets TicketStatusGetter, log *zap.Logger) Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return Engine{
		DB:        db,
		Repo:      repo.Repo{DB: db},
		Events:    events.Writer{DB: db},
		Config:    cfg,
		Generator: gen,
		Launcher:  launcher,
		Tickets:   tickets,
		Log:       log,
		Now:       time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// CreateInitiative validates and stores a new draft.
func (e Engine) CreateInitiative(ctx context.Context, title, description string, objectives []string) (domain.Initiative, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	var cleaned []string
	for _, obj := range objectives {
		if obj = strings.TrimSpace(obj); obj != "" {
			cleaned = append(cleaned, obj)
		}
	}
	if title == "" || description == "" || len(cleaned) == 0 {
		return domain.Initiative{}, errors.New("title, description and a non-empty objectives list are required")
	}

	now := e.now().UTC().Format(time.RFC3339)
	in := domain.Initiative{
		ID:              uuid.New().String(),
		Title:           title,
		Description:     description,
		Objectives:      cleaned,
		Status:          domain.StatusDraft,
		TaskBreakdown:   []domain.Task{},
		CreatedTickets:  []domain.TicketResult{},
		TeamAssignments: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.Repo.InsertInitiative(ctx, in); err != nil {
		return domain.Initiative{}, fmt.Errorf("insert initiative: %w", err)
	}
	if err := e.Events.Append(ctx, "initiative.created", in.ID, events.EventPayload{"title": in.Title}); err != nil {
		return domain.Initiative{}, err
	}
	e.Log.Info("initiative created", zap.String("id", in.ID), zap.String("title", in.Title))
	return in, nil
}

func (e Engine) GetInitiative(ctx context.Context, id string) (domain.Initiative, error) {
	return e.Repo.GetInitiative(ctx, id)
}

func (e Engine) ListInitiatives(ctx context.Context, f repo.InitiativeFilters) ([]domain.Initiative, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	return e.Repo.ListInitiatives(ctx, f)
}

// UpdateInitiative applies a partial update. Status changes must follow the
// lifecycle transition table.
func (e Engine) UpdateInitiative(ctx context.Context, id string, u repo.InitiativeUpdate) (domain.Initiative, error) {
	current, err := e.Repo.GetInitiative(ctx, id)
	if err != nil {
		return domain.Initiative{}, err
	}
	if u.Status != nil {
		if _, err := domain.ParseStatus(string(*u.Status)); err != nil {
			return domain.Initiative{}, err
		}
		if err := domain.EnsureTransition(current.Status, *u.Status); err != nil {
			return domain.Initiative{}, err
		}
	}
	updated, err := e.Repo.UpdateInitiative(ctx, id, u, e.now().UTC().Format(time.RFC3339))
	if err != nil {
		return domain.Initiative{}, err
	}
	if u.Status != nil && *u.Status != current.Status {
		if err := e.Events.Append(ctx, "initiative.status_changed", id, events.EventPayload{
			"from": string(current.Status),
			"to":   string(*u.Status),
		}); err != nil {
			return domain.Initiative{}, err
		}
	}
	return updated, nil
}

func (e Engine) DeleteInitiative(ctx context.Context, id string) (domain.Initiative, error) {
	in, err := e.Repo.GetInitiative(ctx, id)
	if err != nil {
		return domain.Initiative{}, err
	}
	if err := e.Repo.DeleteInitiative(ctx, id); err != nil {
		return domain.Initiative{}, err
	}
	if err := e.Events.Append(ctx, "initiative.deleted", id, events.EventPayload{"title": in.Title}); err != nil {
		return domain.Initiative{}, err
	}
	e.Log.Info("initiative deleted", zap.String("id", id), zap.String("title", in.Title))
	return in, nil
}

// GenerateResult bundles everything produced by one enrichment pass.
type GenerateResult struct {
	Initiative  domain.Initiative         `json:"initiative"`
	Teams       []string                  `json:"teams"`
	OnePager    string                    `json:"one_pager"`
	Tasks       []domain.Task             `json:"task_breakdown"`
	Complexity  domain.ComplexityAnalysis `json:"complexity_analysis"`
	TeamDetails []domain.Team             `json:"team_details"`
}

// GenerateArtifacts enriches a draft initiative: team mapping, one-pager,
// task breakdown and complexity analysis. Each model call degrades to its
// fallback, so only storage errors fail the pass; those roll the status
// back to draft.
func (e Engine) GenerateArtifacts(ctx context.Context, id string) (GenerateResult, error) {
	in, err := e.Repo.GetInitiative(ctx, id)
	if err != nil {
		return GenerateResult{}, err
	}
	if err := domain.EnsureTransition(in.Status, domain.StatusAnalyzing); err != nil {
		return GenerateResult{}, err
	}

	analyzing := domain.StatusAnalyzing
	if _, err := e.Repo.UpdateInitiative(ctx, id, repo.InitiativeUpdate{Status: &analyzing}, e.now().UTC().Format(time.RFC3339)); err != nil {
		return GenerateResult{}, err
	}

	result, err := e.generate(ctx, in)
	if err != nil {
		e.Log.Error("artifact generation failed, rolling back to draft", zap.String("id", id), zap.Error(err))
		draft := domain.StatusDraft
		if _, rbErr := e.Repo.UpdateInitiative(ctx, id, repo.InitiativeUpdate{Status: &draft}, e.now().UTC().Format(time.RFC3339)); rbErr != nil {
			e.Log.Error("status rollback failed", zap.String("id", id), zap.Error(rbErr))
		}
		return GenerateResult{}, err
	}
	return result, nil
}

func (e Engine) generate(ctx context.Context, in domain.Initiative) (GenerateResult, error) {
	known, err := e.knownTeamNames(ctx)
	if err != nil {
		return GenerateResult{}, err
	}

	teams := e.Generator.MapTeamDependencies(ctx, in.Title, in.Description, in.Objectives, known)

	validTeams, err := e.teamsByNames(ctx, teams)
	if err != nil {
		return GenerateResult{}, err
	}
	if len(validTeams) == 0 {
		e.Log.Warn("no cataloged teams matched, using defaults", zap.Strings("suggested", teams))
		validTeams, err = e.teamsByNames(ctx, textparse.DefaultTeams)
		if err != nil {
			return GenerateResult{}, err
		}
	}
	validNames := make([]string, 0, len(validTeams))
	for _, t := range validTeams {
		validNames = append(validNames, t.TeamName)
	}
	if len(validNames) == 0 {
		validNames = append([]string(nil), textparse.DefaultTeams...)
	}

	onePager := e.Generator.GenerateOnePager(ctx, in.Title, in.Description, in.Objectives, validNames)
	tasks := e.Generator.GenerateTaskBreakdown(ctx, in.Title, in.Description, in.Objectives, validNames)
	complexity := e.Generator.AnalyzeComplexity(ctx, in.Title, in.Description, in.Objectives)

	ready := domain.StatusReady
	updated, err := e.Repo.UpdateInitiative(ctx, in.ID, repo.InitiativeUpdate{
		OnePager:        &onePager,
		TaskBreakdown:   tasks,
		TeamAssignments: validNames,
		Status:          &ready,
	}, e.now().UTC().Format(time.RFC3339))
	if err != nil {
		return GenerateResult{}, err
	}
	if err := e.Events.Append(ctx, "initiative.artifacts_generated", in.ID, events.EventPayload{
		"teams":            validNames,
		"tasks":            len(tasks),
		"complexity_score": complexity.Score,
	}); err != nil {
		return GenerateResult{}, err
	}
	e.Log.Info("artifacts generated",
		zap.String("id", in.ID),
		zap.Strings("teams", validNames),
		zap.Int("tasks", len(tasks)))

	return GenerateResult{
		Initiative:  updated,
		Teams:       validNames,
		OnePager:    onePager,
		Tasks:       tasks,
		Complexity:  complexity,
		TeamDetails: validTeams,
	}, nil
}

func (e Engine) knownTeamNames(ctx context.Context) ([]string, error) {
	teams, err := e.Repo.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(teams))
	for _, t := range teams {
		names = append(names, t.TeamName)
	}
	return names, nil
}

// teamsByNames resolves names against the catalog, preserving input order
// and dropping unknown names.
func (e Engine) teamsByNames(ctx context.Context, names []string) ([]domain.Team, error) {
	var res []domain.Team
	for _, name := range names {
		t, err := e.Repo.GetTeamByName(ctx, name)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

// LaunchResult reports the outcome of launching an initiative.
type LaunchResult struct {
	Initiative domain.Initiative     `json:"initiative"`
	Tickets    []domain.TicketResult `json:"created_tickets"`
	Summary    launch.Summary        `json:"summary"`
}

// Launch files Jira tickets for a ready initiative. The initiative moves to
// launched whenever at least one ticket request exists, regardless of
// per-ticket failures, which stay recorded on the initiative.
func (e Engine) Launch(ctx context.Context, id string) (LaunchResult, error) {
	in, err := e.Repo.GetInitiative(ctx, id)
	if err != nil {
		return LaunchResult{}, err
	}
	if in.Status != domain.StatusReady {
		return LaunchResult{}, launch.ErrNotReady
	}
	if len(in.TeamAssignments) == 0 {
		return LaunchResult{}, launch.ErrNoAssignments
	}

	teams, err := e.teamsByNames(ctx, in.TeamAssignments)
	if err != nil {
		return LaunchResult{}, err
	}
	requests := launch.BuildRequests(in, teams)
	if len(requests) == 0 {
		return LaunchResult{}, launch.ErrNoProjectCodes
	}
	if e.Launcher == nil || e.Launcher.Creator == nil {
		return LaunchResult{}, errors.New("jira is not configured")
	}

	e.Log.Info("launching initiative", zap.String("id", id), zap.Int("tickets", len(requests)))
	tickets, summary := e.Launcher.Run(ctx, requests)

	launched := domain.StatusLaunched
	updated, err := e.Repo.UpdateInitiative(ctx, id, repo.InitiativeUpdate{
		CreatedTickets: tickets,
		Status:         &launched,
	}, e.now().UTC().Format(time.RFC3339))
	if err != nil {
		return LaunchResult{}, err
	}
	if err := e.Events.Append(ctx, "initiative.launched", id, events.EventPayload{
		"total":      summary.Total,
		"successful": summary.Successful,
		"failed":     summary.Failed,
	}); err != nil {
		return LaunchResult{}, err
	}
	e.Log.Info("initiative launched",
		zap.String("id", id),
		zap.Int("successful", summary.Successful),
		zap.Int("total", summary.Total))

	return LaunchResult{Initiative: updated, Tickets: tickets, Summary: summary}, nil
}

// TicketView is a created ticket annotated with its live Jira status.
type TicketView struct {
	domain.TicketResult
	CurrentStatus string `json:"current_status,omitempty"`
}

// Dashboard aggregates an initiative with team details and live ticket
// statuses.
type Dashboard struct {
	Initiative     domain.Initiative `json:"initiative"`
	TeamDetails    []domain.Team     `json:"team_details"`
	TicketStatuses []TicketView      `json:"ticket_statuses"`
	Summary        DashboardSummary  `json:"summary"`
}

type DashboardSummary struct {
	Status         domain.Status `json:"status"`
	TeamsAssigned  int           `json:"teams_assigned"`
	TicketsCreated int           `json:"tickets_created"`
	TotalTasks     int           `json:"total_tasks"`
}

func (e Engine) GetDashboard(ctx context.Context, id string) (Dashboard, error) {
	in, err := e.Repo.GetInitiative(ctx, id)
	if err != nil {
		return Dashboard{}, err
	}
	teams, err := e.teamsByNames(ctx, in.TeamAssignments)
	if err != nil {
		return Dashboard{}, err
	}

	var tickets []TicketView
	created := 0
	for _, ticket := range in.CreatedTickets {
		view := TicketView{TicketResult: ticket}
		if ticket.Success {
			created++
			if ticket.TicketKey != "" && e.Tickets != nil {
				status := e.Tickets.GetTicketStatus(ctx, ticket.TicketKey)
				if status.Success {
					view.CurrentStatus = status.Status
				} else {
					view.CurrentStatus = "Unknown"
				}
			}
		}
		tickets = append(tickets, view)
	}

	return Dashboard{
		Initiative:     in,
		TeamDetails:    teams,
		TicketStatuses: tickets,
		Summary: DashboardSummary{
			Status:         in.Status,
			TeamsAssigned:  len(in.TeamAssignments),
			TicketsCreated: created,
			TotalTasks:     len(in.TaskBreakdown),
		},
	}, nil
}

// Repair runs the stored-data integrity pass and returns the number of
// initiatives fixed.
func (e Engine) Repair(ctx context.Context) (int, error) {
	count, err := repair.New(e.Repo, e.Log).Run(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		if err := e.Events.Append(ctx, "data.repaired", "", events.EventPayload{"repaired": count}); err != nil {
			return count, err
		}
	}
	return count, nil
}

// StatusCounts returns initiative counts grouped by status.
func (e Engine) StatusCounts(ctx context.Context) (map[string]int, error) {
	return e.Repo.CountInitiativesByStatus(ctx)
}
