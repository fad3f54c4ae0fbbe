// Package launch turns a ready initiative into Jira tickets, one request
// at a time.
package launch

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"launchpad/internal/domain"
	"launchpad/internal/jira"
)

var (
	ErrNotReady       = errors.New("initiative must be in ready status to launch")
	ErrNoAssignments  = errors.New("initiative must have team assignments to launch")
	ErrNoProjectCodes = errors.New("no teams have valid Jira project codes configured")
)

// TicketCreator files one ticket. Satisfied by *jira.Client and by test
// doubles.
type TicketCreator interface {
	CreateTicket(ctx context.Context, projectKey, summary, description, issueType, priority string) jira.CreateResult
}

// Request is one planned ticket.
type Request struct {
	ProjectKey  string
	Summary     string
	Description string
	IssueType   string
	Priority    string
	Team        string
}

// Summary counts launch outcomes.
type Summary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Launcher creates tickets sequentially with a fixed delay between
// consecutive requests. Sleep is injectable so tests run instantly.
type Launcher struct {
	Creator TicketCreator
	Delay   time.Duration
	Sleep   func(time.Duration)
	Log     *zap.Logger
}

func New(creator TicketCreator, delay time.Duration, log *zap.Logger) *Launcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Launcher{Creator: creator, Delay: delay, Sleep: time.Sleep, Log: log}
}

// BuildRequests plans the tickets for an initiative. With a task breakdown,
// one ticket per task whose team has a Jira project code; otherwise one
// ticket per assigned team with a project code. Teams lacking a project
// code are skipped silently.
func BuildRequests(in domain.Initiative, teams []domain.Team) []Request {
	byName := make(map[string]domain.Team, len(teams))
	for _, t := range teams {
		byName[strings.ToLower(t.TeamName)] = t
	}

	var requests []Request
	if len(in.TaskBreakdown) > 0 {
		for _, task := range in.TaskBreakdown {
			team, ok := byName[strings.ToLower(task.Team)]
			if !ok || team.JiraProjectCode == "" {
				continue
			}
			priority := task.Priority
			if priority == "" {
				priority = "Medium"
			}
			taskCopy := task
			requests = append(requests, Request{
				ProjectKey:  team.JiraProjectCode,
				Summary:     jira.FormatSummary(in.Title, task.Team, task.Title),
				Description: jira.FormatDescription(in, &taskCopy),
				IssueType:   jira.IssueTypeTask,
				Priority:    priority,
				Team:        task.Team,
			})
		}
		return requests
	}

	for _, name := range in.TeamAssignments {
		team, ok := byName[strings.ToLower(name)]
		if !ok || team.JiraProjectCode == "" {
			continue
		}
		requests = append(requests, Request{
			ProjectKey:  team.JiraProjectCode,
			Summary:     jira.FormatSummary(in.Title, team.TeamName, ""),
			Description: jira.FormatDescription(in, nil),
			IssueType:   jira.IssueTypeTask,
			Priority:    "Medium",
			Team:        team.TeamName,
		})
	}
	return requests
}

// Run files every request in order, recording per-ticket outcomes. A failed
// ticket never aborts the run.
func (l *Launcher) Run(ctx context.Context, requests []Request) ([]domain.TicketResult, Summary) {
	sleep := l.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	l.Log.Info("creating jira tickets", zap.Int("count", len(requests)))

	results := make([]domain.TicketResult, 0, len(requests))
	for i, req := range requests {
		res := l.Creator.CreateTicket(ctx, req.ProjectKey, req.Summary, req.Description, req.IssueType, req.Priority)
		results = append(results, domain.TicketResult{
			Team:      req.Team,
			Success:   res.Success,
			TicketKey: res.TicketKey,
			TicketURL: res.TicketURL,
			Error:     res.Error,
		})
		if i < len(requests)-1 && l.Delay > 0 {
			sleep(l.Delay)
		}
	}

	summary := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	l.Log.Info("jira tickets created",
		zap.Int("successful", summary.Successful),
		zap.Int("total", summary.Total))
	return results, summary
}
