package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"launchpad/internal/ai"
	"launchpad/internal/config"
	"launchpad/internal/db"
	"launchpad/internal/domain"
	"launchpad/internal/engine"
	"launchpad/internal/jira"
	"launchpad/internal/launch"
	"launchpad/internal/migrate"
	"launchpad/internal/repo"
)

type stubCompleter struct {
	responses map[string]string
	err       error
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for key, resp := range s.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return "", nil
}

type fakeCreator struct {
	calls   []string
	failFor map[string]string
}

func (f *fakeCreator) CreateTicket(ctx context.Context, projectKey, summary, description, issueType, priority string) jira.CreateResult {
	f.calls = append(f.calls, projectKey)
	if msg, ok := f.failFor[projectKey]; ok {
		return jira.CreateResult{Success: false, Error: msg}
	}
	return jira.CreateResult{Success: true, TicketKey: projectKey + "-1", TicketURL: "https://jira.test/browse/" + projectKey + "-1"}
}

type fakeStatuses struct {
	status string
}

func (f *fakeStatuses) GetTicketStatus(ctx context.Context, key string) jira.TicketStatus {
	return jira.TicketStatus{Success: true, Status: f.status, Summary: "summary"}
}

type testEnv struct {
	Engine  engine.Engine
	Creator *fakeCreator
	Ctx     context.Context
}

func newTestEnv(t *testing.T, completer ai.Completer) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	creator := &fakeCreator{}
	launcher := launch.New(creator, 0, nil)
	gen := ai.NewGenerator(completer, nil)
	eng := engine.New(conn, config.Default(), gen, launcher, &fakeStatuses{status: "In Progress"}, nil)
	eng.Now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Creator: creator, Ctx: context.Background()}
}

func createDraft(t *testing.T, env testEnv) domain.Initiative {
	t.Helper()
	in, err := env.Engine.CreateInitiative(env.Ctx, "Search revamp", "Rebuild product search", []string{"faster results", "better relevance"})
	if err != nil {
		t.Fatalf("create initiative: %v", err)
	}
	return in
}

func TestCreateInitiativeValidation(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{})
	if _, err := env.Engine.CreateInitiative(env.Ctx, "", "desc", []string{"x"}); err == nil {
		t.Fatalf("expected error for missing title")
	}
	if _, err := env.Engine.CreateInitiative(env.Ctx, "t", "desc", []string{"  "}); err == nil {
		t.Fatalf("expected error for blank objectives")
	}
	in := createDraft(t, env)
	if in.Status != domain.StatusDraft {
		t.Fatalf("status = %s, want draft", in.Status)
	}
}

func TestGenerateThenLaunch(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{responses: map[string]string{
		"identify which teams":       "This needs the Backend team and QA coverage.",
		"one-pager":                  "# Search revamp\nA plan.",
		"Break down this initiative": "1. Build search API for Backend, 24 hours, high priority\n2. QA regression suite, 8 hours",
		"Analyze the complexity":     "Complexity: 6. Multiple systems are involved. Roughly 10 weeks.",
	}})
	in := createDraft(t, env)

	result, err := env.Engine.GenerateArtifacts(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Initiative.Status != domain.StatusReady {
		t.Fatalf("status = %s, want ready", result.Initiative.Status)
	}
	if len(result.Teams) != 2 || result.Teams[0] != "Backend" || result.Teams[1] != "QA" {
		t.Fatalf("teams = %v", result.Teams)
	}
	if len(result.Tasks) != 2 {
		t.Fatalf("tasks = %+v", result.Tasks)
	}
	if result.Complexity.Score != 6 || result.Complexity.Weeks != 10 {
		t.Fatalf("complexity = %+v", result.Complexity)
	}

	launchRes, err := env.Engine.Launch(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if launchRes.Initiative.Status != domain.StatusLaunched {
		t.Fatalf("status = %s, want launched", launchRes.Initiative.Status)
	}
	if launchRes.Summary.Total != 2 || launchRes.Summary.Successful != 2 {
		t.Fatalf("summary = %+v", launchRes.Summary)
	}
	if len(env.Creator.calls) != 2 || env.Creator.calls[0] != "BE" || env.Creator.calls[1] != "QA" {
		t.Fatalf("creator calls = %v", env.Creator.calls)
	}

	stored, err := env.Engine.GetInitiative(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.CreatedTickets) != 2 || !stored.CreatedTickets[0].Success {
		t.Fatalf("stored tickets = %+v", stored.CreatedTickets)
	}
}

func TestGenerateWithModelDown(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{err: errors.New("api down")})
	in := createDraft(t, env)

	result, err := env.Engine.GenerateArtifacts(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("generate should degrade, not fail: %v", err)
	}
	if result.Initiative.Status != domain.StatusReady {
		t.Fatalf("status = %s, want ready", result.Initiative.Status)
	}
	if len(result.Teams) != 2 || result.Teams[0] != "Frontend" || result.Teams[1] != "Backend" {
		t.Fatalf("teams = %v, want default pair", result.Teams)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].Title != "Search revamp - Implementation" {
		t.Fatalf("tasks = %+v, want single fallback task", result.Tasks)
	}
	if result.Complexity.Score != 5 || result.Complexity.Weeks != 8 {
		t.Fatalf("complexity = %+v, want fallback", result.Complexity)
	}
}

func TestGenerateRequiresDraft(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{})
	in := createDraft(t, env)
	ready := domain.StatusReady
	if _, err := env.Engine.Repo.UpdateInitiative(env.Ctx, in.ID, repo.InitiativeUpdate{Status: &ready}, in.UpdatedAt); err != nil {
		t.Fatalf("seed status: %v", err)
	}
	if _, err := env.Engine.GenerateArtifacts(env.Ctx, in.ID); err == nil {
		t.Fatalf("expected transition error from ready")
	}
}

func TestLaunchRequiresReady(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{})
	in := createDraft(t, env)

	_, err := env.Engine.Launch(env.Ctx, in.ID)
	if !errors.Is(err, launch.ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
	if len(env.Creator.calls) != 0 {
		t.Fatalf("no tickets should be attempted, got %v", env.Creator.calls)
	}
}

func TestLaunchRequiresProjectCodes(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{})
	in := createDraft(t, env)

	if _, err := env.Engine.CreateTeam(env.Ctx, domain.Team{TeamName: "Research"}); err != nil {
		t.Fatalf("create team: %v", err)
	}
	ready := domain.StatusReady
	if _, err := env.Engine.Repo.UpdateInitiative(env.Ctx, in.ID, repo.InitiativeUpdate{
		Status:          &ready,
		TeamAssignments: []string{"Research"},
	}, in.UpdatedAt); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := env.Engine.Launch(env.Ctx, in.ID)
	if !errors.Is(err, launch.ErrNoProjectCodes) {
		t.Fatalf("err = %v, want ErrNoProjectCodes", err)
	}
	if len(env.Creator.calls) != 0 {
		t.Fatalf("no tickets should be attempted, got %v", env.Creator.calls)
	}
}

func TestLaunchRecordsFailures(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{})
	env.Creator.failFor = map[string]string{"BE": "field required"}
	in := createDraft(t, env)
	ready := domain.StatusReady
	if _, err := env.Engine.Repo.UpdateInitiative(env.Ctx, in.ID, repo.InitiativeUpdate{
		Status:          &ready,
		TeamAssignments: []string{"Frontend", "Backend"},
	}, in.UpdatedAt); err != nil {
		t.Fatalf("seed: %v", err)
	}

	result, err := env.Engine.Launch(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if result.Initiative.Status != domain.StatusLaunched {
		t.Fatalf("status = %s, launch must complete despite failures", result.Initiative.Status)
	}
	if result.Summary.Successful != 1 || result.Summary.Failed != 1 {
		t.Fatalf("summary = %+v", result.Summary)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{})
	in := createDraft(t, env)

	launched := domain.StatusLaunched
	if _, err := env.Engine.UpdateInitiative(env.Ctx, in.ID, repo.InitiativeUpdate{Status: &launched}); err == nil {
		t.Fatalf("draft -> launched must be rejected")
	}
	cancelled := domain.StatusCancelled
	updated, err := env.Engine.UpdateInitiative(env.Ctx, in.ID, repo.InitiativeUpdate{Status: &cancelled})
	if err != nil {
		t.Fatalf("draft -> cancelled: %v", err)
	}
	if updated.Status != domain.StatusCancelled {
		t.Fatalf("status = %s", updated.Status)
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{err: errors.New("api down")})
	in := createDraft(t, env)
	if _, err := env.Engine.GenerateArtifacts(env.Ctx, in.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := env.Engine.Launch(env.Ctx, in.ID); err != nil {
		t.Fatalf("launch: %v", err)
	}

	dash, err := env.Engine.GetDashboard(env.Ctx, in.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.Summary.Status != domain.StatusLaunched || dash.Summary.TeamsAssigned != 2 {
		t.Fatalf("summary = %+v", dash.Summary)
	}
	if len(dash.TicketStatuses) == 0 || dash.TicketStatuses[0].CurrentStatus != "In Progress" {
		t.Fatalf("ticket statuses = %+v", dash.TicketStatuses)
	}
}

func TestDeleteTeamBlockedWhenAssigned(t *testing.T) {
	env := newTestEnv(t, &stubCompleter{err: errors.New("api down")})
	in := createDraft(t, env)
	if _, err := env.Engine.GenerateArtifacts(env.Ctx, in.ID); err != nil {
		t.Fatalf("generate: %v", err)
	}

	teams, err := env.Engine.ListTeams(env.Ctx)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	var frontend domain.Team
	for _, team := range teams {
		if team.TeamName == "Frontend" {
			frontend = team
		}
	}
	if frontend.ID == 0 {
		t.Fatalf("seeded Frontend team missing")
	}
	if _, err := env.Engine.DeleteTeam(env.Ctx, frontend.ID); !errors.Is(err, repo.ErrTeamInUse) {
		t.Fatalf("err = %v, want ErrTeamInUse", err)
	}

	if _, err := env.Engine.DeleteInitiative(env.Ctx, in.ID); err != nil {
		t.Fatalf("delete initiative: %v", err)
	}
	if _, err := env.Engine.DeleteTeam(env.Ctx, frontend.ID); err != nil {
		t.Fatalf("delete after unassignment: %v", err)
	}
}
