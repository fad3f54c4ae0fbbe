package launch

import (
	"context"
	"strings"
	"testing"
	"time"

	"launchpad/internal/domain"
	"launchpad/internal/jira"
)

type fakeCreator struct {
	calls   []string
	failFor map[string]string
}

func (f *fakeCreator) CreateTicket(ctx context.Context, projectKey, summary, description, issueType, priority string) jira.CreateResult {
	f.calls = append(f.calls, projectKey)
	if msg, ok := f.failFor[projectKey]; ok {
		return jira.CreateResult{Success: false, Error: msg}
	}
	key := projectKey + "-1"
	return jira.CreateResult{
		Success:   true,
		TicketKey: key,
		TicketURL: "https://example.atlassian.net/browse/" + key,
	}
}

func testTeams() []domain.Team {
	return []domain.Team{
		{ID: 1, TeamName: "Frontend", JiraProjectCode: "FE"},
		{ID: 2, TeamName: "Backend", JiraProjectCode: "BE"},
		{ID: 3, TeamName: "Design"},
	}
}

func TestBuildRequestsFromTasks(t *testing.T) {
	in := domain.Initiative{
		Title:           "Search",
		Description:     "Add search",
		TeamAssignments: []string{"Frontend", "Backend", "Design"},
		TaskBreakdown: []domain.Task{
			{Title: "API", Team: "Backend", EstimatedHours: 24, Priority: "High"},
			{Title: "UI", Team: "Frontend", EstimatedHours: 16, Priority: "Medium"},
			{Title: "Mockups", Team: "Design", EstimatedHours: 8, Priority: "Low"},
		},
	}
	reqs := BuildRequests(in, testTeams())
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests (Design has no project code), got %d", len(reqs))
	}
	if reqs[0].ProjectKey != "BE" || reqs[0].Summary != "Search - Backend: API" {
		t.Fatalf("first request = %+v", reqs[0])
	}
	if reqs[0].Priority != "High" {
		t.Fatalf("priority = %q", reqs[0].Priority)
	}
	if !strings.Contains(reqs[0].Description, "Estimated Hours: 24") {
		t.Fatalf("description missing task details: %q", reqs[0].Description)
	}
}

func TestBuildRequestsPerTeamWithoutTasks(t *testing.T) {
	in := domain.Initiative{
		Title:           "Search",
		Description:     "Add search",
		TeamAssignments: []string{"Frontend", "Design"},
	}
	reqs := BuildRequests(in, testTeams())
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].Summary != "Search - Frontend Implementation" || reqs[0].Priority != "Medium" {
		t.Fatalf("request = %+v", reqs[0])
	}
}

func TestBuildRequestsEmptyWhenNoProjectCodes(t *testing.T) {
	in := domain.Initiative{Title: "X", TeamAssignments: []string{"Design"}}
	if reqs := BuildRequests(in, testTeams()); len(reqs) != 0 {
		t.Fatalf("expected no requests, got %v", reqs)
	}
}

func TestRunSequentialWithDelay(t *testing.T) {
	creator := &fakeCreator{}
	var slept []time.Duration
	l := New(creator, 500*time.Millisecond, nil)
	l.Sleep = func(d time.Duration) { slept = append(slept, d) }

	reqs := []Request{
		{ProjectKey: "FE", Team: "Frontend"},
		{ProjectKey: "BE", Team: "Backend"},
		{ProjectKey: "QA", Team: "QA"},
	}
	results, summary := l.Run(context.Background(), reqs)

	if len(results) != 3 || summary.Total != 3 || summary.Successful != 3 || summary.Failed != 0 {
		t.Fatalf("results=%d summary=%+v", len(results), summary)
	}
	if len(creator.calls) != 3 || creator.calls[0] != "FE" || creator.calls[2] != "QA" {
		t.Fatalf("call order = %v", creator.calls)
	}
	if len(slept) != 2 {
		t.Fatalf("expected 2 sleeps between 3 requests, got %d", len(slept))
	}
	for _, d := range slept {
		if d != 500*time.Millisecond {
			t.Fatalf("slept %v, want 500ms", d)
		}
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	creator := &fakeCreator{failFor: map[string]string{"BE": "project disabled"}}
	l := New(creator, 0, nil)

	results, summary := l.Run(context.Background(), []Request{
		{ProjectKey: "FE", Team: "Frontend"},
		{ProjectKey: "BE", Team: "Backend"},
		{ProjectKey: "QA", Team: "QA"},
	})

	if summary.Successful != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if results[1].Success || results[1].Error != "project disabled" {
		t.Fatalf("failed result = %+v", results[1])
	}
	if !results[2].Success || results[2].TicketKey != "QA-1" {
		t.Fatalf("third result = %+v", results[2])
	}
}
