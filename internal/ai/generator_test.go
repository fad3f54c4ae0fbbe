package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubCompleter struct {
	responses map[string]string
	err       error
	calls     int
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	s.calls++
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

var knownTeams = []string{"Frontend", "Backend", "Mobile", "Data", "DevOps", "QA", "Design", "Security"}

func TestMapTeamDependencies(t *testing.T) {
	stub := &stubCompleter{responses: map[string]string{
		"identify which teams": "You will need the Backend team for the API and QA for testing.",
	}}
	g := NewGenerator(stub, nil)
	teams := g.MapTeamDependencies(context.Background(), "Search", "Add search", []string{"fast results"}, knownTeams)
	if len(teams) != 2 || teams[0] != "Backend" || teams[1] != "QA" {
		t.Fatalf("teams = %v", teams)
	}
}

func TestMapTeamDependenciesFallback(t *testing.T) {
	stub := &stubCompleter{err: errors.New("api down")}
	g := NewGenerator(stub, nil)
	teams := g.MapTeamDependencies(context.Background(), "Search", "Add search", nil, knownTeams)
	if len(teams) != 2 || teams[0] != "Frontend" || teams[1] != "Backend" {
		t.Fatalf("teams = %v, want default pair", teams)
	}
}

func TestGenerateOnePagerFallback(t *testing.T) {
	stub := &stubCompleter{err: errors.New("api down")}
	g := NewGenerator(stub, nil)
	doc := g.GenerateOnePager(context.Background(), "Search", "Add search", []string{"fast results"}, []string{"Backend"})
	if !strings.Contains(doc, "# Search") {
		t.Fatalf("fallback doc missing title header: %q", doc)
	}
	if !strings.Contains(doc, "## Executive Summary") || !strings.Contains(doc, "Add search") {
		t.Fatalf("fallback doc missing summary: %q", doc)
	}
	if !strings.Contains(doc, "**Backend**") {
		t.Fatalf("fallback doc missing team responsibilities: %q", doc)
	}
}

func TestGenerateTaskBreakdownFallback(t *testing.T) {
	stub := &stubCompleter{err: errors.New("api down")}
	g := NewGenerator(stub, nil)
	tasks := g.GenerateTaskBreakdown(context.Background(), "Search", "Add search", nil, []string{"Data"})
	if len(tasks) != 1 {
		t.Fatalf("expected 1 fallback task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.Title != "Search - Implementation" || task.Team != "Data" {
		t.Fatalf("task = %+v", task)
	}
	if task.EstimatedHours != 40 || task.Priority != "High" {
		t.Fatalf("task = %+v", task)
	}
}

func TestGenerateTaskBreakdownParsesResponse(t *testing.T) {
	stub := &stubCompleter{responses: map[string]string{
		"Break down this initiative": "1. Build index pipeline for the Data team, 32 hours, high priority\n2. Frontend search box, 8 hours",
	}}
	g := NewGenerator(stub, nil)
	tasks := g.GenerateTaskBreakdown(context.Background(), "Search", "Add search", nil, []string{"Data", "Frontend"})
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d: %+v", len(tasks), tasks)
	}
	if tasks[0].Team != "Data" || tasks[0].EstimatedHours != 32 || tasks[0].Priority != "High" {
		t.Fatalf("first task = %+v", tasks[0])
	}
	if tasks[1].Team != "Frontend" || tasks[1].EstimatedHours != 8 {
		t.Fatalf("second task = %+v", tasks[1])
	}
}

func TestAnalyzeComplexityFallback(t *testing.T) {
	stub := &stubCompleter{err: errors.New("api down")}
	g := NewGenerator(stub, nil)
	got := g.AnalyzeComplexity(context.Background(), "Search", "Add search", nil)
	if got.Score != 5 || got.Weeks != 8 {
		t.Fatalf("got %+v", got)
	}
	if got.Reasoning != "Unable to analyze automatically - defaulting to medium complexity" {
		t.Fatalf("reasoning = %q", got.Reasoning)
	}
}

func TestAnalyzeComplexityParsesResponse(t *testing.T) {
	stub := &stubCompleter{responses: map[string]string{
		"Analyze the complexity": "Complexity: 7. This initiative spans several systems. Timeline: 12 weeks.",
	}}
	g := NewGenerator(stub, nil)
	got := g.AnalyzeComplexity(context.Background(), "Search", "Add search", nil)
	if got.Score != 7 || got.Weeks != 12 {
		t.Fatalf("got %+v", got)
	}
}
