package textparse

import (
	"strings"
	"testing"
	"unicode/utf8"
)

var catalog = []string{"Frontend", "Backend", "Mobile", "Data", "DevOps", "QA", "Design", "Security"}

func TestExtractTeamsCatalogOrder(t *testing.T) {
	text := "This needs the QA team first, then backend work, and finally frontend polish."
	got := ExtractTeams(text, catalog)
	want := []string{"Frontend", "Backend", "QA"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExtractTeamsDefaultPair(t *testing.T) {
	got := ExtractTeams("no recognizable names here", catalog)
	if len(got) != 2 || got[0] != "Frontend" || got[1] != "Backend" {
		t.Fatalf("got %v, want default pair", got)
	}
}

func TestExtractTeamsDedup(t *testing.T) {
	got := ExtractTeams("Backend backend BACKEND", catalog)
	if len(got) != 1 || got[0] != "Backend" {
		t.Fatalf("got %v, want single Backend", got)
	}
}

func TestExtractTasksMarkersAndContinuation(t *testing.T) {
	text := `Here is the plan:
1. Build the API endpoints
   This is Backend work, roughly 3 days of effort with high urgency.
2. Design mockups for Design team, 16 hours
- QA regression pass`
	tasks := ExtractTasks(text, catalog)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d: %+v", len(tasks), tasks)
	}

	first := tasks[0]
	if first.Title != "Build the API endpoints" {
		t.Fatalf("title = %q", first.Title)
	}
	if first.Team != "Backend" {
		t.Fatalf("team = %q", first.Team)
	}
	if first.EstimatedHours != 24 {
		t.Fatalf("hours = %d, want 24 (3 days)", first.EstimatedHours)
	}
	if first.Priority != "High" {
		t.Fatalf("priority = %q", first.Priority)
	}
	if !strings.Contains(first.Description, "roughly 3 days") {
		t.Fatalf("description not extended: %q", first.Description)
	}

	second := tasks[1]
	if second.Team != "Design" || second.EstimatedHours != 16 {
		t.Fatalf("second task = %+v", second)
	}

	third := tasks[2]
	if third.Team != "QA" || third.EstimatedHours != 24 || third.Priority != "Medium" {
		t.Fatalf("third task = %+v", third)
	}
}

func TestExtractTasksFallback(t *testing.T) {
	tasks := ExtractTasks("nothing that looks like a list", []string{"Data"})
	if len(tasks) != 1 {
		t.Fatalf("expected 1 fallback task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.Title != "Initiative Implementation" {
		t.Fatalf("title = %q", task.Title)
	}
	if task.Team != "Data" {
		t.Fatalf("team = %q", task.Team)
	}
	if task.EstimatedHours != 40 || task.Priority != "High" {
		t.Fatalf("task = %+v", task)
	}
}

func TestExtractTasksFallbackTeamWhenEmpty(t *testing.T) {
	tasks := ExtractTasks("", nil)
	if tasks[0].Team != "Backend" {
		t.Fatalf("team = %q, want Backend", tasks[0].Team)
	}
}

func TestExtractPriority(t *testing.T) {
	cases := map[string]string{
		"this is CRITICAL":  "High",
		"urgent fix needed": "High",
		"minor cleanup":     "Low",
		"regular work":      "Medium",
	}
	for text, want := range cases {
		if got := ExtractPriority(text); got != want {
			t.Errorf("ExtractPriority(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestExtractComplexityClamps(t *testing.T) {
	got := ExtractComplexity("Complexity: 15. This is going to take 0 weeks somehow.")
	if got.Score != 10 {
		t.Fatalf("score = %d, want clamp to 10", got.Score)
	}
	if got.Weeks != 1 {
		t.Fatalf("weeks = %d, want floor of 1", got.Weeks)
	}
}

func TestExtractComplexityDefaults(t *testing.T) {
	got := ExtractComplexity("short")
	if got.Score != 5 || got.Weeks != 8 {
		t.Fatalf("got %+v, want defaults 5/8", got)
	}
	if got.Reasoning != "Medium complexity initiative" {
		t.Fatalf("reasoning = %q", got.Reasoning)
	}
}

func TestExtractComplexityReasoningTruncated(t *testing.T) {
	long := strings.Repeat("a", 300) + ". Score: 3. Timeline is 4 weeks."
	got := ExtractComplexity(long)
	if got.Score != 3 || got.Weeks != 4 {
		t.Fatalf("got %+v", got)
	}
	if len(got.Reasoning) != 200 {
		t.Fatalf("reasoning length = %d, want 200", len(got.Reasoning))
	}
}

func TestExtractComplexityReasoningTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 300) + ". Score: 3. Timeline is 4 weeks."
	got := ExtractComplexity(long)
	if n := utf8.RuneCountInString(got.Reasoning); n != 200 {
		t.Fatalf("reasoning runes = %d, want 200", n)
	}
	if !utf8.ValidString(got.Reasoning) {
		t.Fatalf("reasoning is not valid UTF-8: %q", got.Reasoning)
	}
}
