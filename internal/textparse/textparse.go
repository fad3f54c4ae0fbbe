// Package textparse extracts structured planning data from free-form model
// output using line and keyword heuristics. It never fails: every function
// returns a usable value even for garbage input.
package textparse

import (
	"regexp"
	"strconv"
	"strings"

	"launchpad/internal/domain"
)

// DefaultTeams is the assignment used when no known team is mentioned.
var DefaultTeams = []string{"Frontend", "Backend"}

var (
	taskStartRe  = regexp.MustCompile(`(?i)^(\d+\.|\*|-|•|Task\s*\d+:|Task:)`)
	taskMarkerRe = regexp.MustCompile(`(?i)^(\d+\.|\*|-|•|Task\s*\d+:|Task:)\s*`)
	hoursRe      = regexp.MustCompile(`(?i)(\d+)\s*(hours?|hrs?|h\b)`)
	daysRe       = regexp.MustCompile(`(?i)(\d+)\s*(days?|d\b)`)
	complexityRe = regexp.MustCompile(`(?i)complexity[:\s]*(\d+)`)
	scoreRe      = regexp.MustCompile(`(?i)score[:\s]*(\d+)`)
	weeksRe      = regexp.MustCompile(`(?i)(\d+)\s*weeks?`)
	sentenceRe   = regexp.MustCompile(`[.!?]+`)
)

// ExtractTeams returns the known teams mentioned anywhere in text, in
// catalog order, deduplicated. An empty result falls back to DefaultTeams.
func ExtractTeams(text string, known []string) []string {
	lower := strings.ToLower(text)
	seen := map[string]bool{}
	var found []string
	for _, team := range known {
		if team == "" || seen[team] {
			continue
		}
		if strings.Contains(lower, strings.ToLower(team)) {
			seen[team] = true
			found = append(found, team)
		}
	}
	if len(found) == 0 {
		return append([]string(nil), DefaultTeams...)
	}
	return found
}

// ExtractTasks splits text into task blocks. A line starting with a list
// marker opens a task; subsequent lines longer than 10 characters extend its
// description and may override team, hours and priority.
func ExtractTasks(text string, teams []string) []domain.Task {
	var tasks []domain.Task
	var current *domain.Task

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if taskStartRe.MatchString(trimmed) {
			if current != nil {
				tasks = append(tasks, *current)
			}
			title := taskMarkerRe.ReplaceAllString(trimmed, "")
			current = &domain.Task{
				Title:          title,
				Description:    title,
				Team:           teamOrFirst(findTeam(trimmed, teams), teams),
				EstimatedHours: hoursOrDefault(extractHours(trimmed), 24),
				Priority:       ExtractPriority(trimmed),
				Dependencies:   []string{},
			}
			continue
		}
		if current != nil && len(trimmed) > 10 {
			current.Description += " " + trimmed
			if team := findTeam(trimmed, teams); team != "" {
				current.Team = team
			}
			if hours := extractHours(trimmed); hours > 0 {
				current.EstimatedHours = hours
			}
			current.Priority = ExtractPriority(trimmed)
		}
	}
	if current != nil {
		tasks = append(tasks, *current)
	}

	if len(tasks) == 0 {
		tasks = append(tasks, domain.Task{
			Title:          "Initiative Implementation",
			Description:    "Implement the main requirements of this initiative",
			Team:           teamOrFirst("", teams),
			EstimatedHours: 40,
			Priority:       "High",
			Dependencies:   []string{},
		})
	}
	return tasks
}

// ExtractPriority maps keyword mentions to a priority level, Medium when
// nothing matches.
func ExtractPriority(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "high") || strings.Contains(lower, "critical") || strings.Contains(lower, "urgent"):
		return "High"
	case strings.Contains(lower, "low") || strings.Contains(lower, "minor"):
		return "Low"
	}
	return "Medium"
}

// ExtractComplexity parses a complexity estimate. The score is clamped to
// 1..10, the timeline to at least one week, and the reasoning is the first
// substantial sentence capped at 200 characters.
func ExtractComplexity(text string) domain.ComplexityAnalysis {
	score := 5
	if m := complexityRe.FindStringSubmatch(text); m != nil {
		score, _ = strconv.Atoi(m[1])
	} else if m := scoreRe.FindStringSubmatch(text); m != nil {
		score, _ = strconv.Atoi(m[1])
	}
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}

	weeks := 8
	if m := weeksRe.FindStringSubmatch(text); m != nil {
		weeks, _ = strconv.Atoi(m[1])
	}
	if weeks < 1 {
		weeks = 1
	}

	reasoning := "Medium complexity initiative"
	for _, s := range sentenceRe.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) > 10 {
			reasoning = s
			break
		}
	}
	if r := []rune(reasoning); len(r) > 200 {
		reasoning = string(r[:200])
	}

	return domain.ComplexityAnalysis{Score: score, Reasoning: reasoning, Weeks: weeks}
}

func findTeam(text string, teams []string) string {
	lower := strings.ToLower(text)
	for _, team := range teams {
		if team != "" && strings.Contains(lower, strings.ToLower(team)) {
			return team
		}
	}
	return ""
}

func teamOrFirst(team string, teams []string) string {
	if team != "" {
		return team
	}
	if len(teams) > 0 && teams[0] != "" {
		return teams[0]
	}
	return "Backend"
}

func extractHours(text string) int {
	if m := hoursRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if m := daysRe.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n * 8
	}
	return 0
}

func hoursOrDefault(hours, def int) int {
	if hours > 0 {
		return hours
	}
	return def
}
