package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"launchpad/internal/domain"
	"launchpad/internal/textparse"
)

// Generator builds planning artifacts for an initiative. Every generate
// call degrades to a deterministic fallback when the model is unavailable,
// so enrichment as a whole never fails.
type Generator struct {
	Completer Completer
	Log       *zap.Logger
}

func NewGenerator(c Completer, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{Completer: c, Log: log}
}

// MapTeamDependencies asks which known teams an initiative needs. Falls
// back to the default pair on model failure.
func (g *Generator) MapTeamDependencies(ctx context.Context, title, description string, objectives, known []string) []string {
	prompt := fmt.Sprintf(`Analyze this initiative and identify which teams should be involved:

Available teams: %s

Initiative Details:
Title: %s
Description: %s
Objectives:
%s

Which teams would be needed for this initiative? Consider the technical requirements, user-facing components, data needs, testing requirements, and infrastructure needs.`,
		strings.Join(known, ", "), title, description, bulleted(objectives))

	resp, err := g.Completer.Complete(ctx, prompt, 500)
	if err != nil {
		g.Log.Warn("team mapping failed, using defaults", zap.Error(err))
		return append([]string(nil), textparse.DefaultTeams...)
	}
	teams := textparse.ExtractTeams(resp, known)
	g.Log.Info("team dependencies identified", zap.Strings("teams", teams))
	return teams
}

// GenerateOnePager produces a stakeholder document. Falls back to a
// templated document built from the initiative's own fields.
func (g *Generator) GenerateOnePager(ctx context.Context, title, description string, objectives, teams []string) string {
	prompt := fmt.Sprintf(`Create a professional one-pager document for this initiative:

Title: %s
Description: %s
Objectives:
%s
Assigned Teams: %s

Please create a well-structured document with sections like:
- Executive Summary
- Objectives
- Team Responsibilities
- Success Metrics
- Timeline

Write in a professional, concise tone suitable for stakeholders.`,
		title, description, bulleted(objectives), strings.Join(teams, ", "))

	resp, err := g.Completer.Complete(ctx, prompt, 3000)
	if err != nil {
		g.Log.Warn("one-pager generation failed, using template", zap.Error(err))
		return fallbackOnePager(title, description, objectives, teams)
	}
	return resp
}

// GenerateTaskBreakdown produces the initiative's task list. Falls back to
// a single implementation task owned by the first team.
func (g *Generator) GenerateTaskBreakdown(ctx context.Context, title, description string, objectives, teams []string) []domain.Task {
	prompt := fmt.Sprintf(`Break down this initiative into specific tasks:

Initiative: %s
Description: %s
Objectives:
%s
Teams available: %s

Create a list of 3-5 specific tasks that need to be completed. For each task, include:
- What needs to be done
- Which team should handle it
- Estimated time/effort
- Priority level

Make the tasks realistic and actionable.`,
		title, description, bulleted(objectives), strings.Join(teams, ", "))

	resp, err := g.Completer.Complete(ctx, prompt, 2000)
	if err != nil {
		g.Log.Warn("task breakdown failed, using fallback task", zap.Error(err))
		team := "Backend"
		if len(teams) > 0 && teams[0] != "" {
			team = teams[0]
		}
		return []domain.Task{{
			Title:          title + " - Implementation",
			Description:    description,
			Team:           team,
			EstimatedHours: 40,
			Priority:       "High",
			Dependencies:   []string{},
		}}
	}
	tasks := textparse.ExtractTasks(resp, teams)
	g.Log.Info("task breakdown generated", zap.Int("tasks", len(tasks)))
	return tasks
}

// AnalyzeComplexity estimates effort. Falls back to a medium-complexity
// default.
func (g *Generator) AnalyzeComplexity(ctx context.Context, title, description string, objectives []string) domain.ComplexityAnalysis {
	prompt := fmt.Sprintf(`Analyze the complexity of this initiative:

Title: %s
Description: %s
Objectives:
%s

Please provide:
1. A complexity score from 1-10 (1 = very simple, 10 = extremely complex)
2. Your reasoning for this score
3. Recommended timeline in weeks

Consider factors like technical difficulty, team coordination needs, dependencies, scope, and potential risks.`,
		title, description, bulleted(objectives))

	resp, err := g.Completer.Complete(ctx, prompt, 800)
	if err != nil {
		g.Log.Warn("complexity analysis failed, using fallback", zap.Error(err))
		return domain.ComplexityAnalysis{
			Score:     5,
			Reasoning: "Unable to analyze automatically - defaulting to medium complexity",
			Weeks:     8,
		}
	}
	return textparse.ExtractComplexity(resp)
}

func bulleted(items []string) string {
	if len(items) == 0 {
		return "- (none)"
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + item)
	}
	return b.String()
}

func fallbackOnePager(title, description string, objectives, teams []string) string {
	var teamLines []string
	for _, team := range teams {
		teamLines = append(teamLines, fmt.Sprintf("- **%s**: Implementation and delivery", team))
	}
	return fmt.Sprintf(`# %s

## Executive Summary
%s

## Objectives
%s

## Team Responsibilities
%s

## Success Metrics
- Initiative completion within timeline
- All objectives met
- Stakeholder satisfaction

## Timeline
To be determined based on team capacity and requirements.`,
		title, description, bulleted(objectives), strings.Join(teamLines, "\n"))
}
