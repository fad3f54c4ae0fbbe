package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"launchpad/internal/domain"
	"launchpad/internal/events"
	"launchpad/internal/repo"
)

func (e Engine) CreateTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	t.TeamName = strings.TrimSpace(t.TeamName)
	if t.TeamName == "" {
		return domain.Team{}, errors.New("team_name is required")
	}
	t.CreatedAt = e.now().UTC().Format(time.RFC3339)
	created, err := e.Repo.InsertTeam(ctx, t)
	if err != nil {
		return domain.Team{}, err
	}
	if err := e.Events.Append(ctx, "team.created", "", events.EventPayload{"team_name": created.TeamName}); err != nil {
		return domain.Team{}, err
	}
	e.Log.Info("team created", zap.String("team", created.TeamName))
	return created, nil
}

func (e Engine) GetTeam(ctx context.Context, id int64) (domain.Team, error) {
	return e.Repo.GetTeam(ctx, id)
}

func (e Engine) ListTeams(ctx context.Context) ([]domain.Team, error) {
	return e.Repo.ListTeams(ctx)
}

func (e Engine) UpdateTeam(ctx context.Context, id int64, u repo.TeamUpdate) (domain.Team, error) {
	if u.TeamName != nil && strings.TrimSpace(*u.TeamName) == "" {
		return domain.Team{}, errors.New("team_name cannot be empty")
	}
	updated, err := e.Repo.UpdateTeam(ctx, id, u)
	if err != nil {
		return domain.Team{}, err
	}
	if err := e.Events.Append(ctx, "team.updated", "", events.EventPayload{"team_name": updated.TeamName}); err != nil {
		return domain.Team{}, err
	}
	return updated, nil
}

// DeleteTeam fails with repo.ErrTeamInUse while any initiative still
// assigns the team.
func (e Engine) DeleteTeam(ctx context.Context, id int64) (domain.Team, error) {
	t, err := e.Repo.GetTeam(ctx, id)
	if err != nil {
		return domain.Team{}, err
	}
	if err := e.Repo.DeleteTeam(ctx, id); err != nil {
		return domain.Team{}, err
	}
	if err := e.Events.Append(ctx, "team.deleted", "", events.EventPayload{"team_name": t.TeamName}); err != nil {
		return domain.Team{}, err
	}
	e.Log.Info("team deleted", zap.String("team", t.TeamName))
	return t, nil
}

func (e Engine) TeamStats(ctx context.Context, id int64) (repo.TeamStats, error) {
	return e.Repo.StatsForTeam(ctx, id)
}

func (e Engine) TeamCatalogStats(ctx context.Context) (repo.TeamCatalogStats, error) {
	return e.Repo.CatalogStats(ctx)
}
