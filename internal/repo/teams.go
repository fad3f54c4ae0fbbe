package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"launchpad/internal/domain"
)

// ErrTeamInUse is returned when deleting a team still referenced by an
// initiative's team assignments.
var ErrTeamInUse = errors.New("team referenced by initiatives")

const teamColumns = `id,team_name,pm,pm_email,tl,tl_email,em,em_email,jira_project_code,slack_channel,created_at`

func scanTeam(scan func(dest ...any) error) (domain.Team, error) {
	var t domain.Team
	var pm, pmEmail, tl, tlEmail, em, emEmail, jira, slack sql.NullString
	err := scan(&t.ID, &t.TeamName, &pm, &pmEmail, &tl, &tlEmail, &em, &emEmail, &jira, &slack, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.PM = pm.String
	t.PMEmail = pmEmail.String
	t.TL = tl.String
	t.TLEmail = tlEmail.String
	t.EM = em.String
	t.EMEmail = emEmail.String
	t.JiraProjectCode = jira.String
	t.SlackChannel = slack.String
	return t, nil
}

func (r Repo) InsertTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO teams(team_name,pm,pm_email,tl,tl_email,em,em_email,jira_project_code,slack_channel,created_at) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.TeamName, nullable(t.PM), nullable(t.PMEmail), nullable(t.TL), nullable(t.TLEmail),
		nullable(t.EM), nullable(t.EMEmail), nullable(t.JiraProjectCode), nullable(t.SlackChannel), t.CreatedAt)
	if err != nil {
		return t, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return t, err
	}
	t.ID = id
	return t, nil
}

func (r Repo) GetTeam(ctx context.Context, id int64) (domain.Team, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id=?`, id)
	return scanTeam(row.Scan)
}

func (r Repo) GetTeamByName(ctx context.Context, name string) (domain.Team, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE team_name=? COLLATE NOCASE`, name)
	return scanTeam(row.Scan)
}

func (r Repo) ListTeams(ctx context.Context) ([]domain.Team, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY team_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Team
	for rows.Next() {
		t, err := scanTeam(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// TeamUpdate carries optional team fields. Nil leaves the column untouched.
type TeamUpdate struct {
	TeamName        *string
	PM              *string
	PMEmail         *string
	TL              *string
	TLEmail         *string
	EM              *string
	EMEmail         *string
	JiraProjectCode *string
	SlackChannel    *string
}

func (r Repo) UpdateTeam(ctx context.Context, id int64, u TeamUpdate) (domain.Team, error) {
	var (
		fields []string
		args   []any
	)
	set := func(col string, v *string) {
		if v != nil {
			fields = append(fields, col+"=?")
			args = append(args, nullable(*v))
		}
	}
	if u.TeamName != nil {
		fields = append(fields, "team_name=?")
		args = append(args, *u.TeamName)
	}
	set("pm", u.PM)
	set("pm_email", u.PMEmail)
	set("tl", u.TL)
	set("tl_email", u.TLEmail)
	set("em", u.EM)
	set("em_email", u.EMEmail)
	set("jira_project_code", u.JiraProjectCode)
	set("slack_channel", u.SlackChannel)
	if len(fields) == 0 {
		return r.GetTeam(ctx, id)
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE teams SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return domain.Team{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Team{}, ErrNotFound
	}
	return r.GetTeam(ctx, id)
}

// DeleteTeam refuses when the team appears in any initiative's assignments.
func (r Repo) DeleteTeam(ctx context.Context, id int64) error {
	team, err := r.GetTeam(ctx, id)
	if err != nil {
		return err
	}
	count, err := r.CountInitiativesForTeam(ctx, team.TeamName)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s used by %d initiative(s)", ErrTeamInUse, team.TeamName, count)
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM teams WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountInitiativesForTeam counts initiatives whose team_assignments contain
// the team name.
func (r Repo) CountInitiativesForTeam(ctx context.Context, teamName string) (int, error) {
	needle := "%" + encodeJSON(teamName) + "%"
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM initiatives WHERE team_assignments LIKE ?`, needle).Scan(&count)
	return count, err
}

// TeamCatalogStats summarizes integration coverage across the catalog.
type TeamCatalogStats struct {
	Total     int `json:"total"`
	WithJira  int `json:"with_jira"`
	WithSlack int `json:"with_slack"`
}

func (r Repo) CatalogStats(ctx context.Context) (TeamCatalogStats, error) {
	var s TeamCatalogStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT count(*),
		       count(jira_project_code),
		       count(slack_channel)
		FROM teams`).Scan(&s.Total, &s.WithJira, &s.WithSlack)
	return s, err
}

// TeamStats summarizes one team's involvement across initiatives.
type TeamStats struct {
	Team            domain.Team `json:"team"`
	InitiativeCount int         `json:"initiative_count"`
	TaskCount       int         `json:"task_count"`
	EstimatedHours  int         `json:"estimated_hours"`
}

// StatsForTeam aggregates assignments and task load for a team.
func (r Repo) StatsForTeam(ctx context.Context, id int64) (TeamStats, error) {
	team, err := r.GetTeam(ctx, id)
	if err != nil {
		return TeamStats{}, err
	}
	stats := TeamStats{Team: team}
	initiatives, err := r.ListInitiatives(ctx, InitiativeFilters{})
	if err != nil {
		return stats, err
	}
	for _, in := range initiatives {
		assigned := false
		for _, name := range in.TeamAssignments {
			if strings.EqualFold(name, team.TeamName) {
				assigned = true
				break
			}
		}
		if !assigned {
			continue
		}
		stats.InitiativeCount++
		for _, task := range in.TaskBreakdown {
			if strings.EqualFold(task.Team, team.TeamName) {
				stats.TaskCount++
				stats.EstimatedHours += task.EstimatedHours
			}
		}
	}
	return stats, nil
}
