package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"launchpad/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const initiativeColumns = `id,title,description,objectives,status,one_pager,task_breakdown,created_tickets,team_assignments,created_at,updated_at`

// decodeStringList tolerates malformed stored JSON. A bare string becomes a
// single-element list, anything else decodes to empty.
func decodeStringList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		if list == nil {
			return []string{}
		}
		return list
	}
	var single string
	if err := json.Unmarshal([]byte(raw), &single); err == nil && single != "" {
		return []string{single}
	}
	return []string{}
}

func decodeTasks(raw string) []domain.Task {
	var tasks []domain.Task
	if raw == "" {
		return []domain.Task{}
	}
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil || tasks == nil {
		return []domain.Task{}
	}
	return tasks
}

func decodeTickets(raw string) []domain.TicketResult {
	var tickets []domain.TicketResult
	if raw == "" {
		return []domain.TicketResult{}
	}
	if err := json.Unmarshal([]byte(raw), &tickets); err != nil || tickets == nil {
		return []domain.TicketResult{}
	}
	return tickets
}

func encodeJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func scanInitiative(scan func(dest ...any) error) (domain.Initiative, error) {
	var in domain.Initiative
	var objectives, tasks, tickets, assignments string
	var onePager sql.NullString
	var status string
	err := scan(&in.ID, &in.Title, &in.Description, &objectives, &status, &onePager, &tasks, &tickets, &assignments, &in.CreatedAt, &in.UpdatedAt)
	if err == sql.ErrNoRows {
		return in, ErrNotFound
	}
	if err != nil {
		return in, err
	}
	in.Status = domain.Status(status)
	if onePager.Valid {
		in.OnePager = onePager.String
	}
	in.Objectives = decodeStringList(objectives)
	in.TaskBreakdown = decodeTasks(tasks)
	in.CreatedTickets = decodeTickets(tickets)
	in.TeamAssignments = decodeStringList(assignments)
	return in, nil
}

func (r Repo) InsertInitiative(ctx context.Context, in domain.Initiative) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO initiatives(`+initiativeColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		in.ID, in.Title, in.Description, encodeJSON(in.Objectives), string(in.Status), nullable(in.OnePager),
		encodeJSON(in.TaskBreakdown), encodeJSON(in.CreatedTickets), encodeJSON(in.TeamAssignments),
		in.CreatedAt, in.UpdatedAt)
	return err
}

func (r Repo) GetInitiative(ctx context.Context, id string) (domain.Initiative, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+initiativeColumns+` FROM initiatives WHERE id=?`, id)
	return scanInitiative(row.Scan)
}

type InitiativeFilters struct {
	Status string
	Limit  int
	Offset int
}

func (r Repo) ListInitiatives(ctx context.Context, f InitiativeFilters) ([]domain.Initiative, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + initiativeColumns + ` FROM initiatives ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
		if f.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, f.Offset)
		}
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Initiative
	for rows.Next() {
		in, err := scanInitiative(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, in)
	}
	return res, rows.Err()
}

// InitiativeUpdate carries the optional fields of an update. Nil means leave
// the column untouched.
type InitiativeUpdate struct {
	Title           *string
	Description     *string
	Objectives      []string
	Status          *domain.Status
	OnePager        *string
	TaskBreakdown   []domain.Task
	CreatedTickets  []domain.TicketResult
	TeamAssignments []string
}

func (r Repo) UpdateInitiative(ctx context.Context, id string, u InitiativeUpdate, now string) (domain.Initiative, error) {
	var (
		fields []string
		args   []any
	)
	if u.Title != nil {
		fields = append(fields, "title=?")
		args = append(args, *u.Title)
	}
	if u.Description != nil {
		fields = append(fields, "description=?")
		args = append(args, *u.Description)
	}
	if u.Objectives != nil {
		fields = append(fields, "objectives=?")
		args = append(args, encodeJSON(u.Objectives))
	}
	if u.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, string(*u.Status))
	}
	if u.OnePager != nil {
		fields = append(fields, "one_pager=?")
		args = append(args, nullable(*u.OnePager))
	}
	if u.TaskBreakdown != nil {
		fields = append(fields, "task_breakdown=?")
		args = append(args, encodeJSON(u.TaskBreakdown))
	}
	if u.CreatedTickets != nil {
		fields = append(fields, "created_tickets=?")
		args = append(args, encodeJSON(u.CreatedTickets))
	}
	if u.TeamAssignments != nil {
		fields = append(fields, "team_assignments=?")
		args = append(args, encodeJSON(u.TeamAssignments))
	}
	if len(fields) == 0 {
		return r.GetInitiative(ctx, id)
	}
	fields = append(fields, "updated_at=?")
	args = append(args, now, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE initiatives SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return domain.Initiative{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Initiative{}, ErrNotFound
	}
	return r.GetInitiative(ctx, id)
}

func (r Repo) DeleteInitiative(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM initiatives WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) CountInitiativesByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, count(*) FROM initiatives GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, rows.Err()
}

// RawInitiativeFields holds the stored JSON text of an initiative's list
// columns, before any decoding.
type RawInitiativeFields struct {
	ID              string
	Objectives      string
	TaskBreakdown   string
	CreatedTickets  string
	TeamAssignments string
}

// ListRawInitiativeFields returns the undecoded JSON columns of every
// initiative, for integrity repair.
func (r Repo) ListRawInitiativeFields(ctx context.Context) ([]RawInitiativeFields, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,objectives,task_breakdown,created_tickets,team_assignments FROM initiatives ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []RawInitiativeFields
	for rows.Next() {
		var f RawInitiativeFields
		if err := rows.Scan(&f.ID, &f.Objectives, &f.TaskBreakdown, &f.CreatedTickets, &f.TeamAssignments); err != nil {
			return nil, err
		}
		res = append(res, f)
	}
	return res, rows.Err()
}

// WriteRawInitiativeFields rewrites the JSON columns of one initiative
// without touching updated_at.
func (r Repo) WriteRawInitiativeFields(ctx context.Context, f RawInitiativeFields) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE initiatives SET objectives=?, task_breakdown=?, created_tickets=?, team_assignments=? WHERE id=?`,
		f.Objectives, f.TaskBreakdown, f.CreatedTickets, f.TeamAssignments, f.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) LatestEvents(ctx context.Context, limit int, initiativeID, evtType string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if initiativeID != "" {
		clauses = append(clauses, "initiative_id=?")
		args = append(args, initiativeID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,initiative_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var initID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &initID, &payload); err != nil {
			return nil, err
		}
		if initID.Valid {
			e.InitiativeID = initID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
