// Package repair restores invalid JSON columns on stored initiatives.
package repair

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"launchpad/internal/repo"
)

// Runner scans every initiative and rewrites columns that no longer hold
// valid JSON. Running it twice is a no-op: repaired values always parse.
type Runner struct {
	Repo repo.Repo
	Log  *zap.Logger
}

func New(r repo.Repo, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Repo: r, Log: log}
}

// Run returns the number of initiatives modified. A corrupted objectives
// column becomes a single-element array holding the raw text; the other
// list columns reset to empty.
func (r *Runner) Run(ctx context.Context) (int, error) {
	rows, err := r.Repo.ListRawInitiativeFields(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, row := range rows {
		changed := false
		if fixed, ok := fixField(row.Objectives, true); ok {
			row.Objectives = fixed
			changed = true
		}
		if fixed, ok := fixField(row.TaskBreakdown, false); ok {
			row.TaskBreakdown = fixed
			changed = true
		}
		if fixed, ok := fixField(row.CreatedTickets, false); ok {
			row.CreatedTickets = fixed
			changed = true
		}
		if fixed, ok := fixField(row.TeamAssignments, false); ok {
			row.TeamAssignments = fixed
			changed = true
		}
		if !changed {
			continue
		}
		r.Log.Info("repairing corrupted initiative fields", zap.String("id", row.ID))
		if err := r.Repo.WriteRawInitiativeFields(ctx, row); err != nil {
			return repaired, err
		}
		repaired++
	}

	r.Log.Info("repair pass complete", zap.Int("repaired", repaired))
	return repaired, nil
}

// fixField reports whether raw needs replacing and with what. Empty values
// and valid JSON are left alone.
func fixField(raw string, wrapAsList bool) (string, bool) {
	if raw == "" || json.Valid([]byte(raw)) {
		return "", false
	}
	if wrapAsList {
		data, err := json.Marshal([]string{raw})
		if err != nil {
			return "[]", true
		}
		return string(data), true
	}
	return "[]", true
}
