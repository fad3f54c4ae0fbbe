package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"launchpad/internal/domain"
	"launchpad/internal/engine"
	"launchpad/internal/launch"
	"launchpad/internal/repo"
)

// JiraChecker verifies Jira connectivity for the health endpoint. Nil means
// Jira is not configured.
type JiraChecker interface {
	CheckAuth(ctx context.Context) (string, error)
}

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	Jira     JiraChecker
	BasePath string
}

// apiError models the error envelope. The envelope fields are tagged on
// the struct itself so huma's serializer emits them at the top level.
type apiError struct {
	status int

	Success bool           `json:"success" example:"false"`
	Message string         `json:"error" example:"initiative not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Message }

// New returns an HTTP handler exposing the Launchpad API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the response envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, msg, details)
	}

	router := chi.NewRouter()
	hcfg := huma.DefaultConfig("Launchpad API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group, cfg.Jira)
	registerStatus(group, cfg.Engine)
	registerInitiatives(group, cfg.Engine)
	registerTeams(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerJira(group, cfg.Jira)
	registerAdmin(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, message string, details map[string]any) huma.StatusError {
	return &apiError{
		status:  status,
		Success: false,
		Message: message,
		Details: details,
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, err.Error(), nil)
	}
	if errors.Is(err, repo.ErrTeamInUse) {
		return newAPIError(http.StatusConflict, err.Error(), nil)
	}
	if errors.Is(err, launch.ErrNotReady) {
		return newAPIError(http.StatusConflict, err.Error(), nil)
	}
	if errors.Is(err, launch.ErrNoAssignments) || errors.Is(err, launch.ErrNoProjectCodes) {
		return newAPIError(http.StatusBadRequest, err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "transition"):
		return newAPIError(http.StatusConflict, msg, nil)
	case strings.Contains(lowered, "invalid") ||
		strings.Contains(lowered, "missing") ||
		strings.Contains(lowered, "required") ||
		strings.Contains(lowered, "cannot be empty"):
		return newAPIError(http.StatusBadRequest, msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal error", map[string]any{"error": msg})
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Launchpad API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

type healthBody struct {
	Status string `json:"status"`
	Jira   string `json:"jira,omitempty"`
}

func registerHealth(api huma.API, jc JiraChecker) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body healthBody `json:"body"`
	}, error) {
		body := healthBody{Status: "ok"}
		if jc != nil {
			if _, err := jc.CheckAuth(ctx); err != nil {
				body.Jira = "unreachable"
			} else {
				body.Jira = "ok"
			}
		}
		return &struct {
			Body healthBody `json:"body"`
		}{Body: body}, nil
	})
}

type statusEnvelope struct {
	Success bool           `json:"success"`
	Data    map[string]int `json:"data"`
}

func registerStatus(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Initiative counts by status",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body statusEnvelope `json:"body"`
	}, error) {
		counts, err := e.StatusCounts(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body statusEnvelope `json:"body"`
		}{Body: statusEnvelope{Success: true, Data: counts}}, nil
	})
}

type initiativeEnvelope struct {
	Success bool               `json:"success"`
	Data    InitiativeResponse `json:"data"`
}

type initiativeListEnvelope struct {
	Success    bool                 `json:"success"`
	Data       []InitiativeResponse `json:"data"`
	Pagination Pagination           `json:"pagination"`
}

type generateEnvelope struct {
	Success bool             `json:"success"`
	Data    GenerateResponse `json:"data"`
}

type launchEnvelope struct {
	Success bool           `json:"success"`
	Data    LaunchResponse `json:"data"`
}

type dashboardEnvelope struct {
	Success bool              `json:"success"`
	Data    DashboardResponse `json:"data"`
}

type deletedInitiativeEnvelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    InitiativeResponse `json:"data"`
}

func registerInitiatives(api huma.API, e engine.Engine) {
	type InitiativePath struct {
		ID string `path:"id"`
	}

	huma.Register(api, huma.Operation{
		OperationID:   "create-initiative",
		Method:        http.MethodPost,
		Path:          "/initiatives",
		Summary:       "Create initiative",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateInitiativeRequest `json:"body"`
	}) (*struct {
		Body initiativeEnvelope `json:"body"`
	}, error) {
		in, err := e.CreateInitiative(ctx, input.Body.Title, input.Body.Description, input.Body.Objectives)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body initiativeEnvelope `json:"body"`
		}{Body: initiativeEnvelope{Success: true, Data: initiativeResponse(in)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-initiatives",
		Method:      http.MethodGet,
		Path:        "/initiatives",
		Summary:     "List initiatives",
	}, func(ctx context.Context, input *struct {
		Status string `query:"status" enum:"draft,analyzing,ready,launched,completed,cancelled" required:"false"`
		Limit  int    `query:"limit" default:"50" minimum:"1" maximum:"200"`
		Offset int    `query:"offset" minimum:"0"`
	}) (*struct {
		Body initiativeListEnvelope `json:"body"`
	}, error) {
		if input.Status != "" {
			if _, err := domain.ParseStatus(input.Status); err != nil {
				return nil, handleError(err)
			}
		}
		items, err := e.ListInitiatives(ctx, repo.InitiativeFilters{
			Status: input.Status,
			Limit:  input.Limit,
			Offset: input.Offset,
		})
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]InitiativeResponse, 0, len(items))
		for _, in := range items {
			out = append(out, initiativeResponse(in))
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 50
		}
		return &struct {
			Body initiativeListEnvelope `json:"body"`
		}{Body: initiativeListEnvelope{
			Success:    true,
			Data:       out,
			Pagination: Pagination{Limit: limit, Offset: input.Offset, Count: len(out)},
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-initiative",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}",
		Summary:     "Get initiative",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *InitiativePath) (*struct {
		Body initiativeEnvelope `json:"body"`
	}, error) {
		in, err := e.GetInitiative(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body initiativeEnvelope `json:"body"`
		}{Body: initiativeEnvelope{Success: true, Data: initiativeResponse(in)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-initiative",
		Method:      http.MethodPut,
		Path:        "/initiatives/{id}",
		Summary:     "Update initiative",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		InitiativePath
		Body UpdateInitiativeRequest `json:"body"`
	}) (*struct {
		Body initiativeEnvelope `json:"body"`
	}, error) {
		u := repo.InitiativeUpdate{
			Title:           input.Body.Title,
			Description:     input.Body.Description,
			Objectives:      input.Body.Objectives,
			OnePager:        input.Body.OnePager,
			TaskBreakdown:   input.Body.TaskBreakdown,
			CreatedTickets:  input.Body.CreatedTickets,
			TeamAssignments: input.Body.TeamAssignments,
		}
		if input.Body.Status != nil {
			st, err := domain.ParseStatus(*input.Body.Status)
			if err != nil {
				return nil, handleError(err)
			}
			u.Status = &st
		}
		in, err := e.UpdateInitiative(ctx, input.ID, u)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body initiativeEnvelope `json:"body"`
		}{Body: initiativeEnvelope{Success: true, Data: initiativeResponse(in)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-initiative",
		Method:      http.MethodDelete,
		Path:        "/initiatives/{id}",
		Summary:     "Delete initiative",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *InitiativePath) (*struct {
		Body deletedInitiativeEnvelope `json:"body"`
	}, error) {
		in, err := e.DeleteInitiative(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body deletedInitiativeEnvelope `json:"body"`
		}{Body: deletedInitiativeEnvelope{
			Success: true,
			Message: "initiative deleted",
			Data:    initiativeResponse(in),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "generate-initiative-artifacts",
		Method:      http.MethodPost,
		Path:        "/initiatives/{id}/generate",
		Summary:     "Generate planning artifacts",
		Errors:      []int{http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError},
	}, func(ctx context.Context, input *InitiativePath) (*struct {
		Body generateEnvelope `json:"body"`
	}, error) {
		res, err := e.GenerateArtifacts(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body generateEnvelope `json:"body"`
		}{Body: generateEnvelope{Success: true, Data: generateResponse(res)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "launch-initiative",
		Method:      http.MethodPost,
		Path:        "/initiatives/{id}/launch",
		Summary:     "Launch initiative as Jira tickets",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *InitiativePath) (*struct {
		Body launchEnvelope `json:"body"`
	}, error) {
		res, err := e.Launch(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body launchEnvelope `json:"body"`
		}{Body: launchEnvelope{Success: true, Data: launchResponse(res)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-initiative-events",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}/events",
		Summary:     "Events for one initiative",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		InitiativePath
		Limit int `query:"limit" default:"50" minimum:"1" maximum:"500"`
	}) (*struct {
		Body eventListEnvelope `json:"body"`
	}, error) {
		if _, err := e.GetInitiative(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		evts, err := e.Repo.LatestEvents(ctx, input.Limit, input.ID, "")
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]EventResponse, 0, len(evts))
		for _, ev := range evts {
			out = append(out, eventResponse(ev))
		}
		return &struct {
			Body eventListEnvelope `json:"body"`
		}{Body: eventListEnvelope{Success: true, Data: out}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-initiative-dashboard",
		Method:      http.MethodGet,
		Path:        "/initiatives/{id}/dashboard",
		Summary:     "Initiative dashboard",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *InitiativePath) (*struct {
		Body dashboardEnvelope `json:"body"`
	}, error) {
		d, err := e.GetDashboard(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body dashboardEnvelope `json:"body"`
		}{Body: dashboardEnvelope{Success: true, Data: dashboardResponse(d)}}, nil
	})
}

type teamEnvelope struct {
	Success bool         `json:"success"`
	Data    TeamResponse `json:"data"`
}

type teamListEnvelope struct {
	Success bool           `json:"success"`
	Data    []TeamResponse `json:"data"`
}

type teamStatsEnvelope struct {
	Success bool              `json:"success"`
	Data    TeamStatsResponse `json:"data"`
}

type deletedTeamEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    TeamResponse `json:"data"`
}

func registerTeams(api huma.API, e engine.Engine) {
	type TeamPath struct {
		ID int64 `path:"id"`
	}

	huma.Register(api, huma.Operation{
		OperationID:   "create-team",
		Method:        http.MethodPost,
		Path:          "/teams",
		Summary:       "Create team",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateTeamRequest `json:"body"`
	}) (*struct {
		Body teamEnvelope `json:"body"`
	}, error) {
		t, err := e.CreateTeam(ctx, domain.Team{
			TeamName:        input.Body.TeamName,
			PM:              deref(input.Body.PM),
			PMEmail:         deref(input.Body.PMEmail),
			TL:              deref(input.Body.TL),
			TLEmail:         deref(input.Body.TLEmail),
			EM:              deref(input.Body.EM),
			EMEmail:         deref(input.Body.EMEmail),
			JiraProjectCode: deref(input.Body.JiraProjectCode),
			SlackChannel:    deref(input.Body.SlackChannel),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body teamEnvelope `json:"body"`
		}{Body: teamEnvelope{Success: true, Data: teamResponse(t)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-teams",
		Method:      http.MethodGet,
		Path:        "/teams",
		Summary:     "List teams",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body teamListEnvelope `json:"body"`
	}, error) {
		teams, err := e.ListTeams(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body teamListEnvelope `json:"body"`
		}{Body: teamListEnvelope{Success: true, Data: teamResponses(teams)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-team",
		Method:      http.MethodGet,
		Path:        "/teams/{id}",
		Summary:     "Get team",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *TeamPath) (*struct {
		Body teamEnvelope `json:"body"`
	}, error) {
		t, err := e.GetTeam(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body teamEnvelope `json:"body"`
		}{Body: teamEnvelope{Success: true, Data: teamResponse(t)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-team",
		Method:      http.MethodPut,
		Path:        "/teams/{id}",
		Summary:     "Update team",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		TeamPath
		Body UpdateTeamRequest `json:"body"`
	}) (*struct {
		Body teamEnvelope `json:"body"`
	}, error) {
		t, err := e.UpdateTeam(ctx, input.ID, teamUpdate(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body teamEnvelope `json:"body"`
		}{Body: teamEnvelope{Success: true, Data: teamResponse(t)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-team",
		Method:      http.MethodDelete,
		Path:        "/teams/{id}",
		Summary:     "Delete team",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *TeamPath) (*struct {
		Body deletedTeamEnvelope `json:"body"`
	}, error) {
		t, err := e.DeleteTeam(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body deletedTeamEnvelope `json:"body"`
		}{Body: deletedTeamEnvelope{
			Success: true,
			Message: "team deleted",
			Data:    teamResponse(t),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-team-catalog-stats",
		Method:      http.MethodGet,
		Path:        "/teams/stats",
		Summary:     "Catalog integration coverage",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body catalogStatsEnvelope `json:"body"`
	}, error) {
		s, err := e.TeamCatalogStats(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body catalogStatsEnvelope `json:"body"`
		}{Body: catalogStatsEnvelope{Success: true, Data: s}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-team-stats",
		Method:      http.MethodGet,
		Path:        "/teams/{id}/stats",
		Summary:     "Team workload stats",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *TeamPath) (*struct {
		Body teamStatsEnvelope `json:"body"`
	}, error) {
		s, err := e.TeamStats(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body teamStatsEnvelope `json:"body"`
		}{Body: teamStatsEnvelope{Success: true, Data: teamStatsResponse(s)}}, nil
	})
}

type catalogStatsEnvelope struct {
	Success bool                  `json:"success"`
	Data    repo.TeamCatalogStats `json:"data"`
}

type eventListEnvelope struct {
	Success bool            `json:"success"`
	Data    []EventResponse `json:"data"`
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Recent events",
	}, func(ctx context.Context, input *struct {
		InitiativeID string `query:"initiative_id" required:"false"`
		Type         string `query:"type" required:"false"`
		Limit        int    `query:"limit" default:"50" minimum:"1" maximum:"500"`
	}) (*struct {
		Body eventListEnvelope `json:"body"`
	}, error) {
		evts, err := e.Repo.LatestEvents(ctx, input.Limit, input.InitiativeID, input.Type)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]EventResponse, 0, len(evts))
		for _, ev := range evts {
			out = append(out, eventResponse(ev))
		}
		return &struct {
			Body eventListEnvelope `json:"body"`
		}{Body: eventListEnvelope{Success: true, Data: out}}, nil
	})
}

type jiraCheckEnvelope struct {
	Success bool              `json:"success"`
	Data    JiraCheckResponse `json:"data"`
}

func registerJira(api huma.API, jc JiraChecker) {
	huma.Register(api, huma.Operation{
		OperationID: "check-jira",
		Method:      http.MethodGet,
		Path:        "/jira/check",
		Summary:     "Verify Jira credentials",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body jiraCheckEnvelope `json:"body"`
	}, error) {
		data := JiraCheckResponse{}
		if jc == nil {
			data.Error = "jira is not configured"
		} else if user, err := jc.CheckAuth(ctx); err != nil {
			data.Error = err.Error()
		} else {
			data.Connected = true
			data.User = user
		}
		return &struct {
			Body jiraCheckEnvelope `json:"body"`
		}{Body: jiraCheckEnvelope{Success: true, Data: data}}, nil
	})
}

type repairEnvelope struct {
	Success bool           `json:"success"`
	Data    RepairResponse `json:"data"`
}

func registerAdmin(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "repair-data",
		Method:      http.MethodPost,
		Path:        "/admin/repair",
		Summary:     "Repair corrupted stored fields",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body repairEnvelope `json:"body"`
	}, error) {
		count, err := e.Repair(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body repairEnvelope `json:"body"`
		}{Body: repairEnvelope{Success: true, Data: RepairResponse{Repaired: count}}}, nil
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
