package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"launchpad/internal/ai"
	"launchpad/internal/config"
	"launchpad/internal/db"
	"launchpad/internal/engine"
	"launchpad/internal/jira"
	"launchpad/internal/launch"
	"launchpad/internal/migrate"
)

type stubCompleter struct {
	responses map[string]string
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	for key, resp := range s.responses {
		if strings.Contains(prompt, key) {
			return resp, nil
		}
	}
	return "", nil
}

type fakeCreator struct {
	calls []string
}

func (f *fakeCreator) CreateTicket(ctx context.Context, projectKey, summary, description, issueType, priority string) jira.CreateResult {
	f.calls = append(f.calls, projectKey)
	return jira.CreateResult{Success: true, TicketKey: projectKey + "-1", TicketURL: "https://jira.test/browse/" + projectKey + "-1"}
}

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T, completer ai.Completer) (*testServer, func()) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if completer == nil {
		completer = &stubCompleter{}
	}
	creator := &fakeCreator{}
	e := engine.New(conn, config.Default(), ai.NewGenerator(completer, nil), launch.New(creator, 0, nil), nil, nil)
	handler, err := New(Config{Engine: e, BasePath: "/api"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func TestInitiativeLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t, &stubCompleter{responses: map[string]string{
		"identify which teams":       "Backend will own the API and QA verifies it.",
		"one-pager":                  "# Checkout revamp\nA plan.",
		"Break down this initiative": "1. Build checkout API for Backend, 24 hours, high priority\n2. QA regression suite, 8 hours",
		"Analyze the complexity":     "Complexity: 6. Multiple systems are involved. Roughly 10 weeks.",
	}})
	defer cleanup()
	client := srv.Client()

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/initiatives", map[string]any{
		"title":       "Checkout revamp",
		"description": "Rebuild the checkout flow",
		"objectives":  []string{"fewer drop-offs"},
	})
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create status %d: %s", createRes.StatusCode, string(data))
	}
	var created initiativeEnvelope
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal create: %v", err)
	}
	if !created.Success || created.Data.Status != "draft" {
		t.Fatalf("create envelope = %+v", created)
	}
	id := created.Data.ID

	genRes, genBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/initiatives/"+id+"/generate", nil)
	if genRes.StatusCode != http.StatusOK {
		t.Fatalf("generate status %d: %s", genRes.StatusCode, string(genBody))
	}
	var gen generateEnvelope
	if err := json.Unmarshal(genBody, &gen); err != nil {
		t.Fatalf("unmarshal generate: %v", err)
	}
	if gen.Data.Initiative.Status != "ready" {
		t.Fatalf("status = %s, want ready", gen.Data.Initiative.Status)
	}
	if len(gen.Data.Teams) != 2 || gen.Data.Teams[0] != "Backend" || gen.Data.Teams[1] != "QA" {
		t.Fatalf("teams = %v", gen.Data.Teams)
	}
	if len(gen.Data.Tasks) != 2 {
		t.Fatalf("tasks = %+v", gen.Data.Tasks)
	}

	launchRes, launchBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/initiatives/"+id+"/launch", nil)
	if launchRes.StatusCode != http.StatusOK {
		t.Fatalf("launch status %d: %s", launchRes.StatusCode, string(launchBody))
	}
	var launched launchEnvelope
	if err := json.Unmarshal(launchBody, &launched); err != nil {
		t.Fatalf("unmarshal launch: %v", err)
	}
	if launched.Data.Initiative.Status != "launched" {
		t.Fatalf("status = %s, want launched", launched.Data.Initiative.Status)
	}
	if launched.Data.Summary.Total != 2 || launched.Data.Summary.Successful != 2 {
		t.Fatalf("summary = %+v", launched.Data.Summary)
	}

	dashRes, dashBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/initiatives/"+id+"/dashboard", nil)
	if dashRes.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status %d: %s", dashRes.StatusCode, string(dashBody))
	}
	var dash dashboardEnvelope
	if err := json.Unmarshal(dashBody, &dash); err != nil {
		t.Fatalf("unmarshal dashboard: %v", err)
	}
	if dash.Data.Summary.TicketsCreated != 2 || dash.Data.Summary.TeamsAssigned != 2 {
		t.Fatalf("dashboard summary = %+v", dash.Data.Summary)
	}
}

func TestCreateInitiativeRejectsBlankTitle(t *testing.T) {
	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/initiatives", map[string]any{
		"title":       "  ",
		"description": "something",
		"objectives":  []string{"x"},
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.StatusCode, string(data))
	}
	var envelope map[string]any
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	success, ok := envelope["success"].(bool)
	if !ok || success {
		t.Fatalf("expected top-level success=false, got %s", string(data))
	}
	msg, ok := envelope["error"].(string)
	if !ok || msg == "" {
		t.Fatalf("expected top-level error message, got %s", string(data))
	}
}

func TestGetInitiativeNotFound(t *testing.T) {
	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/initiatives/nope", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", res.StatusCode, string(data))
	}
	var envelope map[string]any
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if success, ok := envelope["success"].(bool); !ok || success {
		t.Fatalf("expected top-level success=false, got %s", string(data))
	}
	if msg, ok := envelope["error"].(string); !ok || msg == "" {
		t.Fatalf("expected top-level error message, got %s", string(data))
	}
	if _, nested := envelope["Body"]; nested {
		t.Fatalf("error fields nested under Body: %s", string(data))
	}
}

func TestUpdateInitiativeStatusConflict(t *testing.T) {
	srv, cleanup := newTestServer(t, nil)
	defer cleanup()
	client := srv.Client()

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/initiatives", map[string]any{
		"title":       "Billing cleanup",
		"description": "Consolidate invoices",
		"objectives":  []string{"one invoice per month"},
	})
	var created initiativeEnvelope
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal create: %v", err)
	}

	res, body := doJSON(t, client, http.MethodPut, srv.URL+"/api/initiatives/"+created.Data.ID, map[string]any{
		"status": "launched",
	})
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", res.StatusCode, string(body))
	}

	res, body = doJSON(t, client, http.MethodPut, srv.URL+"/api/initiatives/"+created.Data.ID, map[string]any{
		"status": "cancelled",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("cancel status %d: %s", res.StatusCode, string(body))
	}
	var updated initiativeEnvelope
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if updated.Data.Status != "cancelled" {
		t.Fatalf("status = %s, want cancelled", updated.Data.Status)
	}
}

func TestUpdateInitiativeOwnedFields(t *testing.T) {
	srv, cleanup := newTestServer(t, nil)
	defer cleanup()
	client := srv.Client()

	_, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/initiatives", map[string]any{
		"title":       "Search rebuild",
		"description": "Replace the search backend",
		"objectives":  []string{"faster queries"},
	})
	var created initiativeEnvelope
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal create: %v", err)
	}

	res, body := doJSON(t, client, http.MethodPut, srv.URL+"/api/initiatives/"+created.Data.ID, map[string]any{
		"one_pager": "# Search rebuild\nA plan.",
		"task_breakdown": []map[string]any{
			{"title": "Index migration", "team": "Backend", "estimated_hours": 16, "priority": "High"},
		},
		"team_assignments": []string{"Backend"},
		"created_tickets": []map[string]any{
			{"team": "Backend", "success": true, "ticket_key": "BE-7"},
		},
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update status %d: %s", res.StatusCode, string(body))
	}
	var updated initiativeEnvelope
	if err := json.Unmarshal(body, &updated); err != nil {
		t.Fatalf("unmarshal update: %v", err)
	}
	if updated.Data.OnePager != "# Search rebuild\nA plan." {
		t.Fatalf("one_pager = %q", updated.Data.OnePager)
	}
	if len(updated.Data.TaskBreakdown) != 1 || updated.Data.TaskBreakdown[0].Team != "Backend" {
		t.Fatalf("task_breakdown = %+v", updated.Data.TaskBreakdown)
	}
	if len(updated.Data.TeamAssignments) != 1 || updated.Data.TeamAssignments[0] != "Backend" {
		t.Fatalf("team_assignments = %v", updated.Data.TeamAssignments)
	}
	if len(updated.Data.CreatedTickets) != 1 || updated.Data.CreatedTickets[0].TicketKey != "BE-7" {
		t.Fatalf("created_tickets = %+v", updated.Data.CreatedTickets)
	}
}

func TestTeamEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t, nil)
	defer cleanup()
	client := srv.Client()

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/teams", map[string]any{
		"team_name":         "Platform",
		"jira_project_code": "PLAT",
	})
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create team status %d: %s", createRes.StatusCode, string(data))
	}
	var created teamEnvelope
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal team: %v", err)
	}
	if created.Data.TeamName != "Platform" || created.Data.ID == 0 {
		t.Fatalf("team = %+v", created.Data)
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/teams", nil)
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list teams status %d: %s", listRes.StatusCode, string(listBody))
	}
	var list teamListEnvelope
	if err := json.Unmarshal(listBody, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	// 8 seeded teams plus the one just created.
	if len(list.Data) != 9 {
		t.Fatalf("team count = %d", len(list.Data))
	}

	delRes, delBody := doJSON(t, client, http.MethodDelete, srv.URL+"/api/teams/"+strconv.FormatInt(created.Data.ID, 10), nil)
	if delRes.StatusCode != http.StatusOK {
		t.Fatalf("delete team status %d: %s", delRes.StatusCode, string(delBody))
	}
}

func TestHealth(t *testing.T) {
	srv, cleanup := newTestServer(t, nil)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
	var body healthBody
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("health = %+v", body)
	}
}

