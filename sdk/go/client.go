package launchpadsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Launchpad HTTP API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Task is one entry of an initiative's task breakdown.
type Task struct {
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Team           string   `json:"team"`
	EstimatedHours int      `json:"estimated_hours"`
	Priority       string   `json:"priority"`
	Dependencies   []string `json:"dependencies,omitempty"`
}

// TicketResult records one Jira ticket creation attempt.
type TicketResult struct {
	Team      string `json:"team"`
	Success   bool   `json:"success"`
	TicketKey string `json:"ticket_key,omitempty"`
	TicketURL string `json:"ticket_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Initiative represents the API initiative model.
type Initiative struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Objectives      []string       `json:"objectives"`
	Status          string         `json:"status"`
	OnePager        string         `json:"one_pager,omitempty"`
	TaskBreakdown   []Task         `json:"task_breakdown"`
	CreatedTickets  []TicketResult `json:"created_tickets"`
	TeamAssignments []string       `json:"team_assignments"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

// Team represents a catalog entry.
type Team struct {
	ID              int64  `json:"id"`
	TeamName        string `json:"team_name"`
	PM              string `json:"pm,omitempty"`
	TL              string `json:"tl,omitempty"`
	EM              string `json:"em,omitempty"`
	JiraProjectCode string `json:"jira_project_code,omitempty"`
	SlackChannel    string `json:"slack_channel,omitempty"`
}

// LaunchSummary totals one launch run.
type LaunchSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// LaunchResult is the response of a launch call.
type LaunchResult struct {
	Initiative Initiative     `json:"initiative"`
	Tickets    []TicketResult `json:"tickets"`
	Summary    LaunchSummary  `json:"summary"`
}

// GenerateResult is the response of a generate call.
type GenerateResult struct {
	Initiative Initiative `json:"initiative"`
	Teams      []string   `json:"teams"`
	OnePager   string     `json:"one_pager"`
	Tasks      []Task     `json:"tasks"`
}

// Event represents a log entry.
type Event struct {
	ID           int64          `json:"id"`
	TS           string         `json:"ts"`
	Type         string         `json:"type"`
	InitiativeID string         `json:"initiative_id,omitempty"`
	Payload      map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

// CreateInitiative creates a draft initiative.
func (c *Client) CreateInitiative(ctx context.Context, title, description string, objectives []string) (Initiative, error) {
	body := map[string]any{
		"title":       title,
		"description": description,
		"objectives":  objectives,
	}
	var resp envelope[Initiative]
	err := c.do(ctx, http.MethodPost, "api/initiatives", body, &resp)
	return resp.Data, err
}

// GetInitiative fetches one initiative by id.
func (c *Client) GetInitiative(ctx context.Context, id string) (Initiative, error) {
	var resp envelope[Initiative]
	err := c.do(ctx, http.MethodGet, "api/initiatives/"+url.PathEscape(id), nil, &resp)
	return resp.Data, err
}

// ListInitiatives returns initiatives, optionally filtered by status.
func (c *Client) ListInitiatives(ctx context.Context, status string, limit int) ([]Initiative, error) {
	endpoint := "api/initiatives"
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp envelope[[]Initiative]
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Data, err
}

// Generate runs the enrichment pass for a draft initiative.
func (c *Client) Generate(ctx context.Context, id string) (GenerateResult, error) {
	var resp envelope[GenerateResult]
	err := c.do(ctx, http.MethodPost, "api/initiatives/"+url.PathEscape(id)+"/generate", nil, &resp)
	return resp.Data, err
}

// Launch creates Jira tickets for a ready initiative.
func (c *Client) Launch(ctx context.Context, id string) (LaunchResult, error) {
	var resp envelope[LaunchResult]
	err := c.do(ctx, http.MethodPost, "api/initiatives/"+url.PathEscape(id)+"/launch", nil, &resp)
	return resp.Data, err
}

// ListTeams returns the team catalog.
func (c *Client) ListTeams(ctx context.Context) ([]Team, error) {
	var resp envelope[[]Team]
	err := c.do(ctx, http.MethodGet, "api/teams", nil, &resp)
	return resp.Data, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "api/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp envelope[[]Event]
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Data, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
