// Package jira is a client for the Jira Cloud REST API v3, covering the
// small surface needed to create and inspect initiative tickets.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const IssueTypeTask = "Task"

// Client talks to one Jira site with basic auth.
type Client struct {
	BaseURL    string
	Username   string
	APIToken   string
	HTTPClient *http.Client
	Log        *zap.Logger
}

func NewClient(baseURL, username, apiToken string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Username:   username,
		APIToken:   apiToken,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Log:        log,
	}
}

// CreateResult is the outcome of a single ticket creation call.
type CreateResult struct {
	Success    bool   `json:"success"`
	TicketKey  string `json:"ticket_key,omitempty"`
	TicketURL  string `json:"ticket_url,omitempty"`
	TicketID   string `json:"ticket_id,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// TicketStatus is the live state of an existing ticket.
type TicketStatus struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Summary string `json:"summary,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	req.SetBasicAuth(c.Username, c.APIToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}
	return resp, data, nil
}

// CheckAuth verifies credentials against /myself and returns the display
// name of the authenticated user.
func (c *Client) CheckAuth(ctx context.Context) (string, error) {
	resp, data, err := c.do(ctx, http.MethodGet, "/rest/api/3/myself", nil)
	if err != nil {
		return "", fmt.Errorf("jira connection failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jira auth check failed: status %d", resp.StatusCode)
	}
	var me struct {
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal(data, &me); err != nil {
		return "", err
	}
	return me.DisplayName, nil
}

// ProjectInfo is the subset of project metadata the app cares about.
type ProjectInfo struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// GetProjectInfo returns nil without error when the project does not exist
// or is not accessible.
func (c *Client) GetProjectInfo(ctx context.Context, projectKey string) (*ProjectInfo, error) {
	resp, data, err := c.do(ctx, http.MethodGet, "/rest/api/3/project/"+projectKey, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		c.Log.Warn("project lookup failed", zap.String("project", projectKey), zap.Int("status", resp.StatusCode))
		return nil, nil
	}
	var info ProjectInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// docBody is the Atlassian document format wrapper for plain text.
func docBody(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []map[string]any{{
			"type": "paragraph",
			"content": []map[string]any{{
				"type": "text",
				"text": text,
			}},
		}},
	}
}

// CreateTicket verifies the project then files one issue. Failures are
// reported in the result, not as an error, so callers can continue with
// remaining tickets.
func (c *Client) CreateTicket(ctx context.Context, projectKey, summary, description, issueType, priority string) CreateResult {
	c.Log.Info("creating jira ticket", zap.String("project", projectKey), zap.String("summary", summary))

	info, err := c.GetProjectInfo(ctx, projectKey)
	if err != nil {
		return CreateResult{Success: false, Error: err.Error()}
	}
	if info == nil {
		return CreateResult{Success: false, Error: fmt.Sprintf("Project %s not found or not accessible", projectKey)}
	}

	if issueType == "" {
		issueType = IssueTypeTask
	}
	fields := map[string]any{
		"project":     map[string]string{"key": projectKey},
		"summary":     summary,
		"description": docBody(description),
		"issuetype":   map[string]string{"name": issueType},
	}
	if priority != "" {
		fields["priority"] = map[string]string{"name": priority}
	}

	resp, data, err := c.do(ctx, http.MethodPost, "/rest/api/3/issue", map[string]any{"fields": fields})
	if err != nil {
		return CreateResult{Success: false, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return CreateResult{Success: false, Error: extractError(data), StatusCode: resp.StatusCode}
	}

	var created struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return CreateResult{Success: false, Error: err.Error()}
	}
	c.Log.Info("jira ticket created", zap.String("key", created.Key))
	return CreateResult{
		Success:   true,
		TicketKey: created.Key,
		TicketURL: c.BaseURL + "/browse/" + created.Key,
		TicketID:  created.ID,
	}
}

// GetTicketStatus fetches the status and summary of one ticket.
func (c *Client) GetTicketStatus(ctx context.Context, ticketKey string) TicketStatus {
	resp, data, err := c.do(ctx, http.MethodGet, "/rest/api/3/issue/"+ticketKey+"?fields=status,summary", nil)
	if err != nil {
		return TicketStatus{Success: false, Error: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return TicketStatus{Success: false, Error: extractError(data)}
	}
	var issue struct {
		Fields struct {
			Summary string `json:"summary"`
			Status  struct {
				Name string `json:"name"`
			} `json:"status"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(data, &issue); err != nil {
		return TicketStatus{Success: false, Error: err.Error()}
	}
	return TicketStatus{Success: true, Status: issue.Fields.Status.Name, Summary: issue.Fields.Summary}
}

// AddComment appends a plain-text comment to a ticket.
func (c *Client) AddComment(ctx context.Context, ticketKey, comment string) error {
	resp, data, err := c.do(ctx, http.MethodPost, "/rest/api/3/issue/"+ticketKey+"/comment", map[string]any{"body": docBody(comment)})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("add comment to %s: %s", ticketKey, extractError(data))
	}
	return nil
}

// extractError pulls a readable message out of a Jira error payload.
func extractError(data []byte) string {
	var payload struct {
		Errors        map[string]string `json:"errors"`
		ErrorMessages []string          `json:"errorMessages"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if len(payload.Errors) > 0 {
			var msgs []string
			for _, msg := range payload.Errors {
				msgs = append(msgs, msg)
			}
			return strings.Join(msgs, ", ")
		}
		if len(payload.ErrorMessages) > 0 {
			return strings.Join(payload.ErrorMessages, ", ")
		}
	}
	return "Unknown error occurred"
}
