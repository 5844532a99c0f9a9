// Package canvas is a minimal Canvas LMS REST client covering the
// endpoints the upload tasks use: wiki pages and assignments.
package canvas

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

	"go.uber.org/zap"
)

// Client talks to one Canvas instance with a bearer token.
type Client struct {
	baseURL  string
	token    string
	courseID string
	http     *http.Client
	log      *zap.Logger
}

// Page is the subset of a Canvas wiki page the tasks care about.
type Page struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Published bool   `json:"published"`
}

// Assignment is the subset of a Canvas assignment the tasks care about.
type Assignment struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Published bool   `json:"published"`
}

// PageRequest describes a wiki page to create or update.
type PageRequest struct {
	Title     string
	BodyHTML  string
	Slug      string // page URL slug; empty means create with a Canvas-chosen slug
	Published bool
}

// AssignmentRequest describes an assignment to create.
type AssignmentRequest struct {
	Name            string
	DescriptionHTML string
	PointsPossible  *float64
	DueAt           string // ISO 8601, empty to omit
	Published       bool
	SubmissionTypes []string
}

// NewClient returns a Client for baseURL scoped to courseID.
func NewClient(baseURL, token, courseID string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	if baseURL == "" || token == "" {
		return nil, fmt.Errorf("canvas base URL and API token must be configured")
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		courseID: courseID,
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}, nil
}

// CreateOrUpdatePage updates the page at req.Slug, or creates a new page
// when no slug is given. Canvas uses the slug to address pages, so a PUT
// against it upserts.
func (c *Client) CreateOrUpdatePage(ctx context.Context, req PageRequest) (*Page, error) {
	if c.courseID == "" {
		return nil, fmt.Errorf("canvas course id not configured")
	}
	payload := map[string]any{
		"wiki_page": map[string]any{
			"title":     req.Title,
			"body":      req.BodyHTML,
			"published": req.Published,
		},
	}

	var method, endpoint string
	if req.Slug != "" {
		method = http.MethodPut
		endpoint = fmt.Sprintf("/api/v1/courses/%s/pages/%s", c.courseID, url.PathEscape(req.Slug))
		c.log.Debug("updating canvas page", zap.String("slug", req.Slug))
	} else {
		method = http.MethodPost
		endpoint = fmt.Sprintf("/api/v1/courses/%s/pages", c.courseID)
		c.log.Debug("creating canvas page", zap.String("title", req.Title))
	}

	var page Page
	if err := c.do(ctx, method, endpoint, payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateAssignment creates an assignment in the course.
func (c *Client) CreateAssignment(ctx context.Context, req AssignmentRequest) (*Assignment, error) {
	if c.courseID == "" {
		return nil, fmt.Errorf("canvas course id not configured")
	}
	body := map[string]any{
		"name":        req.Name,
		"description": req.DescriptionHTML,
		"published":   req.Published,
	}
	if req.PointsPossible != nil {
		body["points_possible"] = *req.PointsPossible
	}
	if req.DueAt != "" {
		body["due_at"] = req.DueAt
	}
	if len(req.SubmissionTypes) > 0 {
		body["submission_types"] = req.SubmissionTypes
	} else {
		body["submission_types"] = []string{"none"}
	}

	endpoint := fmt.Sprintf("/api/v1/courses/%s/assignments", c.courseID)
	c.log.Debug("creating canvas assignment", zap.String("name", req.Name))

	var out Assignment
	if err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"assignment": body}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPages returns the first batch of pages in the course.
func (c *Client) ListPages(ctx context.Context) ([]Page, error) {
	if c.courseID == "" {
		return nil, fmt.Errorf("canvas course id not configured")
	}
	endpoint := fmt.Sprintf("/api/v1/courses/%s/pages?per_page=50", c.courseID)
	var pages []Page
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// do issues one API request with the bearer token and decodes the JSON
// response into out (which may be nil).
func (c *Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode canvas payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build canvas request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("canvas request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read canvas response: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.log.Error("canvas API error",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(data, 500)))
		return fmt.Errorf("canvas API returned %d for %s %s", resp.StatusCode, method, endpoint)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode canvas response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
