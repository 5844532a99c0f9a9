package canvas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func newTestServer(t *testing.T, status int, response any) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Method = r.Method
		rec.Path = r.URL.Path
		rec.Auth = r.Header.Get("Authorization")
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, "secret-token", "4242", 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient("", "tok", "1", time.Second, zap.NewNop())
	assert.Error(t, err)
	_, err = NewClient("https://lms.example.edu", "", "1", time.Second, zap.NewNop())
	assert.Error(t, err)
}

func TestCreateOrUpdatePageWithSlugUsesPut(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, Page{URL: "week-1", Title: "Week 1"})
	c := newTestClient(t, srv)

	page, err := c.CreateOrUpdatePage(context.Background(), PageRequest{
		Title:     "Week 1",
		BodyHTML:  "<h1>Week 1</h1>",
		Slug:      "week-1",
		Published: true,
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, rec.Method)
	assert.Equal(t, "/api/v1/courses/4242/pages/week-1", rec.Path)
	assert.Equal(t, "Bearer secret-token", rec.Auth)

	wiki := rec.Body["wiki_page"].(map[string]any)
	assert.Equal(t, "Week 1", wiki["title"])
	assert.Equal(t, "<h1>Week 1</h1>", wiki["body"])
	assert.Equal(t, true, wiki["published"])

	assert.Equal(t, "week-1", page.URL)
}

func TestCreateOrUpdatePageWithoutSlugUsesPost(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, Page{URL: "auto-slug"})
	c := newTestClient(t, srv)

	_, err := c.CreateOrUpdatePage(context.Background(), PageRequest{Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.Method)
	assert.Equal(t, "/api/v1/courses/4242/pages", rec.Path)
}

func TestCreateAssignmentPayload(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusCreated, Assignment{ID: 7, Name: "Essay"})
	c := newTestClient(t, srv)

	points := 40.0
	a, err := c.CreateAssignment(context.Background(), AssignmentRequest{
		Name:            "Essay",
		DescriptionHTML: "<p>desc</p>",
		PointsPossible:  &points,
		DueAt:           "2026-10-30T23:59:00Z",
		SubmissionTypes: []string{"online_upload"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), a.ID)

	assert.Equal(t, "/api/v1/courses/4242/assignments", rec.Path)
	body := rec.Body["assignment"].(map[string]any)
	assert.Equal(t, "Essay", body["name"])
	assert.Equal(t, 40.0, body["points_possible"])
	assert.Equal(t, "2026-10-30T23:59:00Z", body["due_at"])
	assert.Equal(t, []any{"online_upload"}, body["submission_types"])
}

func TestCreateAssignmentDefaultsSubmissionTypes(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusCreated, Assignment{})
	c := newTestClient(t, srv)

	_, err := c.CreateAssignment(context.Background(), AssignmentRequest{Name: "Quiz"})
	require.NoError(t, err)
	body := rec.Body["assignment"].(map[string]any)
	assert.Equal(t, []any{"none"}, body["submission_types"])
	_, hasPoints := body["points_possible"]
	assert.False(t, hasPoints)
	_, hasDue := body["due_at"]
	assert.False(t, hasDue)
}

func TestAPIErrorSurfacesStatus(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, map[string]any{"errors": "bad token"})
	c := newTestClient(t, srv)

	_, err := c.CreateOrUpdatePage(context.Background(), PageRequest{Title: "x", Slug: "s"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestListPages(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, []Page{{URL: "a"}, {URL: "b"}})
	c := newTestClient(t, srv)

	pages, err := c.ListPages(context.Background())
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, http.MethodGet, rec.Method)
}

func TestMissingCourseID(t *testing.T) {
	c, err := NewClient("https://lms.example.edu", "tok", "", time.Second, zap.NewNop())
	require.NoError(t, err)
	_, err = c.CreateOrUpdatePage(context.Background(), PageRequest{Title: "x"})
	assert.Error(t, err)
	_, err = c.CreateAssignment(context.Background(), AssignmentRequest{Name: "x"})
	assert.Error(t, err)
}
