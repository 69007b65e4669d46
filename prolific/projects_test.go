package prolific

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const projectBody = `{"id":"p1","title":"User Research","workspace":"ws-default","users":[{"id":"u1","name":"Ada","roles":["PROJECT_EDITOR"]}],"naivety_distribution_rate":0.5}`

func TestListProjects(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodGet, "/api/v1/workspaces/ws-default/projects/", http.StatusOK, `{"results":[`+projectBody+`]}`)

	got, err := svc.ListProjects(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "User Research", got[0].Title)
	require.Len(t, got[0].Users, 1)
	assert.Equal(t, "Ada", got[0].Users[0].Name)
	require.NotNil(t, got[0].NaivetyDistributionRate)
	assert.InDelta(t, 0.5, *got[0].NaivetyDistributionRate, 1e-9)
}

func TestGetProject(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodGet, "/api/v1/projects/p1/", http.StatusOK, projectBody)

	got, err := svc.GetProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, http.MethodGet, api.lastRequest().Method)
}

func TestCreateProject(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodPost, "/api/v1/workspaces/ws1/projects/", http.StatusCreated, projectBody)

	got, err := svc.CreateProject(context.Background(), "ws1", ProjectCreate{
		Title:                   "User Research",
		Description:             "Behaviour patterns",
		Workspace:               "ignored",
		NaivetyDistributionRate: ptr(50),
	})
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	body := api.lastRequest().Body
	assert.Equal(t, "User Research", body["title"])
	assert.Equal(t, "Behaviour patterns", body["description"])
	assert.Equal(t, "ws1", body["workspace"])
	assert.InDelta(t, 50, body["naivety_distribution_rate"], 0)
}

func TestCreateProjectOmitsUnsetFields(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodPost, "/api/v1/workspaces/ws-default/projects/", http.StatusCreated, projectBody)

	_, err := svc.CreateProject(context.Background(), "", ProjectCreate{Title: "Minimal"})
	require.NoError(t, err)

	body := api.lastRequest().Body
	assert.NotContains(t, body, "description")
	assert.NotContains(t, body, "naivety_distribution_rate")
	assert.Equal(t, testWorkspace, body["workspace"])
}

func TestCreateProjectValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    ProjectCreate
		field string
	}{
		{name: "empty_title", in: ProjectCreate{}, field: "title"},
		{name: "long_title", in: ProjectCreate{Title: strings.Repeat("x", 256)}, field: "title"},
		{name: "naivety_below_range", in: ProjectCreate{Title: "ok", NaivetyDistributionRate: ptr(-1)}, field: "naivety_distribution_rate"},
		{name: "naivety_above_range", in: ProjectCreate{Title: "ok", NaivetyDistributionRate: ptr(101)}, field: "naivety_distribution_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api := newTestService(t)

			_, err := svc.CreateProject(context.Background(), "", tt.in)
			apiErr := requireValidationError(t, err)
			ve, ok := apiErr.Cause.(*ValidationError)
			require.True(t, ok)
			require.NotEmpty(t, ve.Errors)
			assert.Equal(t, tt.field, ve.Errors[0].Field)
			assert.Empty(t, api.requests())
		})
	}
}

func TestCreateProjectBoundaryValues(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodPost, "/api/v1/workspaces/ws-default/projects/", http.StatusCreated, projectBody)

	for _, rate := range []int{0, 100} {
		_, err := svc.CreateProject(context.Background(), "", ProjectCreate{
			Title:                   strings.Repeat("t", 255),
			NaivetyDistributionRate: ptr(rate),
		})
		require.NoError(t, err)
	}
	assert.Len(t, api.requests(), 2)
}

func TestUpdateProject(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodPatch, "/api/v1/projects/p1/", http.StatusOK, projectBody)

	_, err := svc.UpdateProject(context.Background(), "p1", ProjectUpdate{
		Title: ptr("New Title"),
		Users: []User{{ID: "u2", Email: "u2@example.com"}},
		Extra: map[string]any{"title": "From Extra", "custom": true},
	})
	require.NoError(t, err)

	req := api.lastRequest()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "From Extra", req.Body["title"])
	assert.Equal(t, true, req.Body["custom"])
	assert.NotContains(t, req.Body, "description")
	users, ok := req.Body["users"].([]any)
	require.True(t, ok)
	assert.Len(t, users, 1)
}

func TestUpdateProjectWithoutFieldsFetchesProject(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodGet, "/api/v1/projects/p1/", http.StatusOK, projectBody)

	got, err := svc.UpdateProject(context.Background(), "p1", ProjectUpdate{})
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	calls := api.requests()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodGet, calls[0].Method)
}

func TestUpdateProjectValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    ProjectUpdate
		field string
	}{
		{name: "empty_title", in: ProjectUpdate{Title: ptr("")}, field: "title"},
		{name: "user_without_id", in: ProjectUpdate{Users: []User{{Name: "Ada"}}}, field: "users[0].id"},
		{name: "bad_email", in: ProjectUpdate{Users: []User{{ID: "u1", Email: "nope"}}}, field: "users[0].email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api := newTestService(t)

			_, err := svc.UpdateProject(context.Background(), "p1", tt.in)
			apiErr := requireValidationError(t, err)
			ve, ok := apiErr.Cause.(*ValidationError)
			require.True(t, ok)
			assert.Equal(t, tt.field, ve.Errors[0].Field)
			assert.Empty(t, api.requests())
		})
	}
}

func TestFindProjectByTitle(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodGet, "/api/v1/workspaces/ws-default/projects/", http.StatusOK,
		`{"results":[{"id":"p1","title":"Alpha"},{"id":"p2","title":"Beta"},{"id":"p3","title":"Beta"}]}`)

	got, err := svc.FindProjectByTitle(context.Background(), "", "Beta")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p2", got.ID)

	got, err = svc.FindProjectByTitle(context.Background(), "", "beta")
	require.NoError(t, err)
	assert.Nil(t, got)
}
