package prolific

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-prolific/httpclient"
)

func TestResourcePath(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     string
	}{
		{name: "collection", segments: []string{"studies"}, want: "/api/v1/studies/"},
		{name: "nested", segments: []string{"workspaces", "ws1", "projects"}, want: "/api/v1/workspaces/ws1/projects/"},
		{name: "escaped_id", segments: []string{"projects", "a/b c"}, want: "/api/v1/projects/a%2Fb%20c/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resourcePath(tt.segments...))
		})
	}
}

func TestListWorkspaces(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodGet, "/api/v1/workspaces/", http.StatusOK,
		`{"results":[{"id":"ws1","title":"Research"},{"id":"ws2","title":"Pilot"}]}`)

	got, err := svc.ListWorkspaces(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Workspace{ID: "ws1", Title: "Research"}, got[0])
}

func TestListAcceptsEnvelopeOrBareArray(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "envelope", body: `{"results":[{"id":"s1","name":"A","status":"ACTIVE","total_available_places":1}]}`, want: 1},
		{name: "bare_array", body: `[{"id":"s1","name":"A","status":"ACTIVE","total_available_places":1},{"id":"s2","name":"B","status":"PAUSED","total_available_places":2}]`, want: 2},
		{name: "object_without_results", body: `{"meta":{"count":0}}`, want: 0},
		{name: "null_results", body: `{"results":null}`, want: 0},
		{name: "empty_body", body: ``, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, api := newTestService(t)
			api.on(http.MethodGet, "/api/v1/studies/", http.StatusOK, tt.body)

			got, err := svc.ListStudies(context.Background(), StudyListOptions{})
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestUnexpectedResponseShape(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodGet, "/api/v1/studies/s1/", http.StatusOK, `{"id":123}`)

	_, err := svc.GetStudy(context.Background(), "s1")
	require.Error(t, err)
	apiErr, ok := httpclient.AsError(err)
	require.True(t, ok)
	assert.Equal(t, httpclient.KindAPI, apiErr.Kind)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, `{"id":123}`, string(apiErr.Raw))
	assert.NotEmpty(t, apiErr.CorrelationID)
}

func TestAPIErrorsPassThrough(t *testing.T) {
	svc, api := newTestService(t)
	api.on(http.MethodGet, "/api/v1/projects/p1/", http.StatusForbidden, `{"detail":"Forbidden"}`)

	_, err := svc.GetProject(context.Background(), "p1")
	require.ErrorIs(t, err, httpclient.ErrAuthorization)

	_, err = svc.GetProject(context.Background(), "missing")
	require.ErrorIs(t, err, httpclient.ErrNotFound)
}

func TestWorkspaceResolution(t *testing.T) {
	t.Run("explicit_wins", func(t *testing.T) {
		svc, api := newTestService(t)
		api.on(http.MethodGet, "/api/v1/workspaces/other/projects/", http.StatusOK, `{"results":[]}`)

		_, err := svc.ListProjects(context.Background(), "other")
		require.NoError(t, err)
		assert.Equal(t, "/api/v1/workspaces/other/projects/", api.lastRequest().Path)
	})

	t.Run("default_used", func(t *testing.T) {
		svc, api := newTestService(t)
		api.on(http.MethodGet, "/api/v1/workspaces/ws-default/projects/", http.StatusOK, `{"results":[]}`)

		_, err := svc.ListProjects(context.Background(), "  ")
		require.NoError(t, err)
		assert.Equal(t, testWorkspace, svc.WorkspaceID())
	})

	t.Run("missing", func(t *testing.T) {
		svc, api := newTestService(t, WithWorkspace(""))

		_, err := svc.ListProjects(context.Background(), "")
		apiErr := requireValidationError(t, err)
		assert.Contains(t, apiErr.Message, "workspace_id")
		assert.Empty(t, api.requests())
	})
}

func TestMissingIDsFailLocally(t *testing.T) {
	svc, api := newTestService(t)
	ctx := context.Background()

	calls := map[string]func() error{
		"get_project": func() error { _, err := svc.GetProject(ctx, ""); return err },
		"update_project": func() error {
			_, err := svc.UpdateProject(ctx, " ", ProjectUpdate{Title: ptr("x")})
			return err
		},
		"get_study":        func() error { _, err := svc.GetStudy(ctx, ""); return err },
		"transition_study": func() error { _, err := svc.PublishStudy(ctx, ""); return err },
		"get_filter_set":   func() error { _, err := svc.GetFilterSet(ctx, ""); return err },
		"distribution":     func() error { _, err := svc.GetFilterDistribution(ctx, "", ""); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			apiErr := requireValidationError(t, call())
			assert.Contains(t, apiErr.Message, "id is required")
		})
	}
	assert.Empty(t, api.requests())
}
