package prolific

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-prolific/config"
	"github.com/gaborage/go-prolific/httpclient"
)

const testWorkspace = "ws-default"

// recordedRequest is what the fake API saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Body   map[string]any
}

// route answers a single method+path pair.
type route struct {
	status int
	body   string
}

// fakeAPI is a path-routed httptest server that records every request.
type fakeAPI struct {
	t      *testing.T
	mu     sync.Mutex
	routes map[string]route
	calls  []recordedRequest
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{t: t, routes: map[string]route{}}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	return api, srv
}

func (f *fakeAPI) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = route{status: status, body: body}
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)

	rec := recordedRequest{Method: r.Method, Path: r.URL.EscapedPath(), Query: map[string]string{}}
	for k := range r.URL.Query() {
		rec.Query[k] = r.URL.Query().Get(k)
	}
	if len(raw) > 0 {
		require.NoError(f.t, json.Unmarshal(raw, &rec.Body))
	}

	f.mu.Lock()
	f.calls = append(f.calls, rec)
	rt, ok := f.routes[r.Method+" "+rec.Path]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"Not found"}`)
		return
	}
	w.WriteHeader(rt.status)
	_, _ = io.WriteString(w, rt.body)
}

func (f *fakeAPI) requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.calls...)
}

func (f *fakeAPI) lastRequest() recordedRequest {
	f.t.Helper()
	calls := f.requests()
	require.NotEmpty(f.t, calls)
	return calls[len(calls)-1]
}

// newTestService returns a service backed by a fake API with retries off.
func newTestService(t *testing.T, opts ...Option) (*Service, *fakeAPI) {
	t.Helper()
	api, srv := newFakeAPI(t)

	cfg := config.Default()
	cfg.BaseURL = srv.URL
	cfg.Token = "test-token-abcd1234"
	cfg.MaxRetries = 0
	cfg.TimeoutSeconds = 5

	client, err := httpclient.New(&cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	if opts == nil {
		opts = []Option{WithWorkspace(testWorkspace)}
	}
	return NewService(client, opts...), api
}

func requireValidationError(t *testing.T, err error) *httpclient.Error {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := httpclient.AsError(err)
	require.True(t, ok, "expected *httpclient.Error, got %T", err)
	require.Equal(t, httpclient.KindValidation, apiErr.Kind)
	require.Zero(t, apiErr.StatusCode)
	return apiErr
}

func ptr[T any](v T) *T { return &v }
