package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

const testToken = "test-token-abcd1234"

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = (*syncBuffer)(nil)

// fakeAPI answers GET requests by path and counts hits.
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]fakeRoute
	hits   map[string]int
	auth   []string
}

type fakeRoute struct {
	status int
	body   string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{routes: map[string]fakeRoute{}, hits: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.hits[r.URL.Path]++
		api.auth = append(api.auth, r.Header.Get("Authorization"))
		rt, ok := api.routes[r.URL.Path]
		api.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Not found."}`)
			return
		}
		w.WriteHeader(rt.status)
		_, _ = io.WriteString(w, rt.body)
	}))
	t.Cleanup(srv.Close)
	return api, srv
}

func (f *fakeAPI) on(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = fakeRoute{status: status, body: body}
}

func (f *fakeAPI) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

// cliResult captures one command run.
type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the root command with a fake environment.
func runCLI(t *testing.T, environ []string, args ...string) cliResult {
	t.Helper()
	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	env := NewEnv(
		WithStdout(stdout),
		WithStderr(stderr),
		WithEnviron(func() []string { return environ }),
	)
	root := RootCmd(env, "test")
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// apiEnviron points the CLI at srv with retries disabled.
func apiEnviron(srv *httptest.Server, extra ...string) []string {
	return append([]string{
		"PROLIFIC_API_TOKEN=" + testToken,
		"PROLIFIC_BASE_URL=" + srv.URL,
		"PROLIFIC_MAX_RETRIES=0",
		"PROLIFIC_LOG_LEVEL=error",
	}, extra...)
}
