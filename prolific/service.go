// Package prolific exposes typed operations on Prolific resources
// (workspaces, projects, studies, filters and filter sets) on top of the
// httpclient transport. Payloads are validated locally before any request
// is sent.
package prolific

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gaborage/go-prolific/httpclient"
)

const apiPrefix = "/api/v1"

// Option customizes a Service.
type Option func(*Service)

// WithWorkspace sets the workspace used when an operation is given an empty
// workspace id.
func WithWorkspace(id string) Option {
	return func(s *Service) { s.workspaceID = strings.TrimSpace(id) }
}

// Service performs resource operations through an httpclient.Client.
// It is safe for concurrent use when the underlying client is.
type Service struct {
	client      httpclient.Client
	workspaceID string
}

// NewService wraps client. The caller keeps ownership of client and closes it.
func NewService(client httpclient.Client, opts ...Option) *Service {
	s := &Service{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WorkspaceID returns the default workspace, which may be empty.
func (s *Service) WorkspaceID() string {
	return s.workspaceID
}

// ListWorkspaces returns the workspaces visible to the token.
func (s *Service) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var out []Workspace
	if err := s.list(ctx, apiPrefix+"/workspaces/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// resolveWorkspace falls back to the default workspace.
func (s *Service) resolveWorkspace(id string) (string, error) {
	if id = strings.TrimSpace(id); id != "" {
		return id, nil
	}
	if s.workspaceID != "" {
		return s.workspaceID, nil
	}
	return "", invalidArgument("workspace_id is required", nil)
}

// resourcePath joins escaped segments under the API prefix with a trailing
// slash, as the API expects.
func resourcePath(segments ...string) string {
	var b strings.Builder
	b.WriteString(apiPrefix)
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	b.WriteByte('/')
	return b.String()
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidArgument(kind+" id is required", nil)
	}
	return nil
}

func (s *Service) get(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := s.client.Get(ctx, &httpclient.Request{Path: path, Params: params})
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (s *Service) send(ctx context.Context, method, path string, body, out any) error {
	resp, err := s.client.Do(ctx, method, &httpclient.Request{Path: path, Body: body})
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (s *Service) post(ctx context.Context, path string, body, out any) error {
	return s.send(ctx, http.MethodPost, path, body, out)
}

func (s *Service) patch(ctx context.Context, path string, body, out any) error {
	return s.send(ctx, http.MethodPatch, path, body, out)
}

// list fetches a collection. The API answers either with a {"results": [...]}
// envelope or a bare array; an object without results is an empty list.
func (s *Service) list(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := s.client.Get(ctx, &httpclient.Request{Path: path, Params: params})
	if err != nil {
		return err
	}
	body := bytes.TrimSpace(resp.Body)
	if len(body) > 0 && body[0] == '[' {
		return decode(resp, out)
	}
	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return decodeError(resp, err)
	}
	if len(envelope.Results) == 0 || string(envelope.Results) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Results, out); err != nil {
		return decodeError(resp, err)
	}
	return nil
}

func decode(resp *httpclient.Response, out any) error {
	if err := resp.Decode(out); err != nil {
		return decodeError(resp, err)
	}
	return nil
}

// decodeError reports a 2xx body that does not match the expected shape.
func decodeError(resp *httpclient.Response, err error) *httpclient.Error {
	return &httpclient.Error{
		Kind:          httpclient.KindAPI,
		StatusCode:    resp.StatusCode,
		Message:       "unexpected response shape",
		Raw:           []byte(resp.Body),
		CorrelationID: resp.CorrelationID,
		Cause:         err,
	}
}
