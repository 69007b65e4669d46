package prolific

import (
	"context"
	"encoding/json"
	"maps"
)

// ListProjects returns the projects of a workspace. An empty workspaceID
// uses the service default.
func (s *Service) ListProjects(ctx context.Context, workspaceID string) ([]Project, error) {
	ws, err := s.resolveWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	var out []Project
	if err := s.list(ctx, resourcePath("workspaces", ws, "projects"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetProject returns a single project.
func (s *Service) GetProject(ctx context.Context, projectID string) (*Project, error) {
	if err := requireID("project", projectID); err != nil {
		return nil, err
	}
	var p Project
	if err := s.get(ctx, resourcePath("projects", projectID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject creates a project in workspaceID (or the default workspace).
// The workspace argument overrides in.Workspace.
func (s *Service) CreateProject(ctx context.Context, workspaceID string, in ProjectCreate) (*Project, error) {
	ws, err := s.resolveWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	in.Workspace = ws
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	var p Project
	if err := s.post(ctx, resourcePath("workspaces", ws, "projects"), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProject patches the fields set in in. An update with nothing set is
// answered with the current project and sends no PATCH.
func (s *Service) UpdateProject(ctx context.Context, projectID string, in ProjectUpdate) (*Project, error) {
	if err := requireID("project", projectID); err != nil {
		return nil, err
	}
	if in.empty() {
		return s.GetProject(ctx, projectID)
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	body, err := mergeExtra(in, in.Extra)
	if err != nil {
		return nil, invalidArgument("invalid project update", err)
	}
	var p Project
	if err := s.patch(ctx, resourcePath("projects", projectID), body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindProjectByTitle returns the first project whose title matches exactly,
// or nil when there is none.
func (s *Service) FindProjectByTitle(ctx context.Context, workspaceID, title string) (*Project, error) {
	projects, err := s.ListProjects(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Title == title {
			return &projects[i], nil
		}
	}
	return nil, nil
}

// mergeExtra encodes v as a JSON object and overlays extra on it.
func mergeExtra(v any, extra map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	maps.Copy(body, extra)
	return body, nil
}
