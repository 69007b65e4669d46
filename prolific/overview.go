package prolific

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Overview is a snapshot of one workspace.
type Overview struct {
	WorkspaceID string      `json:"workspace_id"`
	Projects    []Project   `json:"projects"`
	Studies     []Study     `json:"studies"`
	FilterSets  []FilterSet `json:"filter_sets"`
}

// Overview fetches projects, studies and filter sets of a workspace
// concurrently. The first failure cancels the remaining requests.
func (s *Service) Overview(ctx context.Context, workspaceID string) (*Overview, error) {
	ws, err := s.resolveWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	out := &Overview{WorkspaceID: ws}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.Projects, err = s.ListProjects(gctx, ws)
		return err
	})
	g.Go(func() error {
		var err error
		out.Studies, err = s.ListStudies(gctx, StudyListOptions{WorkspaceID: ws})
		return err
	})
	g.Go(func() error {
		var err error
		out.FilterSets, err = s.ListFilterSets(gctx, ws)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
