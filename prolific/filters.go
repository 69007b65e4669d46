package prolific

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// estimatePrefix names the throwaway filter sets created by
// EstimateParticipantPool.
const estimatePrefix = "_temp_estimate_"

// ListFilters returns the recruiting filters available to a workspace.
func (s *Service) ListFilters(ctx context.Context, workspaceID string) ([]Filter, error) {
	ws, err := s.resolveWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	var out []Filter
	if err := s.list(ctx, resourcePath("filters"), map[string]string{"workspace_id": ws}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetFilterDistribution returns participant counts per value of a filter.
func (s *Service) GetFilterDistribution(ctx context.Context, filterID, workspaceID string) (*FilterDistribution, error) {
	if err := requireID("filter", filterID); err != nil {
		return nil, err
	}
	ws, err := s.resolveWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	var d FilterDistribution
	if err := s.get(ctx, resourcePath("filters", filterID, "distribution"), map[string]string{"workspace_id": ws}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// FindFiltersByTag returns the filters whose tag equals tag.
func (s *Service) FindFiltersByTag(ctx context.Context, workspaceID, tag string) ([]Filter, error) {
	filters, err := s.ListFilters(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	matched := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f.FilterTag == tag {
			matched = append(matched, f)
		}
	}
	return matched, nil
}

// ListFilterSets returns every filter set version in a workspace.
func (s *Service) ListFilterSets(ctx context.Context, workspaceID string) ([]FilterSet, error) {
	ws, err := s.resolveWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	var out []FilterSet
	if err := s.list(ctx, resourcePath("workspaces", ws, "filter-sets"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetFilterSet returns a single filter set.
func (s *Service) GetFilterSet(ctx context.Context, filterSetID string) (*FilterSet, error) {
	if err := requireID("filter set", filterSetID); err != nil {
		return nil, err
	}
	var fs FilterSet
	if err := s.get(ctx, resourcePath("filter-sets", filterSetID), nil, &fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// CreateFilterSet creates a filter set. An empty in.WorkspaceID uses the
// service default.
func (s *Service) CreateFilterSet(ctx context.Context, in FilterSetCreate) (*FilterSet, error) {
	if in.WorkspaceID == "" {
		in.WorkspaceID = s.workspaceID
	}
	if in.Filters == nil {
		in.Filters = []FilterValue{}
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	var fs FilterSet
	if err := s.post(ctx, resourcePath("filter-sets"), in, &fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// UpdateFilterSet patches a filter set; the API answers with the new version.
func (s *Service) UpdateFilterSet(ctx context.Context, filterSetID string, in FilterSetUpdate) (*FilterSet, error) {
	if err := requireID("filter set", filterSetID); err != nil {
		return nil, err
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	var fs FilterSet
	if err := s.patch(ctx, resourcePath("filter-sets", filterSetID), in, &fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// FindFilterSetByName returns the highest version of the named filter set,
// or nil when none matches.
func (s *Service) FindFilterSetByName(ctx context.Context, workspaceID, name string) (*FilterSet, error) {
	sets, err := s.ListFilterSets(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	var latest *FilterSet
	for i := range sets {
		if sets[i].Name != name {
			continue
		}
		if latest == nil || sets[i].Version > latest.Version {
			latest = &sets[i]
		}
	}
	return latest, nil
}

// EstimateParticipantPool returns the API's reach estimate for filters, or 0
// when none is reported. It works by creating a filter set whose name is
// derived from the filters, so repeated estimates of the same criteria reuse
// one name.
func (s *Service) EstimateParticipantPool(ctx context.Context, workspaceID string, filters []FilterValue) (int, error) {
	ws, err := s.resolveWorkspace(workspaceID)
	if err != nil {
		return 0, err
	}
	name, err := estimateName(filters)
	if err != nil {
		return 0, invalidArgument("invalid filters", err)
	}
	fs, err := s.CreateFilterSet(ctx, FilterSetCreate{Name: name, WorkspaceID: ws, Filters: filters})
	if err != nil {
		return 0, err
	}
	if fs.EstimatedParticipants == nil {
		return 0, nil
	}
	return *fs.EstimatedParticipants, nil
}

func estimateName(filters []FilterValue) (string, error) {
	raw, err := json.Marshal(filters)
	if err != nil {
		return "", err
	}
	id := uuid.NewSHA1(uuid.NameSpaceOID, raw)
	return estimatePrefix + id.String()[:8], nil
}
