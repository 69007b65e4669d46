package prolific

import (
	"context"
	"strings"
)

// ListStudies returns studies, optionally narrowed to a project or workspace.
// The default workspace is not applied here.
func (s *Service) ListStudies(ctx context.Context, opts StudyListOptions) ([]Study, error) {
	params := map[string]string{}
	if id := strings.TrimSpace(opts.ProjectID); id != "" {
		params["project"] = id
	}
	if id := strings.TrimSpace(opts.WorkspaceID); id != "" {
		params["workspace"] = id
	}
	var out []Study
	if err := s.list(ctx, resourcePath("studies"), params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStudy returns a single study.
func (s *Service) GetStudy(ctx context.Context, studyID string) (*Study, error) {
	if err := requireID("study", studyID); err != nil {
		return nil, err
	}
	var st Study
	if err := s.get(ctx, resourcePath("studies", studyID), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// CreateStudy creates an unpublished study.
func (s *Service) CreateStudy(ctx context.Context, in StudyCreate) (*Study, error) {
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	var st Study
	if err := s.post(ctx, resourcePath("studies"), in, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// UpdateStudy patches the fields set in in. Unlike UpdateProject an empty
// update is still sent.
func (s *Service) UpdateStudy(ctx context.Context, studyID string, in StudyUpdate) (*Study, error) {
	if err := requireID("study", studyID); err != nil {
		return nil, err
	}
	if err := validatePayload(in); err != nil {
		return nil, err
	}
	var st Study
	if err := s.patch(ctx, resourcePath("studies", studyID), in, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// TransitionStudy moves a study through its lifecycle. Whether the
// transition is allowed from the current status is decided by the API.
func (s *Service) TransitionStudy(ctx context.Context, studyID string, action StudyAction) (*Study, error) {
	if err := requireID("study", studyID); err != nil {
		return nil, err
	}
	body := studyTransition{Action: action}
	if err := validatePayload(body); err != nil {
		return nil, err
	}
	var st Study
	if err := s.post(ctx, resourcePath("studies", studyID, "transition"), body, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// PublishStudy publishes a draft study.
func (s *Service) PublishStudy(ctx context.Context, studyID string) (*Study, error) {
	return s.TransitionStudy(ctx, studyID, ActionPublish)
}

// StartRecruiting resumes recruiting.
func (s *Service) StartRecruiting(ctx context.Context, studyID string) (*Study, error) {
	return s.TransitionStudy(ctx, studyID, ActionStart)
}

func (s *Service) PauseRecruiting(ctx context.Context, studyID string) (*Study, error) {
	return s.TransitionStudy(ctx, studyID, ActionPause)
}

func (s *Service) StopStudy(ctx context.Context, studyID string) (*Study, error) {
	return s.TransitionStudy(ctx, studyID, ActionStop)
}

// IncreaseAvailablePlaces sets the total number of places. The API rejects
// totals that are not above the current value.
func (s *Service) IncreaseAvailablePlaces(ctx context.Context, studyID string, newTotal int) (*Study, error) {
	return s.UpdateStudy(ctx, studyID, StudyUpdate{TotalAvailablePlaces: &newTotal})
}

// FindStudyByName returns the first study with an exactly matching name,
// or nil. projectID may be empty to search all visible studies.
func (s *Service) FindStudyByName(ctx context.Context, name, projectID string) (*Study, error) {
	studies, err := s.ListStudies(ctx, StudyListOptions{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	for i := range studies {
		if studies[i].Name == name {
			return &studies[i], nil
		}
	}
	return nil, nil
}
