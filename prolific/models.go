package prolific

// Workspace is a Prolific workspace.
type Workspace struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

// User is a member of a project.
type User struct {
	ID    string   `json:"id" validate:"required"`
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty" validate:"omitempty,email"`
	Roles []string `json:"roles,omitempty"`
}

// Project groups studies within a workspace.
type Project struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Workspace   string `json:"workspace,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Users       []User `json:"users,omitempty"`
	// NaivetyDistributionRate is nil when the workspace default applies.
	NaivetyDistributionRate *float64 `json:"naivety_distribution_rate,omitempty"`
	CreatedAt               string   `json:"created_at,omitempty"`
	UpdatedAt               string   `json:"updated_at,omitempty"`
}

// ProjectCreate is the payload for CreateProject. Workspace is filled in by
// the service.
type ProjectCreate struct {
	Title                   string `json:"title" validate:"required,min=1,max=255"`
	Description             string `json:"description,omitempty"`
	Workspace               string `json:"workspace" validate:"required"`
	NaivetyDistributionRate *int   `json:"naivety_distribution_rate,omitempty" validate:"omitnil,min=0,max=100"`
}

// ProjectUpdate is a partial project update; nil fields are left unchanged.
type ProjectUpdate struct {
	Title                   *string  `json:"title,omitempty" validate:"omitnil,min=1,max=255"`
	Description             *string  `json:"description,omitempty"`
	Owner                   *string  `json:"owner,omitempty"`
	Workspace               *string  `json:"workspace,omitempty"`
	Users                   []User   `json:"users,omitempty" validate:"omitempty,dive"`
	NaivetyDistributionRate *float64 `json:"naivety_distribution_rate,omitempty" validate:"omitnil,min=0,max=100"`

	// Extra is merged into the request body and wins over typed fields.
	Extra map[string]any `json:"-"`
}

func (u ProjectUpdate) empty() bool {
	return u.Title == nil && u.Description == nil && u.Owner == nil &&
		u.Workspace == nil && u.Users == nil && u.NaivetyDistributionRate == nil &&
		len(u.Extra) == 0
}

// StudyStatus is the lifecycle state of a study.
type StudyStatus string

const (
	StudyUnpublished    StudyStatus = "UNPUBLISHED"
	StudyActive         StudyStatus = "ACTIVE"
	StudyScheduled      StudyStatus = "SCHEDULED"
	StudyAwaitingReview StudyStatus = "AWAITING_REVIEW"
	StudyCompleted      StudyStatus = "COMPLETED"
	StudyPaused         StudyStatus = "PAUSED"
)

// StudyAction is a transition requested through TransitionStudy.
type StudyAction string

const (
	// ActionPublish moves an UNPUBLISHED study to ACTIVE.
	ActionPublish StudyAction = "PUBLISH"
	// ActionStart resumes recruiting on a paused study.
	ActionStart StudyAction = "START"
	ActionPause StudyAction = "PAUSE"
	// ActionStop completes the study.
	ActionStop StudyAction = "STOP"
)

// Study is a Prolific study.
type Study struct {
	ID                      string      `json:"id"`
	Name                    string      `json:"name"`
	InternalName            string      `json:"internal_name,omitempty"`
	Description             string      `json:"description,omitempty"`
	ExternalStudyURL        string      `json:"external_study_url,omitempty"`
	Project                 string      `json:"project,omitempty"`
	Status                  StudyStatus `json:"status"`
	TotalAvailablePlaces    int         `json:"total_available_places"`
	PlacesTaken             int         `json:"places_taken"`
	Reward                  *int        `json:"reward,omitempty"`
	EstimatedCompletionTime *int        `json:"estimated_completion_time,omitempty"`
	CreatedAt               string      `json:"created_at,omitempty"`
	PublishedAt             string      `json:"published_at,omitempty"`
	CompletedAt             string      `json:"completed_at,omitempty"`
}

// StudyCreate is the payload for CreateStudy. Reward is in cents or pence and
// EstimatedCompletionTime in minutes.
type StudyCreate struct {
	Name                    string `json:"name" validate:"required,min=1,max=255"`
	InternalName            string `json:"internal_name,omitempty"`
	Description             string `json:"description,omitempty"`
	ExternalStudyURL        string `json:"external_study_url" validate:"required,url"`
	TotalAvailablePlaces    int    `json:"total_available_places" validate:"gte=1"`
	EstimatedCompletionTime int    `json:"estimated_completion_time" validate:"gte=1"`
	Reward                  int    `json:"reward" validate:"gte=0"`
	Project                 string `json:"project,omitempty"`
}

// StudyUpdate is a partial study update. Once a study is published the API
// only accepts an increase of TotalAvailablePlaces.
type StudyUpdate struct {
	Name                 *string `json:"name,omitempty" validate:"omitnil,min=1,max=255"`
	InternalName         *string `json:"internal_name,omitempty"`
	Description          *string `json:"description,omitempty"`
	TotalAvailablePlaces *int    `json:"total_available_places,omitempty" validate:"omitnil,gte=1"`
}

// StudyListOptions narrows ListStudies. Empty fields are not sent.
type StudyListOptions struct {
	ProjectID   string
	WorkspaceID string
}

type studyTransition struct {
	Action StudyAction `json:"action" validate:"required,oneof=PUBLISH START PAUSE STOP"`
}

// Filter is a recruiting criterion offered by the API.
type Filter struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	FilterTag   string `json:"filter_tag,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// FilterValue applies a filter inside a filter set: SelectedValues for select
// filters, RangeValue (e.g. {"min": 18, "max": 30}) for range filters.
type FilterValue struct {
	FilterID       string         `json:"filter_id" validate:"required"`
	SelectedValues []any          `json:"selected_values,omitempty"`
	RangeValue     map[string]any `json:"range_value,omitempty"`
}

// FilterSet is a versioned, reusable collection of filters.
type FilterSet struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Version     int           `json:"version"`
	WorkspaceID string        `json:"workspace_id"`
	Filters     []FilterValue `json:"filters"`
	// EstimatedParticipants is nil when the API has no estimate.
	EstimatedParticipants *int   `json:"estimated_participants,omitempty"`
	CreatedAt             string `json:"created_at,omitempty"`
	UpdatedAt             string `json:"updated_at,omitempty"`
}

// FilterSetCreate is the payload for CreateFilterSet. A nil Filters is sent
// as an empty list.
type FilterSetCreate struct {
	Name        string        `json:"name" validate:"required,min=1,max=255"`
	WorkspaceID string        `json:"workspace_id" validate:"required"`
	Filters     []FilterValue `json:"filters" validate:"dive"`
}

// FilterSetUpdate replaces the name or the whole filter list. The API stores
// the result as a new version.
type FilterSetUpdate struct {
	Name    *string       `json:"name,omitempty" validate:"omitnil,min=1,max=255"`
	Filters []FilterValue `json:"filters,omitempty" validate:"omitempty,dive"`
}

// FilterDistribution reports how many participants match each value of a
// filter.
type FilterDistribution struct {
	FilterID     string              `json:"filter_id"`
	Total        int                 `json:"total,omitempty"`
	Distribution []DistributionPoint `json:"distribution"`
}

// DistributionPoint is one bucket of a FilterDistribution.
type DistributionPoint struct {
	Label string `json:"label"`
	Value any    `json:"value,omitempty"`
	Count int    `json:"count"`
}
