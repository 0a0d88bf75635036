package domain

import "time"

// SubmissionState is the position of a user in the select-then-edit flow.
type SubmissionState string

const (
	StateNoProject SubmissionState = "no_project"
	StateEditing   SubmissionState = "editing"
)

// Submission is the per-user draft session.
type Submission struct {
	UserKey       string          `json:"user_key"`
	State         SubmissionState `json:"state"`
	Project       *ProjectLookup  `json:"project,omitempty"`
	Draft         StatusDraft     `json:"draft"`
	PreviousEntry *StatusRecord   `json:"previous_entry,omitempty"`
	CopyPrevious  bool            `json:"copy_previous"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewSubmission returns a fresh session with nothing selected.
func NewSubmission(userKey string) *Submission {
	return &Submission{
		UserKey:   userKey,
		State:     StateNoProject,
		Draft:     DefaultDraft(),
		UpdatedAt: time.Now().UTC(),
	}
}

// DraftPatch carries partial form edits; nil fields are left unchanged.
type DraftPatch struct {
	Health         *Health  `json:"health,omitempty"`
	PlannedPercent *float64 `json:"planned_percent,omitempty"`
	ActualPercent  *float64 `json:"actual_percent,omitempty"`
	Activities     *string  `json:"activities,omitempty"`
	Issues         *string  `json:"issues,omitempty"`
	NextSteps      *string  `json:"next_steps,omitempty"`
}
