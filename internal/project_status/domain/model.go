package domain

import (
	"strings"
	"time"
)

// Health is the three-valued indicator attached to a status record.
// Values read back from the list store are kept verbatim, so anything
// outside the known set is still representable.
type Health string

const (
	HealthGreen  Health = "Green"
	HealthYellow Health = "Yellow"
	HealthRed    Health = "Red"
)

// Known reports whether h is one of Green, Yellow or Red (exact case).
func (h Health) Known() bool {
	return h == HealthGreen || h == HealthYellow || h == HealthRed
}

// Bucket is the lower-cased value used for counting: green, yellow, red or other.
func (h Health) Bucket() string {
	switch strings.ToLower(strings.TrimSpace(string(h))) {
	case "green":
		return "green"
	case "yellow":
		return "yellow"
	case "red":
		return "red"
	default:
		return "other"
	}
}

// StatusRecord is one submitted status update. Immutable once stored.
type StatusRecord struct {
	ID             int       `json:"id"`
	ProjectID      int       `json:"project_id,omitempty"`
	ProjectTitle   string    `json:"project_title,omitempty"`
	Health         Health    `json:"health"`
	PlannedPercent float64   `json:"planned_percent"`
	ActualPercent  float64   `json:"actual_percent"`
	Activities     string    `json:"activities"`
	Issues         string    `json:"issues"`
	NextSteps      string    `json:"next_steps"`
	Created        time.Time `json:"created"`
	CreatedBy      string    `json:"created_by"`
}

// ProjectLookup is read-only reference data for a project.
type ProjectLookup struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// ProjectAssignment links a project to its project manager.
type ProjectAssignment struct {
	ProjectID    int    `json:"project_id"`
	ProjectTitle string `json:"project_title"`
	ManagerName  string `json:"manager_name"`
}

// ManagerAllocation is the number of projects assigned to one manager.
type ManagerAllocation struct {
	ManagerName  string `json:"manager_name"`
	ProjectCount int    `json:"project_count"`
}

// User is the caller identity as reported by the list store.
type User struct {
	ID        int    `json:"id"`
	LoginName string `json:"login_name"`
	Title     string `json:"title"`
	Email     string `json:"email,omitempty"`
}

// StatusDraft holds the values of a status update before it is posted.
type StatusDraft struct {
	ProjectID      int     `json:"project_id,omitempty"`
	Health         Health  `json:"health"`
	PlannedPercent float64 `json:"planned_percent"`
	ActualPercent  float64 `json:"actual_percent"`
	Activities     string  `json:"activities"`
	Issues         string  `json:"issues"`
	NextSteps      string  `json:"next_steps"`
}

// DefaultDraft returns the empty form: Green, 0%, 0%, no narrative.
func DefaultDraft() StatusDraft {
	return StatusDraft{Health: HealthGreen}
}

// Validate checks health and percent ranges. Project presence is checked by callers.
func (d StatusDraft) Validate() error {
	if !d.Health.Known() {
		return ErrInvalidHealth
	}
	if d.PlannedPercent < 0 || d.PlannedPercent > 100 || d.ActualPercent < 0 || d.ActualPercent > 100 {
		return ErrInvalidPercent
	}
	return nil
}
