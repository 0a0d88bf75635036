// Package aggregate derives dashboard figures from status records and
// project assignments. Every function is pure and total: empty input gives
// zero values, never an error.
package aggregate

import (
	"sort"
	"strings"

	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/shopspring/decimal"
)

const UnknownProjectTitle = "Unknown project"

// HealthCounts partitions records by health bucket.
type HealthCounts struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
	Other  int `json:"other"`
}

// Total is the number of records counted, across all buckets.
func (h HealthCounts) Total() int {
	return h.Green + h.Yellow + h.Red + h.Other
}

// CountHealth buckets each record case-insensitively.
func CountHealth(records []domain.StatusRecord) HealthCounts {
	var c HealthCounts
	for _, r := range records {
		switch r.Health.Bucket() {
		case "green":
			c.Green++
		case "yellow":
			c.Yellow++
		case "red":
			c.Red++
		default:
			c.Other++
		}
	}
	return c
}

// roundHalfUp matches Math.round: halves go toward +Inf.
func roundHalfUp(d decimal.Decimal) int {
	return int(d.Add(decimal.New(5, -1)).Floor().IntPart())
}

// Average returns 0 for no values, otherwise the rounded mean.
func Average(values []float64) int {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return roundHalfUp(sum.Div(decimal.NewFromInt(int64(len(values)))))
}

func PlannedAverage(records []domain.StatusRecord) int {
	vals := make([]float64, len(records))
	for i, r := range records {
		vals[i] = r.PlannedPercent
	}
	return Average(vals)
}

func ActualAverage(records []domain.StatusRecord) int {
	vals := make([]float64, len(records))
	for i, r := range records {
		vals[i] = r.ActualPercent
	}
	return Average(vals)
}

// Variance is actual average minus planned average, in points.
func Variance(records []domain.StatusRecord) int {
	return ActualAverage(records) - PlannedAverage(records)
}

// DistinctProjects counts project ids that have at least one record.
// Records without a project (id 0) are ignored.
func DistinctProjects(records []domain.StatusRecord) int {
	seen := make(map[int]struct{})
	for _, r := range records {
		if r.ProjectID != 0 {
			seen[r.ProjectID] = struct{}{}
		}
	}
	return len(seen)
}

// DistinctProjectsWithIssues counts projects with at least one record whose
// issues text is not blank.
func DistinctProjectsWithIssues(records []domain.StatusRecord) int {
	seen := make(map[int]struct{})
	for _, r := range records {
		if r.ProjectID != 0 && strings.TrimSpace(r.Issues) != "" {
			seen[r.ProjectID] = struct{}{}
		}
	}
	return len(seen)
}

// Allocations counts projects per manager, highest first. Ties keep the
// order in which managers were first seen; blank names are skipped.
func Allocations(assignments []domain.ProjectAssignment) []domain.ManagerAllocation {
	index := make(map[string]int)
	out := make([]domain.ManagerAllocation, 0)
	for _, a := range assignments {
		name := strings.TrimSpace(a.ManagerName)
		if name == "" {
			continue
		}
		if i, ok := index[name]; ok {
			out[i].ProjectCount++
			continue
		}
		index[name] = len(out)
		out = append(out, domain.ManagerAllocation{ManagerName: name, ProjectCount: 1})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProjectCount > out[j].ProjectCount
	})
	return out
}

// LatestPerProject keeps the first record seen for each project id. Records
// are expected newest first, as the list store returns them.
func LatestPerProject(records []domain.StatusRecord) map[int]domain.StatusRecord {
	latest := make(map[int]domain.StatusRecord)
	for _, r := range records {
		if r.ProjectID == 0 {
			continue
		}
		if _, ok := latest[r.ProjectID]; !ok {
			latest[r.ProjectID] = r
		}
	}
	return latest
}

// UpdatesForProject filters records to one project, keeping their order.
func UpdatesForProject(records []domain.StatusRecord, projectID int) []domain.StatusRecord {
	out := make([]domain.StatusRecord, 0)
	for _, r := range records {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out
}

// DisplayTitle picks the record's own project title, then the lookup
// title, then UnknownProjectTitle.
func DisplayTitle(r domain.StatusRecord, projects map[int]string) string {
	if t := strings.TrimSpace(r.ProjectTitle); t != "" {
		return t
	}
	if t, ok := projects[r.ProjectID]; ok && strings.TrimSpace(t) != "" {
		return t
	}
	return UnknownProjectTitle
}

// TitleIndex maps project id to title.
func TitleIndex(projects []domain.ProjectLookup) map[int]string {
	idx := make(map[int]string, len(projects))
	for _, p := range projects {
		idx[p.ID] = p.Title
	}
	return idx
}
