package aggregate

import (
	"time"

	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultFeedSize       = 8
	DefaultAllocationTop  = 5
	minAllocationBarWidth = 8
)

// HealthDistribution is the width, in percent, of each health segment.
// "other" does not take part.
type HealthDistribution struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
	Red    int `json:"red"`
}

func Distribution(c HealthCounts) HealthDistribution {
	total := c.Green + c.Yellow + c.Red
	if total == 0 {
		total = 1
	}
	width := func(n int) int {
		return roundHalfUp(decimal.NewFromInt(int64(n)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(total))))
	}
	return HealthDistribution{
		Green:  width(c.Green),
		Yellow: width(c.Yellow),
		Red:    width(c.Red),
	}
}

type AllocationRow struct {
	domain.ManagerAllocation
	BarWidth int `json:"bar_width"`
}

// AllocationSummary is the resource-allocation KPI.
type AllocationSummary struct {
	ManagerCount      int                       `json:"manager_count"`
	AveragePerManager string                    `json:"average_per_manager"`
	Top               []AllocationRow           `json:"top"`
	Highest           *domain.ManagerAllocation `json:"highest,omitempty"`
}

// SummarizeAllocations expects allocs ranked as Allocations returns them.
func SummarizeAllocations(allocs []domain.ManagerAllocation, top int) AllocationSummary {
	if top <= 0 {
		top = DefaultAllocationTop
	}
	s := AllocationSummary{
		ManagerCount:      len(allocs),
		AveragePerManager: "0.0",
		Top:               make([]AllocationRow, 0, top),
	}
	if len(allocs) == 0 {
		return s
	}

	total := 0
	for _, a := range allocs {
		total += a.ProjectCount
	}
	s.AveragePerManager = decimal.NewFromInt(int64(total)).
		Div(decimal.NewFromInt(int64(len(allocs)))).
		StringFixed(1)

	highest := allocs[0]
	s.Highest = &highest

	topCount := allocs[0].ProjectCount
	if topCount == 0 {
		topCount = 1
	}
	for i, a := range allocs {
		if i == top {
			break
		}
		w := roundHalfUp(decimal.NewFromInt(int64(a.ProjectCount)).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(int64(topCount))))
		if w < minAllocationBarWidth {
			w = minAllocationBarWidth
		}
		s.Top = append(s.Top, AllocationRow{ManagerAllocation: a, BarWidth: w})
	}
	return s
}

// FeedItem is a status record with the title it should be shown under.
type FeedItem struct {
	domain.StatusRecord
	DisplayTitle string `json:"display_title"`
}

type Dashboard struct {
	ProjectsTracked    int                `json:"projects_tracked"`
	TotalUpdates       int                `json:"total_updates"`
	PlannedAverage     int                `json:"planned_average"`
	ActualAverage      int                `json:"actual_average"`
	Variance           int                `json:"variance"`
	AheadOfPlan        bool               `json:"ahead_of_plan"`
	ProjectsWithIssues int                `json:"projects_with_issues"`
	Health             HealthCounts       `json:"health"`
	Distribution       HealthDistribution `json:"distribution"`
	Allocation         AllocationSummary  `json:"allocation"`
	Feed               []FeedItem         `json:"feed"`
	LastRefresh        time.Time          `json:"last_refresh"`
}

type DashboardOptions struct {
	FeedSize      int
	AllocationTop int
	LastRefresh   time.Time
}

// BuildDashboard assembles the portfolio view. records must be newest first.
func BuildDashboard(records []domain.StatusRecord, projects []domain.ProjectLookup, allocs []domain.ManagerAllocation, opts DashboardOptions) Dashboard {
	if opts.FeedSize <= 0 {
		opts.FeedSize = DefaultFeedSize
	}
	counts := CountHealth(records)
	planned := PlannedAverage(records)
	actual := ActualAverage(records)

	titles := TitleIndex(projects)
	n := opts.FeedSize
	if n > len(records) {
		n = len(records)
	}
	feed := make([]FeedItem, 0, n)
	for _, r := range records[:n] {
		feed = append(feed, FeedItem{StatusRecord: r, DisplayTitle: DisplayTitle(r, titles)})
	}

	return Dashboard{
		ProjectsTracked:    DistinctProjects(records),
		TotalUpdates:       len(records),
		PlannedAverage:     planned,
		ActualAverage:      actual,
		Variance:           actual - planned,
		AheadOfPlan:        actual-planned >= 0,
		ProjectsWithIssues: DistinctProjectsWithIssues(records),
		Health:             counts,
		Distribution:       Distribution(counts),
		Allocation:         SummarizeAllocations(allocs, opts.AllocationTop),
		Feed:               feed,
		LastRefresh:        opts.LastRefresh,
	}
}

// ProjectCard is a project with its most recent status, if any.
type ProjectCard struct {
	Project domain.ProjectLookup `json:"project"`
	Latest  *domain.StatusRecord `json:"latest,omitempty"`
}

func BuildProjectCards(projects []domain.ProjectLookup, records []domain.StatusRecord) []ProjectCard {
	latest := LatestPerProject(records)
	cards := make([]ProjectCard, 0, len(projects))
	for _, p := range projects {
		card := ProjectCard{Project: p}
		if r, ok := latest[p.ID]; ok {
			r := r
			card.Latest = &r
		}
		cards = append(cards, card)
	}
	return cards
}

// StaleProject is a project whose latest update is missing or too old.
type StaleProject struct {
	Project    domain.ProjectLookup `json:"project"`
	LastUpdate *time.Time           `json:"last_update,omitempty"`
}

// StaleProjects lists projects with no update at or after now-maxAge.
func StaleProjects(projects []domain.ProjectLookup, records []domain.StatusRecord, now time.Time, maxAge time.Duration) []StaleProject {
	latest := LatestPerProject(records)
	cutoff := now.Add(-maxAge)
	out := make([]StaleProject, 0)
	for _, p := range projects {
		r, ok := latest[p.ID]
		if !ok {
			out = append(out, StaleProject{Project: p})
			continue
		}
		if r.Created.Before(cutoff) {
			created := r.Created
			out = append(out, StaleProject{Project: p, LastUpdate: &created})
		}
	}
	return out
}
