// Package export writes dashboard views as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/digital-factory/projectstatus-backend/internal/project_status/aggregate"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetSummary     = "Summary"
	SheetUpdates     = "Updates"
	SheetAllocations = "Allocations"

	timeLayout = "2006-01-02 15:04"
)

var updateHeadings = []any{
	"Project", "Health", "Planned %", "Actual %",
	"Activities", "Issues", "Next steps", "Created", "Created by",
}

// WriteDashboard writes the KPIs, the update feed and the allocation table
// as one workbook.
func WriteDashboard(w io.Writer, d aggregate.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if err := writeSummary(f, d); err != nil {
		return fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeUpdates(f, d.Feed); err != nil {
		return fmt.Errorf("updates sheet: %w", err)
	}
	if err := writeAllocations(f, d.Allocation); err != nil {
		return fmt.Errorf("allocations sheet: %w", err)
	}

	_, err := f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeSummary(f *excelize.File, d aggregate.Dashboard) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Projects tracked", d.ProjectsTracked},
		{"Total updates", d.TotalUpdates},
		{"Planned average %", d.PlannedAverage},
		{"Actual average %", d.ActualAverage},
		{"Variance", d.Variance},
		{"Projects with issues", d.ProjectsWithIssues},
		{"Green", d.Health.Green},
		{"Yellow", d.Health.Yellow},
		{"Red", d.Health.Red},
		{"Other", d.Health.Other},
		{"Project managers", d.Allocation.ManagerCount},
		{"Average projects per PM", d.Allocation.AveragePerManager},
	}
	if !d.LastRefresh.IsZero() {
		rows = append(rows, []any{"Last refresh", d.LastRefresh.Format(timeLayout)})
	}
	for i, r := range rows {
		if err := setRow(f, SheetSummary, i+1, r); err != nil {
			return err
		}
	}
	return nil
}

func writeUpdates(f *excelize.File, feed []aggregate.FeedItem) error {
	if _, err := f.NewSheet(SheetUpdates); err != nil {
		return err
	}
	if err := setRow(f, SheetUpdates, 1, updateHeadings); err != nil {
		return err
	}
	for i, item := range feed {
		row := []any{
			item.DisplayTitle,
			string(item.Health),
			item.PlannedPercent,
			item.ActualPercent,
			item.Activities,
			item.Issues,
			item.NextSteps,
			item.Created.Format(timeLayout),
			item.CreatedBy,
		}
		if err := setRow(f, SheetUpdates, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeAllocations(f *excelize.File, a aggregate.AllocationSummary) error {
	if _, err := f.NewSheet(SheetAllocations); err != nil {
		return err
	}
	if err := setRow(f, SheetAllocations, 1, []any{"Project manager", "Projects"}); err != nil {
		return err
	}
	for i, r := range a.Top {
		if err := setRow(f, SheetAllocations, i+2, []any{r.ManagerName, r.ProjectCount}); err != nil {
			return err
		}
	}
	return nil
}
