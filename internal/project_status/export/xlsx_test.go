package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/digital-factory/projectstatus-backend/internal/project_status/aggregate"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteDashboard(t *testing.T) {
	created := time.Date(2025, 4, 2, 10, 30, 0, 0, time.UTC)
	records := []domain.StatusRecord{
		{ID: 2, ProjectID: 1, Health: domain.HealthYellow, PlannedPercent: 60, ActualPercent: 50, Issues: "Vendor", Created: created, CreatedBy: "Pat"},
		{ID: 1, ProjectID: 9, Health: domain.HealthGreen, PlannedPercent: 20, ActualPercent: 20, Created: created.Add(-time.Hour)},
	}
	projects := []domain.ProjectLookup{{ID: 1, Title: "Data Lake"}}
	allocs := []domain.ManagerAllocation{{ManagerName: "Pat", ProjectCount: 2}}
	d := aggregate.BuildDashboard(records, projects, allocs, aggregate.DashboardOptions{LastRefresh: created})

	var buf bytes.Buffer
	require.NoError(t, WriteDashboard(&buf, d))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetUpdates, SheetAllocations}, f.GetSheetList())

	v, err := f.GetCellValue(SheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	v, err = f.GetCellValue(SheetSummary, "B4")
	require.NoError(t, err)
	assert.Equal(t, "40", v)

	v, err = f.GetCellValue(SheetUpdates, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Data Lake", v)

	v, err = f.GetCellValue(SheetUpdates, "A3")
	require.NoError(t, err)
	assert.Equal(t, aggregate.UnknownProjectTitle, v)

	v, err = f.GetCellValue(SheetUpdates, "H2")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-02 10:30", v)

	v, err = f.GetCellValue(SheetAllocations, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Pat", v)
}

func TestWriteDashboard_Empty(t *testing.T) {
	d := aggregate.BuildDashboard(nil, nil, nil, aggregate.DashboardOptions{})

	var buf bytes.Buffer
	require.NoError(t, WriteDashboard(&buf, d))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetUpdates)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	v, err := f.GetCellValue(SheetSummary, "B13")
	require.NoError(t, err)
	assert.Equal(t, "0.0", v)
}
