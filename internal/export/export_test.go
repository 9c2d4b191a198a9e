package export

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jask/tariffdesk/internal/api"
	"github.com/jask/tariffdesk/internal/costs"
)

func sample() []costs.Summary {
	return costs.Summarize([]api.ProjectCost{{
		ProjectID:   "p1",
		ProjectName: "Portal",
		Months: []api.MonthlyCost{
			{Year: 2024, Month: 1, TotalCost: 100, Resources: []api.CostResource{{Name: "Ana", Role: "Dev", Seniority: "Sr", Hours: 10, HourlyRate: 10, Cost: 100}}},
			{Year: 2024, Month: 3, TotalCost: 250},
		},
	}})
}

func TestCostReportWorkbook(t *testing.T) {
	e := NewCostReportExporter()
	t.Cleanup(func() { _ = e.Close() })
	require.NoError(t, e.Fill(sample()))

	var buf bytes.Buffer
	require.NoError(t, e.Write(&buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = wb.Close() })

	require.Equal(t, []string{SummarySheet, DetailSheet}, wb.GetSheetList())
	head, err := wb.GetCellValue(SummarySheet, "N1")
	require.NoError(t, err)
	require.Equal(t, "Total", head)

	name, err := wb.GetCellValue(SummarySheet, "A2")
	require.NoError(t, err)
	require.Equal(t, "Portal", name)

	formula, err := wb.GetCellFormula(SummarySheet, "N2")
	require.NoError(t, err)
	require.Equal(t, "SUM(B2:M2)", formula)
	total, err := wb.CalcCellValue(SummarySheet, "N2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Equal(t, "350", total)

	resource, err := wb.GetCellValue(DetailSheet, "C2")
	require.NoError(t, err)
	require.Equal(t, "Ana", resource)
	period, err := wb.GetCellValue(DetailSheet, "B2")
	require.NoError(t, err)
	require.Equal(t, "01/2024", period)
}

func TestWriteCostReportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "costos.xlsx")
	require.NoError(t, WriteCostReport(path, sample()))
	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, wb.Close())
}
