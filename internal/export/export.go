// Package export writes the cost report as an xlsx workbook.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jask/tariffdesk/internal/costs"
)

const (
	SummarySheet = "Resumen"
	DetailSheet  = "Detalle"
)

// CostReportExporter writes the summary and per-resource detail sheets.
type CostReportExporter struct {
	wb *excelize.File
}

// NewCostReportExporter starts a fresh workbook.
func NewCostReportExporter() *CostReportExporter {
	return &CostReportExporter{wb: excelize.NewFile()}
}

// Fill writes every project. The Total column is a SUM formula over the
// month columns so the workbook stays live when edited.
func (e *CostReportExporter) Fill(summaries []costs.Summary) error {
	if e == nil || e.wb == nil {
		return errors.New("workbook is nil")
	}
	if err := e.wb.SetSheetName(e.wb.GetSheetName(0), SummarySheet); err != nil {
		return err
	}
	if _, err := e.wb.NewSheet(DetailSheet); err != nil {
		return err
	}
	bold, err := e.wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := e.wb.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	header := []any{"Proyecto"}
	for _, m := range costs.MonthLabels {
		header = append(header, m)
	}
	header = append(header, "Total")
	if err := e.wb.SetSheetRow(SummarySheet, "A1", &header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := e.wb.SetCellStyle(SummarySheet, "A1", lastCol+"1", bold); err != nil {
		return err
	}

	for i, s := range summaries {
		row := i + 2
		values := []any{s.Project.ProjectName}
		for month := 1; month <= 12; month++ {
			if amount, ok := s.ByMonth[month]; ok {
				values = append(values, amount)
			} else {
				values = append(values, nil)
			}
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := e.wb.SetSheetRow(SummarySheet, start, &values); err != nil {
			return err
		}
		total := fmt.Sprintf("%s%d", lastCol, row)
		if err := e.wb.SetCellFormula(SummarySheet, total, fmt.Sprintf("SUM(B%d:M%d)", row, row)); err != nil {
			return err
		}
		if err := e.wb.SetCellStyle(SummarySheet, fmt.Sprintf("B%d", row), total, money); err != nil {
			return err
		}
	}

	detailHeader := []any{"Proyecto", "Periodo", "Recurso", "Rol", "Seniority", "Horas", "Tarifa", "Costo"}
	if err := e.wb.SetSheetRow(DetailSheet, "A1", &detailHeader); err != nil {
		return err
	}
	if err := e.wb.SetCellStyle(DetailSheet, "A1", "H1", bold); err != nil {
		return err
	}
	row := 2
	for _, s := range summaries {
		for _, m := range s.Project.Months {
			for _, r := range m.Resources {
				line := []any{
					s.Project.ProjectName,
					fmt.Sprintf("%02d/%d", m.Month, m.Year),
					r.Name, r.Role, r.Seniority, r.Hours, r.HourlyRate, r.Cost,
				}
				if err := e.wb.SetSheetRow(DetailSheet, fmt.Sprintf("A%d", row), &line); err != nil {
					return err
				}
				row++
			}
		}
	}
	return nil
}

// Write serializes the workbook.
func (e *CostReportExporter) Write(w io.Writer) error {
	if _, err := e.wb.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Close releases the workbook.
func (e *CostReportExporter) Close() error { return e.wb.Close() }

// WriteCostReport exports summaries to path.
func WriteCostReport(path string, summaries []costs.Summary) error {
	e := NewCostReportExporter()
	defer e.Close()
	if err := e.Fill(summaries); err != nil {
		return err
	}
	if err := e.wb.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
