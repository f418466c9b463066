package reporting

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	inventory "devicedesk/internal/inventory/domain"
)

// BuildModelCostPDF renders the per-month purchase cost report for a model.
func BuildModelCostPDF(model *inventory.Model, rows []inventory.MonthlyCost) ([]byte, error) {
	if model == nil {
		return nil, errors.New("reporting: nil model")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Model Cost Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Manufacturer: %s", model.Manufacturer))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Model: %s", model.ModelNumber))
	pdf.Ln(5)
	if model.Description != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Description: %s", *model.Description))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Weight: %.2f", model.Weight))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Year", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Month", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Average Cost", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", row.Year), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", row.Month), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.2f", row.AverageCost), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildModelCostXLSX renders the per-month purchase cost report as a
// workbook with a summary sheet and a costs sheet.
func BuildModelCostXLSX(model *inventory.Model, rows []inventory.MonthlyCost) ([]byte, error) {
	if model == nil {
		return nil, errors.New("reporting: nil model")
	}

	f := excelize.NewFile()
	summarySheet := "summary"
	costsSheet := "costs"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(costsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Model Cost Report")
	_ = f.SetCellValue(summarySheet, "A3", "Manufacturer")
	_ = f.SetCellValue(summarySheet, "B3", model.Manufacturer)
	_ = f.SetCellValue(summarySheet, "A4", "Model")
	_ = f.SetCellValue(summarySheet, "B4", model.ModelNumber)
	if model.Description != nil {
		_ = f.SetCellValue(summarySheet, "A5", "Description")
		_ = f.SetCellValue(summarySheet, "B5", *model.Description)
	}
	_ = f.SetCellValue(summarySheet, "A6", "Weight")
	_ = f.SetCellValue(summarySheet, "B6", model.Weight)

	_ = f.SetCellValue(costsSheet, "A1", "Year")
	_ = f.SetCellValue(costsSheet, "B1", "Month")
	_ = f.SetCellValue(costsSheet, "C1", "Average Cost")
	for i, row := range rows {
		cell := i + 2
		_ = f.SetCellValue(costsSheet, fmt.Sprintf("A%d", cell), row.Year)
		_ = f.SetCellValue(costsSheet, fmt.Sprintf("B%d", cell), row.Month)
		_ = f.SetCellValue(costsSheet, fmt.Sprintf("C%d", cell), row.AverageCost)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
