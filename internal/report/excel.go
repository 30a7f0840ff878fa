package report

import (
	"fmt"
	"io"

	"npdstudio/domain/scenario"
	"npdstudio/internal/charts"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook
const (
	SheetPredictions  = "Predictions"
	SheetSimilarity   = "Similarity"
	SheetDistribution = "Distribution"
)

// WriteWorkbook writes the scenario as an XLSX workbook. The distribution sheet is
// only added when a profile is given.
func WriteWorkbook(w io.Writer, form scenario.ProductForm, profile []charts.PositionStats) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPredictions); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	months, series := charts.PredictionSeries(form.PredictionData)
	header := []interface{}{"Month"}
	for _, s := range series {
		header = append(header, string(s.Retailer))
	}
	rows := make([][]interface{}, len(months))
	for i, m := range months {
		row := []interface{}{m}
		for _, s := range series {
			row = append(row, s.Values[i])
		}
		rows[i] = row
	}
	if err := writeSheet(f, SheetPredictions, header, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetSimilarity); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	simRows := charts.SimilarityRows(form.SimilarityData)
	rows = make([][]interface{}, len(simRows))
	for i, r := range simRows {
		rows[i] = []interface{}{r.BaseCode, r.Description, r.Similarity, r.SellInVolume, len(r.Points)}
	}
	if err := writeSheet(f, SheetSimilarity, []interface{}{"Base Code", "Description", "Similarity", "Sell In Volume", "Weeks"}, rows); err != nil {
		return err
	}

	if profile != nil {
		if _, err := f.NewSheet(SheetDistribution); err != nil {
			return fmt.Errorf("create sheet: %w", err)
		}
		rows = make([][]interface{}, len(profile))
		for i, ps := range profile {
			rows[i] = []interface{}{ps.Position, ps.Count, ps.Mean, ps.Median, ps.StdDev, ps.Min, ps.Max}
		}
		if err := writeSheet(f, SheetDistribution, []interface{}{"Position", "Clients", "Mean", "Median", "Std Dev", "Min", "Max"}, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	for c, h := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
