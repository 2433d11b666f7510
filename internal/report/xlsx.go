// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/intellidrug/internal/synthesis"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// Sheet names in workbook order.
const (
	SheetSummary  = "Summary"
	SheetWorkers  = "Worker confidences"
	SheetFindings = "Findings"
	SheetBalance  = "Strengths and Weaknesses"
	SheetRisks    = "Risks"
)

// WriteXLSX writes a's workbook to path.
func WriteXLSX(path string, a types.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetWorkers, SheetFindings, SheetBalance, SheetRisks} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	sheets := []struct {
		name   string
		header bool
		rows   [][]any
		width  float64
	}{
		{SheetSummary, false, summaryRows(a), 40},
		{SheetWorkers, true, workerRows(a.Recommendation), 24},
		{SheetFindings, true, findingRows(a), 30},
		{SheetBalance, true, balanceRows(a.Recommendation), 50},
		{SheetRisks, true, riskRows(a.Recommendation), 60},
	}
	for _, s := range sheets {
		if err := writeRows(f, s.name, s.rows); err != nil {
			return fmt.Errorf("sheet %s: %w", s.name, err)
		}
		if s.header && len(s.rows) > 0 {
			end, _ := excelize.CoordinatesToCellName(len(s.rows[0]), 1)
			if err := f.SetCellStyle(s.name, "A1", end, bold); err != nil {
				return err
			}
		}
		if err := f.SetColWidth(s.name, "A", "E", s.width); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "A20", bold); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	return f.SaveAs(path)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func summaryRows(a types.Analysis) [][]any {
	rec := a.Recommendation
	return [][]any{
		{"Subject", a.Subject},
		{"Context", a.Context},
		{"Recommendation", rec.Label},
		{"Score", rec.Score},
		{"Evidence-based score", rec.EvidenceBasedScore},
		{"Confidence", rec.ConfidenceDisplay},
		{"Confidence level", rec.ConfidenceLabel},
		{"Strategy", rec.Strategy.Title()},
		{"Needs review", yesNo(rec.NeedsReview)},
		{"Summary", rec.Summary},
		{"Generated", a.Timestamp.UTC().Format(time.RFC3339)},
	}
}

func workerRows(rec types.Recommendation) [][]any {
	rows := [][]any{{"Worker", "Confidence %", "Weight", "Status"}}
	for _, wc := range rec.WorkerConfidences {
		rows = append(rows, []any{wc.DisplayName, wc.ConfidencePct, wc.Weight, workerStatus(wc)})
	}
	return rows
}

func findingRows(a types.Analysis) [][]any {
	rows := [][]any{{"Worker", "Finding", "Evidence strength", "Grade", "Positive"}}
	for _, w := range workerOrder(a.Results) {
		for _, fd := range a.Results[w].Findings {
			rows = append(rows, []any{
				types.DisplayName(w), fd.Finding, fd.Strength(), synthesis.Grade(fd.Strength()), yesNo(fd.Positive()),
			})
		}
	}
	return rows
}

func balanceRows(rec types.Recommendation) [][]any {
	rows := [][]any{{"Strengths", "Weaknesses"}}
	n := max(len(rec.Strengths), len(rec.Weaknesses))
	for i := range n {
		row := []any{"", ""}
		if i < len(rec.Strengths) {
			row[0] = rec.Strengths[i]
		}
		if i < len(rec.Weaknesses) {
			row[1] = rec.Weaknesses[i]
		}
		rows = append(rows, row)
	}
	return rows
}

func riskRows(rec types.Recommendation) [][]any {
	rows := [][]any{{"Risk"}}
	for _, r := range rec.Risks {
		rows = append(rows, []any{r})
	}
	return rows
}
