package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"falak/internal/graph"
	"falak/internal/stats"
)

// Sheet names in the exported workbook.
const (
	SheetInstruments = "Instruments"
	SheetEdges       = "Edges"
	SheetMatrix      = "Correlation Matrix"
	SheetStats       = "Portfolio"
)

// ExcelWriter exports models as xlsx workbooks.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates an ExcelWriter.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger.With(slog.String("component", "excel_writer"))}
}

// WriteWorkbook writes the model to an xlsx workbook at path, creating
// parent directories as needed.
func (w *ExcelWriter) WriteWorkbook(path string, model *graph.MarketGraphModel) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeInstruments(f, model); err != nil {
		return err
	}
	if err := w.writeEdges(f, model); err != nil {
		return err
	}
	if err := w.writeMatrix(f, model); err != nil {
		return err
	}
	if err := w.writeStats(f, model); err != nil {
		return err
	}

	// Drop the default sheet created by excelize.
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("workbook written",
		slog.String("path", path),
		slog.Int("instruments", len(model.Instruments)),
		slog.Int("edges", len(model.Edges)))
	return nil
}

func (w *ExcelWriter) writeInstruments(f *excelize.File, model *graph.MarketGraphModel) error {
	if _, err := f.NewSheet(SheetInstruments); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetInstruments, err)
	}

	headers := []interface{}{"Key", "Name (AR)", "Name (EN)", "Category", "Value",
		"Change %", "Annualized Vol", "Sharpe", "Beta"}
	if err := f.SetSheetRow(SheetInstruments, "A1", &headers); err != nil {
		return err
	}

	for i, inst := range model.Instruments {
		row := []interface{}{inst.Key, inst.NameAR, inst.NameEN, string(inst.Category),
			inst.Value, inst.ChangePct, inst.Vol, inst.Sharpe, inst.Beta}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetInstruments, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (w *ExcelWriter) writeEdges(f *excelize.File, model *graph.MarketGraphModel) error {
	if _, err := f.NewSheet(SheetEdges); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetEdges, err)
	}

	headers := []interface{}{"From", "To", "Rho", "R2", "Type", "Strength %",
		"Confidence", "Sample Size"}
	if err := f.SetSheetRow(SheetEdges, "A1", &headers); err != nil {
		return err
	}

	for i, edge := range model.Edges {
		row := []interface{}{edge.From, edge.To, edge.Rho, edge.R2, string(edge.Type),
			edge.Pct, string(edge.Confidence), edge.SampleSize}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetEdges, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// writeMatrix writes the full pairwise correlation matrix, not just the
// pairs that cleared the edge threshold.
func (w *ExcelWriter) writeMatrix(f *excelize.File, model *graph.MarketGraphModel) error {
	if _, err := f.NewSheet(SheetMatrix); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetMatrix, err)
	}

	keys := make([]interface{}, 0, len(model.Instruments)+1)
	keys = append(keys, "")
	for _, inst := range model.Instruments {
		keys = append(keys, inst.Key)
	}
	if err := f.SetSheetRow(SheetMatrix, "A1", &keys); err != nil {
		return err
	}

	for i, a := range model.Instruments {
		row := make([]interface{}, 0, len(model.Instruments)+1)
		row = append(row, a.Key)
		for j, b := range model.Instruments {
			if i == j {
				row = append(row, 1.0)
				continue
			}
			ra, rb := alignRecent(a.Returns, b.Returns)
			row = append(row, stats.PearsonCorr(ra, rb))
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetMatrix, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (w *ExcelWriter) writeStats(f *excelize.File, model *graph.MarketGraphModel) error {
	if _, err := f.NewSheet(SheetStats); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetStats, err)
	}

	rows := [][]interface{}{
		{"Model ID", model.ID},
		{"Generated At", model.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Average Return", model.Stats.AvgReturn},
		{"Average Volatility", model.Stats.AvgVol},
		{"Market Breadth", model.Stats.Breadth},
		{"Diversification", model.Stats.Diversification},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(SheetStats, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// alignRecent truncates both series to the shorter length, keeping the most
// recent observations.
func alignRecent(a, b []float64) ([]float64, []float64) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return a[len(a)-n:], b[len(b)-n:]
}
