package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"falak/internal/graph"
)

// WriteEdgesCSV writes the model's correlation edges to a CSV file. The
// file starts with a UTF-8 BOM so Excel renders Arabic instrument names
// correctly when the file is opened directly.
func WriteEdgesCSV(path string, model *graph.MarketGraphModel) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"from", "to", "rho", "r2", "type", "pct", "confidence", "sample_size"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, edge := range model.Edges {
		record := []string{
			edge.From,
			edge.To,
			strconv.FormatFloat(edge.Rho, 'f', 6, 64),
			strconv.FormatFloat(edge.R2, 'f', 6, 64),
			string(edge.Type),
			strconv.Itoa(edge.Pct),
			string(edge.Confidence),
			strconv.Itoa(edge.SampleSize),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write edge %s-%s: %w", edge.From, edge.To, err)
		}
	}

	w.Flush()
	return w.Error()
}
