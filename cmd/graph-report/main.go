// graph-report builds one market graph model and writes it to disk as
// JSON, an Excel workbook and an edges CSV, then prints a short summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"falak/internal/catalog"
	"falak/internal/exporter"
	"falak/internal/graph"
)

func main() {
	catalogPath := flag.String("catalog", "", "YAML catalog file (defaults to the built-in universe)")
	historyDir := flag.String("history", "", "directory of per-instrument price CSVs (optional)")
	outDir := flag.String("out", "reports", "output directory")
	threshold := flag.Float64("threshold", graph.DefaultThreshold, "correlation threshold for edge inclusion")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if err := run(*catalogPath, *historyDir, *outDir, *threshold, logger); err != nil {
		logger.Error("report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(catalogPath, historyDir, outDir string, threshold float64, logger *slog.Logger) error {
	instruments := catalog.Fallback()
	if catalogPath != "" {
		loaded, err := catalog.LoadFile(catalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		instruments = loaded
	}

	var histories map[string][]float64
	if historyDir != "" {
		loaded, err := (&catalog.DirHistory{Dir: historyDir}).Histories(context.Background())
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		histories = loaded
	}

	builder := graph.NewBuilder(logger, graph.WithThreshold(threshold))
	model := builder.Build(context.Background(), instruments, histories)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	jsonPath := filepath.Join(outDir, "model.json")
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal model: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}

	xlsxPath := filepath.Join(outDir, "model.xlsx")
	if err := exporter.NewExcelWriter(logger).WriteWorkbook(xlsxPath, model); err != nil {
		return err
	}

	csvPath := filepath.Join(outDir, "edges.csv")
	if err := exporter.WriteEdgesCSV(csvPath, model); err != nil {
		return err
	}

	fmt.Printf("model %s\n", model.ID)
	fmt.Printf("  instruments:     %d\n", len(model.Instruments))
	fmt.Printf("  edges:           %d (threshold %.2f)\n", len(model.Edges), threshold)
	fmt.Printf("  breadth:         %+.2f\n", model.Stats.Breadth)
	fmt.Printf("  diversification: %.2f\n", model.Stats.Diversification)
	fmt.Printf("  outputs:         %s, %s, %s\n", jsonPath, xlsxPath, csvPath)
	return nil
}
