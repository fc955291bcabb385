package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DirHistory loads daily closing prices from a directory of CSV files, one
// file per instrument named <KEY>.csv. Rows are oldest to newest; the last
// column of each row is the closing price. Rows whose last column does not
// parse as a number are skipped, so files with a header line work as-is.
//
// The directory is re-read on every call, like FileSource, so dropped-in
// history files are picked up on the next refresh cycle.
type DirHistory struct {
	Dir string
}

// Histories implements the graph service's history provider.
func (d *DirHistory) Histories(_ context.Context) (map[string][]float64, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, fmt.Errorf("read history directory: %w", err)
	}

	histories := make(map[string][]float64)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}

		key := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		prices, err := readPriceCSV(filepath.Join(d.Dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("history for %s: %w", key, err)
		}
		if len(prices) > 0 {
			histories[key] = prices
		}
	}

	return histories, nil
}

func readPriceCSV(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	prices := make([]float64, 0, len(records))
	for _, record := range records {
		if len(record) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[len(record)-1]), 64)
		if err != nil {
			// Header or comment row.
			continue
		}
		prices = append(prices, price)
	}
	return prices, nil
}
