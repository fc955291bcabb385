// Package exporter writes graph model snapshots to Excel workbooks and CSV
// files for offline analysis.
package exporter
