package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"TSNWeave/internal/model"
)

// CSVWriter persists schedules as CSV tables under a root directory. Flow
// and topology tables are rewritten per solve; the group report is appended,
// so repeated runs of one case accumulate into a single history file.
type CSVWriter struct {
	Root string
}

func NewCSVWriter(root string) (*CSVWriter, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &CSVWriter{Root: root}, nil
}

func (w *CSVWriter) WriteSolution(sol *model.Solution) error {
	flowPath := filepath.Join(w.Root, fmt.Sprintf("%s-%s-IP-Flows.csv", sol.Name, sol.Shaper))
	if err := writeTable(flowPath, FlowTable(sol)); err != nil {
		return err
	}
	topoPath := filepath.Join(w.Root, fmt.Sprintf("%s-%s-IP-Topo.csv", sol.Name, sol.Shaper))
	if err := writeTable(topoPath, TopoTable(sol)); err != nil {
		return err
	}
	if rows := GroupReport(sol); rows != nil {
		reportPath := filepath.Join(w.Root, fmt.Sprintf("%s_report.csv", sol.Name))
		if err := appendTable(reportPath, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return flushRows(f, path, rows)
}

func appendTable(path string, rows [][]string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return flushRows(f, path, rows)
}

func flushRows(f *os.File, path string, rows [][]string) error {
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	cw.Flush()
	return cw.Error()
}
