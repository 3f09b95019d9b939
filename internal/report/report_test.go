package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"TSNWeave/internal/model"
)

func sampleSolution() *model.Solution {
	return &model.Solution{
		Name:   "case_1",
		Shaper: "MCQF",
		Flows: map[string]model.FlowRoute{
			"tt_flow_1": {MaxE2E: 40, Deadline: 100, Path: "node0|e1|7|1-sw|e2|7|3-node1"},
			"tt_flow_0": {MaxE2E: 20, Deadline: 50, Path: "node0|e1|7|1-sw|e2|7|1-node1"},
		},
		Edges: map[string]model.EdgeStats{
			"e2": {MaxBandwidthKbps: 300000, MeanBandwidthFraction: 0.3, MeanUtilizationPercent: 30},
			"e1": {MaxBandwidthKbps: 300000, MeanBandwidthFraction: 0.3, MeanUtilizationPercent: 30},
		},
		Groups: map[int]model.GroupStats{
			6: {Priority: 6, FlowCount: 0},
			7: {Priority: 7, FlowCount: 2, MeanE2E: 30, MeanBandwidthShare: 0.15, MaxBandwidthShare: 0.15},
		},
		Objective: 30,
	}
}

func TestFlowTableOrdering(t *testing.T) {
	rows := FlowTable(sampleSolution())
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "FlowName" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "tt_flow_0" || rows[2][0] != "tt_flow_1" {
		t.Errorf("rows must be sorted by flow name, got %q then %q", rows[1][0], rows[2][0])
	}
	if rows[1][1] != "20" || rows[1][2] != "50" {
		t.Errorf("unexpected tt_flow_0 row: %v", rows[1])
	}
}

func TestTopoTableValues(t *testing.T) {
	rows := TopoTable(sampleSolution())
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "e1" || rows[2][0] != "e2" {
		t.Errorf("rows must be sorted by edge id, got %q then %q", rows[1][0], rows[2][0])
	}
	if rows[1][1] != "300000" || rows[1][2] != "0.3" || rows[1][3] != "30" {
		t.Errorf("unexpected e1 row: %v", rows[1])
	}
}

func TestGroupReportOrdering(t *testing.T) {
	rows := GroupReport(sampleSolution())
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "7" || rows[2][0] != "6" {
		t.Errorf("groups must be sorted by descending priority, got %q then %q", rows[1][0], rows[2][0])
	}

	plain := sampleSolution()
	plain.Groups = nil
	if GroupReport(plain) != nil {
		t.Error("expected no group report without priority groups")
	}
}

func TestCSVWriterFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(dir)
	if err != nil {
		t.Fatalf("NewCSVWriter failed: %v", err)
	}
	sol := sampleSolution()
	if err := w.WriteSolution(sol); err != nil {
		t.Fatalf("WriteSolution failed: %v", err)
	}

	flowData, err := os.ReadFile(filepath.Join(dir, "case_1-MCQF-IP-Flows.csv"))
	if err != nil {
		t.Fatalf("flow table missing: %v", err)
	}
	if !strings.HasPrefix(string(flowData), "FlowName,MaxE2E(us),Deadline(us),Path(SourceName|LinkID|priorityGroup|QNumber)") {
		t.Errorf("unexpected flow table header: %q", strings.SplitN(string(flowData), "\n", 2)[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "case_1-MCQF-IP-Topo.csv")); err != nil {
		t.Errorf("topology table missing: %v", err)
	}

	// The group report accumulates across runs of the same case.
	if err := w.WriteSolution(sol); err != nil {
		t.Fatalf("second WriteSolution failed: %v", err)
	}
	reportData, err := os.ReadFile(filepath.Join(dir, "case_1_report.csv"))
	if err != nil {
		t.Fatalf("group report missing: %v", err)
	}
	lines := strings.Count(strings.TrimSpace(string(reportData)), "\n") + 1
	if lines != 6 {
		t.Errorf("expected 6 accumulated report lines, got %d", lines)
	}
}
