package parser

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"TSNWeave/internal/model"
)

var topoLines = []string{
	"vertex,PLC,node0_0_0_0,mac,00:00:00:00:00:08,PortNumber,1",
	"vertex,PLC,node0_0_0_1,mac,00:00:00:00:00:09,PortNumber,1",
	"vertex,SWITCH,sw_0_0,mac,00:00:00:00:00:01,PortNumber,2",
	"edge,WIRE,sw_0_0.P0,node0_0_0_0,undirect,e1",
	"edge,WIRE,sw_0_0.P1,node0_0_0_1,undirect,e2",
}

func TestParseTopologyLines(t *testing.T) {
	devices, edges, err := ParseTopologyLines(topoLines)
	if err != nil {
		t.Fatalf("ParseTopologyLines failed: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(devices))
	}
	if devices[0].Kind != model.EndSystem || devices[2].Kind != model.Switch {
		t.Errorf("device kinds wrong: %v, %v", devices[0].Kind, devices[2].Kind)
	}
	if len(edges) != 4 {
		t.Fatalf("expected 4 directed edges, got %d", len(edges))
	}
	if edges[0].GID != "e1" || edges[0].Source.Name != "sw_0_0" || edges[0].Destination.Name != "node0_0_0_0" {
		t.Errorf("unexpected first edge: %s %s->%s", edges[0].GID, edges[0].Source.Name, edges[0].Destination.Name)
	}
	if edges[0].Port != 0 {
		t.Errorf("expected port 0 parsed from sw_0_0.P0, got %d", edges[0].Port)
	}
	if edges[2].Port != 1 {
		t.Errorf("expected port 1 parsed from sw_0_0.P1, got %d", edges[2].Port)
	}
	if edges[1].Source.Name != "node0_0_0_0" || edges[1].GID != "e1" {
		t.Errorf("expected reverse direction sharing the gid, got %s %s", edges[1].GID, edges[1].Source.Name)
	}
}

func TestParseTopologyRejectsUnknownDevice(t *testing.T) {
	lines := append(append([]string{}, topoLines...), "edge,WIRE,sw_0_0.P2,ghost,undirect,e3")
	if _, _, err := ParseTopologyLines(lines); err == nil {
		t.Fatal("expected an error for an edge to an undeclared device")
	}
}

func TestParseFlowLines(t *testing.T) {
	lines := []string{
		"flow,7,name,tt_flow_0,route,node0_0_0_0,node0_0_0_1,period,50,deadline,100,size,37000000",
		"flow,6,name,tt_flow_1,route,node0_0_0_1,node0_0_0_0,period,100,deadline,200,size,1500",
	}
	flows, err := ParseFlowLines(lines)
	if err != nil {
		t.Fatalf("ParseFlowLines failed: %v", err)
	}
	if len(flows) != 2 {
		t.Fatalf("expected 2 flows, got %d", len(flows))
	}
	f := flows[0]
	if f.ID != 0 || f.Name != "tt_flow_0" || f.Priority != 7 {
		t.Errorf("unexpected flow identity: id=%d name=%s priority=%d", f.ID, f.Name, f.Priority)
	}
	if f.Source != "node0_0_0_0" || f.Destination != "node0_0_0_1" {
		t.Errorf("unexpected endpoints: %s -> %s", f.Source, f.Destination)
	}
	if f.Period != 50 || f.Deadline != 100 {
		t.Errorf("unexpected timing: period=%d deadline=%d", f.Period, f.Deadline)
	}
	if math.Abs(f.Size-296.0) > 1e-9 {
		t.Errorf("expected size 296 Mb, got %g", f.Size)
	}
	if flows[1].ID != 1 {
		t.Errorf("flow ids must follow declaration order, got %d", flows[1].ID)
	}
}

func TestParseSwitchGroupLines(t *testing.T) {
	lines := []string{
		"7,1,0.3,1",
		"6,2,0.25,4",
		"5,3,0.25,8",
		"4,1,0.2,8",
	}
	groups, queueCount, err := ParseSwitchGroupLines(lines)
	if err != nil {
		t.Fatalf("ParseSwitchGroupLines failed: %v", err)
	}
	if queueCount != 7 {
		t.Fatalf("expected 7 queues total, got %d", queueCount)
	}
	if len(groups) != 4 {
		t.Fatalf("expected 4 groups, got %d", len(groups))
	}
	g := groups[1]
	if g.Priority != 6 || g.BandwidthFraction != 0.25 || g.CycleCoefficient != 4 {
		t.Errorf("unexpected group 6: %+v", g)
	}
	if len(g.Members) != 2 || g.Members[0] != 1 || g.Members[1] != 2 {
		t.Errorf("expected sequential members [1 2], got %v", g.Members)
	}
	last := groups[3]
	if len(last.Members) != 1 || last.Members[0] != 6 {
		t.Errorf("expected last group to own queue 6, got %v", last.Members)
	}
}

func TestReadLinesSkipsComments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "groups.txt")
	content := "# header comment\n7,1,0.3,1\n\n6,2,0.25,4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 payload lines, got %d: %v", len(lines), lines)
	}
	if lines[0] != "7,1,0.3,1" {
		t.Errorf("unexpected first line %q", lines[0])
	}
}
