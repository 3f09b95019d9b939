package csqf

import (
	"math"
	"testing"

	"TSNWeave/internal/engine"
	"TSNWeave/internal/milp"
	"TSNWeave/internal/model"
)

func testNetwork(t *testing.T) *model.Network {
	t.Helper()
	devices := []*model.Device{
		{ID: 0, Name: "node0_0_0_0", Kind: model.EndSystem},
		{ID: 1, Name: "node0_0_0_1", Kind: model.EndSystem},
	}
	edges := []*model.Edge{
		{GID: "e1", Source: devices[0], Destination: devices[1]},
		{GID: "e1", Source: devices[1], Destination: devices[0]},
	}
	flows := []*model.Flow{
		model.NewFlow(0, "tt_flow_0", "node0_0_0_0", "node0_0_0_1", 7, 37000000, 50, 40),
	}
	net, err := model.NewNetwork(devices, edges, flows, model.NewCSQFConfiguration(3, 10, 1000))
	if err != nil {
		t.Fatalf("NewNetwork failed: %v", err)
	}
	return net
}

func TestArrivalWindow(t *testing.T) {
	net := testNetwork(t)
	p := New(net, false, "mean_e2e")
	f := net.Flows[0]

	cases := []struct {
		cycle float64
		want  float64
	}{
		{0, 296},  // window start
		{1, 296},  // window end is inclusive
		{2, 0},    // 20us into the period
		{4, 0},    // 40us into the period
		{5, 296},  // next period boundary
		{-1, 0},   // wraps to 40us
		{-5, 296}, // wraps to the period boundary
	}
	for _, c := range cases {
		if got := p.ArrivalPattern(c.cycle, f); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("ArrivalPattern(%g) = %g, want %g", c.cycle, got, c.want)
		}
	}
}

func TestQueueDelay(t *testing.T) {
	p := New(testNetwork(t), false, "mean_e2e")
	for q, want := range []float64{10, 20, 30} {
		if got := p.QueueDelay(q); got != want {
			t.Errorf("QueueDelay(%d) = %g, want %g", q, got, want)
		}
	}
}

func TestPolicySurface(t *testing.T) {
	net := testNetwork(t)
	p := New(net, false, "mean_e2e")
	if p.Name() != "CSQF" {
		t.Errorf("unexpected shaper name %q", p.Name())
	}
	if p.TrafficClass(net.Flows[0]) != 1 {
		t.Errorf("expected a single traffic class")
	}
	if p.Groups() != nil {
		t.Error("expected no priority groups")
	}
	vs := engine.NewVariableSpace(milp.NewModel(), net)
	if got := p.GatingConstraints(vs); got != nil {
		t.Errorf("expected no gating constraints, got %d", len(got))
	}
}

func TestDeadlineToggle(t *testing.T) {
	net := testNetwork(t)
	vs := engine.NewVariableSpace(milp.NewModel(), net)

	if cons := New(net, false, "mean_e2e").DeadlineConstraints(vs); cons != nil {
		t.Fatalf("expected no deadline constraints when disabled, got %d", len(cons))
	}

	cons := New(net, true, "mean_e2e").DeadlineConstraints(vs)
	if len(cons) != 1 {
		t.Fatalf("expected one deadline constraint per flow, got %d", len(cons))
	}
	if cons[0].Op != milp.Le || cons[0].RHS != 40 {
		t.Errorf("expected <= 40, got op=%v rhs=%g", cons[0].Op, cons[0].RHS)
	}
}

func TestObjectiveSelection(t *testing.T) {
	net := testNetwork(t)
	vs := engine.NewVariableSpace(milp.NewModel(), net)

	if obj := New(net, false, "mean_e2e").Objective(vs); obj.Name != "mean end-to-end delay" {
		t.Errorf("unexpected default objective %q", obj.Name)
	}
	obj := New(net, false, "bandwidth_util").Objective(vs)
	if obj.Name != "mean bandwidth utilization" {
		t.Errorf("unexpected objective %q", obj.Name)
	}
}
