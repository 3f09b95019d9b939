// Package parser reads the comma-separated topology, flow and priority-group
// table files and produces the network entities.
package parser

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"TSNWeave/internal/model"
)

// ReadLines returns the non-empty, non-comment lines of a file. Lines whose
// first non-space character is '#' are comments.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return lines, nil
}

// ParseTopology reads the vertex/edge table. Vertex lines declare devices:
//
//	vertex,PLC,node0_0_0_0,mac,00:00:00:00:00:08,PortNumber,1
//
// PLC vertices are end systems, everything else is a switch. Edge lines
// declare duplex links between two endpoints, with an optional ".P<n>" port
// suffix on either endpoint:
//
//	edge,WIRE,sw_0_0.P0,node0_0_0_0,undirect,e1
//
// Every duplex link becomes two directed edges sharing the link identifier.
func ParseTopology(path string) ([]*model.Device, []*model.Edge, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, nil, err
	}
	return ParseTopologyLines(lines)
}

// ParseTopologyLines parses an already loaded vertex/edge table.
func ParseTopologyLines(lines []string) ([]*model.Device, []*model.Edge, error) {
	var devices []*model.Device
	byName := make(map[string]*model.Device)
	for _, line := range lines {
		fields := strings.Split(line, ",")
		if fields[0] != "vertex" {
			continue
		}
		if len(fields) < 3 {
			return nil, nil, fmt.Errorf("malformed vertex line %q", line)
		}
		kind := model.Switch
		if fields[1] == "PLC" {
			kind = model.EndSystem
		}
		name := fields[2]
		if _, dup := byName[name]; dup {
			return nil, nil, fmt.Errorf("device %q declared twice", name)
		}
		d := &model.Device{ID: len(devices), Name: name, Kind: kind}
		devices = append(devices, d)
		byName[name] = d
	}

	var edges []*model.Edge
	for _, line := range lines {
		fields := strings.Split(line, ",")
		if fields[0] != "edge" {
			continue
		}
		if len(fields) < 6 {
			return nil, nil, fmt.Errorf("malformed edge line %q", line)
		}
		aName, aPort := splitEndpoint(fields[2])
		bName, bPort := splitEndpoint(fields[3])
		a, ok := byName[aName]
		if !ok {
			return nil, nil, fmt.Errorf("edge %q references unknown device %q", fields[5], aName)
		}
		b, ok := byName[bName]
		if !ok {
			return nil, nil, fmt.Errorf("edge %q references unknown device %q", fields[5], bName)
		}
		gid := fields[5]
		fwd := &model.Edge{GID: gid, Source: a, Destination: b, Port: aPort}
		rev := &model.Edge{GID: gid, Source: b, Destination: a, Port: bPort}
		edges = append(edges, fwd, rev)
		a.AddEdge(fwd, rev)
		b.AddEdge(fwd, rev)
	}
	return devices, edges, nil
}

// splitEndpoint separates a ".P<n>" port suffix from a device name.
func splitEndpoint(s string) (string, int) {
	i := strings.LastIndex(s, ".P")
	if i < 0 {
		return s, 0
	}
	port, err := strconv.Atoi(s[i+2:])
	if err != nil {
		return s, 0
	}
	return s[:i], port
}

// ParseFlows reads the flow table. Each line carries, in fixed positions,
// the priority, name, source, destination, period, deadline and payload size
// in bytes. Flow ids are assigned in declaration order.
func ParseFlows(path string) ([]*model.Flow, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	return ParseFlowLines(lines)
}

// ParseFlowLines parses an already loaded flow table.
func ParseFlowLines(lines []string) ([]*model.Flow, error) {
	var flows []*model.Flow
	for _, line := range lines {
		fields := strings.Split(line, ",")
		if len(fields) < 13 {
			return nil, fmt.Errorf("malformed flow line %q", line)
		}
		priority, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("flow line %q: bad priority: %w", line, err)
		}
		period, err := strconv.Atoi(fields[8])
		if err != nil {
			return nil, fmt.Errorf("flow line %q: bad period: %w", line, err)
		}
		deadline, err := strconv.Atoi(fields[10])
		if err != nil {
			return nil, fmt.Errorf("flow line %q: bad deadline: %w", line, err)
		}
		size, err := strconv.ParseInt(fields[12], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("flow line %q: bad size: %w", line, err)
		}
		flows = append(flows, model.NewFlow(len(flows), fields[3], fields[5], fields[6], priority, size, period, deadline))
	}
	return flows, nil
}

// ParseSwitchGroups reads the priority-group table, one group per line:
//
//	priority,queue count,bandwidth fraction,cycle coefficient
//
// Queue indices are assigned sequentially in declaration order, so the table
// fully determines the switch queue count.
func ParseSwitchGroups(path string) ([]model.PriorityGroup, int, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, 0, err
	}
	return ParseSwitchGroupLines(lines)
}

// ParseSwitchGroupLines parses an already loaded priority-group table.
func ParseSwitchGroupLines(lines []string) ([]model.PriorityGroup, int, error) {
	var groups []model.PriorityGroup
	next := 0
	for _, line := range lines {
		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			return nil, 0, fmt.Errorf("malformed group line %q", line)
		}
		priority, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, 0, fmt.Errorf("group line %q: bad priority: %w", line, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, 0, fmt.Errorf("group line %q: bad queue count: %w", line, err)
		}
		if count <= 0 {
			return nil, 0, fmt.Errorf("group line %q: queue count must be positive", line)
		}
		fraction, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, 0, fmt.Errorf("group line %q: bad bandwidth fraction: %w", line, err)
		}
		coeff, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			return nil, 0, fmt.Errorf("group line %q: bad cycle coefficient: %w", line, err)
		}
		members := make([]int, count)
		for i := range members {
			members[i] = next
			next++
		}
		groups = append(groups, model.PriorityGroup{
			Priority:          priority,
			BandwidthFraction: fraction,
			CycleCoefficient:  coeff,
			Members:           members,
		})
	}
	if len(groups) == 0 {
		return nil, 0, fmt.Errorf("group table is empty")
	}
	return groups, next, nil
}
