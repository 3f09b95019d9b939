package model

import "time"

// Hop is one traversed link of a decoded flow path. Queue numbers are
// 1-indexed in the output, matching the schedule tables.
type Hop struct {
	Source       string `json:"source"`
	EdgeID       string `json:"edge_id"`
	TrafficClass int    `json:"traffic_class"`
	Queue        int    `json:"queue"`
}

// FlowRoute is the decoded schedule of one flow: its worst-case end-to-end
// delay estimate, declared deadline, whether the estimate exceeds the
// deadline, formatted path string and ordered hops.
type FlowRoute struct {
	MaxE2E   float64 `json:"max_e2e_us"`
	Deadline int     `json:"deadline_us"`
	Missed   bool    `json:"missed"`
	Path     string  `json:"path"`
	Hops     []Hop   `json:"hops"`
}

// EdgeStats aggregates bandwidth usage per edge group id.
type EdgeStats struct {
	MaxBandwidthKbps       float64 `json:"max_bandwidth_kbps"`
	MeanBandwidthFraction  float64 `json:"mean_bandwidth_fraction"`
	MeanUtilizationPercent float64 `json:"mean_utilization_percent"`
}

// GroupStats aggregates per-priority-group schedule quality. Only produced
// for the multi-group discipline.
type GroupStats struct {
	Priority           int     `json:"priority"`
	FlowCount          int     `json:"flow_count"`
	MeanE2E            float64 `json:"mean_e2e_us"`
	MeanBandwidthShare float64 `json:"mean_bandwidth_share"`
	MaxBandwidthShare  float64 `json:"max_bandwidth_share"`
	MissedDeadlines    int     `json:"missed_deadlines"`
}

// Solution is the decoded result of one solve. It is produced fresh per
// solve, carries no reference back into the model, and is never mutated
// after decoding.
type Solution struct {
	Name      string                `json:"name"`
	Shaper    string                `json:"shaper"`
	Flows     map[string]FlowRoute  `json:"flows"`
	Edges     map[string]EdgeStats  `json:"edges"`
	Groups    map[int]GroupStats    `json:"groups,omitempty"`
	Objective float64               `json:"objective"`
	Runtime   time.Duration         `json:"runtime"`
}

// Writer persists a solved schedule.
type Writer interface {
	WriteSolution(sol *Solution) error
}
