// Package report renders decoded schedules as tables and persists them
// through pluggable writers.
package report

import (
	"sort"
	"strconv"

	"TSNWeave/internal/model"
)

// FlowTable renders one row per flow, sorted by flow name, with a header.
func FlowTable(sol *model.Solution) [][]string {
	rows := [][]string{{"FlowName", "MaxE2E(us)", "Deadline(us)", "Path(SourceName|LinkID|priorityGroup|QNumber)"}}
	names := make([]string, 0, len(sol.Flows))
	for name := range sol.Flows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fr := sol.Flows[name]
		rows = append(rows, []string{
			name,
			formatFloat(fr.MaxE2E),
			strconv.Itoa(fr.Deadline),
			fr.Path,
		})
	}
	return rows
}

// TopoTable renders one row per physical link, sorted by edge id.
func TopoTable(sol *model.Solution) [][]string {
	rows := [][]string{{"EdgeID", "maxBW(Kbps)", "MeanBW(Kbps)", "MeanLU(%)"}}
	gids := make([]string, 0, len(sol.Edges))
	for gid := range sol.Edges {
		gids = append(gids, gid)
	}
	sort.Strings(gids)
	for _, gid := range gids {
		es := sol.Edges[gid]
		rows = append(rows, []string{
			gid,
			formatFloat(es.MaxBandwidthKbps),
			formatFloat(es.MeanBandwidthFraction),
			formatFloat(es.MeanUtilizationPercent),
		})
	}
	return rows
}

// GroupReport renders the per-priority-group summary, one row per group,
// sorted by descending priority. Nil when the schedule carries no groups.
func GroupReport(sol *model.Solution) [][]string {
	if len(sol.Groups) == 0 {
		return nil
	}
	rows := [][]string{{"Priority", "Flows", "MeanE2E(us)", "MeanBWShare", "MaxBWShare", "MissedDeadlines"}}
	prios := make([]int, 0, len(sol.Groups))
	for p := range sol.Groups {
		prios = append(prios, p)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(prios)))
	for _, p := range prios {
		gs := sol.Groups[p]
		rows = append(rows, []string{
			strconv.Itoa(gs.Priority),
			strconv.Itoa(gs.FlowCount),
			formatFloat(gs.MeanE2E),
			formatFloat(gs.MeanBandwidthShare),
			formatFloat(gs.MaxBandwidthShare),
			strconv.Itoa(gs.MissedDeadlines),
		})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
