package engine

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"TSNWeave/internal/milp"
	"TSNWeave/internal/model"
)

// activeTolerance separates genuinely used route variables from solver
// numerical slack.
const activeTolerance = 1e-4

type routeVar struct {
	flow, queue, src, dst int
}

// decode scans the raw assignment, reconstructs per-flow paths, and
// aggregates per-link and (multi-group only) per-priority-group statistics.
func decode(res *milp.Result, vs *VariableSpace, p Policy) (*model.Solution, error) {
	net := vs.Net
	conf := net.Conf

	type edgeAcc struct {
		bandwidth float64 // megabits
		count     int
	}
	acc := make(map[string]*edgeAcc, net.LinkCount())
	for _, e := range net.Edges {
		if _, ok := acc[e.GID]; !ok {
			acc[e.GID] = &edgeAcc{}
		}
	}

	var active []routeVar
	accounted := make(map[string]bool, net.LinkCount())
	for f := 0; f < vs.Flows; f++ {
		for q := 0; q < vs.Queues; q++ {
			for d := 0; d < vs.Devices; d++ {
				for e := 0; e < vs.Devices; e++ {
					if res.Values[vs.R(f, q, d, e)] <= activeTolerance {
						continue
					}
					active = append(active, routeVar{flow: f, queue: q, src: d, dst: e})
					gid, ok := net.GID(d, e)
					if ok && !accounted[gid] {
						a := acc[gid]
						a.bandwidth += res.Values[vs.B(d, e)]
						a.count++
						accounted[gid] = true
					}
				}
			}
		}
	}

	sol := &model.Solution{
		Flows: make(map[string]model.FlowRoute, len(net.Flows)),
		Edges: make(map[string]model.EdgeStats, net.LinkCount()),
	}

	for _, f := range net.Flows {
		var tuples []routeVar
		for _, rv := range active {
			if rv.flow == f.ID {
				tuples = append(tuples, rv)
			}
		}
		path, err := sortPath(net, f, tuples)
		if err != nil {
			return nil, err
		}

		var sb strings.Builder
		hops := make([]model.Hop, 0, len(path))
		maxE2E := 0.0
		tc := p.TrafficClass(f)
		for _, rv := range path {
			gid, _ := net.GID(rv.src, rv.dst)
			hops = append(hops, model.Hop{
				Source:       net.Devices[rv.src].Name,
				EdgeID:       gid,
				TrafficClass: tc,
				Queue:        rv.queue + 1,
			})
			maxE2E += p.QueueDelay(rv.queue)
			fmt.Fprintf(&sb, "%s|%s|%d|%d-", net.Devices[rv.src].Name, gid, tc, rv.queue+1)
		}
		sb.WriteString(f.Destination)

		sol.Flows[f.Name] = model.FlowRoute{
			MaxE2E:   maxE2E,
			Deadline: f.Deadline,
			Missed:   maxE2E > float64(f.Deadline),
			Path:     sb.String(),
			Hops:     hops,
		}
	}

	for gid, a := range acc {
		st := model.EdgeStats{MaxBandwidthKbps: a.bandwidth * 1000}
		if a.count > 0 {
			mean := a.bandwidth / float64(a.count) / float64(conf.LinkSpeed)
			st.MeanBandwidthFraction = mean
			st.MeanUtilizationPercent = mean * 100
		}
		sol.Edges[gid] = st
	}

	if groups := p.Groups(); groups != nil {
		sol.Groups = groupStats(sol, net, groups)
	}
	return sol, nil
}

// sortPath orders a flow's active tuples into a contiguous path from the
// flow's declared source to its destination. Candidates are examined in
// lowest-gid order; the pinning and conservation constraints guarantee a
// unique continuation, so a missing, ambiguous or exhausted continuation is
// a decoding failure, not something to guess through.
func sortPath(net *model.Network, f *model.Flow, tuples []routeVar) ([]routeVar, error) {
	srcDev, ok := net.DeviceByName(f.Source)
	if !ok {
		return nil, &DecodingError{Flow: f.Name, Reason: fmt.Sprintf("unknown source device %q", f.Source)}
	}
	dstDev, ok := net.DeviceByName(f.Destination)
	if !ok {
		return nil, &DecodingError{Flow: f.Name, Reason: fmt.Sprintf("unknown destination device %q", f.Destination)}
	}

	cur := srcDev.ID
	var path []routeVar
	for cur != dstDev.ID {
		if len(path) >= len(tuples) {
			return nil, &DecodingError{Flow: f.Name, Reason: "active tuples exhausted before reaching destination"}
		}
		var candidates []routeVar
		for _, rv := range tuples {
			if rv.src == cur {
				candidates = append(candidates, rv)
			}
		}
		sort.Slice(candidates, func(i, j int) bool {
			gi, _ := net.GID(candidates[i].src, candidates[i].dst)
			gj, _ := net.GID(candidates[j].src, candidates[j].dst)
			if gi != gj {
				return gi < gj
			}
			return candidates[i].queue < candidates[j].queue
		})
		switch len(candidates) {
		case 0:
			return nil, &DecodingError{Flow: f.Name, Reason: fmt.Sprintf("no continuation from device %s", net.Devices[cur].Name)}
		case 1:
			// unique continuation, the invariant holds
		default:
			return nil, &DecodingError{Flow: f.Name, Reason: fmt.Sprintf("ambiguous continuation at device %s", net.Devices[cur].Name)}
		}
		path = append(path, candidates[0])
		cur = candidates[0].dst
	}
	return path, nil
}

// groupStats aggregates decoded schedule quality per priority group. A
// flow's bandwidth share is its size relative to link capacity.
func groupStats(sol *model.Solution, net *model.Network, groups []model.PriorityGroup) map[int]model.GroupStats {
	out := make(map[int]model.GroupStats, len(groups))
	for _, g := range groups {
		var delays, shares []float64
		missed := 0
		for _, f := range net.Flows {
			if f.Priority != g.Priority {
				continue
			}
			route := sol.Flows[f.Name]
			delays = append(delays, route.MaxE2E)
			shares = append(shares, f.Size/float64(net.Conf.LinkSpeed))
			if route.Missed {
				missed++
			}
		}
		gs := model.GroupStats{Priority: g.Priority, FlowCount: len(delays), MissedDeadlines: missed}
		if len(delays) > 0 {
			gs.MeanE2E = stat.Mean(delays, nil)
			gs.MeanBandwidthShare = stat.Mean(shares, nil)
			gs.MaxBandwidthShare = floats.Max(shares)
		}
		out[g.Priority] = gs
	}
	return out
}
