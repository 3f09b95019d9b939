package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"TSNWeave/internal/config"
	"TSNWeave/internal/engine"
	"TSNWeave/internal/factory"
	"TSNWeave/internal/milp"
	"TSNWeave/internal/model"
	"TSNWeave/internal/parser"
)

// APIHandler holds the dependencies for API handlers.
type APIHandler struct {
	cfg *config.Config
}

// solveRequest carries one scheduling case inline: the raw table lines of
// the topology, the flows and, for the multi-group discipline, the
// priority-group table. An omitted group table falls back to the server's
// configured groups file.
type solveRequest struct {
	Name         string   `json:"name"`
	Topology     []string `json:"topology"`
	Flows        []string `json:"flows"`
	SwitchGroups []string `json:"switch_groups,omitempty"`
}

// solveHandler formulates and solves one request synchronously. Infeasible
// models are a client-side property of the submitted case, not a server
// fault, so they map to 422; inconclusive solver terminations map to 502.
func (h *APIHandler) solveHandler(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "missing case name", http.StatusBadRequest)
		return
	}

	net, err := h.buildNetwork(&req)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to build network: %v", err), http.StatusBadRequest)
		return
	}
	policy, err := factory.NewPolicy(&h.cfg.Model, net)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to create policy: %v", err), http.StatusBadRequest)
		return
	}

	solver := milp.NewBnB()
	if h.cfg.Solver.MaxNodes > 0 {
		solver.MaxNodes = h.cfg.Solver.MaxNodes
	}

	ctx := r.Context()
	if h.cfg.Solver.Timeout != "" {
		timeout, err := time.ParseDuration(h.cfg.Solver.Timeout)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid solver timeout in server config: %v", err), http.StatusInternalServerError)
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sched := engine.New(req.Name, net, policy, solver, h.cfg.Solver.Workers)
	sol, err := sched.Solve(ctx)
	if err != nil {
		writeSolveError(w, err)
		return
	}

	jsonBytes, err := json.Marshal(sol)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonBytes)
}

func (h *APIHandler) buildNetwork(req *solveRequest) (*model.Network, error) {
	devices, edges, err := parser.ParseTopologyLines(req.Topology)
	if err != nil {
		return nil, err
	}
	flows, err := parser.ParseFlowLines(req.Flows)
	if err != nil {
		return nil, err
	}

	var conf model.SwitchConfiguration
	if h.cfg.Model.Discipline == "mcqf" {
		var groups []model.PriorityGroup
		var queueCount int
		if len(req.SwitchGroups) > 0 {
			groups, queueCount, err = parser.ParseSwitchGroupLines(req.SwitchGroups)
		} else {
			groups, queueCount, err = parser.ParseSwitchGroups(h.cfg.Model.GroupsFile)
		}
		if err != nil {
			return nil, err
		}
		conf, err = model.NewMCQFConfiguration(queueCount, h.cfg.Model.BaseCycle, h.cfg.Model.LinkSpeed, groups)
		if err != nil {
			return nil, err
		}
	} else {
		conf = model.NewCSQFConfiguration(h.cfg.Model.QueueCount, h.cfg.Model.BaseCycle, h.cfg.Model.LinkSpeed)
	}
	return model.NewNetwork(devices, edges, flows, conf)
}

func writeSolveError(w http.ResponseWriter, err error) {
	var infeasible *engine.InfeasibleError
	var unknown *engine.UnknownTerminationError
	switch {
	case errors.As(err, &infeasible):
		http.Error(w, infeasible.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &unknown):
		http.Error(w, unknown.Error(), http.StatusBadGateway)
	default:
		http.Error(w, fmt.Sprintf("solve failed: %v", err), http.StatusInternalServerError)
	}
}
