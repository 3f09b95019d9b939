package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"TSNWeave/internal/config"
	"TSNWeave/internal/engine"
	_ "TSNWeave/internal/engine/impl/csqf"
	_ "TSNWeave/internal/engine/impl/mcqf"
	"TSNWeave/internal/factory"
	"TSNWeave/internal/milp"
	"TSNWeave/internal/model"
	"TSNWeave/internal/notify"
	"TSNWeave/internal/parser"
	"TSNWeave/internal/report"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	caseDir := flag.String("case", "", "directory holding <id>_topo.txt and <id>_flows.txt")
	caseID := flag.Int("id", 1, "numeric case id inside the case directory")
	flag.Parse()

	if *caseDir == "" {
		log.Fatalf("missing required -case directory")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	net, err := buildNetwork(cfg, *caseDir, *caseID)
	if err != nil {
		log.Fatalf("Failed to build network: %v", err)
	}

	policy, err := factory.NewPolicy(&cfg.Model, net)
	if err != nil {
		log.Fatalf("Failed to create policy: %v", err)
	}

	solver := milp.NewBnB()
	if cfg.Solver.MaxNodes > 0 {
		solver.MaxNodes = cfg.Solver.MaxNodes
	}

	ctx := context.Background()
	if cfg.Solver.Timeout != "" {
		timeout, err := time.ParseDuration(cfg.Solver.Timeout)
		if err != nil {
			log.Fatalf("Invalid solver timeout %q: %v", cfg.Solver.Timeout, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	name := fmt.Sprintf("%s_%d", filepath.Base(*caseDir), *caseID)
	sched := engine.New(name, net, policy, solver, cfg.Solver.Workers)
	sol, err := sched.Solve(ctx)
	if err != nil {
		exitOnSolveError(err)
	}

	printTable(report.FlowTable(sol))
	fmt.Println()
	printTable(report.TopoTable(sol))
	if rows := report.GroupReport(sol); rows != nil {
		fmt.Println()
		printTable(rows)
	}

	if cfg.Writers.CSV.Enabled {
		root := cfg.Writers.CSV.RootPath
		if root == "" {
			root = "output"
		}
		w, err := report.NewCSVWriter(root)
		if err != nil {
			log.Fatalf("Failed to create CSV writer: %v", err)
		}
		if err := w.WriteSolution(sol); err != nil {
			log.Fatalf("Failed to write CSV tables: %v", err)
		}
	}
	if cfg.Writers.ClickHouse.Enabled {
		w, err := report.NewClickHouseWriter(cfg.Writers.ClickHouse)
		if err != nil {
			log.Fatalf("Failed to create ClickHouse writer: %v", err)
		}
		if err := w.WriteSolution(sol); err != nil {
			log.Fatalf("Failed to write to ClickHouse: %v", err)
		}
	}
	if cfg.Notifier.Enabled {
		n, err := notify.NewNotifier(cfg.Notifier)
		if err != nil {
			log.Fatalf("Failed to connect notifier: %v", err)
		}
		defer n.Close()
		if err := n.Publish(sol); err != nil {
			log.Fatalf("Failed to publish solution summary: %v", err)
		}
	}
}

// buildNetwork parses the case files and assembles the network for the
// configured discipline.
func buildNetwork(cfg *config.Config, caseDir string, caseID int) (*model.Network, error) {
	topoPath := filepath.Join(caseDir, fmt.Sprintf("%d_topo.txt", caseID))
	flowsPath := filepath.Join(caseDir, fmt.Sprintf("%d_flows.txt", caseID))

	devices, edges, err := parser.ParseTopology(topoPath)
	if err != nil {
		return nil, err
	}
	flows, err := parser.ParseFlows(flowsPath)
	if err != nil {
		return nil, err
	}

	var conf model.SwitchConfiguration
	if cfg.Model.Discipline == "mcqf" {
		groups, queueCount, err := parser.ParseSwitchGroups(cfg.Model.GroupsFile)
		if err != nil {
			return nil, err
		}
		conf, err = model.NewMCQFConfiguration(queueCount, cfg.Model.BaseCycle, cfg.Model.LinkSpeed, groups)
		if err != nil {
			return nil, err
		}
	} else {
		conf = model.NewCSQFConfiguration(cfg.Model.QueueCount, cfg.Model.BaseCycle, cfg.Model.LinkSpeed)
	}
	return model.NewNetwork(devices, edges, flows, conf)
}

func exitOnSolveError(err error) {
	var infeasible *engine.InfeasibleError
	var unknown *engine.UnknownTerminationError
	var decoding *engine.DecodingError
	switch {
	case errors.As(err, &infeasible):
		fmt.Fprintln(os.Stderr, infeasible.Error())
		os.Exit(2)
	case errors.As(err, &unknown):
		fmt.Fprintln(os.Stderr, unknown.Error())
		os.Exit(3)
	case errors.As(err, &decoding):
		fmt.Fprintln(os.Stderr, decoding.Error())
		os.Exit(4)
	default:
		log.Fatalf("Solve failed: %v", err)
	}
}

func printTable(rows [][]string) {
	for _, row := range rows {
		fmt.Println(strings.Join(row, ","))
	}
}
