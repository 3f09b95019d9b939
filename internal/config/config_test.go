package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "model:\n  discipline: \"csqf\"\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Model.QueueCount != 3 || cfg.Model.BaseCycle != 10 || cfg.Model.LinkSpeed != 1000 {
		t.Errorf("defaults not applied: %+v", cfg.Model)
	}
	if cfg.Model.Objective != "mean_e2e" {
		t.Errorf("expected default objective mean_e2e, got %q", cfg.Model.Objective)
	}
	if cfg.API.ListenAddr != ":8088" {
		t.Errorf("expected default listen address, got %q", cfg.API.ListenAddr)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	content := `
model:
  discipline: "mcqf"
  base_cycle_us: 20
  link_speed_mbps: 100
  objective: "bandwidth_util"
  deadline_constraint: false
  groups_file: "configs/groups.txt"
solver:
  timeout: "30s"
  workers: 4
`
	cfg, err := LoadConfig(writeConfig(t, content))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Model.BaseCycle != 20 || cfg.Model.LinkSpeed != 100 {
		t.Errorf("overrides not applied: %+v", cfg.Model)
	}
	if cfg.Solver.Timeout != "30s" || cfg.Solver.Workers != 4 {
		t.Errorf("solver section not applied: %+v", cfg.Solver)
	}
	if cfg.Model.DeadlineEnabled() {
		t.Error("explicit deadline_constraint=false must win over the mcqf default")
	}
}

func TestLoadConfigRejectsUnknownDiscipline(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "model:\n  discipline: \"fifo\"\n")); err == nil {
		t.Fatal("expected an error for an unknown discipline")
	}
}

func TestLoadConfigRequiresGroupsFileForMCQF(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "model:\n  discipline: \"mcqf\"\n")); err == nil {
		t.Fatal("expected an error for mcqf without a groups file")
	}
}

func TestDeadlineDefaultsPerDiscipline(t *testing.T) {
	csqf := ModelConfig{Discipline: "csqf"}
	if csqf.DeadlineEnabled() {
		t.Error("csqf must default to no deadline constraint")
	}
	mcqf := ModelConfig{Discipline: "mcqf"}
	if !mcqf.DeadlineEnabled() {
		t.Error("mcqf must default to the deadline constraint")
	}
}
