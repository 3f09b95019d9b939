// Package config loads the engine configuration from a YAML file and fills
// in defaults for everything the file leaves out.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelConfig selects the queuing discipline and the switch parameters the
// formulation is built from.
type ModelConfig struct {
	// Discipline is "csqf" or "mcqf".
	Discipline string `yaml:"discipline"`
	// QueueCount is the number of cyclic queues per egress port. Ignored for
	// mcqf, where the groups file determines it.
	QueueCount int `yaml:"queue_count"`
	// BaseCycle is the base scheduling cycle in microseconds.
	BaseCycle int `yaml:"base_cycle_us"`
	// LinkSpeed is the uniform link capacity in Mbps.
	LinkSpeed int `yaml:"link_speed_mbps"`
	// DeadlineConstraint toggles the per-flow deadline constraint. Unset
	// means the discipline default: off for csqf, on for mcqf.
	DeadlineConstraint *bool `yaml:"deadline_constraint"`
	// Objective is "mean_e2e" or "bandwidth_util".
	Objective string `yaml:"objective"`
	// GroupsFile is the switch priority-group table, required for mcqf.
	GroupsFile string `yaml:"groups_file"`
}

type SolverConfig struct {
	// Timeout is a Go duration string, e.g. "5m". Empty means no limit.
	Timeout string `yaml:"timeout"`
	// MaxNodes caps the branch-and-bound tree. Zero keeps the solver default.
	MaxNodes int64 `yaml:"max_nodes"`
	// Workers sizes the constraint-construction pool. Zero picks NumCPU.
	Workers int `yaml:"workers"`
}

type CSVConfig struct {
	Enabled  bool   `yaml:"enabled"`
	RootPath string `yaml:"root_path"`
}

type ClickHouseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type WritersConfig struct {
	CSV        CSVConfig        `yaml:"csv"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

type NotifierConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Solver   SolverConfig   `yaml:"solver"`
	Writers  WritersConfig  `yaml:"writers"`
	Notifier NotifierConfig `yaml:"notifier"`
	API      APIConfig      `yaml:"api"`
}

// LoadConfig reads and validates the YAML configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Discipline: "csqf",
			QueueCount: 3,
			BaseCycle:  10,
			LinkSpeed:  1000,
			Objective:  "mean_e2e",
		},
		Notifier: NotifierConfig{
			Subject: "tsnweave.solutions",
		},
		API: APIConfig{
			ListenAddr: ":8088",
		},
	}
}

func (c *Config) validate() error {
	switch c.Model.Discipline {
	case "csqf", "mcqf":
	default:
		return fmt.Errorf("unknown discipline %q", c.Model.Discipline)
	}
	switch c.Model.Objective {
	case "mean_e2e", "bandwidth_util":
	default:
		return fmt.Errorf("unknown objective %q", c.Model.Objective)
	}
	if c.Model.BaseCycle <= 0 {
		return fmt.Errorf("base_cycle_us must be positive, got %d", c.Model.BaseCycle)
	}
	if c.Model.LinkSpeed <= 0 {
		return fmt.Errorf("link_speed_mbps must be positive, got %d", c.Model.LinkSpeed)
	}
	if c.Model.Discipline == "csqf" && c.Model.QueueCount <= 0 {
		return fmt.Errorf("queue_count must be positive, got %d", c.Model.QueueCount)
	}
	if c.Model.Discipline == "mcqf" && c.Model.GroupsFile == "" {
		return fmt.Errorf("mcqf requires groups_file")
	}
	return nil
}

// DeadlineEnabled resolves the deadline-constraint toggle against the
// discipline default.
func (m *ModelConfig) DeadlineEnabled() bool {
	if m.DeadlineConstraint != nil {
		return *m.DeadlineConstraint
	}
	return m.Discipline == "mcqf"
}
