package report

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"TSNWeave/internal/config"
	"TSNWeave/internal/model"
)

const createFlowsTableStatement = `
CREATE TABLE IF NOT EXISTS schedule_flows (
    Timestamp  DateTime,
    CaseName   String,
    Shaper     String,
    FlowName   String,
    MaxE2E     Float64,
    Deadline   UInt32,
    Path       String
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (CaseName, Timestamp);
`

const createEdgesTableStatement = `
CREATE TABLE IF NOT EXISTS schedule_edges (
    Timestamp  DateTime,
    CaseName   String,
    Shaper     String,
    EdgeID     String,
    MaxBWKbps  Float64,
    MeanBW     Float64,
    MeanLU     Float64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (CaseName, Timestamp);
`

// ClickHouseWriter implements the model.Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects and ensures the schedule tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (model.Writer, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	for _, stmt := range []string{createFlowsTableStatement, createEdgesTableStatement} {
		if err := conn.Exec(context.Background(), stmt); err != nil {
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Println("Successfully connected to ClickHouse and ensured tables exist.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// WriteSolution inserts the decoded schedule into the schedule_flows and
// schedule_edges tables.
func (w *ClickHouseWriter) WriteSolution(sol *model.Solution) error {
	now := time.Now()

	flowBatch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO schedule_flows")
	if err != nil {
		return fmt.Errorf("failed to prepare flow batch: %w", err)
	}
	names := make([]string, 0, len(sol.Flows))
	for name := range sol.Flows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fr := sol.Flows[name]
		if err := flowBatch.Append(now, sol.Name, sol.Shaper, name, fr.MaxE2E, uint32(fr.Deadline), fr.Path); err != nil {
			return fmt.Errorf("failed to append flow to batch: %w", err)
		}
	}
	if err := flowBatch.Send(); err != nil {
		return fmt.Errorf("failed to send flow batch: %w", err)
	}

	edgeBatch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO schedule_edges")
	if err != nil {
		return fmt.Errorf("failed to prepare edge batch: %w", err)
	}
	gids := make([]string, 0, len(sol.Edges))
	for gid := range sol.Edges {
		gids = append(gids, gid)
	}
	sort.Strings(gids)
	for _, gid := range gids {
		es := sol.Edges[gid]
		if err := edgeBatch.Append(now, sol.Name, sol.Shaper, gid, es.MaxBandwidthKbps, es.MeanBandwidthFraction, es.MeanUtilizationPercent); err != nil {
			return fmt.Errorf("failed to append edge to batch: %w", err)
		}
	}
	if err := edgeBatch.Send(); err != nil {
		return fmt.Errorf("failed to send edge batch: %w", err)
	}

	log.Printf("Wrote %d flows and %d edges to ClickHouse for case '%s'", len(sol.Flows), len(sol.Edges), sol.Name)
	return nil
}
