// Package notify publishes solved-schedule summaries to a NATS subject so
// downstream consumers can react without polling the result store.
package notify

import (
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"TSNWeave/internal/config"
	"TSNWeave/internal/model"
)

// Notifier publishes schedule summaries to a NATS subject.
type Notifier struct {
	nc      *nats.Conn
	subject string
}

// NewNotifier connects to the configured NATS server.
func NewNotifier(cfg config.NotifierConfig) (*Notifier, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Notifier{nc: nc, subject: cfg.Subject}, nil
}

type summary struct {
	Name      string  `json:"name"`
	Shaper    string  `json:"shaper"`
	FlowCount int     `json:"flow_count"`
	Objective float64 `json:"objective"`
	RuntimeMS int64   `json:"runtime_ms"`
}

// Publish serializes a solution summary to JSON and publishes it.
func (n *Notifier) Publish(sol *model.Solution) error {
	data, err := json.Marshal(summary{
		Name:      sol.Name,
		Shaper:    sol.Shaper,
		FlowCount: len(sol.Flows),
		Objective: sol.Objective,
		RuntimeMS: sol.Runtime.Milliseconds(),
	})
	if err != nil {
		return err
	}
	return n.nc.Publish(n.subject, data)
}

// Close drains and closes the NATS connection.
func (n *Notifier) Close() {
	if n.nc != nil {
		n.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
