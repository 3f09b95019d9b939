// Package factory maps discipline names to policy constructors. Each policy
// package registers itself from init, so importing a policy package for side
// effects is all it takes to make its discipline available.
package factory

import (
	"fmt"

	"TSNWeave/internal/config"
	"TSNWeave/internal/engine"
	"TSNWeave/internal/model"
)

// PolicyCreator builds a policy from the model configuration and the parsed
// network.
type PolicyCreator func(cfg *config.ModelConfig, net *model.Network) (engine.Policy, error)

var creators = make(map[string]PolicyCreator)

// RegisterPolicy installs a constructor under a discipline name. Registering
// the same name twice is a programming error.
func RegisterPolicy(name string, creator PolicyCreator) {
	if _, ok := creators[name]; ok {
		panic(fmt.Sprintf("policy %q registered twice", name))
	}
	creators[name] = creator
}

// NewPolicy instantiates the policy selected by cfg.Discipline.
func NewPolicy(cfg *config.ModelConfig, net *model.Network) (engine.Policy, error) {
	creator, ok := creators[cfg.Discipline]
	if !ok {
		return nil, fmt.Errorf("unknown discipline %q", cfg.Discipline)
	}
	return creator(cfg, net)
}
