// internal/registry/registry.go
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"qualityforce/internal/domain"
)

// Registry is the closed catalog of testing agents. Registration happens once
// at process start; afterwards the table is read-only and lookups take no
// lock beyond the one guarding against misuse during startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[domain.AgentType]domain.AgentFactory
	logger    *slog.Logger
}

// New creates an empty agent registry.
func New(logger *slog.Logger) *Registry {
	return &Registry{
		factories: make(map[domain.AgentType]domain.AgentFactory),
		logger:    logger.With("component", "agent-registry"),
	}
}

// Register adds a factory for the given agent type. Registering the same type
// twice is a programming error.
func (r *Registry) Register(agentType domain.AgentType, factory domain.AgentFactory) error {
	if err := agentType.Validate(); err != nil {
		return err
	}
	if factory == nil {
		return fmt.Errorf("nil factory for agent type %s", agentType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[agentType]; ok {
		return fmt.Errorf("agent type %s already registered", agentType)
	}
	r.factories[agentType] = factory
	r.logger.Info("registered testing agent", "agent_type", agentType)
	return nil
}

// New instantiates a fresh agent for the given type.
func (r *Registry) New(agentType domain.AgentType) (domain.Agent, error) {
	r.mu.RLock()
	factory, ok := r.factories[agentType]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownAgentType, agentType)
	}
	return factory(), nil
}

// MetadataFor returns the metadata of a registered agent, instantiating it
// transiently. Returns ErrUnknownAgentType for unregistered types.
func (r *Registry) MetadataFor(agentType domain.AgentType) (*domain.AgentMetadata, error) {
	agent, err := r.New(agentType)
	if err != nil {
		return nil, err
	}
	md := agent.Metadata()
	return &md, nil
}

// List returns the metadata of every registered agent, ordered by type.
func (r *Registry) List() []domain.AgentMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]domain.AgentMetadata, 0, len(r.factories))
	for _, factory := range r.factories {
		list = append(list, factory().Metadata())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].AgentType < list[j].AgentType })
	return list
}

// Types returns the registered agent types, ordered.
func (r *Registry) Types() []domain.AgentType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.AgentType, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}
