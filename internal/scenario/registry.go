// Package scenario holds the set of macroeconomic scenarios a batch runs over.
package scenario

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"fixed-income-lab/internal/domain"
)

// Registry errors
var (
	ErrDuplicateScenario = errors.New("scenario already registered")
	ErrUnknownScenario   = errors.New("unknown scenario")
)

// Registry validates scenarios on registration and hands out copies.
// It is safe for concurrent use.
type Registry struct {
	horizonYears int

	mu        sync.RWMutex
	scenarios map[string]domain.Scenario
}

// NewRegistry creates an empty registry for a horizon of horizonYears.
func NewRegistry(horizonYears int) *Registry {
	return &Registry{
		horizonYears: horizonYears,
		scenarios:    make(map[string]domain.Scenario),
	}
}

// NewDefaultRegistry registers the built-in scenarios.
func NewDefaultRegistry(horizonYears int) (*Registry, error) {
	r := NewRegistry(horizonYears)
	for _, s := range domain.DefaultScenarios() {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// HorizonYears returns the horizon scenarios are validated against.
func (r *Registry) HorizonYears() int {
	return r.horizonYears
}

// Register adds s. Coverage shorter than the horizon or gaps between years
// are reported as domain.ErrConfiguration.
func (r *Registry) Register(s domain.Scenario) error {
	if err := s.Validate(r.horizonYears); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scenarios[s.ID]; exists {
		return fmt.Errorf("%w: %w: %s", domain.ErrConfiguration, ErrDuplicateScenario, s.ID)
	}
	r.scenarios[s.ID] = s.Clone()
	return nil
}

// Get returns a copy of the scenario with id.
func (r *Registry) Get(id string) (domain.Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scenarios[id]
	if !ok {
		return domain.Scenario{}, fmt.Errorf("%w: %s", ErrUnknownScenario, id)
	}
	return s.Clone(), nil
}

// List returns copies of all scenarios ordered by ID.
func (r *Registry) List() []domain.Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Scenario, 0, len(r.scenarios))
	for _, s := range r.scenarios {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered scenarios.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scenarios)
}
