package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/kode4food/orgkit/pkg/api"
)

type (
	// Handler executes one script. A nil error with a result is a
	// controlled outcome, success or not; a non-nil error is an
	// unhandled fault that the engine converts into a failed result
	Handler func(context.Context, *Run) (*api.StepResult, error)

	// Script pairs a registered script identifier with its handler and
	// display metadata. Governance scripts additionally require OAuth
	// key material in the run config
	Script struct {
		Handler     Handler
		ID          api.ScriptID
		Name        string
		Description string
		Governance  bool
	}

	// Registry is the closed lookup from script identifier to handler
	Registry struct {
		scripts map[api.ScriptID]*Script
		order   []api.ScriptID
	}
)

var (
	ErrScriptNotFound = errors.New("script not found")
	ErrScriptExists   = errors.New("script already registered")
)

// NewRegistry creates an empty script registry
func NewRegistry() *Registry {
	return &Registry{
		scripts: map[api.ScriptID]*Script{},
	}
}

// Register adds a script to the registry, preserving registration order
// for listings
func (r *Registry) Register(s *Script) error {
	if _, ok := r.scripts[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrScriptExists, s.ID)
	}
	r.scripts[s.ID] = s
	r.order = append(r.order, s.ID)
	return nil
}

// Get resolves a script identifier to its registration
func (r *Registry) Get(id api.ScriptID) (*Script, error) {
	s, ok := r.scripts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, id)
	}
	return s, nil
}

// List returns script metadata in registration order
func (r *Registry) List() []*api.ScriptInfo {
	res := make([]*api.ScriptInfo, 0, len(r.order))
	for _, id := range r.order {
		s := r.scripts[id]
		res = append(res, &api.ScriptInfo{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Governance:  s.Governance,
		})
	}
	return res
}
