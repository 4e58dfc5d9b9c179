// Package service composes the store and the engines into the operations
// exposed by the HTTP API and the CLI.
//
// A [Service] owns no state of its own. Every call reads the store, runs the
// relevant engine (normalizer, inference, tree sorter, layout pipeline) and
// returns plain values that both the API and the CLI serialize directly.
package service

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/relation"
	"github.com/matzehuels/kintree/pkg/store"
)

// Service is safe for concurrent use when its store is.
type Service struct {
	store      store.Store
	normalizer *relation.Normalizer
	runner     *pipeline.Runner
	logger     *log.Logger
}

// New wires a service over s. A nil runner gets an uncached one and a nil
// logger uses log.Default().
func New(s store.Store, runner *pipeline.Runner, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	return &Service{
		store:      s,
		normalizer: relation.NewNormalizer(s, logger),
		runner:     runner,
		logger:     logger,
	}
}

// Store returns the underlying store.
func (s *Service) Store() store.Store { return s.store }

// Runner returns the layout pipeline runner.
func (s *Service) Runner() *pipeline.Runner { return s.runner }
