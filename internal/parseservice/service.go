// Package parseservice serializes access to an opaque syntax parser backend.
//
// The service is single-consumer with a latest-wins slot: while a parse is in
// flight new requests queue into a single slot, each arrival displacing and
// resolving the previous occupant with no AST. On completion only the most
// recent queued request is dispatched, so the backend is never asked to parse
// a buffer more than one generation stale.
package parseservice

import (
	"context"
	"sync"

	"github.com/crossplane/crossplane-runtime/pkg/logging"

	"github.com/elmtools/elmls/internal/ast"
)

const errParseBackend = "parser backend failed"

// Service is the single-consumer parse channel. The zero value is not usable;
// construct with New.
type Service struct {
	backend Backend
	log     logging.Logger

	mu     sync.Mutex
	busy   bool
	queued *request
}

type request struct {
	ctx    context.Context
	source string
	done   chan *ast.Module
}

// New returns a Service serializing access to backend.
func New(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		log:     logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Option provides a way to override default behavior of the Service.
type Option func(*Service)

// WithLogger overrides the default logging.Logger for the Service with the
// supplied logging.Logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// Parse returns the AST for source, or nil when the parse failed or the
// request was displaced by a newer one. Callers interpret nil as "fall back
// to the last known good state".
func (s *Service) Parse(ctx context.Context, source string) *ast.Module {
	r := &request{ctx: ctx, source: source, done: make(chan *ast.Module, 1)}

	s.mu.Lock()
	if s.busy {
		if s.queued != nil {
			s.queued.done <- nil
		}
		s.queued = r
		s.mu.Unlock()
		select {
		case m := <-r.done:
			return m
		case <-ctx.Done():
			return nil
		}
	}
	s.busy = true
	s.mu.Unlock()

	m := s.parseOne(r)
	if next := s.handoff(); next != nil {
		go s.drain(next)
	}
	return m
}

func (s *Service) parseOne(r *request) *ast.Module {
	m, err := s.backend.Parse(r.ctx, r.source)
	if err != nil {
		s.log.Debug(errParseBackend, "error", err)
		m = nil
	}
	return m
}

// handoff empties the slot, clearing busy if nothing was queued. The caller
// that receives a non-nil request becomes the consumer for it.
func (s *Service) handoff() *request {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.queued
	s.queued = nil
	if next == nil {
		s.busy = false
	}
	return next
}

// drain parses r and keeps consuming the slot until it is empty.
func (s *Service) drain(r *request) {
	for r != nil {
		r.done <- s.parseOne(r)
		r = s.handoff()
	}
}
