package crud

import (
	"errors"
	"net/http"

	"github.com/raywall/fast-crud-toolkit/mapper"
	"github.com/raywall/fast-crud-toolkit/matcher"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
)

// DefaultLookup is the route variable holding the record key.
const DefaultLookup = "pk"

// Resolver resolves model references. *schema.Registry implements it.
type Resolver interface {
	Resolve(ref schema.Ref) (*schema.Model, error)
}

// Options configures a Synthesizer.
type Options struct {
	Registry Resolver
	Store    store.Store
	// Lookup names the route variable carrying the key. Defaults to "pk".
	Lookup string
	// Prefix is prepended to every route path, e.g. "/api".
	Prefix string
	// DisableFilters makes list handlers skip the matcher entirely.
	DisableFilters bool
	// KeyFunc extracts the raw key from a request. Defaults to the mux route
	// variable, falling back to the query string.
	KeyFunc func(r *http.Request, lookup string) string
}

// Synthesizer generates mappers, matchers, handlers and routes for any
// registered model.
type Synthesizer struct {
	registry Resolver
	store    store.Store
	lookup   string
	prefix   string
	filters  bool
	keyFunc  func(r *http.Request, lookup string) string
}

// New builds a Synthesizer.
func New(opts Options) *Synthesizer {
	s := &Synthesizer{
		registry: opts.Registry,
		store:    opts.Store,
		lookup:   opts.Lookup,
		prefix:   opts.Prefix,
		filters:  !opts.DisableFilters,
		keyFunc:  opts.KeyFunc,
	}
	if s.lookup == "" {
		s.lookup = DefaultLookup
	}
	if s.keyFunc == nil {
		s.keyFunc = RouteKey
	}
	return s
}

func (s *Synthesizer) resolve(ref schema.Ref) (*schema.Model, error) {
	model, err := s.registry.Resolve(ref)
	if err != nil {
		if errors.Is(err, schema.ErrModelNotFound) {
			return nil, &ModelNotFoundError{Ref: ref, Err: err}
		}
		return nil, err
	}
	return model, nil
}

// MapperFor returns a fresh mapper exposing every field of the model.
func (s *Synthesizer) MapperFor(ref schema.Ref) (*mapper.Mapper, error) {
	model, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return mapper.New(model), nil
}

// MatcherFor returns a fresh matcher exposing every field of the model.
func (s *Synthesizer) MatcherFor(ref schema.Ref) (*matcher.Matcher, error) {
	model, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return matcher.New(model), nil
}

// Handler returns the handler for op bound to ref.
func (s *Synthesizer) Handler(ref schema.Ref, op Operation) *Handler {
	h := &Handler{
		Op:      op,
		Ref:     ref,
		Records: s.store,
		Mappers: s,
		Lookup:  s.lookup,
		KeyFunc: s.keyFunc,
	}
	if op == OpList && s.filters {
		h.Matchers = s
	}
	return h
}

// ListHandler serves GET with the filtered record set.
func (s *Synthesizer) ListHandler(ref schema.Ref) http.Handler { return s.Handler(ref, OpList) }

// CreateHandler serves POST, answering 201 with the stored representation.
func (s *Synthesizer) CreateHandler(ref schema.Ref) http.Handler { return s.Handler(ref, OpCreate) }

// RetrieveHandler serves GET for the record named by the key.
func (s *Synthesizer) RetrieveHandler(ref schema.Ref) http.Handler { return s.Handler(ref, OpRetrieve) }

// UpdateHandler serves PUT (full) and PATCH (partial) for one record.
func (s *Synthesizer) UpdateHandler(ref schema.Ref) http.Handler { return s.Handler(ref, OpUpdate) }

// DestroyHandler serves DELETE, answering 204.
func (s *Synthesizer) DestroyHandler(ref schema.Ref) http.Handler { return s.Handler(ref, OpDestroy) }
