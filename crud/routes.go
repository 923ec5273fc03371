package crud

import (
	"net/http"
	"path"
	"strings"

	"github.com/raywall/fast-crud-toolkit/schema"
)

// Route describes one generated endpoint. Routes are plain values; a router
// registers them.
type Route struct {
	Name      string
	Path      string
	Methods   []string
	Operation Operation
	Model     schema.Ref
	Handler   http.Handler
}

// Routes returns the five routes for ref in the order list, create, retrieve,
// update, destroy. It fails with *ModelNotFoundError when ref does not resolve.
func (s *Synthesizer) Routes(ref schema.Ref) ([]Route, error) {
	model, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	segment := strings.ToLower(model.Name)

	routes := make([]Route, 0, len(Operations))
	for _, op := range Operations {
		p := path.Join("/", s.prefix, segment, string(op))
		if op.Keyed() {
			p += "/{" + s.lookup + "}"
		}
		routes = append(routes, Route{
			Name:      segment + "_" + string(op),
			Path:      p,
			Methods:   op.Methods(),
			Operation: op,
			Model:     ref,
			Handler:   s.Handler(ref, op),
		})
	}
	return routes, nil
}

// RoutesFor concatenates Routes for every ref, stopping at the first error.
func (s *Synthesizer) RoutesFor(refs ...schema.Ref) ([]Route, error) {
	var all []Route
	for _, ref := range refs {
		routes, err := s.Routes(ref)
		if err != nil {
			return nil, err
		}
		all = append(all, routes...)
	}
	return all, nil
}
