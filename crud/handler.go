package crud

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/raywall/fast-crud-toolkit/mapper"
	"github.com/raywall/fast-crud-toolkit/matcher"
	"github.com/raywall/fast-crud-toolkit/schema"
	"github.com/raywall/fast-crud-toolkit/store"
	"github.com/rs/zerolog/log"
)

// Operation is one of the generated endpoint kinds.
type Operation string

const (
	OpList     Operation = "list"
	OpCreate   Operation = "create"
	OpRetrieve Operation = "retrieve"
	OpUpdate   Operation = "update"
	OpDestroy  Operation = "destroy"
)

// Operations lists every operation in route registration order.
var Operations = []Operation{OpList, OpCreate, OpRetrieve, OpUpdate, OpDestroy}

// Methods returns the HTTP methods the operation accepts.
func (op Operation) Methods() []string {
	switch op {
	case OpList, OpRetrieve:
		return []string{http.MethodGet}
	case OpCreate:
		return []string{http.MethodPost}
	case OpUpdate:
		return []string{http.MethodPut, http.MethodPatch}
	case OpDestroy:
		return []string{http.MethodDelete}
	}
	return nil
}

// Keyed reports whether the operation targets a single record.
func (op Operation) Keyed() bool {
	return op == OpRetrieve || op == OpUpdate || op == OpDestroy
}

// MapperSource produces mappers per model reference.
type MapperSource interface {
	MapperFor(ref schema.Ref) (*mapper.Mapper, error)
}

// MatcherSource produces matchers per model reference.
type MatcherSource interface {
	MatcherFor(ref schema.Ref) (*matcher.Matcher, error)
}

// Handler serves one operation for one model. Matchers is optional; without
// it list returns the full record set.
type Handler struct {
	Op       Operation
	Ref      schema.Ref
	Records  store.Store
	Mappers  MapperSource
	Matchers MatcherSource
	Lookup   string
	KeyFunc  func(r *http.Request, lookup string) string
}

// RouteKey reads the key from the mux route variables, then the query string.
func RouteKey(r *http.Request, lookup string) string {
	if v, ok := mux.Vars(r)[lookup]; ok {
		return v
	}
	return r.URL.Query().Get(lookup)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(r.Method) {
		w.Header().Set("Allow", strings.Join(h.Op.Methods(), ", "))
		writeJSON(w, http.StatusMethodNotAllowed, detail(`Method "`+r.Method+`" not allowed.`))
		return
	}

	m, err := h.Mappers.MapperFor(h.Ref)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	var (
		status int
		body   any
	)
	switch h.Op {
	case OpList:
		status, body, err = h.list(r, m)
	case OpCreate:
		status, body, err = h.create(r, m)
	case OpRetrieve:
		status, body, err = h.retrieve(r, m)
	case OpUpdate:
		status, body, err = h.update(r, m)
	case OpDestroy:
		status, body, err = h.destroy(r, m)
	default:
		err = errors.New("crud: unknown operation " + string(h.Op))
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

func (h *Handler) allowed(method string) bool {
	for _, m := range h.Op.Methods() {
		if m == method {
			return true
		}
	}
	return false
}

func (h *Handler) list(r *http.Request, m *mapper.Mapper) (int, any, error) {
	filter := store.Filter{}
	if h.Matchers != nil {
		mt, err := h.Matchers.MatcherFor(h.Ref)
		if err != nil {
			return 0, nil, err
		}
		if mt != nil {
			if filter, err = mt.Build(r.URL.Query()); err != nil {
				return 0, nil, err
			}
		}
	}

	recs, err := h.Records.List(r.Context(), m.Model(), filter)
	if err != nil {
		return 0, nil, err
	}
	log.Ctx(r.Context()).Debug().
		Str("model", h.Ref.String()).
		Int("conditions", len(filter.Conditions)).
		Int("count", len(recs)).
		Msg("list")
	return http.StatusOK, m.RepresentMany(recs), nil
}

func (h *Handler) create(r *http.Request, m *mapper.Mapper) (int, any, error) {
	rec, err := m.Decode(r.Body, mapper.Create)
	if err != nil {
		return 0, nil, err
	}
	created, err := h.Records.Insert(r.Context(), m.Model(), rec)
	if errors.Is(err, store.ErrDuplicateKey) {
		pk := m.Model().PrimaryKey().Name
		verr := mapper.NewValidationError()
		verr.Add(pk, m.Model().Name+" with this "+pk+" already exists.")
		return 0, nil, verr
	}
	if err != nil {
		return 0, nil, err
	}
	log.Ctx(r.Context()).Info().
		Str("model", h.Ref.String()).
		Interface("key", created[m.Model().PrimaryKey().Name]).
		Msg("record created")
	return http.StatusCreated, m.Represent(created), nil
}

func (h *Handler) retrieve(r *http.Request, m *mapper.Mapper) (int, any, error) {
	_, rec, err := h.object(r, m.Model())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, m.Represent(rec), nil
}

func (h *Handler) update(r *http.Request, m *mapper.Mapper) (int, any, error) {
	key, existing, err := h.object(r, m.Model())
	if err != nil {
		return 0, nil, err
	}

	mode := mapper.Replace
	if r.Method == http.MethodPatch {
		mode = mapper.Patch
	}
	changes, err := m.Decode(r.Body, mode)
	if err != nil {
		return 0, nil, err
	}

	updated, err := h.Records.Update(r.Context(), m.Model(), key, m.Merge(existing, changes))
	if err != nil {
		return 0, nil, h.notFound(err, key)
	}
	log.Ctx(r.Context()).Info().Str("model", h.Ref.String()).Interface("key", key).Msg("record updated")
	return http.StatusOK, m.Represent(updated), nil
}

func (h *Handler) destroy(r *http.Request, m *mapper.Mapper) (int, any, error) {
	key, _, err := h.object(r, m.Model())
	if err != nil {
		return 0, nil, err
	}
	if err := h.Records.Delete(r.Context(), m.Model(), key); err != nil {
		return 0, nil, h.notFound(err, key)
	}
	log.Ctx(r.Context()).Info().Str("model", h.Ref.String()).Interface("key", key).Msg("record deleted")
	return http.StatusNoContent, nil, nil
}

// object looks up the record addressed by the request.
func (h *Handler) object(r *http.Request, model *schema.Model) (any, schema.Record, error) {
	keyFunc := h.KeyFunc
	if keyFunc == nil {
		keyFunc = RouteKey
	}
	lookup := h.Lookup
	if lookup == "" {
		lookup = DefaultLookup
	}

	raw := keyFunc(r, lookup)
	if raw == "" {
		return nil, nil, &NotFoundError{Ref: h.Ref, Key: raw}
	}
	key, err := model.ParseKey(raw)
	if err != nil {
		return nil, nil, &NotFoundError{Ref: h.Ref, Key: raw}
	}
	rec, err := h.Records.Get(r.Context(), model, key)
	if err != nil {
		return nil, nil, h.notFound(err, key)
	}
	return key, rec, nil
}

func (h *Handler) notFound(err error, key any) error {
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundError{Ref: h.Ref, Key: keyString(key)}
	}
	return err
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		verr     *mapper.ValidationError
		notFound *NotFoundError
		noModel  *ModelNotFoundError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr)
	case errors.Is(err, mapper.ErrMalformedBody):
		writeJSON(w, http.StatusBadRequest, detail(err.Error()))
	case errors.As(err, &notFound), errors.As(err, &noModel), errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, detail("Not found."))
	case errors.Is(err, context.DeadlineExceeded):
		log.Ctx(ctx).Error().Err(err).Msg("request timed out")
		writeJSON(w, http.StatusGatewayTimeout, detail("request timed out"))
	default:
		log.Ctx(ctx).Error().Err(err).Msg("crud operation failed")
		writeJSON(w, http.StatusInternalServerError, detail("internal server error"))
	}
}
