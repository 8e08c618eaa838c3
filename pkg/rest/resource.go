// Package rest exposes a Store as a chi router with content-negotiated
// request and response bodies.
package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-model/pkg/content"
	"github.com/tendant/simple-model/pkg/simplemodel"
)

// ErrorResponse is the error envelope returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListParams are the query parameters accepted by the list endpoint.
type ListParams struct {
	Limit       int    `form:"limit" json:"limit"`
	Offset      int    `form:"offset" json:"offset"`
	SortBy      string `form:"sort_by" json:"sort_by"`
	SortDesc    bool   `form:"sort_desc" json:"sort_desc"`
	WithDeleted bool   `form:"with_deleted" json:"with_deleted"`
}

// ListResponse is the response body for the list endpoint.
type ListResponse[T simplemodel.Entity] struct {
	Items  []*T  `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

const defaultListLimit = 50

// Resource serves CRUD endpoints for one entity type.
type Resource[T simplemodel.Entity] struct {
	store     *simplemodel.Store[T]
	container *content.Container
	ids       simplemodel.IDConvention
	logger    *slog.Logger
}

// ResourceOption configures a Resource.
type ResourceOption[T simplemodel.Entity] func(*Resource[T])

// WithContainer overrides the content container used for request and
// response bodies.
func WithContainer[T simplemodel.Entity](c *content.Container) ResourceOption[T] {
	return func(r *Resource[T]) { r.container = c }
}

// WithLogger overrides the logger.
func WithLogger[T simplemodel.Entity](logger *slog.Logger) ResourceOption[T] {
	return func(r *Resource[T]) { r.logger = logger }
}

// NewResource creates a resource over the database's store for T.
func NewResource[T simplemodel.Entity](db *simplemodel.Database, opts ...ResourceOption[T]) *Resource[T] {
	res := &Resource[T]{
		store:     simplemodel.NewStore[T](db),
		container: content.NewContainer(nil),
		ids:       db.IDConvention(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Routes returns the router for the resource.
func (res *Resource[T]) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", res.Create)
	r.Get("/", res.List)
	r.Get("/{id}", res.Get)
	r.Put("/{id}", res.Update)
	r.Delete("/{id}", res.Delete)
	r.Post("/{id}/restore", res.Restore)

	return r
}

// Create decodes a new model from the request body and saves it.
func (res *Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	var m T
	if err := res.container.Decode(r, &m); err != nil {
		res.writeError(w, r, err)
		return
	}

	if err := res.store.Save(r.Context(), &m); err != nil {
		res.writeError(w, r, err)
		return
	}

	res.respond(w, r, http.StatusCreated, &m)
}

// Get fetches a model by its path identifier.
func (res *Resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := res.pathID(r)
	if err != nil {
		res.writeError(w, r, err)
		return
	}

	m, err := res.store.Find(r.Context(), id)
	if err != nil {
		res.writeError(w, r, err)
		return
	}

	res.respond(w, r, http.StatusOK, m)
}

// Update decodes the request body over the stored model and saves it. The
// path identifier wins over any identifier in the body.
func (res *Resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := res.pathID(r)
	if err != nil {
		res.writeError(w, r, err)
		return
	}

	m, err := res.store.Find(r.Context(), id)
	if err != nil {
		res.writeError(w, r, err)
		return
	}

	if err := res.container.Decode(r, m); err != nil {
		res.writeError(w, r, err)
		return
	}
	if err := res.store.SetID(m, id); err != nil {
		res.writeError(w, r, err)
		return
	}

	if err := res.store.Save(r.Context(), m); err != nil {
		res.writeError(w, r, err)
		return
	}

	res.respond(w, r, http.StatusOK, m)
}

// Delete removes the model. Soft-deletable models are marked deleted;
// others are removed permanently.
func (res *Resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := res.pathID(r)
	if err != nil {
		res.writeError(w, r, err)
		return
	}

	m, err := res.store.Find(r.Context(), id)
	if err != nil {
		res.writeError(w, r, err)
		return
	}

	if err := res.store.Delete(r.Context(), m); err != nil {
		res.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Restore brings a soft-deleted model back.
func (res *Resource[T]) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := res.pathID(r)
	if err != nil {
		res.writeError(w, r, err)
		return
	}

	m, err := res.store.Query().
		Filter(res.store.IDKey(), simplemodel.OpEq, id).
		WithDeleted().
		First(r.Context())
	if err != nil {
		res.writeError(w, r, err)
		return
	}

	if err := res.store.Restore(r.Context(), m); err != nil {
		res.writeError(w, r, err)
		return
	}

	res.respond(w, r, http.StatusOK, m)
}

// List returns a page of models plus the total count.
func (res *Resource[T]) List(w http.ResponseWriter, r *http.Request) {
	params := ListParams{Limit: defaultListLimit}
	if err := content.QueryOf(r).Decode(&params); err != nil {
		res.writeError(w, r, err)
		return
	}
	if params.Limit <= 0 {
		params.Limit = defaultListLimit
	}

	q := res.store.Query().Limit(params.Limit).Offset(params.Offset)
	if params.SortBy != "" {
		q = q.Sort(params.SortBy, params.SortDesc)
	}
	if params.WithDeleted {
		q = q.WithDeleted()
	}

	items, err := q.All(r.Context())
	if err != nil {
		res.writeError(w, r, err)
		return
	}

	countQ := res.store.Query()
	if params.WithDeleted {
		countQ = countQ.WithDeleted()
	}
	total, err := countQ.Count(r.Context())
	if err != nil {
		res.writeError(w, r, err)
		return
	}

	res.respond(w, r, http.StatusOK, ListResponse[T]{
		Items:  items,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

// pathID parses the {id} path parameter according to the database's
// identifier convention.
func (res *Resource[T]) pathID(r *http.Request) (any, error) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return nil, simplemodel.ErrMissingIdentifier
	}

	switch res.ids {
	case simplemodel.IDConventionSerial:
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, simplemodel.ErrRecordNotFound
		}
		return id, nil
	default:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, simplemodel.ErrRecordNotFound
		}
		return id, nil
	}
}

func (res *Resource[T]) respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	if err := res.container.Encode(w, r, status, v); err != nil {
		res.logger.Error("failed to encode response",
			"entity", res.store.EntityName(), "error", err)
	}
}

func (res *Resource[T]) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		res.logger.Error("request failed",
			"entity", res.store.EntityName(), "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var abort *simplemodel.HookAbortError
	switch {
	case errors.Is(err, simplemodel.ErrRecordNotFound),
		errors.Is(err, simplemodel.ErrMissingIdentifier):
		return http.StatusNotFound
	case errors.As(err, &abort):
		return http.StatusUnprocessableEntity
	case errors.Is(err, content.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, content.ErrNotAcceptable):
		return http.StatusNotAcceptable
	case errors.Is(err, simplemodel.ErrNotSoftDeleted),
		errors.Is(err, simplemodel.ErrInvalidFilter):
		return http.StatusBadRequest
	default:
		var codec *content.CodecError
		if errors.As(err, &codec) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}
