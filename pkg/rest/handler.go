package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/zoobzio/clockz"

	"github.com/zoobzio/formz"
)

// Lister is implemented by catalogs that can enumerate their items. The
// list route answers 501 when the catalog does not implement it.
type Lister interface {
	List(ctx context.Context) ([]formz.Item, error)
}

// ListResponse is the body of the list route.
type ListResponse struct {
	Data []formz.Item `json:"data"`
}

// ErrorResponse is the body of every non-2xx answer. Fields carries the
// failing rules per field when an item is rejected.
type ErrorResponse struct {
	Error  string                               `json:"error"`
	Code   string                               `json:"code"`
	Fields map[formz.FieldKey][]formz.ErrorKind `json:"fields,omitempty"`
}

// Handler serves the catalog API over a formz.Catalog. Items are validated
// with the same rules the form applies before they reach the catalog.
type Handler struct {
	catalog formz.Catalog
	logger  *slog.Logger
	clock   clockz.Clock
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the request logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithClock sets the clock used for the release date lower bound.
func WithClock(c clockz.Clock) HandlerOption {
	return func(h *Handler) {
		h.clock = c
	}
}

// NewHandler creates a Handler over catalog.
func NewHandler(catalog formz.Catalog, opts ...HandlerOption) *Handler {
	h := &Handler{
		catalog: catalog,
		logger:  slog.Default(),
		clock:   clockz.RealClock,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns a router serving the API at its root. Mount it under the
// desired prefix.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)

	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/verification/{id}", h.handleVerify)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDelete)
	return r
}

func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	lister, ok := h.catalog.(Lister)
	if !ok {
		h.writeError(w, http.StatusNotImplemented, "catalog cannot list items", "list_unsupported")
		return
	}
	items, err := lister.List(r.Context())
	if err != nil {
		h.writeCatalogError(w, r, "list", err)
		return
	}
	if items == nil {
		items = []formz.Item{}
	}
	h.writeJSON(w, http.StatusOK, ListResponse{Data: items})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	exists, err := h.catalog.Exists(r.Context(), id)
	if err != nil {
		h.writeCatalogError(w, r, "verify", err)
		return
	}
	h.writeJSON(w, http.StatusOK, exists)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.writeCatalogError(w, r, "get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	item, ok := h.decodeItem(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Create(r.Context(), item); err != nil {
		h.writeCatalogError(w, r, "create", err)
		return
	}
	h.logger.Info("item created", "id", item.ID)
	h.writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, ok := h.decodeItem(w, r, id)
	if !ok {
		return
	}
	if err := h.catalog.Update(r.Context(), id, item); err != nil {
		h.writeCatalogError(w, r, "update", err)
		return
	}
	h.logger.Info("item updated", "id", id)
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.writeCatalogError(w, r, "delete", err)
		return
	}
	h.logger.Info("item deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// decodeItem reads and validates the request body. When id is given it
// replaces the body's id. It writes the error response itself and reports
// false on failure.
func (h *Handler) decodeItem(w http.ResponseWriter, r *http.Request, id ...string) (formz.Item, bool) {
	var item formz.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body", "invalid_body")
		return formz.Item{}, false
	}
	if len(id) > 0 {
		item.ID = id[0]
	}

	failed := formz.ValidateItem(item, h.clock.Now())
	if len(failed) == 0 {
		return item, true
	}
	fields := make(map[formz.FieldKey][]formz.ErrorKind, len(failed))
	for key, bag := range failed {
		fields[key] = bag.Kinds()
	}
	h.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:  formz.ErrInvalid.Error(),
		Code:   "validation_failed",
		Fields: fields,
	})
	return formz.Item{}, false
}

func (h *Handler) writeCatalogError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, formz.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "item not found", "not_found")
	case errors.Is(err, formz.ErrExists):
		h.writeError(w, http.StatusConflict, "item already exists", "exists")
	default:
		h.logger.Error("catalog operation failed",
			"op", op,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		h.writeError(w, http.StatusInternalServerError, "catalog unavailable", "internal")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
