package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sagarc03/stowry"
)

// Service is the slice of the object service the handlers need.
type Service interface {
	Get(ctx context.Context, path string) (stowry.MetaData, io.ReadSeekCloser, error)
	Create(ctx context.Context, obj stowry.CreateObject, content io.Reader) (stowry.MetaData, error)
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, query stowry.ListQuery) (stowry.ListResult, error)
}

// CORSConfig mirrors go-chi/cors options.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// HandlerConfig wires the handler. Read and write verifiers are
// independent so a deployment can serve public downloads while keeping
// uploads presigned-only. Nil means public.
type HandlerConfig struct {
	Mode          stowry.ServerMode
	ReadVerifier  RequestVerifier
	WriteVerifier RequestVerifier
	CORS          CORSConfig
}

// Handler serves the object storage API.
type Handler struct {
	config  HandlerConfig
	service Service
}

func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{config: *config, service: service}
}

// Router builds the route tree. In store mode GET / lists objects; in
// static and spa modes the get handler resolves / through the service's
// index fallback.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Use(PathValidationMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.ReadVerifier))
		if h.config.Mode == stowry.ModeStore {
			r.Get("/", h.handleList)
		}
		r.Get("/*", h.handleGet)
		r.Head("/*", h.handleGet)
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.WriteVerifier))
		r.Put("/*", h.handlePut)
		r.Delete("/*", h.handleDelete)
	})

	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			limit = max(1, min(1000, parsed))
		}
	}

	query := stowry.ListQuery{
		PathPrefix: r.URL.Query().Get("prefix"),
		Limit:      limit,
		Cursor:     r.URL.Query().Get("cursor"),
	}

	result, err := h.service.List(r.Context(), query)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")

	obj, content, err := h.service.Get(r.Context(), path)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = content.Close() }()

	w.Header().Set("ETag", `"`+obj.Etag+`"`)
	w.Header().Set("Content-Type", obj.ContentType)

	http.ServeContent(w, r, path, obj.UpdatedAt, content)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if ifMatch := r.Header.Get("If-Match"); ifMatch != "" {
		existing, content, err := h.service.Get(r.Context(), path)
		if err != nil && !errors.Is(err, stowry.ErrNotFound) {
			HandleError(w, err)
			return
		}
		if err == nil {
			_ = content.Close()
			if ifMatch != existing.Etag && ifMatch != `"`+existing.Etag+`"` {
				WriteError(w, http.StatusPreconditionFailed, "precondition_failed", "ETag mismatch")
				return
			}
		}
	}

	metaData, err := h.service.Create(r.Context(), stowry.CreateObject{
		Path:        path,
		ContentType: contentType,
	}, r.Body)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, metaData)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid path")
		return
	}

	if err := h.service.Delete(r.Context(), path); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
