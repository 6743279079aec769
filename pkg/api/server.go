package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vyvo/trafficlight/pkg/feed"
	"github.com/vyvo/trafficlight/pkg/registry"
)

const (
	tracerName     = "github.com/vyvo/trafficlight/pkg/api"
	maxRequestBody = 1 << 20
)

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options tunes the HTTP surface. Zero values select defaults.
type Options struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	Logger         Logger
}

// Server exposes a junction registry over HTTP.
type Server struct {
	registry  *registry.Registry
	hub       *feed.Hub
	publisher feed.Publisher
	logger    Logger
	opts      Options
}

// NewServer binds the handlers to reg. Accepted updates are announced through
// publisher and streamed to clients subscribed on hub. A nil publisher
// publishes straight to hub.
func NewServer(reg *registry.Registry, hub *feed.Hub, publisher feed.Publisher, opts Options) *Server {
	if reg == nil {
		panic("api.NewServer: registry is nil")
	}
	if hub == nil {
		hub = feed.NewHub(feed.DefaultBuffer)
	}
	if publisher == nil {
		publisher = hub
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Server{
		registry:  reg,
		hub:       hub,
		publisher: publisher,
		logger:    opts.Logger,
		opts:      opts,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	router.Group(func(r chi.Router) {
		r.Use(timeoutMiddleware(s.opts.RequestTimeout))

		r.Get("/healthz", healthzHandler)
		r.Get("/traffic_light/{junctionID}", s.handleGetJunction)
		r.Post("/update_traffic_light", s.handleUpdateJunction)
		r.Get("/traffic_lights", s.handleListJunctions)
	})

	// Long-lived connections stay outside the request timeout.
	router.Get("/traffic_lights/stream", s.handleStream)
	router.Get("/ws/traffic_lights", s.handleWebSocket)

	return router
}

func timeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleGetJunction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "junctionID")
	// chi matches against the raw path when one is present.
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}
	}

	_, span := otel.Tracer(tracerName).Start(r.Context(), "junction.get")
	defer span.End()
	span.SetAttributes(attribute.String("junction.id", id))

	junction, ok := s.registry.Get(id)
	if !ok {
		span.SetAttributes(attribute.Bool("junction.found", false))
		respondError(w, http.StatusNotFound, MessageJunctionNotFound)
		return
	}

	span.SetAttributes(attribute.Bool("junction.found", true))
	respondJSON(w, junction, http.StatusOK)
}

func (s *Server) handleUpdateJunction(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), "junction.update")
	defer span.End()

	payload, err := DecodeUpdateRequest(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		span.SetStatus(codes.Error, "decode body")
		respondError(w, http.StatusBadRequest, MessageInvalidData)
		return
	}
	span.SetAttributes(attribute.String("junction.id", payload.JunctionID))

	if !payload.Valid() {
		span.SetStatus(codes.Error, "invalid data")
		respondError(w, http.StatusBadRequest, MessageInvalidData)
		return
	}

	junction := registry.Junction{Status: payload.Status, TimeLeft: payload.TimeLeft}
	s.registry.Set(payload.JunctionID, junction)

	if err := s.publisher.Publish(ctx, feed.NewEvent(payload.JunctionID, junction)); err != nil {
		s.logger.Error("publish junction update failed", "junction_id", payload.JunctionID, "error", err)
	}

	respondJSON(w, MessageResponse{Message: MessageUpdated}, http.StatusOK)
}

func (s *Server) handleListJunctions(w http.ResponseWriter, r *http.Request) {
	_, span := otel.Tracer(tracerName).Start(r.Context(), "junction.list")
	defer span.End()

	snapshot := s.registry.Snapshot()
	span.SetAttributes(attribute.Int("junction.count", len(snapshot)))
	respondJSON(w, snapshot, http.StatusOK)
}

func respondJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, ErrorResponse{Error: message}, status)
}
