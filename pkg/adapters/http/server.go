// Package http exposes the conversation router over HTTP.
//
// Routes:
//
//	GET  /health        liveness probe
//	GET  /info          build information
//	POST /chat          one conversation turn
//	GET  /events        Server-Sent Events of replies for one user_id
//	GET  /openapi.yaml  the embedded API document
//	GET  /swagger       Swagger UI for the document
//	GET  /metrics       Prometheus exposition (when metrics are configured)
//
// POST /chat bodies are validated against the ChatRequest schema of the
// embedded OpenAPI document before they reach the router.
package http

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/observability"
)

//go:embed openapi.yaml
var rawSpec []byte

// MaxBodySize caps POST /chat request bodies.
const MaxBodySize = 64 << 10

// Chatter processes one conversation turn. *router.Router implements it.
type Chatter interface {
	Handle(ctx context.Context, t domain.Turn) (*domain.Reply, error)
}

// Server holds the HTTP handlers.
type Server struct {
	chat    Chatter
	streams *StreamManager
	doc     *openapi3.T
	request *openapi3.Schema
	metrics *observability.Metrics
	limiter *clientLimiter
	version string
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts GET /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithRateLimit allows each client rps requests per second with the given
// burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps > 0 {
			s.limiter = newClientLimiter(rps, burst)
		}
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// NewServer builds the handler set for chat.
func NewServer(chat Chatter, opts ...Option) (*Server, error) {
	doc, err := LoadSpec()
	if err != nil {
		return nil, err
	}
	ref, ok := doc.Components.Schemas["ChatRequest"]
	if !ok || ref.Value == nil {
		return nil, errors.New("openapi document has no ChatRequest schema")
	}

	s := &Server{
		chat:    chat,
		streams: NewStreamManager(),
		doc:     doc,
		request: ref.Value,
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams.logger = s.logger
	return s, nil
}

// NewHandler creates the HTTP handler for chat.
func NewHandler(chat Chatter, opts ...Option) (http.Handler, error) {
	s, err := NewServer(chat, opts...)
	if err != nil {
		return nil, err
	}
	return s.Routes(), nil
}

// Routes returns the chi router with every route mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	r.With(s.rateLimit).Post("/chat", s.Chat)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return enableCORS(r)
}

// Streams exposes the SSE fan-out.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Rentbot API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Chat handles the POST /chat request.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large or unreadable")
		s.logger.Warn("Chat: unreadable body", "err", err)
		return
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		s.logger.Warn("Chat: invalid JSON", "err", err)
		return
	}
	if err := s.request.VisitJSON(raw); err != nil {
		writeError(w, http.StatusBadRequest, "request does not match schema: "+schemaReason(err))
		s.logger.Warn("Chat: schema violation", "err", err)
		return
	}

	var turn domain.Turn
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&turn); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("Chat: decode failed", "err", err)
		return
	}

	reply, err := s.chat.Handle(r.Context(), turn)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTurn) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		s.logger.Error("Chat failed", "user_id", turn.UserID, "err", err)
		return
	}

	if data, err := json.Marshal(reply); err == nil {
		s.streams.Broadcast(strings.TrimSpace(turn.UserID), string(data))
	}
	writeJSON(w, http.StatusOK, reply)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.doc.Info != nil {
		apiVersion = s.doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "rentbot-http",
		"version":     strings.TrimSpace(s.version),
		"api_version": apiVersion,
	})
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(userID)
	defer cancel()
	s.logger.Info("SSE: subscribed", "user_id", userID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "user_id", userID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reply\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := clientKey(r)
		if !s.limiter.allow(client) {
			s.logger.Warn("Rate limit exceeded", "client", client)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// schemaReason keeps validation messages short and free of the schema dump.
func schemaReason(err error) string {
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if field := se.JSONPointer(); len(field) > 0 {
			return strings.Join(field, ".") + ": " + se.Reason
		}
		return se.Reason
	}
	return "invalid value"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
