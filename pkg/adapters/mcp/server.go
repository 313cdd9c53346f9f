// Package mcp exposes the rental assistant as a Model Context Protocol server.
//
// Tools: chat (one conversation turn) and search_properties (a stateless
// catalog search behind the market gate). Resource: rentbot://markets.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/catalog"
	"github.com/propertytek/rentbot/pkg/criteria"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/market"
)

// MarketsURI is the resource listing supported markets.
const MarketsURI = "rentbot://markets"

// Chatter processes one conversation turn. *router.Router implements it.
type Chatter interface {
	Handle(ctx context.Context, t domain.Turn) (*domain.Reply, error)
}

// SearchResponse is the structured result of search_properties.
type SearchResponse struct {
	City       string        `json:"city,omitempty"`
	Total      int           `json:"total"`
	NoMatch    bool          `json:"no_match"`
	Properties []domain.Card `json:"properties"`
}

// Server wraps the router and catalog and exposes them as an MCP Server.
type Server struct {
	chat      Chatter
	catalog   *catalog.Adapter
	gate      *market.Gate
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithGate replaces the default market gate.
func WithGate(g *market.Gate) Option {
	return func(s *Server) {
		if g != nil {
			s.gate = g
		}
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

// NewServer creates a new MCP Server instance.
func NewServer(chat Chatter, c *catalog.Adapter, version string, opts ...Option) *Server {
	s := &Server{
		chat:    chat,
		catalog: c,
		gate:    market.NewGate(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("rentbot-mcp", strings.TrimSpace(version),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Rental assistant: search listings in supported markets and book property tours."),
		server.WithRecovery(),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, stopping MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("chat",
		mcp.WithDescription("Send one message or UI action to the rental assistant and get its reply. Preferences accumulate per user_id."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Stable conversation identifier")),
		mcp.WithString("query", mcp.Description("Free-text message")),
		mcp.WithString("action_type", mcp.Description("Explicit action"),
			mcp.Enum("none", "inquire", "book_schedule", "select_slot", "provide_info", "cancel_booking", "new_search")),
		mcp.WithString("property_id", mcp.Description("Listing ID for inquire and book_schedule")),
		mcp.WithString("selected_slot", mcp.Description("Slot ID for select_slot")),
		mcp.WithString("intake_command", mcp.Description("Recovery command during contact intake"),
			mcp.Enum("cancel", "restart", "help")),
	), s.handleChat)

	s.mcpServer.AddTool(mcp.NewTool("search_properties",
		mcp.WithDescription("Search rental listings without touching any conversation. Only supported markets are searched."),
		mcp.WithString("city", mcp.Description("City name")),
		mcp.WithString("area", mcp.Description("Neighborhood or street fragment")),
		mcp.WithNumber("bedrooms", mcp.Description("Exact bedroom count, 0 for studio")),
		mcp.WithNumber("rent_min", mcp.Description("Minimum monthly rent")),
		mcp.WithNumber("rent_max", mcp.Description("Maximum monthly rent")),
		mcp.WithString("pets", mcp.Description("cats, dogs, cats and dogs, or no pets")),
		mcp.WithString("available_date", mcp.Description("Month name or date")),
	), s.handleSearch)
}

func (s *Server) handleChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("user_id is required"), nil
	}

	turn := domain.Turn{
		UserID:        userID,
		Query:         req.GetString("query", ""),
		ActionType:    domain.ActionType(req.GetString("action_type", "")),
		IntakeCommand: domain.Command(req.GetString("intake_command", "")),
	}
	if v := req.GetString("property_id", ""); v != "" {
		turn.PropertyID = &v
	}
	if v := req.GetString("selected_slot", ""); v != "" {
		turn.SelectedSlot = &v
	}

	reply, err := s.chat.Handle(ctx, turn)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTurn) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.Error("MCP chat failed", "user_id", userID, "err", err)
		return mcp.NewToolResultError("internal error"), nil
	}
	return jsonResult(reply)
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := criteria.Decode(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	v := s.gate.Check(c.City)
	if !v.Passed {
		return mcp.NewToolResultError(market.RejectionMessage(v.Rejected)), nil
	}
	c.City = v.City

	res, err := s.catalog.Search(ctx, c)
	if err != nil {
		s.logger.Error("MCP search failed", "err", err)
		return mcp.NewToolResultError("search failed"), nil
	}
	return jsonResult(SearchResponse{
		City:       c.City,
		Total:      res.Total,
		NoMatch:    res.NoMatch,
		Properties: res.Cards,
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(MarketsURI, "Supported Markets",
		mcp.WithResourceDescription("Cities the assistant searches"),
		mcp.WithMIMEType("application/json"),
	), s.readMarkets)
}

func (s *Server) readMarkets(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(map[string][]string{"markets": s.gate.Markets()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode markets: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      MarketsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
