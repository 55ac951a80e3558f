// Package mcp exposes a dispatch node as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/sanitize"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DispatchResponse aligns with the OpenAPI schema and provides a unified
// structure across adapters.
type DispatchResponse struct {
	Status  string `json:"status" jsonschema_description:"SUCCESS or ERROR"`
	Message string `json:"message" jsonschema_description:"Human-readable dispatch outcome"`
	Version string `json:"version" jsonschema_description:"Response version"`
}

// Engine defines the interface required by the MCP server to dispatch actions.
type Engine interface {
	ports.Dispatcher
}

// Server wraps an Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("espalier-mcp", espalier.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: dispatch_action
	dispatchTool := mcp.NewTool("dispatch_action",
		mcp.WithDescription("Dispatch an action through the node's contract. Matching transitions run in priority order before the response is produced."),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action name matched against contract triggers")),
		mcp.WithString("version", mcp.Description("Client version, echoed by the default response (optional)")),
		mcp.WithString("payload", mcp.Description("JSON object passed through to executors and main logic (optional)")),
		mcp.WithOutputSchema[DispatchResponse](),
	)
	s.mcpServer.AddTool(dispatchTool, mcp.NewStructuredToolHandler(s.handleDispatch))

	// TOOL: list_transitions
	s.mcpServer.AddTool(mcp.NewTool("list_transitions",
		mcp.WithDescription("List the transitions loaded from the node's contract."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		set, err := s.engine.Transitions(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("transitions failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(set)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DispatchResponse, error) {
	action, _ := args["action"].(string)

	// Sanitize Action
	clean, err := sanitize.ActionName(action)
	if err != nil {
		slog.Warn("MCP Dispatch: Action rejected", "error", err, "size", len(action))
		return DispatchResponse{}, fmt.Errorf("action rejected: %w", err)
	}

	req := domain.Request{Action: clean}
	if version, ok := args["version"].(string); ok {
		req.Version = version
	}
	if payloadStr, ok := args["payload"].(string); ok && payloadStr != "" {
		if err := json.Unmarshal([]byte(payloadStr), &req.Payload); err != nil {
			return DispatchResponse{}, fmt.Errorf("invalid payload: %w", err)
		}
	}

	resp, err := s.engine.Dispatch(ctx, req)
	if err != nil {
		slog.Error("MCP Dispatch: Dispatch failed", "error", err)
		return DispatchResponse{}, fmt.Errorf("dispatch failed: %w", err)
	}

	return DispatchResponse{
		Status:  string(resp.Status),
		Message: resp.Message,
		Version: resp.Version,
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: espalier://contract
	s.mcpServer.AddResource(mcp.NewResource("espalier://contract", "Loaded Contract Transitions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		set, err := s.engine.Transitions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load transitions: %w", err)
		}
		jsonBytes, _ := json.Marshal(set)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "espalier://contract",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
