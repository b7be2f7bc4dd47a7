// Package mcp exposes the complaint question service as Model Context
// Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"complaintrag/internal/indexer"
	"complaintrag/internal/logger"
	"complaintrag/internal/service"
)

// Version is the MCP server version.
const Version = "0.1.0"

// QueryService is the subset of the RAG service the tools call.
type QueryService interface {
	ProcessQuery(ctx context.Context, query string) service.Response
	Mode() string
	Manifest() *indexer.Manifest
}

// Server is the MCP server for complaint questions.
type Server struct {
	svc    QueryService
	server *mcp.Server
}

// NewServer creates a server backed by svc.
func NewServer(svc QueryService) (*Server, error) {
	if svc == nil {
		return nil, errors.New("mcp: query service is required")
	}
	s := &Server{
		svc: svc,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "complaintrag",
			Version: Version,
		}, nil),
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("mcp server on stdio", "mode", s.svc.Mode())
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp http shutdown", "error", err)
		}
	}()

	logger.Info("mcp server on http", "addr", addr, "mode", s.svc.Mode())
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("mcp http server: %w", err)
	}
	return nil
}

// Handler returns the streamable HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)
}
