// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes identity discovery over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jllopis/ember/pkg/errors"
	"github.com/jllopis/ember/pkg/identity"
)

const (
	ToolAwaken      = "awaken_identity"
	ResourceCurrent = "identity://current"
)

// Discoverer runs identity discovery. *identity.Orchestrator satisfies it.
type Discoverer interface {
	Discover(ctx context.Context) (*identity.Outcome, error)
}

// Reader loads the persisted identity without generating one.
type Reader interface {
	Load(ctx context.Context) (*identity.Identity, error)
}

// Server wraps the mcp-go server with the ember tool and resource.
type Server struct {
	mcpServer  *server.MCPServer
	discoverer Discoverer
	reader     Reader
	logger     *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger for handler errors.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server that serves discover and reader.
func NewServer(name, version string, discoverer Discoverer, reader Reader, opts ...ServerOption) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(name, version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
		discoverer: discoverer,
		reader:     reader,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer.AddTool(mcp.NewTool(ToolAwaken,
		mcp.WithDescription("Return the agent identity, generating and persisting it on first use."),
	), s.handleAwaken)

	s.mcpServer.AddResource(mcp.NewResource(ResourceCurrent, "Current identity",
		mcp.WithResourceDescription("The persisted agent identity"),
		mcp.WithMIMEType("application/json"),
	), s.handleCurrent)

	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

type awakenResult struct {
	State    identity.State     `json:"state"`
	Identity *identity.Identity `json:"identity"`
}

// handleAwaken reports discovery failures as tool errors so clients see the
// code instead of a transport fault.
func (s *Server) handleAwaken(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := s.discoverer.Discover(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "mcp.awaken.failed", slog.String("error", err.Error()))
		return mcp.NewToolResultError(errors.AsEmberError(err).Error()), nil
	}
	data, err := json.MarshalIndent(awakenResult{State: out.State, Identity: out.Identity}, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleCurrent(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	id, err := s.reader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, errors.New(errors.CodeNotFound, "no identity has been created yet", nil)
	}
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
