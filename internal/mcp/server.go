// Package mcp serves the feature lookup as an MCP tool over stdio.
package mcp

import (
	"context"

	"github.com/effective-security/xlog"
	"github.com/fastertools/signals-mcp/internal/features"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"
)

var logger = xlog.NewPackageLogger("github.com/fastertools/signals-mcp/internal", "mcp")

// ServerName is the implementation name reported to MCP clients.
const ServerName = "signals-mcp"

const instructions = "Snowplow Signals server. Call get_features with a domain session id to read " +
	"the visitor's in-session behavior before answering them."

// GetFeaturesParams is the input of the get_features tool.
type GetFeaturesParams struct {
	SessionID string `json:"session_id" jsonschema:"A string that defines session_id, can be some hash or UUID or similar."`
}

// Server exposes a features.Adapter to MCP clients.
type Server struct {
	server *mcp.Server
	tool   *features.Tool
}

// NewServer creates the MCP server and registers the get_features tool.
func NewServer(adapter *features.Adapter, version string) (*Server, error) {
	if adapter == nil {
		return nil, errors.New("adapter is required")
	}
	if version == "" {
		version = "dev"
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    ServerName,
			Version: version,
		}, &mcp.ServerOptions{
			Instructions: instructions,
		}),
		tool: features.NewTool(adapter),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        s.tool.Name(),
		Description: s.tool.Description(),
	}, s.handleGetFeatures)

	return s, nil
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.KV(xlog.INFO, "status", "serving", "transport", "stdio", "tool", s.tool.Name())
	return s.server.Run(ctx, mcp.NewStdioTransport())
}

func (s *Server) handleGetFeatures(ctx context.Context, ss *mcp.ServerSession, params *mcp.CallToolParamsFor[GetFeaturesParams]) (*mcp.CallToolResultFor[struct{}], error) {
	res, err := s.tool.Run(ctx, &features.Request{SessionID: params.Arguments.SessionID})
	if err != nil {
		logger.ContextKV(ctx, xlog.ERROR, "tool", s.tool.Name(), "err", err.Error())
		return &mcp.CallToolResultFor[struct{}]{
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			IsError: true,
		}, nil
	}

	return &mcp.CallToolResultFor[struct{}]{
		Content: []mcp.Content{&mcp.TextContent{Text: res.Text}},
	}, nil
}
