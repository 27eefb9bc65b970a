// Package mcpserver exposes the workspace state and focus commands as MCP
// tools
package mcpserver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bryanchriswhite/spacebar/internal/logger"
	"github.com/bryanchriswhite/spacebar/internal/window"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

// Server wraps the MCP server around a running scheduler
type Server struct {
	manager *window.Manager
	mcp     *server.MCPServer
}

// New creates an MCP server with the spacebar tools registered
func New(manager *window.Manager, version string) *Server {
	s := &Server{
		manager: manager,
		mcp:     server.NewMCPServer("spacebar", version),
	}
	s.registerTools()
	return s
}

// ServeStdio serves MCP over stdin/stdout until the client goes away
func (s *Server) ServeStdio() error {
	logger.WithComponent("mcp").Info().Msg("Serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("list_spaces",
			mcp.WithDescription("List the window manager's spaces and the visible windows on each, in stacking order"),
			mcp.WithBoolean("active_only", mcp.Description("Only return the focused space")),
		),
		s.handleListSpaces,
	)

	s.mcp.AddTool(
		mcp.NewTool("focus_space",
			mcp.WithDescription("Switch to a space (yabai index or AeroSpace workspace name)"),
			mcp.WithString("space", mcp.Description("Space ID as returned by list_spaces"), mcp.Required()),
			mcp.WithBoolean("focus_window", mcp.Description("Make sure a window inside the space ends up focused")),
		),
		s.handleFocusSpace,
	)

	s.mcp.AddTool(
		mcp.NewTool("focus_window",
			mcp.WithDescription("Focus a window by ID"),
			mcp.WithNumber("window_id", mcp.Description("Window ID as returned by list_spaces"), mcp.Required()),
		),
		s.handleFocusWindow,
	)
}

// snapshot returns the published state, fetching once if nothing was
// published yet
func (s *Server) snapshot(ctx context.Context) (*window.Snapshot, error) {
	if snap := s.manager.Current(); snap != nil {
		return snap, nil
	}
	p := s.manager.Provider()
	if p == nil {
		return nil, window.ErrNoProvider
	}
	return p.FetchSnapshot(ctx)
}

func (s *Server) handleListSpaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var out interface{} = snap.Spaces
	if boolParam(params, "active_only") {
		active, ok := snap.ActiveSpace()
		if !ok {
			return mcp.NewToolResultError("no active space"), nil
		}
		out = active
	}

	b, err := yaml.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *Server) handleFocusSpace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	id := stringParam(params, "space")
	if id == "" {
		return mcp.NewToolResultError("space parameter is required"), nil
	}
	if s.manager.Provider() == nil {
		return mcp.NewToolResultError(window.ErrNoProvider.Error()), nil
	}

	s.manager.RequestFocusSpace(ctx, window.SpaceID(id), boolParam(params, "focus_window"))
	return mcp.NewToolResultText(fmt.Sprintf("focus requested for space %s", id)), nil
}

func (s *Server) handleFocusWindow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()

	id, ok := intParam(params, "window_id")
	if !ok {
		return mcp.NewToolResultError("window_id parameter is required"), nil
	}
	if s.manager.Provider() == nil {
		return mcp.NewToolResultError(window.ErrNoProvider.Error()), nil
	}

	s.manager.RequestFocusWindow(ctx, window.WindowID(id))
	return mcp.NewToolResultText(fmt.Sprintf("focus requested for window %d", id)), nil
}

func stringParam(params map[string]any, key string) string {
	switch v := params[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func boolParam(params map[string]any, key string) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

func intParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}
