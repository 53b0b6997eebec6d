// Package mcp serves the distillation pipeline to MCP clients over stdio.
package mcp

import (
	"context"
	"distiller/internal/core/errors"
	"distiller/internal/core/pipeline"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type ServerConfig struct {
	Name        string
	Version     string
	ProjectRoot string
}

type Server struct {
	mcp      *server.MCPServer
	pipeline *pipeline.Pipeline
	root     string
}

func NewServer(cfg ServerConfig, p *pipeline.Pipeline) (*Server, error) {
	root, err := filepath.Abs(cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = "distiller"
	}
	s := &Server{
		mcp:      server.NewMCPServer(cfg.Name, cfg.Version, server.WithToolCapabilities(true)),
		pipeline: p,
		root:     root,
	}
	s.addDistillFileTool()
	return s, nil
}

// Listen speaks MCP over in and out until ctx is done or in closes.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	slog.Info("mcp server listening on stdio", "root", s.root)
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) addDistillFileTool() {
	tool := mcp.NewTool(
		ToolNameDistillFile,
		mcp.WithDescription("Distill one Java or Python source file into its public structure: signatures and declarations, with bodies and unused imports removed."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path, relative to the project root")),
		mcp.WithString("content",
			mcp.Description("Source text to distill instead of reading path from disk")),
		mcp.WithString("min_visibility",
			mcp.Description("Lowest visibility kept"),
			mcp.Enum("public", "public+protected", "public+protected+package", "all")),
		mcp.WithString("detail_level",
			mcp.Description("How much of each declaration is kept"),
			mcp.Enum("signatures-only", "signatures+fields", "full-minus-bodies")),
		mcp.WithBoolean("include_imports",
			mcp.Description("Write used imports (default from configuration)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.mcp.AddTool(tool, s.handleDistillFile)
}

func (s *Server) handleDistillFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := ParseDistillArgs(request.GetArguments())
	if err != nil {
		return toolError(err), nil
	}
	settings, err := ApplySettings(s.pipeline.Settings(), input)
	if err != nil {
		return toolError(err), nil
	}
	abs, display, err := resolveInRoot(s.root, input.Path)
	if err != nil {
		return toolError(err), nil
	}

	source := []byte(input.Content)
	if input.Content == "" {
		source, err = readSource(abs)
		if err != nil {
			return toolError(err), nil
		}
	}

	res := s.pipeline.WithSettings(settings).Distill(ctx, display, "", source)
	out := DistillFileOutput{
		Path:           res.Path,
		Language:       res.Language,
		Output:         res.Output,
		RemovedImports: res.Removed,
		Pruned:         res.Pruned,
		Diagnostics:    res.Diagnostics,
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	result := mcp.NewToolResultText(string(data))
	result.IsError = res.Err != nil
	if res.Err != nil {
		slog.Debug("distill_file failed", "path", display, "code", errors.CodeOf(res.Err))
	}
	return result, nil
}

func readSource(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ToolError{Code: ErrorNotFound, Message: "file not found", Details: map[string]any{"path": path}}
		}
		return nil, ToolError{Code: ErrorInternal, Message: err.Error()}
	}
	if info.IsDir() {
		return nil, ToolError{Code: ErrorInvalidArgument, Message: "path is a directory"}
	}
	if info.Size() > maxContentBytes {
		return nil, ToolError{Code: ErrorInvalidArgument, Message: fmt.Sprintf("file exceeds %d bytes", maxContentBytes)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ToolError{Code: ErrorInternal, Message: err.Error()}
	}
	return data, nil
}

func toolError(err error) *mcp.CallToolResult {
	if te, ok := err.(ToolError); ok {
		data, _ := json.Marshal(te)
		return mcp.NewToolResultError(string(data))
	}
	return mcp.NewToolResultError(err.Error())
}
