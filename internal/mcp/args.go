package mcp

import (
	"distiller/internal/core/config"
	"distiller/internal/engine/model"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

const maxContentBytes = 4 << 20

// ParseDistillArgs decodes and normalizes raw tool arguments.
func ParseDistillArgs(raw map[string]any) (DistillFileInput, error) {
	var input DistillFileInput
	if raw == nil {
		raw = map[string]any{}
	}
	if err := decodeParams(raw, &input); err != nil {
		return input, err
	}

	input.Path = strings.TrimSpace(input.Path)
	if input.Path == "" {
		return input, ToolError{Code: ErrorInvalidArgument, Message: "path is required"}
	}
	if len(input.Content) > maxContentBytes {
		return input, ToolError{Code: ErrorInvalidArgument, Message: fmt.Sprintf("content exceeds %d bytes", maxContentBytes)}
	}
	input.MinVisibility = strings.ToLower(strings.TrimSpace(input.MinVisibility))
	input.DetailLevel = strings.ToLower(strings.TrimSpace(input.DetailLevel))
	return input, nil
}

// ApplySettings overlays the per-call options of input on base.
func ApplySettings(base config.Settings, input DistillFileInput) (config.Settings, error) {
	settings := base
	if input.MinVisibility != "" {
		vis, err := model.ParseMinVisibility(input.MinVisibility)
		if err != nil {
			return base, ToolError{Code: ErrorInvalidArgument, Message: err.Error()}
		}
		settings.MinVisibility = vis
	}
	if input.DetailLevel != "" {
		detail, err := model.ParseDetailLevel(input.DetailLevel)
		if err != nil {
			return base, ToolError{Code: ErrorInvalidArgument, Message: err.Error()}
		}
		settings.Detail = detail
	}
	if input.IncludeImports != nil {
		settings.IncludeImports = *input.IncludeImports
	}
	return settings, nil
}

// resolveInRoot anchors path at root and rejects anything outside it.
func resolveInRoot(root, path string) (abs, display string, err error) {
	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	candidate = filepath.Clean(candidate)
	rel, err := filepath.Rel(root, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", ToolError{Code: ErrorInvalidArgument, Message: "path is outside project root", Details: map[string]any{"path": path}}
	}
	return candidate, filepath.ToSlash(rel), nil
}

func decodeParams(params map[string]any, out any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return ToolError{Code: ErrorInvalidArgument, Message: "invalid params encoding"}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return ToolError{Code: ErrorInvalidArgument, Message: "invalid params", Details: map[string]any{"error": err.Error()}}
	}
	return nil
}
