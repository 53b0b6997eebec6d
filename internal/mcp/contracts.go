package mcp

import "distiller/internal/engine/model"

const ToolNameDistillFile = "distill_file"

type DistillFileInput struct {
	Path           string `json:"path"`
	Content        string `json:"content,omitempty"`
	MinVisibility  string `json:"min_visibility,omitempty"`
	DetailLevel    string `json:"detail_level,omitempty"`
	IncludeImports *bool  `json:"include_imports,omitempty"`
}

type DistillFileOutput struct {
	Path           string             `json:"path"`
	Language       string             `json:"language,omitempty"`
	Output         string             `json:"output,omitempty"`
	RemovedImports []string           `json:"removed_imports,omitempty"`
	Pruned         int                `json:"pruned_declarations,omitempty"`
	Diagnostics    []model.Diagnostic `json:"diagnostics,omitempty"`
}

type ToolError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e ToolError) Error() string {
	return e.Message
}

const (
	ErrorInvalidArgument = "invalid_argument"
	ErrorNotFound        = "not_found"
	ErrorInternal        = "internal"
)
