package model

import (
	"fmt"
	"sort"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

type DiagnosticCode string

const (
	DiagSyntaxError             DiagnosticCode = "SYNTAX_ERROR"
	DiagUnsupportedLanguage     DiagnosticCode = "UNSUPPORTED_LANGUAGE"
	DiagAmbiguousReference      DiagnosticCode = "AMBIGUOUS_REFERENCE"
	DiagWildcardHeuristic       DiagnosticCode = "WILDCARD_HEURISTIC"
	DiagDocumentationOnlyImport DiagnosticCode = "DOCUMENTATION_ONLY_IMPORT"
	DiagInternalError           DiagnosticCode = "INTERNAL_ERROR"
	DiagAborted                 DiagnosticCode = "ABORTED"
)

type Diagnostic struct {
	Severity Severity       `json:"severity"`
	Code     DiagnosticCode `json:"code"`
	File     string         `json:"file"`
	Line     int            `json:"line,omitempty"`
	Column   int            `json:"column,omitempty"`
	Symbol   string         `json:"symbol,omitempty"`
	Message  string         `json:"message"`
}

func (d Diagnostic) String() string {
	pos := d.File
	if d.Line > 0 {
		pos = fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
	}
	return fmt.Sprintf("%s %s [%s] %s", pos, d.Severity, d.Code, d.Message)
}

// Collector accumulates diagnostics for one file. It is owned by a single
// pipeline and is not safe for concurrent use.
type Collector struct {
	file  string
	items []Diagnostic
}

func NewCollector(file string) *Collector {
	return &Collector{file: file}
}

func (c *Collector) Add(d Diagnostic) {
	if d.File == "" {
		d.File = c.file
	}
	c.items = append(c.items, d)
}

func (c *Collector) Report(sev Severity, code DiagnosticCode, loc Location, symbol, format string, args ...any) {
	c.Add(Diagnostic{
		Severity: sev,
		Code:     code,
		File:     loc.File,
		Line:     loc.Line,
		Column:   loc.Column,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *Collector) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), c.items...)
}

func (c *Collector) Count(code DiagnosticCode) int {
	n := 0
	for _, d := range c.items {
		if d.Code == code {
			n++
		}
	}
	return n
}

func (c *Collector) Len() int {
	return len(c.items)
}

// SortDiagnostics orders diagnostics by file, position and code.
func SortDiagnostics(items []Diagnostic) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Code < b.Code
	})
}

// ResolutionResult is the outcome of one resolver pass over a source unit.
type ResolutionResult struct {
	Unused      []*ImportEntry
	Diagnostics []Diagnostic
}

func (r ResolutionResult) UnusedPaths() []string {
	out := make([]string, 0, len(r.Unused))
	for _, imp := range r.Unused {
		out = append(out, imp.String())
	}
	return out
}
