package errors

import (
	"context"
	"distiller/internal/engine/model"
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeValidationError     ErrorCode = "VALIDATION_ERROR"
	CodeInternal            ErrorCode = "INTERNAL_ERROR"
	CodeSyntax              ErrorCode = "SYNTAX_ERROR"
	CodeUnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	CodeAborted             ErrorCode = "ABORTED"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxSymbol    = "symbol"
	CtxLine      = "line"
	CtxColumn    = "column"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// SyntaxError reports unparseable source at a 1-based position.
func SyntaxError(path string, line, column int, msg string) error {
	return (&DomainError{Code: CodeSyntax, Message: msg}).
		WithContext(CtxPath, path).
		WithContext(CtxLine, line).
		WithContext(CtxColumn, column)
}

func UnsupportedLanguage(path, language string) error {
	return (&DomainError{
		Code:    CodeUnsupportedLanguage,
		Message: fmt.Sprintf("no adapter registered for language %q", language),
	}).WithContext(CtxPath, path).WithContext(CtxLanguage, language)
}

func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost DomainError, or CodeInternal.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Position extracts the line/column context recorded on err, if any.
func Position(err error) (line, column int) {
	var de *DomainError
	if !errors.As(err, &de) {
		return 0, 0
	}
	if v, ok := de.Context[CtxLine].(int); ok {
		line = v
	}
	if v, ok := de.Context[CtxColumn].(int); ok {
		column = v
	}
	return line, column
}

// ToDiagnostic converts a per-file failure into the diagnostic the batch
// summary reports. Errors without a DomainError become INTERNAL_ERROR.
func ToDiagnostic(path string, err error) model.Diagnostic {
	d := model.Diagnostic{
		Severity: model.SeverityError,
		File:     path,
		Message:  err.Error(),
	}
	var de *DomainError
	if errors.As(err, &de) {
		d.Message = de.Message
		if de.Err != nil {
			d.Message = fmt.Sprintf("%s: %v", de.Message, de.Err)
		}
		if v, ok := de.Context[CtxSymbol].(string); ok {
			d.Symbol = v
		}
	}
	d.Line, d.Column = Position(err)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		d.Code = model.DiagAborted
	default:
		switch CodeOf(err) {
		case CodeSyntax:
			d.Code = model.DiagSyntaxError
		case CodeUnsupportedLanguage:
			d.Code = model.DiagUnsupportedLanguage
		case CodeAborted:
			d.Code = model.DiagAborted
		default:
			d.Code = model.DiagInternalError
		}
	}
	return d
}
