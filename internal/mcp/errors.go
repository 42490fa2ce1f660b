// Package mcp exposes the knowledge base over the Model Context
// Protocol so AI clients can search and read grant documents.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/backtrue/sbirkb/internal/index"
	"github.com/backtrue/sbirkb/internal/kb"
	"github.com/backtrue/sbirkb/internal/search"
)

// MCP error codes.
const (
	ErrCodeRebuildInProgress = -32001
	ErrCodeTimeout           = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidParams = -32602
	ErrCodeInternalError = -32603
)

// MCPError is an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: "query must not be empty",
		}
	case errors.Is(err, kb.ErrUnknownCategory):
		return &MCPError{
			Code:    ErrCodeInvalidParams,
			Message: "unknown category (use methodology, faq, checklist, case_study, template, or all)",
		}
	case errors.Is(err, index.ErrRebuildInProgress):
		return &MCPError{
			Code:    ErrCodeRebuildInProgress,
			Message: "another index rebuild is already running",
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "request timed out",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "request was canceled",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "internal server error",
		}
	}
}

// NewInvalidParamsError creates an invalid-parameters error with a
// custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{
		Code:    ErrCodeInvalidParams,
		Message: msg,
	}
}
