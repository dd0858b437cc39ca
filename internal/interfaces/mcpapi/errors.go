package mcpapi

import (
	"errors"
	"fmt"

	sonic "github.com/bytedance/sonic"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fpltools/fpl-mcp/internal/usecase"
)

const errorDomain = "fpl-mcp"

type toolErrorBody struct {
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Domain  string `json:"domain"`
	Message string `json:"message"`
}

type toolErrorEnvelope struct {
	Error toolErrorBody `json:"error"`
}

type mappedError struct {
	Reason string
	Status string
}

func mapError(err error) mappedError {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return mappedError{Reason: "invalidInput", Status: "INVALID_ARGUMENT"}
	case errors.Is(err, usecase.ErrNotFound):
		return mappedError{Reason: "notFound", Status: "NOT_FOUND"}
	case errors.Is(err, usecase.ErrNotConfigured):
		return mappedError{Reason: "notConfigured", Status: "FAILED_PRECONDITION"}
	case errors.Is(err, usecase.ErrUnauthorized):
		return mappedError{Reason: "unauthorized", Status: "UNAUTHENTICATED"}
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return mappedError{Reason: "dependencyUnavailable", Status: "UNAVAILABLE"}
	case errors.Is(err, usecase.ErrUpstream):
		return mappedError{Reason: "upstreamFailure", Status: "UNAVAILABLE"}
	default:
		return mappedError{Reason: "internalError", Status: "INTERNAL"}
	}
}

// toolError reports a failed call inside the tool result. The server never
// returns a protocol-level error for a domain failure, so one bad call
// cannot take the session down.
func toolError(err error) *mcp.CallToolResult {
	mapped := mapError(err)
	body, marshalErr := sonic.MarshalIndent(toolErrorEnvelope{
		Error: toolErrorBody{
			Status:  mapped.Status,
			Reason:  mapped.Reason,
			Domain:  errorDomain,
			Message: err.Error(),
		},
	}, "", "  ")
	if marshalErr != nil {
		body = []byte(fmt.Sprintf("error: %v", err))
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(body)},
		},
	}
}

func toolJSON(payload any) (*mcp.CallToolResult, any, error) {
	body, err := sonic.MarshalIndent(payload, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(body)},
		},
	}, nil, nil
}
