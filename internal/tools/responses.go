package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/d-kuro/todo-mcp/internal/errors"
)

// Envelope is the JSON document every tool call answers with.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody carries the code and message of a failed call.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// SuccessResponse creates a successful envelope around data.
func SuccessResponse(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// ErrorResponse creates a failed envelope from err. Errors outside the tool
// taxonomy are reported as INTERNAL_ERROR.
func ErrorResponse(err error) Envelope {
	return Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:    errors.CodeOf(err),
			Message: errors.MessageOf(err),
		},
	}
}

// Outcome is "success" for a successful envelope and the error code otherwise.
func (e Envelope) Outcome() string {
	if e.Success || e.Error == nil {
		return "success"
	}
	return string(e.Error.Code)
}

// Text renders the envelope as compact JSON.
func (e Envelope) Text() string {
	b, err := json.Marshal(e)
	if err != nil {
		b, _ = json.Marshal(ErrorResponse(errors.InternalWithCause("failed to marshal response", err)))
	}
	return string(b)
}

// Result converts the envelope into an MCP tool result: one text content
// holding the JSON, flagged as an error when the call failed.
func (e Envelope) Result() *mcp.CallToolResult {
	text := e.Text()
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: !e.Success || e.Error != nil,
	}
}

// RawEnvelope is an envelope read back from the wire with its data left
// undecoded.
type RawEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
}

// ParseResult extracts the envelope from the first text content of res.
func ParseResult(res *mcp.CallToolResult) (*RawEnvelope, error) {
	if res == nil || len(res.Content) == 0 {
		return nil, fmt.Errorf("tool result has no content")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		return nil, fmt.Errorf("tool result content is %T, not text", res.Content[0])
	}
	var env RawEnvelope
	if err := json.Unmarshal([]byte(text.Text), &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	return &env, nil
}

// DecodeData unmarshals the envelope data into v.
func (e *RawEnvelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("envelope has no data")
	}
	return json.Unmarshal(e.Data, v)
}
