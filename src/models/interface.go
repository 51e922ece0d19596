package models

import (
	"context"
	"sort"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation sent to the reasoning backend.
type Message struct {
	Role    Role
	Content string
}

// ParamSpec describes a single tool parameter.
type ParamSpec struct {
	Type        string
	Description string
	Enum        []string
	Required    bool
}

// ToolDeclaration describes one invocable operation exposed to the backend.
// Declarations are immutable and defined once per session.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  map[string]ParamSpec
}

// ToolCall is a structured invocation selected by the backend. Arguments are
// untrusted and must be validated against the declaration before execution.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// Request carries one backend invocation: the conversation so far plus the
// fixed tool catalog.
type Request struct {
	Model    string
	System   string
	Messages []Message
	Tools    []ToolDeclaration
}

// Response is either free text or an ordered list of tool calls. A non-empty
// ToolCalls list takes precedence over any accompanying text.
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Agent is a reasoning backend capable of answering with text or tool calls.
type Agent interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// RequiredParams returns the names of required parameters in a stable order.
func (d ToolDeclaration) RequiredParams() []string {
	var required []string
	for name, spec := range d.Parameters {
		if spec.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	return required
}
