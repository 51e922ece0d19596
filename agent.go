// Package runtime orchestrates agent turns: it sends the conversation and
// the tool catalog to a reasoning backend, executes whatever tool calls come
// back in strict order, and appends the aggregated result to the transcript.
package runtime

import (
	"context"
	"log/slog"

	"github.com/taskweave/go-assistant/src/models"
)

const defaultSystemPrompt = "You are a project assistant. Use the available tools to manage tasks, documents, and linked repositories. Answer concisely."

// Assistant ties one conversation to a reasoning backend and a tool
// dispatcher for the lifetime of a session.
type Assistant struct {
	modelName    string
	systemPrompt string
	invoker      *RetryingInvoker
	dispatcher   *ToolDispatcher
	conversation *Conversation
	logger       *slog.Logger
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

// WithSystemPrompt overrides the default system instruction.
func WithSystemPrompt(prompt string) AssistantOption {
	return func(a *Assistant) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

// WithModelName pins the backend model identifier sent on every request.
func WithModelName(name string) AssistantOption {
	return func(a *Assistant) {
		a.modelName = name
	}
}

// WithLogger sets the logger shared with the invoker.
func WithLogger(logger *slog.Logger) AssistantOption {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// NewAssistant wires a backend and a dispatcher into a fresh session.
func NewAssistant(model models.Agent, dispatcher *ToolDispatcher, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		systemPrompt: defaultSystemPrompt,
		dispatcher:   dispatcher,
		conversation: NewConversation(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.invoker = NewRetryingInvoker(model, a.conversation, a.logger)
	return a
}

// Invoker exposes the retry machine, mainly so callers can tune its policy.
func (a *Assistant) Invoker() *RetryingInvoker {
	return a.invoker
}

// Conversation exposes the session transcript.
func (a *Assistant) Conversation() *Conversation {
	return a.conversation
}

// Turn runs one full cycle: append the user's message, invoke the backend,
// execute any returned tool calls in order, and append the reply. A backend
// failure aborts the turn but leaves the user's message in the transcript so
// it can be resent.
func (a *Assistant) Turn(ctx context.Context, userInput string) (string, error) {
	a.conversation.Append(RoleUser, userInput)

	req := models.Request{
		Model:    a.modelName,
		System:   a.systemPrompt,
		Messages: a.conversation.ModelMessages(),
		Tools:    a.dispatcher.catalog.Declarations(),
	}

	resp, err := a.invoker.Invoke(ctx, req)
	if err != nil {
		return "", err
	}

	// A non-empty tool-call list takes precedence over accompanying text.
	var reply string
	if len(resp.ToolCalls) > 0 {
		results := a.dispatcher.Execute(ctx, resp.ToolCalls)
		reply = RenderResults(results)
	} else {
		reply = resp.Text
	}

	a.conversation.Append(RoleAgent, reply)
	return reply, nil
}
