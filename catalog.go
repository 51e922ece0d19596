package runtime

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/taskweave/go-assistant/src/models"
	"github.com/taskweave/go-assistant/src/project"
)

// ToolInvocation carries everything one handler execution needs. Repo and
// Token are populated only for handlers that declare NeedsRepo; the
// credential is resolved per invocation and threaded through explicitly,
// never read from ambient process state.
type ToolInvocation struct {
	Args  map[string]any
	Repo  project.RepositoryRef
	Token string
}

// HandlerFunc executes one validated tool call and returns its output text.
type HandlerFunc func(ctx context.Context, inv ToolInvocation) (string, error)

// Handler binds a tool declaration to its typed execution function. Lookup
// failure is a first-class UnknownTool result, never a fallthrough string.
type Handler struct {
	Declaration models.ToolDeclaration
	NeedsRepo   bool
	Run         HandlerFunc
}

// ToolCatalog is the fixed set of operations exposed to the reasoning
// backend, declared once per session.
type ToolCatalog struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	order    []string
}

func NewToolCatalog() *ToolCatalog {
	return &ToolCatalog{handlers: make(map[string]Handler)}
}

// Register adds a handler using a lower-cased key. Duplicate names return an error.
func (c *ToolCatalog) Register(h Handler) error {
	key := strings.ToLower(strings.TrimSpace(h.Declaration.Name))
	if key == "" {
		return fmt.Errorf("tool name is empty")
	}
	if h.Run == nil {
		return fmt.Errorf("tool %s has no execution function", h.Declaration.Name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.handlers[key]; exists {
		return fmt.Errorf("tool %s already registered", h.Declaration.Name)
	}
	c.handlers[key] = h
	c.order = append(c.order, key)
	return nil
}

// Lookup returns the handler for a tool name, if present.
func (c *ToolCatalog) Lookup(name string) (Handler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handlers[strings.ToLower(strings.TrimSpace(name))]
	return h, ok
}

// Declarations returns the tool declarations in registration order.
func (c *ToolCatalog) Declarations() []models.ToolDeclaration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	decls := make([]models.ToolDeclaration, 0, len(c.order))
	for _, key := range c.order {
		decls = append(decls, c.handlers[key].Declaration)
	}
	return decls
}
