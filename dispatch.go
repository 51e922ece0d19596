package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taskweave/go-assistant/src/fault"
	"github.com/taskweave/go-assistant/src/models"
	"github.com/taskweave/go-assistant/src/project"
	"github.com/taskweave/go-assistant/src/store"
)

// ToolResult is the outcome of one tool call. Exactly one result exists for
// every call, in the order the calls were supplied.
type ToolResult struct {
	CallName   string
	OutputText string
	Succeeded  bool
}

// ToolDispatcher executes the tool calls of one agent turn. Execution is
// strictly sequential because later calls may reference identifiers created
// by earlier calls in the same turn; no call starts before the previous
// call's result is recorded.
type ToolDispatcher struct {
	catalog *ToolCatalog
	project *project.Project
	store   store.ProjectStore
	token   string
	logger  *slog.Logger
}

func NewToolDispatcher(catalog *ToolCatalog, p *project.Project, st store.ProjectStore, token string, logger *slog.Logger) *ToolDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ToolDispatcher{
		catalog: catalog,
		project: p,
		store:   st,
		token:   token,
		logger:  logger,
	}
}

// Project returns the current aggregate.
func (d *ToolDispatcher) Project() *project.Project {
	return d.project
}

// Execute runs every call in order and returns one result per call. A
// failing call never aborts its siblings; its failure becomes that call's
// result and processing continues.
func (d *ToolDispatcher) Execute(ctx context.Context, calls []models.ToolCall) []ToolResult {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		result := d.executeOne(ctx, call)
		if !result.Succeeded {
			d.logger.Warn("tool call failed", "tool", call.Name, "output", result.OutputText)
		}
		results = append(results, result)
	}
	return results
}

func (d *ToolDispatcher) executeOne(ctx context.Context, call models.ToolCall) ToolResult {
	handler, ok := d.catalog.Lookup(call.Name)
	if !ok {
		return failure(call.Name, fault.UnknownTool("no tool named %q", call.Name))
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(handler.Declaration, args); err != nil {
		return failure(call.Name, err)
	}

	inv := ToolInvocation{Args: args}
	if handler.NeedsRepo {
		ref, token, err := d.resolveRepository(args)
		if err != nil {
			return failure(call.Name, err)
		}
		inv.Repo = ref
		inv.Token = token
	}

	output, err := handler.Run(ctx, inv)
	if err != nil {
		return failure(call.Name, err)
	}
	return ToolResult{CallName: call.Name, OutputText: output, Succeeded: true}
}

// resolveRepository turns the call's repository argument into a concrete
// reference and pairs it with the session credential. Both are resolved once
// per invocation and reused for every gateway call the handler makes.
func (d *ToolDispatcher) resolveRepository(args map[string]any) (project.RepositoryRef, string, error) {
	input, _ := args["repository"].(string)
	ref, err := project.ResolveRepository(input, d.project.Repositories)
	if err != nil {
		return project.RepositoryRef{}, "", err
	}
	if branch, ok := args["branch"].(string); ok && strings.TrimSpace(branch) != "" {
		ref.Branch = strings.TrimSpace(branch)
	}
	if strings.TrimSpace(d.token) == "" {
		return project.RepositoryRef{}, "", fault.AuthMissing("no repository credential is configured for this session")
	}
	return ref, d.token, nil
}

// saveProject swaps in the updated aggregate and persists it before the next
// call runs, so a later call in the same turn observes the mutation and a
// crash loses at most the call in flight.
func (d *ToolDispatcher) saveProject(ctx context.Context, updated *project.Project) error {
	if err := d.store.Save(ctx, updated); err != nil {
		return fmt.Errorf("persist project: %w", err)
	}
	d.project = updated
	return nil
}

func failure(name string, err error) ToolResult {
	return ToolResult{CallName: name, OutputText: err.Error(), Succeeded: false}
}

// validateArgs checks the untrusted arguments against the declaration:
// required fields must be present and non-empty, enumerated parameters must
// use a declared value, and value types must match the declared type.
func validateArgs(decl models.ToolDeclaration, args map[string]any) error {
	for _, name := range decl.RequiredParams() {
		value, ok := args[name]
		if !ok || value == nil {
			return fault.InvalidArguments("%s: missing required argument %q", decl.Name, name)
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			return fault.InvalidArguments("%s: required argument %q is empty", decl.Name, name)
		}
	}
	for name, spec := range decl.Parameters {
		value, ok := args[name]
		if !ok || value == nil {
			continue
		}
		if err := checkType(decl.Name, name, spec, value); err != nil {
			return err
		}
		if len(spec.Enum) > 0 {
			s, _ := value.(string)
			if !containsFold(spec.Enum, s) {
				return fault.InvalidArguments("%s: argument %q must be one of %s, got %q",
					decl.Name, name, strings.Join(spec.Enum, ", "), s)
			}
		}
	}
	return nil
}

func checkType(tool, param string, spec models.ParamSpec, value any) error {
	var ok bool
	switch spec.Type {
	case "string", "":
		_, ok = value.(string)
	case "number", "integer":
		switch value.(type) {
		case float64, float32, int, int32, int64:
			ok = true
		}
	case "boolean":
		_, ok = value.(bool)
	default:
		ok = true
	}
	if !ok {
		return fault.InvalidArguments("%s: argument %q must be a %s", tool, param, spec.Type)
	}
	return nil
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// RenderResults concatenates the per-call outputs into the single aggregated
// message appended to the conversation, preserving call order.
func RenderResults(results []ToolResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("[%s]: %s", r.CallName, r.OutputText))
	}
	return strings.Join(lines, "\n")
}
