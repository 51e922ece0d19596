package runtime

import (
	"context"
	"strings"
	"testing"

	"github.com/taskweave/go-assistant/src/cache"
	"github.com/taskweave/go-assistant/src/commit"
	"github.com/taskweave/go-assistant/src/fault"
	"github.com/taskweave/go-assistant/src/gitremote"
	"github.com/taskweave/go-assistant/src/models"
	"github.com/taskweave/go-assistant/src/project"
	"github.com/taskweave/go-assistant/src/store"
)

// fakeRemote implements RepositoryGateway and commit.Gateway against an
// in-memory file map keyed by path.
type fakeRemote struct {
	files    map[string]string
	digests  map[string]string
	branches []string
	writes   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		files:    map[string]string{},
		digests:  map[string]string{},
		branches: []string{"main"},
	}
}

func (f *fakeRemote) ListEntries(ctx context.Context, token, owner, repo, path, branch string) ([]gitremote.Entry, error) {
	entries := make([]gitremote.Entry, 0, len(f.files))
	for p := range f.files {
		entries = append(entries, gitremote.Entry{Name: p, Path: p, Digest: f.digests[p], Kind: gitremote.KindFile})
	}
	return entries, nil
}

func (f *fakeRemote) ReadFile(ctx context.Context, token, owner, repo, path, branch string) (*gitremote.FileContent, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, fault.NotFound("%s not found", path)
	}
	return &gitremote.FileContent{Content: content, Digest: f.digests[path]}, nil
}

func (f *fakeRemote) WriteFile(ctx context.Context, token, owner, repo, path, content, message, expectedDigest, branch string) (string, error) {
	if expectedDigest != f.digests[path] {
		return "", fault.Conflict("digest mismatch on %s", path)
	}
	f.writes++
	f.files[path] = content
	f.digests[path] = "d" + strings.Repeat("x", f.writes)
	return f.digests[path], nil
}

func (f *fakeRemote) ListBranches(ctx context.Context, token, owner, repo string) []string {
	return f.branches
}

func (f *fakeRemote) ListCommits(ctx context.Context, token, owner, repo, branch string, limit int) ([]gitremote.Commit, error) {
	return []gitremote.Commit{{Digest: "abc1234def", Message: "initial", AuthorName: "dev"}}, nil
}

func newTestDispatcher(t *testing.T, remote *fakeRemote) (*ToolDispatcher, *store.MemoryStore) {
	t.Helper()
	p := project.New("demo")
	p.Repositories = []string{"octo/demo"}
	st := store.NewMemoryStore()

	d := NewToolDispatcher(NewToolCatalog(), p, st, "token", nil)
	coord := commit.NewCoordinator(remote, cache.NewDigestCache(0, 0), nil)
	if err := d.RegisterBuiltins(remote, coord); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	return d, st
}

func TestExecuteProducesOneResultPerCallInOrder(t *testing.T) {
	d, _ := newTestDispatcher(t, newFakeRemote())

	calls := []models.ToolCall{
		{Name: "create_task", Arguments: map[string]any{"title": "first"}},
		{Name: "no_such_tool"},
		{Name: "list_tasks"},
	}
	results := d.Execute(context.Background(), calls)

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Succeeded || results[1].Succeeded || !results[2].Succeeded {
		t.Fatalf("success flags = %v %v %v", results[0].Succeeded, results[1].Succeeded, results[2].Succeeded)
	}
	if results[1].CallName != "no_such_tool" {
		t.Fatalf("results out of order: %+v", results)
	}
	// Call 3 ran despite call 2 failing and observed call 1's mutation.
	if !strings.Contains(results[2].OutputText, "first") {
		t.Fatalf("list_tasks did not see the new task: %q", results[2].OutputText)
	}
}

func TestExecuteLaterCallSeesEarlierMutation(t *testing.T) {
	d, _ := newTestDispatcher(t, newFakeRemote())

	results := d.Execute(context.Background(), []models.ToolCall{
		{Name: "create_task", Arguments: map[string]any{"title": "Fix login bug", "priority": "high"}},
	})
	if !results[0].Succeeded {
		t.Fatalf("create_task failed: %s", results[0].OutputText)
	}
	if len(d.Project().Tasks) != 1 {
		t.Fatalf("aggregate has %d tasks", len(d.Project().Tasks))
	}
	task := d.Project().Tasks[0]
	if task.Status != project.StatusTodo || task.Priority != project.PriorityHigh {
		t.Fatalf("task = %+v", task)
	}

	results = d.Execute(context.Background(), []models.ToolCall{
		{Name: "update_task_status", Arguments: map[string]any{"task_id": task.ID, "status": "done"}},
	})
	if !results[0].Succeeded {
		t.Fatalf("update_task_status failed: %s", results[0].OutputText)
	}
	got, _ := d.Project().TaskByID(task.ID)
	if got.Status != project.StatusDone {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestExecutePersistsSynchronously(t *testing.T) {
	d, st := newTestDispatcher(t, newFakeRemote())

	d.Execute(context.Background(), []models.ToolCall{
		{Name: "create_task", Arguments: map[string]any{"title": "persisted"}},
	})

	saved, err := st.Load(context.Background(), d.Project().ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(saved.Tasks) != 1 {
		t.Fatalf("stored aggregate has %d tasks", len(saved.Tasks))
	}
}

func TestExecuteValidatesArguments(t *testing.T) {
	d, _ := newTestDispatcher(t, newFakeRemote())

	tests := []struct {
		name string
		call models.ToolCall
		want string
	}{
		{"missing required", models.ToolCall{Name: "create_task"}, "title"},
		{"empty required", models.ToolCall{Name: "create_task", Arguments: map[string]any{"title": "  "}}, "title"},
		{"enum violation", models.ToolCall{Name: "create_task", Arguments: map[string]any{"title": "x", "priority": "urgent"}}, "priority"},
		{"wrong type", models.ToolCall{Name: "create_task", Arguments: map[string]any{"title": 42}}, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := d.Execute(context.Background(), []models.ToolCall{tt.call})
			if results[0].Succeeded {
				t.Fatalf("call succeeded: %+v", results[0])
			}
			if !strings.Contains(results[0].OutputText, tt.want) {
				t.Fatalf("output %q does not mention %q", results[0].OutputText, tt.want)
			}
			if len(d.Project().Tasks) != 0 {
				t.Fatalf("invalid call mutated the aggregate")
			}
		})
	}
}

func TestExecuteRepositoryResolution(t *testing.T) {
	d, _ := newTestDispatcher(t, newFakeRemote())

	results := d.Execute(context.Background(), []models.ToolCall{
		{Name: "list_repository_branches", Arguments: map[string]any{"repository": "ghost"}},
	})
	if results[0].Succeeded {
		t.Fatalf("unknown repository resolved: %+v", results[0])
	}

	results = d.Execute(context.Background(), []models.ToolCall{
		{Name: "list_repository_branches", Arguments: map[string]any{"repository": "demo"}},
	})
	if !results[0].Succeeded {
		t.Fatalf("bare-name resolution failed: %s", results[0].OutputText)
	}
	if results[0].OutputText != "main" {
		t.Fatalf("branches = %q", results[0].OutputText)
	}
}

func TestExecuteFailsRepoCallsWithoutCredential(t *testing.T) {
	p := project.New("demo")
	p.Repositories = []string{"octo/demo"}
	d := NewToolDispatcher(NewToolCatalog(), p, store.NewMemoryStore(), "", nil)
	remote := newFakeRemote()
	coord := commit.NewCoordinator(remote, nil, nil)
	if err := d.RegisterBuiltins(remote, coord); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}

	results := d.Execute(context.Background(), []models.ToolCall{
		{Name: "list_repository_branches", Arguments: map[string]any{"repository": "demo"}},
	})
	if results[0].Succeeded {
		t.Fatalf("repo call succeeded without a credential")
	}
	if !strings.Contains(results[0].OutputText, "credential") {
		t.Fatalf("output = %q", results[0].OutputText)
	}
}

func TestCommitToolRoundTrip(t *testing.T) {
	remote := newFakeRemote()
	remote.files["README.md"] = "v1"
	remote.digests["README.md"] = "d0"
	d, _ := newTestDispatcher(t, remote)

	results := d.Execute(context.Background(), []models.ToolCall{
		{Name: "commit_repository_file", Arguments: map[string]any{
			"repository": "octo/demo", "path": "README.md",
			"content": "v2", "message": "update readme",
		}},
		{Name: "read_repository_file", Arguments: map[string]any{
			"repository": "octo/demo", "path": "README.md",
		}},
	})
	if !results[0].Succeeded {
		t.Fatalf("commit failed: %s", results[0].OutputText)
	}
	if results[1].OutputText != "v2" {
		t.Fatalf("read after commit = %q", results[1].OutputText)
	}
}

func TestRenderResults(t *testing.T) {
	rendered := RenderResults([]ToolResult{
		{CallName: "create_task", OutputText: "created task t1", Succeeded: true},
		{CallName: "bogus", OutputText: "no tool named \"bogus\""},
	})
	want := "[create_task]: created task t1\n[bogus]: no tool named \"bogus\""
	if rendered != want {
		t.Fatalf("rendered = %q", rendered)
	}
}
