package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskweave/go-assistant/src/commit"
	"github.com/taskweave/go-assistant/src/concurrent"
	"github.com/taskweave/go-assistant/src/gitremote"
	"github.com/taskweave/go-assistant/src/models"
	"github.com/taskweave/go-assistant/src/project"
)

// RepositoryGateway is the slice of the repository client the built-in tools
// use directly. Writes go through the commit coordinator instead.
type RepositoryGateway interface {
	ListEntries(ctx context.Context, token, owner, repo, path, branch string) ([]gitremote.Entry, error)
	ReadFile(ctx context.Context, token, owner, repo, path, branch string) (*gitremote.FileContent, error)
	ListBranches(ctx context.Context, token, owner, repo string) []string
	ListCommits(ctx context.Context, token, owner, repo, branch string, limit int) ([]gitremote.Commit, error)
}

const overviewConcurrency = 4

// RegisterBuiltins installs the fixed tool set into the dispatcher's catalog:
// local project mutations, project reads, and repository operations.
func (d *ToolDispatcher) RegisterBuiltins(gateway RepositoryGateway, coordinator *commit.Coordinator) error {
	handlers := []Handler{
		{
			Declaration: models.ToolDeclaration{
				Name:        "create_task",
				Description: "Create a task in the current project.",
				Parameters: map[string]models.ParamSpec{
					"title":    {Type: "string", Description: "Task title", Required: true},
					"status":   {Type: "string", Description: "Initial status", Enum: project.Statuses()},
					"priority": {Type: "string", Description: "Task priority", Enum: project.Priorities()},
				},
			},
			Run: d.createTask,
		},
		{
			Declaration: models.ToolDeclaration{
				Name:        "update_task_status",
				Description: "Change the status of an existing task.",
				Parameters: map[string]models.ParamSpec{
					"task_id": {Type: "string", Description: "Identifier of the task", Required: true},
					"status":  {Type: "string", Description: "New status", Enum: project.Statuses(), Required: true},
				},
			},
			Run: d.updateTaskStatus,
		},
		{
			Declaration: models.ToolDeclaration{
				Name:        "create_document",
				Description: "Create a document in the current project.",
				Parameters: map[string]models.ParamSpec{
					"title":   {Type: "string", Description: "Document title", Required: true},
					"content": {Type: "string", Description: "Document body", Required: true},
				},
			},
			Run: d.createDocument,
		},
		{
			Declaration: models.ToolDeclaration{
				Name:        "update_project_description",
				Description: "Replace the project description.",
				Parameters: map[string]models.ParamSpec{
					"description": {Type: "string", Description: "New description", Required: true},
				},
			},
			Run: d.updateDescription,
		},
		{
			Declaration: models.ToolDeclaration{
				Name:        "list_tasks",
				Description: "List the project's tasks with status and priority.",
			},
			Run: d.listTasks,
		},
	}

	if gateway != nil && coordinator != nil {
		tools := &repositoryTools{gateway: gateway, coordinator: coordinator}
		handlers = append(handlers,
			Handler{
				Declaration: models.ToolDeclaration{
					Name:        "list_repository_files",
					Description: "List files and directories at a path in a linked repository.",
					Parameters:  repoParams(map[string]models.ParamSpec{"path": {Type: "string", Description: "Directory path, empty for the root"}}),
				},
				NeedsRepo: true,
				Run:       tools.listFiles,
			},
			Handler{
				Declaration: models.ToolDeclaration{
					Name:        "read_repository_file",
					Description: "Read a text file from a linked repository.",
					Parameters:  repoParams(map[string]models.ParamSpec{"path": {Type: "string", Description: "File path", Required: true}}),
				},
				NeedsRepo: true,
				Run:       tools.readFile,
			},
			Handler{
				Declaration: models.ToolDeclaration{
					Name:        "commit_repository_file",
					Description: "Commit new content to a file in a linked repository.",
					Parameters: repoParams(map[string]models.ParamSpec{
						"path":    {Type: "string", Description: "File path", Required: true},
						"content": {Type: "string", Description: "Full new file content", Required: true},
						"message": {Type: "string", Description: "Commit message", Required: true},
					}),
				},
				NeedsRepo: true,
				Run:       tools.commitFile,
			},
			Handler{
				Declaration: models.ToolDeclaration{
					Name:        "list_repository_branches",
					Description: "List the branches of a linked repository.",
					Parameters:  repoParams(nil),
				},
				NeedsRepo: true,
				Run:       tools.listBranches,
			},
			Handler{
				Declaration: models.ToolDeclaration{
					Name:        "list_repository_commits",
					Description: "List recent commits on a branch of a linked repository.",
					Parameters:  repoParams(nil),
				},
				NeedsRepo: true,
				Run:       tools.listCommits,
			},
			Handler{
				Declaration: models.ToolDeclaration{
					Name:        "repository_overview",
					Description: "Summarize a linked repository: branches and their latest commits.",
					Parameters:  repoParams(nil),
				},
				NeedsRepo: true,
				Run:       tools.overview,
			},
		)
	}

	for _, h := range handlers {
		if err := d.catalog.Register(h); err != nil {
			return err
		}
	}
	return nil
}

// repoParams merges the shared repository/branch parameters with tool-specific ones.
func repoParams(extra map[string]models.ParamSpec) map[string]models.ParamSpec {
	params := map[string]models.ParamSpec{
		"repository": {Type: "string", Description: "Repository URL, owner/name, or linked repository name", Required: true},
		"branch":     {Type: "string", Description: "Branch name, defaults to main"},
	}
	for name, spec := range extra {
		params[name] = spec
	}
	return params
}

func (d *ToolDispatcher) createTask(ctx context.Context, inv ToolInvocation) (string, error) {
	title, _ := inv.Args["title"].(string)
	status, _ := inv.Args["status"].(string)
	priority, _ := inv.Args["priority"].(string)

	updated, task, err := d.project.WithTask(title, status, priority)
	if err != nil {
		return "", err
	}
	if err := d.saveProject(ctx, updated); err != nil {
		return "", err
	}
	return fmt.Sprintf("created task %s: %q [%s/%s]", task.ID, task.Title, task.Status, task.Priority), nil
}

func (d *ToolDispatcher) updateTaskStatus(ctx context.Context, inv ToolInvocation) (string, error) {
	taskID, _ := inv.Args["task_id"].(string)
	status, _ := inv.Args["status"].(string)

	updated, err := d.project.WithTaskStatus(taskID, status)
	if err != nil {
		return "", err
	}
	if err := d.saveProject(ctx, updated); err != nil {
		return "", err
	}
	return fmt.Sprintf("task %s is now %s", taskID, status), nil
}

func (d *ToolDispatcher) createDocument(ctx context.Context, inv ToolInvocation) (string, error) {
	title, _ := inv.Args["title"].(string)
	content, _ := inv.Args["content"].(string)

	updated, doc, err := d.project.WithDocument(title, content)
	if err != nil {
		return "", err
	}
	if err := d.saveProject(ctx, updated); err != nil {
		return "", err
	}
	return fmt.Sprintf("created document %s: %q", doc.ID, doc.Title), nil
}

func (d *ToolDispatcher) updateDescription(ctx context.Context, inv ToolInvocation) (string, error) {
	description, _ := inv.Args["description"].(string)

	updated := d.project.WithDescription(description)
	if err := d.saveProject(ctx, updated); err != nil {
		return "", err
	}
	return "project description updated", nil
}

func (d *ToolDispatcher) listTasks(ctx context.Context, inv ToolInvocation) (string, error) {
	return d.project.Summary(), nil
}

// repositoryTools binds the repository handlers to the gateway and the
// commit coordinator.
type repositoryTools struct {
	gateway     RepositoryGateway
	coordinator *commit.Coordinator
}

func (t *repositoryTools) listFiles(ctx context.Context, inv ToolInvocation) (string, error) {
	path, _ := inv.Args["path"].(string)
	entries, err := t.gateway.ListEntries(ctx, inv.Token, inv.Repo.Owner, inv.Repo.Name, path, inv.Repo.Branch)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return fmt.Sprintf("no entries at %q in %s", path, inv.Repo), nil
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name
		if entry.Kind == gitremote.KindDir {
			name += "/"
		}
		lines = append(lines, name)
	}
	return strings.Join(lines, "\n"), nil
}

func (t *repositoryTools) readFile(ctx context.Context, inv ToolInvocation) (string, error) {
	path, _ := inv.Args["path"].(string)
	fc, err := t.gateway.ReadFile(ctx, inv.Token, inv.Repo.Owner, inv.Repo.Name, path, inv.Repo.Branch)
	if err != nil {
		return "", err
	}
	// Remember the digest so a commit later in the session skips its
	// read-before-write.
	t.coordinator.Observe(inv.Repo, path, fc.Digest)
	return fc.Content, nil
}

func (t *repositoryTools) commitFile(ctx context.Context, inv ToolInvocation) (string, error) {
	path, _ := inv.Args["path"].(string)
	content, _ := inv.Args["content"].(string)
	message, _ := inv.Args["message"].(string)

	digest, err := t.coordinator.Save(ctx, inv.Token, inv.Repo, path, content, message)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("committed %s to %s (digest %s)", path, inv.Repo, shortDigest(digest)), nil
}

func (t *repositoryTools) listBranches(ctx context.Context, inv ToolInvocation) (string, error) {
	branches := t.gateway.ListBranches(ctx, inv.Token, inv.Repo.Owner, inv.Repo.Name)
	return strings.Join(branches, ", "), nil
}

func (t *repositoryTools) listCommits(ctx context.Context, inv ToolInvocation) (string, error) {
	commits, err := t.gateway.ListCommits(ctx, inv.Token, inv.Repo.Owner, inv.Repo.Name, inv.Repo.Branch, 0)
	if err != nil {
		return "", err
	}
	if len(commits) == 0 {
		return fmt.Sprintf("no commits on %s", inv.Repo), nil
	}
	lines := make([]string, 0, len(commits))
	for _, c := range commits {
		lines = append(lines, fmt.Sprintf("%s %s (%s)", shortDigest(c.Digest), firstLine(c.Message), c.AuthorName))
	}
	return strings.Join(lines, "\n"), nil
}

// overview fetches the latest commit of every branch concurrently. This is a
// read-only fan-out inside a single tool call; tool calls themselves stay
// sequential.
func (t *repositoryTools) overview(ctx context.Context, inv ToolInvocation) (string, error) {
	branches := t.gateway.ListBranches(ctx, inv.Token, inv.Repo.Owner, inv.Repo.Name)

	lines, err := concurrent.ParallelMap(ctx, branches, func(branch string) (string, error) {
		commits, err := t.gateway.ListCommits(ctx, inv.Token, inv.Repo.Owner, inv.Repo.Name, branch, 1)
		if err != nil || len(commits) == 0 {
			return fmt.Sprintf("%s: no commits", branch), nil
		}
		c := commits[0]
		return fmt.Sprintf("%s: %s %s (%s)", branch, shortDigest(c.Digest), firstLine(c.Message), c.AuthorName), nil
	}, overviewConcurrency)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s\n%s", inv.Repo.Owner, inv.Repo.Name, strings.Join(lines, "\n")), nil
}

func shortDigest(digest string) string {
	if len(digest) > 7 {
		return digest[:7]
	}
	return digest
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
