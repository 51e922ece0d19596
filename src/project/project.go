// Package project holds the in-memory project aggregate mutated by tool
// calls. Updates are functional: every mutation returns a new copy so a
// half-applied turn can never corrupt the shared aggregate.
package project

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskweave/go-assistant/src/fault"
)

// Task statuses and priorities accepted by the mutation tools.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Statuses lists the valid task statuses in display order.
func Statuses() []string { return []string{StatusTodo, StatusInProgress, StatusDone} }

// Priorities lists the valid task priorities in display order.
func Priorities() []string { return []string{PriorityLow, PriorityMedium, PriorityHigh} }

// Task is one unit of work tracked in the project.
type Task struct {
	ID        string    `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	Status    string    `json:"status" bson:"status"`
	Priority  string    `json:"priority" bson:"priority"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Document is a free-form note attached to the project.
type Document struct {
	ID        string    `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Project is the whole aggregate. It is persisted by whole-object overwrite;
// there are no partial remote updates.
type Project struct {
	ID           string     `json:"id" bson:"_id"`
	Name         string     `json:"name" bson:"name"`
	Description  string     `json:"description" bson:"description"`
	Repositories []string   `json:"repositories" bson:"repositories"`
	Tasks        []Task     `json:"tasks" bson:"tasks"`
	Documents    []Document `json:"documents" bson:"documents"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// New creates an empty project.
func New(name string) *Project {
	return &Project{
		ID:        uuid.NewString(),
		Name:      name,
		UpdatedAt: time.Now().UTC(),
	}
}

// clone returns a deep copy. Slices are re-allocated so the original is never
// aliased by the copy.
func (p *Project) clone() *Project {
	cp := *p
	cp.Repositories = append([]string(nil), p.Repositories...)
	cp.Tasks = append([]Task(nil), p.Tasks...)
	cp.Documents = append([]Document(nil), p.Documents...)
	return &cp
}

// WithTask returns a copy of the project containing a new task and the task
// itself. Empty status and priority fall back to todo/medium.
func (p *Project) WithTask(title, status, priority string) (*Project, Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Task{}, fault.InvalidArguments("task title is empty")
	}
	if status == "" {
		status = StatusTodo
	}
	if priority == "" {
		priority = PriorityMedium
	}
	if !contains(Statuses(), status) {
		return nil, Task{}, fault.InvalidArguments("unknown task status %q", status)
	}
	if !contains(Priorities(), priority) {
		return nil, Task{}, fault.InvalidArguments("unknown task priority %q", priority)
	}

	task := Task{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    status,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
	cp := p.clone()
	cp.Tasks = append(cp.Tasks, task)
	cp.UpdatedAt = task.CreatedAt
	return cp, task, nil
}

// WithTaskStatus returns a copy of the project with the task's status changed.
func (p *Project) WithTaskStatus(taskID, status string) (*Project, error) {
	if !contains(Statuses(), status) {
		return nil, fault.InvalidArguments("unknown task status %q", status)
	}
	cp := p.clone()
	for i := range cp.Tasks {
		if cp.Tasks[i].ID == taskID {
			cp.Tasks[i].Status = status
			cp.UpdatedAt = time.Now().UTC()
			return cp, nil
		}
	}
	return nil, fault.NotFound("no task with id %s", taskID)
}

// WithDocument returns a copy of the project containing a new document.
func (p *Project) WithDocument(title, content string) (*Project, Document, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Document{}, fault.InvalidArguments("document title is empty")
	}
	doc := Document{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	cp := p.clone()
	cp.Documents = append(cp.Documents, doc)
	cp.UpdatedAt = doc.CreatedAt
	return cp, doc, nil
}

// WithDescription returns a copy of the project with a new description.
func (p *Project) WithDescription(description string) *Project {
	cp := p.clone()
	cp.Description = description
	cp.UpdatedAt = time.Now().UTC()
	return cp
}

// TaskByID looks a task up by identifier.
func (p *Project) TaskByID(id string) (Task, bool) {
	for _, task := range p.Tasks {
		if task.ID == id {
			return task, true
		}
	}
	return Task{}, false
}

// Summary renders a short human-readable listing of the project's tasks.
func (p *Project) Summary() string {
	if len(p.Tasks) == 0 {
		return "no tasks yet"
	}
	var sb strings.Builder
	for i, task := range p.Tasks {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s [%s/%s] %s", task.ID, task.Status, task.Priority, task.Title)
	}
	return sb.String()
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
