package project

import (
	"testing"

	"github.com/taskweave/go-assistant/src/fault"
)

func TestWithTaskDefaultsAndImmutability(t *testing.T) {
	p := New("demo")
	updated, task, err := p.WithTask("Fix login bug", "", "high")
	if err != nil {
		t.Fatalf("WithTask returned error: %v", err)
	}
	if task.Status != StatusTodo {
		t.Fatalf("status = %q, want %q", task.Status, StatusTodo)
	}
	if task.Priority != PriorityHigh {
		t.Fatalf("priority = %q, want %q", task.Priority, PriorityHigh)
	}
	if task.ID == "" {
		t.Fatalf("task has no id")
	}
	if len(p.Tasks) != 0 {
		t.Fatalf("original aggregate was mutated: %d tasks", len(p.Tasks))
	}
	if len(updated.Tasks) != 1 {
		t.Fatalf("updated aggregate has %d tasks, want 1", len(updated.Tasks))
	}
}

func TestWithTaskRejectsBadValues(t *testing.T) {
	p := New("demo")
	if _, _, err := p.WithTask("", "", ""); !fault.Is(err, fault.KindInvalidArguments) {
		t.Fatalf("empty title: err = %v", err)
	}
	if _, _, err := p.WithTask("x", "bogus", ""); !fault.Is(err, fault.KindInvalidArguments) {
		t.Fatalf("bad status: err = %v", err)
	}
	if _, _, err := p.WithTask("x", "", "urgent"); !fault.Is(err, fault.KindInvalidArguments) {
		t.Fatalf("bad priority: err = %v", err)
	}
}

func TestWithTaskStatus(t *testing.T) {
	p := New("demo")
	p, task, err := p.WithTask("Ship it", "", "")
	if err != nil {
		t.Fatalf("WithTask: %v", err)
	}

	updated, err := p.WithTaskStatus(task.ID, StatusDone)
	if err != nil {
		t.Fatalf("WithTaskStatus: %v", err)
	}
	got, ok := updated.TaskByID(task.ID)
	if !ok || got.Status != StatusDone {
		t.Fatalf("task after update = %+v", got)
	}
	// Original copy keeps the old status.
	old, _ := p.TaskByID(task.ID)
	if old.Status != StatusTodo {
		t.Fatalf("original task mutated: %+v", old)
	}

	if _, err := p.WithTaskStatus("missing", StatusDone); !fault.Is(err, fault.KindNotFound) {
		t.Fatalf("missing task: err = %v", err)
	}
}

func TestWithDocumentAndDescription(t *testing.T) {
	p := New("demo")
	updated, doc, err := p.WithDocument("Notes", "hello")
	if err != nil {
		t.Fatalf("WithDocument: %v", err)
	}
	if doc.ID == "" || len(updated.Documents) != 1 {
		t.Fatalf("document not recorded: %+v", updated.Documents)
	}

	described := updated.WithDescription("a test project")
	if described.Description != "a test project" {
		t.Fatalf("description = %q", described.Description)
	}
	if updated.Description != "" {
		t.Fatalf("original description mutated")
	}
}
