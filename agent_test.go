package runtime

import (
	"context"
	"strings"
	"testing"

	"github.com/taskweave/go-assistant/src/fault"
	"github.com/taskweave/go-assistant/src/models"
	"github.com/taskweave/go-assistant/src/project"
	"github.com/taskweave/go-assistant/src/store"
)

func newTestAssistant(t *testing.T, model models.Agent) *Assistant {
	t.Helper()
	p := project.New("demo")
	d := NewToolDispatcher(NewToolCatalog(), p, store.NewMemoryStore(), "", nil)
	if err := d.RegisterBuiltins(nil, nil); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	return NewAssistant(model, d, WithModelName("test-model"))
}

func TestTurnPlainTextReply(t *testing.T) {
	model := models.NewScriptedLLM(models.ScriptedStep{Response: &models.Response{Text: "hello there"}})
	a := newTestAssistant(t, model)

	reply, err := a.Turn(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if reply != "hello there" {
		t.Fatalf("reply = %q", reply)
	}

	msgs := a.Conversation().Messages()
	if len(msgs) != 2 || msgs[0].Role != RoleUser || msgs[1].Role != RoleAgent {
		t.Fatalf("transcript = %+v", msgs)
	}
}

func TestTurnExecutesToolCallsAndRendersResults(t *testing.T) {
	model := models.NewScriptedLLM(models.ScriptedStep{Response: &models.Response{
		Text: "ignored when calls are present",
		ToolCalls: []models.ToolCall{
			{Name: "create_task", Arguments: map[string]any{"title": "Fix login bug", "priority": "high"}},
			{Name: "list_tasks"},
		},
	}})
	a := newTestAssistant(t, model)

	reply, err := a.Turn(context.Background(), "create a high-priority task called 'Fix login bug'")
	if err != nil {
		t.Fatalf("Turn: %v", err)
	}
	if !strings.HasPrefix(reply, "[create_task]: ") {
		t.Fatalf("reply = %q", reply)
	}
	if !strings.Contains(reply, "[list_tasks]: ") {
		t.Fatalf("second call missing from reply: %q", reply)
	}
	if strings.Contains(reply, "ignored when calls are present") {
		t.Fatalf("text rendered despite tool calls: %q", reply)
	}

	tasks := a.dispatcher.Project().Tasks
	if len(tasks) != 1 || tasks[0].Status != project.StatusTodo || tasks[0].Priority != project.PriorityHigh {
		t.Fatalf("aggregate tasks = %+v", tasks)
	}
}

func TestTurnSendsCatalogAndTranscript(t *testing.T) {
	model := models.NewScriptedLLM(models.ScriptedStep{Response: &models.Response{Text: "ok"}})
	a := newTestAssistant(t, model)

	if _, err := a.Turn(context.Background(), "hi"); err != nil {
		t.Fatalf("Turn: %v", err)
	}
	calls := model.Calls()
	if len(calls) != 1 {
		t.Fatalf("backend called %d times", len(calls))
	}
	req := calls[0]
	if req.Model != "test-model" {
		t.Fatalf("model = %q", req.Model)
	}
	if len(req.Tools) == 0 {
		t.Fatalf("no tool declarations sent")
	}
	if len(req.Messages) != 1 || req.Messages[0].Content != "hi" {
		t.Fatalf("messages = %+v", req.Messages)
	}
}

func TestTurnFailureLeavesUserMessageForResend(t *testing.T) {
	model := models.NewScriptedLLM(models.ScriptedStep{Err: fault.New(fault.KindUnavailable, "backend down")})
	a := newTestAssistant(t, model)

	_, err := a.Turn(context.Background(), "hi")
	if err == nil {
		t.Fatalf("Turn succeeded against a dead backend")
	}
	msgs := a.Conversation().Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleUser {
		t.Fatalf("transcript after failure = %+v", msgs)
	}
}
