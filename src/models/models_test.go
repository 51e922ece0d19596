package models

import (
	"context"
	"testing"
)

func TestNewDummyLLMDefaultPrefix(t *testing.T) {
	llm := NewDummyLLM("")
	resp, err := llm.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "line1"}, {Role: RoleUser, Content: "line2"}},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Text != "Dummy response: line2" {
		t.Fatalf("unexpected response: %q", resp.Text)
	}
}

func TestNewLLMProviderErrorsOnUnknownProvider(t *testing.T) {
	if _, err := NewLLMProvider(context.Background(), "unknown", "model"); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestDummyLLMHandlesEmptyConversation(t *testing.T) {
	llm := NewDummyLLM("Prefix")
	resp, err := llm.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "   "}},
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Text != "Prefix <empty prompt>" {
		t.Fatalf("unexpected response: %q", resp.Text)
	}
}

func TestScriptedLLMReplaysSteps(t *testing.T) {
	llm := NewScriptedLLM(
		ScriptedStep{Response: &Response{Text: "first"}},
		ScriptedStep{Response: &Response{ToolCalls: []ToolCall{{Name: "create_task"}}}},
	)

	resp, err := llm.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("step 1 error: %v", err)
	}
	if resp.Text != "first" {
		t.Fatalf("step 1 = %q, want %q", resp.Text, "first")
	}

	resp, err = llm.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("step 2 error: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "create_task" {
		t.Fatalf("step 2 tool calls = %+v", resp.ToolCalls)
	}

	if _, err := llm.Generate(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error once the script is exhausted")
	}
	if got := len(llm.Calls()); got != 3 {
		t.Fatalf("recorded calls = %d, want 3", got)
	}
}

func TestRequiredParamsStableOrder(t *testing.T) {
	decl := ToolDeclaration{
		Name: "create_task",
		Parameters: map[string]ParamSpec{
			"title":    {Type: "string", Required: true},
			"priority": {Type: "string", Enum: []string{"low", "medium", "high"}},
			"assignee": {Type: "string", Required: true},
		},
	}
	got := decl.RequiredParams()
	if len(got) != 2 || got[0] != "assignee" || got[1] != "title" {
		t.Fatalf("RequiredParams = %v", got)
	}
}
