package runtime

import (
	"testing"

	"github.com/taskweave/go-assistant/src/models"
)

func TestConversationAppendPreservesOrder(t *testing.T) {
	conv := NewConversation()
	conv.Append(RoleUser, "hello")
	conv.Append(RoleAgent, "hi")
	conv.Append(RoleUser, "do a thing")

	msgs := conv.Messages()
	if len(msgs) != 3 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[0].Content != "hello" || msgs[2].Content != "do a thing" {
		t.Fatalf("messages reordered: %+v", msgs)
	}
}

func TestPruneStatusKeepsOtherMessages(t *testing.T) {
	conv := NewConversation()
	conv.Append(RoleUser, "hello")
	conv.Append(RoleStatus, "server is busy")
	conv.Append(RoleAgent, "hi")

	conv.PruneStatus()

	msgs := conv.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages after prune", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAgent {
		t.Fatalf("prune reordered messages: %+v", msgs)
	}
	if conv.HasStatus() {
		t.Fatalf("status still present")
	}
}

func TestModelMessagesSkipStatusAndMapRoles(t *testing.T) {
	conv := NewConversation()
	conv.Append(RoleUser, "hello")
	conv.Append(RoleStatus, "waiting")
	conv.Append(RoleAgent, "hi")

	msgs := conv.ModelMessages()
	if len(msgs) != 2 {
		t.Fatalf("got %d model messages", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[1].Role != models.RoleAssistant {
		t.Fatalf("roles = %v, %v", msgs[0].Role, msgs[1].Role)
	}
}
