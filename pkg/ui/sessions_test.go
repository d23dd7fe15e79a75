package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/shellkode/kodechat/pkg/chat"
)

func userMessage(id, content string) chat.Message {
	return chat.Message{ID: id, Type: chat.MessageUser, Content: content, Timestamp: time.Now()}
}

func assistantMessage(id, content string) chat.Message {
	return chat.Message{ID: id, Type: chat.MessageAssistant, Content: content, Timestamp: time.Now()}
}

func TestRenderTranscriptGroupsIntoPairs(t *testing.T) {
	messages := []chat.Message{
		userMessage("u1", "how do goroutines work"),
		assistantMessage("a1", "they are lightweight threads"),
		userMessage("u2", "and channels"),
	}

	out := RenderTranscript(messages, 100)

	if !strings.Contains(out, "how do goroutines work") {
		t.Error("first user message missing from transcript")
	}
	if !strings.Contains(out, "lightweight threads") {
		t.Error("assistant response missing from transcript")
	}
	if !strings.Contains(out, "and channels") {
		t.Error("trailing user message missing from transcript")
	}
	// The unanswered user message renders a visible pending slot.
	if !strings.Contains(out, "No response.") {
		t.Error("unanswered user message has no pending slot")
	}
}

func TestRenderTranscriptSkipsUnpairedAssistant(t *testing.T) {
	messages := []chat.Message{
		assistantMessage("a0", "orphaned greeting"),
		userMessage("u1", "real question"),
		assistantMessage("a1", "real answer"),
	}

	out := RenderTranscript(messages, 100)

	if strings.Contains(out, "orphaned greeting") {
		t.Error("assistant message without a preceding user message should not render")
	}
	if !strings.Contains(out, "real question") || !strings.Contains(out, "real answer") {
		t.Error("paired turn missing from transcript")
	}
}
