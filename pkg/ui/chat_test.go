package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shellkode/kodechat/pkg/chat"
)

func newTestChatModel(t *testing.T) (chatModel, *chat.State, string) {
	t.Helper()
	state := chat.NewState()
	sess := chat.NewSession(chat.ModeResearch, time.Now())
	state.CreateSession(sess)
	state.SelectSession(sess.ID)
	controller := chat.NewController(state, nil, nil, chat.ModeResearch, zerolog.Nop())
	return newChatModel(controller, chat.ModeResearch), state, sess.ID
}

func TestRefreshRendersPairedTranscript(t *testing.T) {
	m, state, sessionID := newTestChatModel(t)
	state.AppendMessage(sessionID, userMessage("u1", "explain contexts"))
	state.AppendMessage(sessionID, assistantMessage("a1", "contexts carry deadlines"))
	state.AppendMessage(sessionID, userMessage("u2", "show an example"))

	m.refresh()
	out := m.view.View()

	if !strings.Contains(out, "explain contexts") || !strings.Contains(out, "contexts carry deadlines") {
		t.Error("answered pair missing from view")
	}
	if !strings.Contains(out, "No response.") {
		t.Error("unanswered user message has no pending slot")
	}
}

func TestRefreshShowsThinkingSlotWhileStreaming(t *testing.T) {
	m, state, sessionID := newTestChatModel(t)
	state.AppendMessage(sessionID, userMessage("u1", "first question"))
	m.streaming = true

	m.refresh()
	out := m.view.View()

	if !strings.Contains(out, "Thinking...") {
		t.Error("streaming with no placeholder yet should show the thinking slot")
	}
}
