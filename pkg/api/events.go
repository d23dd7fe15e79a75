package api

import (
	"encoding/json"

	"github.com/shellkode/kodechat/pkg/chat"
)

// Event is one record of the streaming protocol. The set of variants is
// closed; records with an unrecognized type parse to nil and are ignored
// rather than failing the stream.
type Event interface {
	isStreamEvent()
}

// StartEvent acknowledges the request and carries the id used to cancel
// it mid-flight.
type StartEvent struct {
	MessageID string
	RequestID string
}

// ContentEvent carries one text fragment to append to the accumulator.
type ContentEvent struct {
	Content string
}

// CodeBlockEvent carries a structured code fragment the backend split
// out of the response text.
type CodeBlockEvent struct {
	Language string
	Content  string
}

// ModeSuggestionEvent forwards the backend's mode-switch hint. It never
// mutates session state.
type ModeSuggestionEvent struct {
	Suggestion chat.ModeSuggestion
}

// EndEvent finalizes the assistant message; no further records follow.
type EndEvent struct {
	MessageID string
}

// ErrorEvent signals an application-level failure; terminal.
type ErrorEvent struct {
	Message string
}

// StoppedEvent acknowledges a client-initiated cancel; terminal.
type StoppedEvent struct {
	Message string
}

// DoneEvent ends the read loop. Pure signal, no state mutation.
type DoneEvent struct{}

func (StartEvent) isStreamEvent()          {}
func (ContentEvent) isStreamEvent()        {}
func (CodeBlockEvent) isStreamEvent()      {}
func (ModeSuggestionEvent) isStreamEvent() {}
func (EndEvent) isStreamEvent()            {}
func (ErrorEvent) isStreamEvent()          {}
func (StoppedEvent) isStreamEvent()        {}
func (DoneEvent) isStreamEvent()           {}

// wireEvent is the superset of fields the backend emits across all
// record types, discriminated by Type.
type wireEvent struct {
	Type      string               `json:"type"`
	MessageID string               `json:"message_id"`
	RequestID string               `json:"request_id"`
	Content   string               `json:"content"`
	Language  string               `json:"language"`
	Error     string               `json:"error"`
	Message   string               `json:"message"`
	Data      *chat.ModeSuggestion `json:"data"`
}

// ParseEvent decodes one `data: ` payload into its typed variant. A
// malformed payload returns an error (the caller skips the record); an
// unknown type returns (nil, nil) and is ignored.
func ParseEvent(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	switch wire.Type {
	case "start":
		return StartEvent{MessageID: wire.MessageID, RequestID: wire.RequestID}, nil
	case "content":
		return ContentEvent{Content: wire.Content}, nil
	case "code_block":
		return CodeBlockEvent{Language: wire.Language, Content: wire.Content}, nil
	case "mode_suggestion":
		if wire.Data == nil {
			return nil, nil
		}
		return ModeSuggestionEvent{Suggestion: *wire.Data}, nil
	case "end":
		return EndEvent{MessageID: wire.MessageID}, nil
	case "error":
		return ErrorEvent{Message: wire.Error}, nil
	case "stopped":
		return StoppedEvent{Message: wire.Message}, nil
	case "done":
		return DoneEvent{}, nil
	default:
		return nil, nil
	}
}
