package protocol

import (
	"encoding/json"
	"fmt"
)

// Event names a message on the client event channel.
type Event string

// Inbound events.
const (
	EventJoin           Event = "join"
	EventCodeChange     Event = "codeChange"
	EventTyping         Event = "typing"
	EventLanguageChange Event = "languageChange"
	EventCompileCode    Event = "compileCode"
	EventLeaveRoom      Event = "leaveRoom"
)

// Outbound events.
const (
	EventCodeUpdate     Event = "codeUpdate"
	EventUserJoined     Event = "userJoined"
	EventUserTyping     Event = "userTyping"
	EventLanguageUpdate Event = "languageUpdate"
	EventCodeResponse   Event = "codeResponse"
)

// Frame is the wire envelope for both directions: a named event plus its
// JSON payload.
type Frame struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// DecodeFrame parses a raw websocket text message into a Frame.
func DecodeFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("decode frame: missing event")
	}
	return f, nil
}

// EncodeFrame marshals an outbound event and payload into wire bytes.
func EncodeFrame(event Event, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: payload})
}

// JoinPayload carries a join request.
type JoinPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

// CodeChangePayload carries a full replacement of the shared document.
type CodeChangePayload struct {
	RoomID string `json:"roomId"`
	Code   string `json:"code"`
}

// TypingPayload signals transient typing activity.
type TypingPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

// LanguageChangePayload switches the room's execution language.
type LanguageChangePayload struct {
	RoomID   string `json:"roomId"`
	Language string `json:"language"`
}

// CompilePayload requests a remote execution of the shared code.
type CompilePayload struct {
	RoomID   string `json:"roomId"`
	Code     string `json:"code"`
	Language string `json:"language"`
	Version  string `json:"version"`
	Input    string `json:"input"`
}
