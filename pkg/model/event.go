package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outbound event names pushed to connections.
const (
	EventStatusChanged   = "user-status-changed"
	EventNewNotification = "new-notification"
	EventNewMessage      = "new-message"
	EventMessagesRead    = "messages-read"
	EventUserTyping      = "user-typing"
	EventLocationUpdate  = "location-update"
)

// Inbound event names received from connections.
const (
	EventJoinRoom  = "join-room"
	EventLeaveRoom = "leave-room"
	EventTyping    = "typing"
	EventMarkRead  = "mark-messages-read"
)

// Envelope is the wire framing for every event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeEvent frames a payload for the wire.
func EncodeEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// InboundEvent is the closed set of events a connection may send. Decoding an
// unknown event name is an error, never a silent drop.
type InboundEvent interface {
	inbound()
}

type JoinRoom struct {
	Room string `json:"room"`
}

type LeaveRoom struct {
	Room string `json:"room"`
}

type Typing struct {
	ConversationID string `json:"conversation_id"`
	RecipientID    string `json:"recipient_id"`
	IsTyping       bool   `json:"is_typing"`
}

type MarkMessagesRead struct {
	ConversationID string `json:"conversation_id"`
	RecipientID    string `json:"recipient_id"`
}

func (JoinRoom) inbound()         {}
func (LeaveRoom) inbound()        {}
func (Typing) inbound()           {}
func (MarkMessagesRead) inbound() {}

// DecodeInbound parses a wire frame into its typed variant.
func DecodeInbound(raw []byte) (InboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var (
		evt InboundEvent
		err error
	)
	switch env.Event {
	case EventJoinRoom:
		var e JoinRoom
		err = json.Unmarshal(env.Data, &e)
		evt = e
	case EventLeaveRoom:
		var e LeaveRoom
		err = json.Unmarshal(env.Data, &e)
		evt = e
	case EventTyping:
		var e Typing
		err = json.Unmarshal(env.Data, &e)
		evt = e
	case EventMarkRead:
		var e MarkMessagesRead
		err = json.Unmarshal(env.Data, &e)
		evt = e
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Event, err)
	}
	return evt, nil
}

// StatusChange is broadcast on the presence channel when a user's online
// state commits.
type StatusChange struct {
	UserID   string     `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// UserTyping is the outbound counterpart of Typing.
type UserTyping struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

// MessagesRead tells the original sender their messages were read.
type MessagesRead struct {
	ConversationID string `json:"conversation_id"`
}
