package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeSyncChange MessageType = "sync-change"
	TypeAck        MessageType = "ack"
	TypePing       MessageType = "ping"
	TypePong       MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SyncChangePayload tells a client that another of the user's clients changed
// an entity. It carries only the identity of the change; the receiver pulls
// the data through a query batch.
type SyncChangePayload struct {
	InfoType  string `json:"infoType"`
	ID        string `json:"id"`
	Operation string `json:"operation"`
}

type AckPayload struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
