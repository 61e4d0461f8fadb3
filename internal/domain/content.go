package domain

import (
	"encoding/json"
	"time"
)

// Content is one revision of a thread's content blocks. Revisions are
// append-only; queries return them newest version first.
type Content struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`

	Version int64           `json:"version"`
	Blocks  json.RawMessage `json:"blocks,omitempty"`

	IsEncrypted   bool   `json:"is_encrypted"`
	EncryptedData string `json:"encrypted_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
