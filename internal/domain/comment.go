package domain

import "time"

type CommentStatus string

const (
	CommentStatusActive  CommentStatus = "active"
	CommentStatusDeleted CommentStatus = "deleted"
)

type Comment struct {
	ID       string  `json:"id"`
	FirstID  string  `json:"first_id,omitempty"`
	UserID   string  `json:"user_id"`
	ThreadID string  `json:"thread_id"`
	ParentID *string `json:"parent_id,omitempty"`

	Content string        `json:"content"`
	Status  CommentStatus `json:"status"`

	CreatedStamp int64 `json:"created_stamp,omitempty"`
	RemovedStamp int64 `json:"removed_stamp,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentPayload is the mutation payload carried by comment-* atoms.
// ThreadID may reference either a server id or the first_id of a thread
// created earlier in the same batch.
type CommentPayload struct {
	ID       string  `json:"id,omitempty"`
	FirstID  string  `json:"first_id,omitempty"`
	ThreadID string  `json:"threadId,omitempty"`
	ParentID *string `json:"parentId,omitempty"`

	Content *string `json:"content,omitempty"`

	CreatedStamp *int64 `json:"createdStamp,omitempty"`
	RemovedStamp *int64 `json:"removedStamp,omitempty"`
}
