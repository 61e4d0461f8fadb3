package domain

import (
	"encoding/json"
	"time"
)

type ThreadStatus string

const (
	ThreadStatusActive   ThreadStatus = "active"
	ThreadStatusArchived ThreadStatus = "archived"
	ThreadStatusDeleted  ThreadStatus = "deleted"
)

// OState mirrors the client-side operation state of an entity. User deletes
// flip it to DELETED; rows are never removed.
type OState string

const (
	OStateOK      OState = "OK"
	OStateDeleted OState = "DELETED"
)

// ViewType selects which slice of a user's threads a list query returns.
type ViewType string

const (
	ViewActive   ViewType = "active"
	ViewArchived ViewType = "archived"
	ViewTrash    ViewType = "trash"
)

type Thread struct {
	ID      string `json:"id"`
	FirstID string `json:"first_id,omitempty"`
	UserID  string `json:"user_id"`
	SpaceID string `json:"space_id,omitempty"`

	Title       string          `json:"title"`
	Description string          `json:"description"`
	ThusDesc    json.RawMessage `json:"thus_desc,omitempty"`
	Images      json.RawMessage `json:"images,omitempty"`
	Files       json.RawMessage `json:"files,omitempty"`

	Tags        []string        `json:"tags,omitempty"`
	TagIDs      []string        `json:"tag_ids,omitempty"`
	TagSearched []string        `json:"tag_searched,omitempty"`
	StateID     *string         `json:"state_id,omitempty"`
	EmojiData   json.RawMessage `json:"emoji_data,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`

	Status ThreadStatus `json:"status"`
	OState OState       `json:"o_state"`

	CreatedStamp  int64 `json:"created_stamp"`
	EditedStamp   int64 `json:"edited_stamp"`
	RemovedStamp  int64 `json:"removed_stamp,omitempty"`
	CalendarStamp int64 `json:"calendar_stamp,omitempty"`
	RemindStamp   int64 `json:"remind_stamp,omitempty"`
	WhenStamp     int64 `json:"when_stamp,omitempty"`
	PinStamp      int64 `json:"pin_stamp,omitempty"`
	StateStamp    int64 `json:"state_stamp,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ThreadPayload is the mutation payload carried by thread-* atoms. Pointer
// fields distinguish "absent" from "set to zero" so edits stay partial.
type ThreadPayload struct {
	ID      string `json:"id,omitempty"`
	FirstID string `json:"first_id,omitempty"`
	SpaceID string `json:"spaceId,omitempty"`

	Title       *string         `json:"title,omitempty"`
	Description *string         `json:"description,omitempty"`
	ThusDesc    json.RawMessage `json:"thusDesc,omitempty"`
	Images      json.RawMessage `json:"images,omitempty"`
	Files       json.RawMessage `json:"files,omitempty"`

	Tags        []string        `json:"tags,omitempty"`
	TagIDs      []string        `json:"tagIds,omitempty"`
	TagSearched []string        `json:"tagSearched,omitempty"`
	StateID     *string         `json:"stateId,omitempty"`
	EmojiData   json.RawMessage `json:"emojiData,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`

	OState *OState `json:"oState,omitempty"`

	CreatedStamp  *int64 `json:"createdStamp,omitempty"`
	EditedStamp   *int64 `json:"editedStamp,omitempty"`
	RemovedStamp  *int64 `json:"removedStamp,omitempty"`
	CalendarStamp *int64 `json:"calendarStamp,omitempty"`
	RemindStamp   *int64 `json:"remindStamp,omitempty"`
	WhenStamp     *int64 `json:"whenStamp,omitempty"`
	PinStamp      *int64 `json:"pinStamp,omitempty"`
	StateStamp    *int64 `json:"stateStamp,omitempty"`
}

// ThreadFilter narrows a thread list query. Limit/Skip default to 20/0 at the
// service layer.
type ThreadFilter struct {
	SpaceID  string
	ViewType ViewType
	Limit    int
	Skip     int
}

// ThreadParcel is the wire-format wrapper thread_list projects each stored
// thread into for client consumption.
type ThreadParcel struct {
	ID         string        `json:"id"`
	Status     string        `json:"status"`
	ParcelType string        `json:"parcelType"`
	Content    ParcelContent `json:"content"`
}

type ParcelAuthor struct {
	SpaceID string `json:"space_id"`
	UserID  string `json:"user_id"`
}

type ParcelContent struct {
	ID      string       `json:"_id"`
	FirstID string       `json:"first_id"`
	IsMine  bool         `json:"isMine"`
	Author  ParcelAuthor `json:"author"`

	SpaceID      string `json:"spaceId"`
	SpaceType    string `json:"spaceType"`
	InfoType     string `json:"infoType"`
	OState       OState `json:"oState"`
	VisScope     string `json:"visScope"`
	StorageState string `json:"storageState"`

	Title    string          `json:"title"`
	ThusDesc json.RawMessage `json:"thusDesc"`
	Images   json.RawMessage `json:"images"`
	Files    json.RawMessage `json:"files"`

	CalendarStamp int64 `json:"calendarStamp"`
	RemindStamp   int64 `json:"remindStamp"`
	WhenStamp     int64 `json:"whenStamp"`
	PinStamp      int64 `json:"pinStamp"`
	CreatedStamp  int64 `json:"createdStamp"`
	EditedStamp   int64 `json:"editedStamp"`
	RemovedStamp  int64 `json:"removedStamp"`

	TagIDs      []string        `json:"tagIds"`
	TagSearched []string        `json:"tagSearched"`
	StateID     *string         `json:"stateId"`
	StateStamp  int64           `json:"stateStamp"`
	EmojiData   json.RawMessage `json:"emojiData"`
	Config      json.RawMessage `json:"config"`

	SearchTitle string `json:"search_title"`
	SearchOther string `json:"search_other"`
}
