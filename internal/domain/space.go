package domain

import "time"

type SpaceStatus string

const (
	SpaceStatusOK      SpaceStatus = "OK"
	SpaceStatusDeleted SpaceStatus = "DELETED"
)

// Space is a workspace. Every thread belongs to exactly one space; each user
// gets a personal space on registration.
type Space struct {
	ID        string      `json:"id"`
	OwnerID   string      `json:"owner_id"`
	Name      string      `json:"name"`
	IsDefault bool        `json:"is_default"`
	Status    SpaceStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type MemberStatus string

const (
	MemberStatusOK          MemberStatus = "OK"
	MemberStatusLeft        MemberStatus = "LEFT"
	MemberStatusDeactivated MemberStatus = "DEACTIVATED"
	MemberStatusDeleted     MemberStatus = "DELETED"
)

// Member links a user to a space. The first OK membership supplies the
// default space when an atom's payload omits one.
type Member struct {
	ID        string       `json:"id"`
	SpaceID   string       `json:"space_id"`
	UserID    string       `json:"user_id"`
	Status    MemberStatus `json:"status"`
	Name      string       `json:"name,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
