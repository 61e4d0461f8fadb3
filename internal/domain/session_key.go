package domain

import "time"

// SessionKeyRecord stores key material for the login handshake and for the
// envelope codec. During the handshake OwnerID is the one-time state token
// and KeyMaterial the RSA private key; after login OwnerID is the userId and
// KeyMaterial the symmetric client key. Exactly one live record exists per
// owner; a new handshake overwrites the previous record.
type SessionKeyRecord struct {
	OwnerID     string    `json:"owner_id"`
	KeyMaterial string    `json:"key_material"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (r *SessionKeyRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// VerificationCode is a short-lived, single-use login code. Issuing and
// delivering the code (email/SMS) happens outside this service.
type VerificationCode struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	Consumed  bool      `json:"consumed"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
