package domain

// HandshakeInitResponse is returned by POST /auth/init: the server-side half
// of the key exchange. The client encrypts its symmetric key (and its email)
// with PublicKey and sends both back together with State.
type HandshakeInitResponse struct {
	State     string `json:"state"`
	PublicKey string `json:"publicKey"`
}

type EmailCodeRequest struct {
	EncEmail string `json:"enc_email" validate:"required"`
	State    string `json:"state" validate:"required"`
}

type EmailLoginRequest struct {
	EncEmail     string `json:"enc_email" validate:"required"`
	EmailCode    string `json:"email_code" validate:"required"`
	State        string `json:"state" validate:"required"`
	EncClientKey string `json:"enc_client_key,omitempty"`
}
