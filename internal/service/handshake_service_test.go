package service

import (
	"encoding/base64"
	"testing"
	"time"

	"thus-sync-server/internal/domain"
	"thus-sync-server/pkg/cryptox"
)

type handshakeFixture struct {
	service  *HandshakeService
	userRepo *mockUserRepository
	keyRepo  *mockSessionKeyRepository
	codeRepo *mockVerificationCodeRepository
	sentCode string
}

func newHandshakeFixture(t *testing.T, stateTTL time.Duration) *handshakeFixture {
	t.Helper()

	userRepo := newMockUserRepository()
	keyRepo := newMockSessionKeyRepository()
	codeRepo := newMockVerificationCodeRepository()
	spaces := NewSpaceService(newMockSpaceRepository(), newMockMemberRepository())
	auth := NewAuthService(userRepo, spaces, "handshake-test-secret", 15*time.Minute, 7*24*time.Hour)

	f := &handshakeFixture{
		userRepo: userRepo,
		keyRepo:  keyRepo,
		codeRepo: codeRepo,
	}
	f.service = NewHandshakeService(
		userRepo, keyRepo, codeRepo, auth,
		stateTTL, 7*24*time.Hour, 10*time.Minute,
		func(email, code string) { f.sentCode = code },
	)

	userRepo.Create(&domain.User{
		ID:       "user-1",
		Username: "alice",
		Email:    "alice@example.com",
	})

	return f
}

func encryptFor(t *testing.T, pubPEM, plaintext string) string {
	t.Helper()
	enc, err := cryptox.EncryptRSAOAEP([]byte(plaintext), pubPEM)
	if err != nil {
		t.Fatalf("rsa encrypt: %v", err)
	}
	return enc
}

func TestHandshakeService_FullLoginRoundtrip(t *testing.T) {
	f := newHandshakeFixture(t, 5*time.Minute)

	initResp, err := f.service.Init()
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if initResp.State == "" || initResp.PublicKey == "" {
		t.Fatal("Init() returned empty state or public key")
	}

	err = f.service.RequestEmailCode(&domain.EmailCodeRequest{
		EncEmail: encryptFor(t, initResp.PublicKey, "alice@example.com"),
		State:    initResp.State,
	})
	if err != nil {
		t.Fatalf("RequestEmailCode() error = %v", err)
	}
	if len(f.sentCode) != 6 {
		t.Fatalf("sent code = %q, want six digits", f.sentCode)
	}

	clientKey := "client_key_" + base64.StdEncoding.EncodeToString(cryptox.RandomKey(32))
	loginResp, err := f.service.LoginByEmail(&domain.EmailLoginRequest{
		EncEmail:     encryptFor(t, initResp.PublicKey, "alice@example.com"),
		EmailCode:    f.sentCode,
		State:        initResp.State,
		EncClientKey: encryptFor(t, initResp.PublicKey, clientKey),
	})
	if err != nil {
		t.Fatalf("LoginByEmail() error = %v", err)
	}
	if loginResp.AccessToken == "" || loginResp.RefreshToken == "" {
		t.Error("login did not issue tokens")
	}
	if loginResp.User.Password != "" {
		t.Error("login response leaked password hash")
	}

	stored, err := f.keyRepo.GetClientKey("user-1")
	if err != nil {
		t.Fatalf("client key not stored: %v", err)
	}
	if stored != clientKey {
		t.Errorf("stored client key = %q, want %q", stored, clientKey)
	}

	// The stored key must immediately serve the envelope codec.
	envelopes := NewEnvelopeService(f.keyRepo)
	rawKey, _ := base64.StdEncoding.DecodeString(clientKey[len("client_key_"):])
	keyB64 := clientKey[len("client_key_"):]
	env := sealEnvelope(t, rawKey, keyB64[:5], []domain.Atom{{TaskType: domain.TaskThreadList, TaskID: "q1"}})
	if atoms := envelopes.DecodeAtoms("user-1", env); len(atoms) != 1 {
		t.Errorf("envelope decode with handshake key returned %d atoms, want 1", len(atoms))
	}
}

func TestHandshakeService_ExpiredState(t *testing.T) {
	f := newHandshakeFixture(t, -time.Minute)

	initResp, err := f.service.Init()
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	err = f.service.RequestEmailCode(&domain.EmailCodeRequest{
		EncEmail: encryptFor(t, initResp.PublicKey, "alice@example.com"),
		State:    initResp.State,
	})
	if err != ErrSessionExpired {
		t.Errorf("RequestEmailCode() error = %v, want ErrSessionExpired", err)
	}

	_, err = f.service.LoginByEmail(&domain.EmailLoginRequest{
		EncEmail:  encryptFor(t, initResp.PublicKey, "alice@example.com"),
		EmailCode: "123456",
		State:     initResp.State,
	})
	if err != ErrSessionExpired {
		t.Errorf("LoginByEmail() error = %v, want ErrSessionExpired", err)
	}
}

func TestHandshakeService_UnknownState(t *testing.T) {
	f := newHandshakeFixture(t, 5*time.Minute)

	_, err := f.service.LoginByEmail(&domain.EmailLoginRequest{
		EncEmail:  "irrelevant",
		EmailCode: "123456",
		State:     "never-issued",
	})
	if err != ErrSessionExpired {
		t.Errorf("LoginByEmail() error = %v, want ErrSessionExpired", err)
	}
}

func TestHandshakeService_CodeIsSingleUse(t *testing.T) {
	f := newHandshakeFixture(t, 5*time.Minute)

	initResp, _ := f.service.Init()
	encEmail := encryptFor(t, initResp.PublicKey, "alice@example.com")

	if err := f.service.RequestEmailCode(&domain.EmailCodeRequest{EncEmail: encEmail, State: initResp.State}); err != nil {
		t.Fatalf("RequestEmailCode() error = %v", err)
	}

	req := &domain.EmailLoginRequest{
		EncEmail:  encEmail,
		EmailCode: f.sentCode,
		State:     initResp.State,
	}
	if _, err := f.service.LoginByEmail(req); err != nil {
		t.Fatalf("first LoginByEmail() error = %v", err)
	}
	if _, err := f.service.LoginByEmail(req); err != ErrInvalidCode {
		t.Errorf("second LoginByEmail() error = %v, want ErrInvalidCode", err)
	}
}

func TestHandshakeService_WrongCode(t *testing.T) {
	f := newHandshakeFixture(t, 5*time.Minute)

	initResp, _ := f.service.Init()
	encEmail := encryptFor(t, initResp.PublicKey, "alice@example.com")

	f.service.RequestEmailCode(&domain.EmailCodeRequest{EncEmail: encEmail, State: initResp.State})

	wrongCode := "000000"
	if f.sentCode == wrongCode {
		wrongCode = "000001"
	}

	_, err := f.service.LoginByEmail(&domain.EmailLoginRequest{
		EncEmail:  encEmail,
		EmailCode: wrongCode,
		State:     initResp.State,
	})
	if err != ErrInvalidCode {
		t.Errorf("LoginByEmail() error = %v, want ErrInvalidCode", err)
	}
}

func TestHandshakeService_GarbageCiphertext(t *testing.T) {
	f := newHandshakeFixture(t, 5*time.Minute)

	initResp, _ := f.service.Init()

	err := f.service.RequestEmailCode(&domain.EmailCodeRequest{
		EncEmail: "not-even-base64!!",
		State:    initResp.State,
	})
	if err != ErrDecryptFailed {
		t.Errorf("RequestEmailCode() error = %v, want ErrDecryptFailed", err)
	}
}
