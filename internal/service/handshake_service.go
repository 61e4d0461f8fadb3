package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"thus-sync-server/internal/domain"
	"thus-sync-server/internal/repository"
	"thus-sync-server/pkg/cryptox"
)

const handshakeStateLength = 16

// CodeSender delivers a verification code to an email address. The default
// wiring logs the code; production deployments plug in a mailer.
type CodeSender func(email, code string)

// HandshakeService runs the RSA login handshake: a throwaway keypair per
// login attempt, an emailed one-time code, and recovery of the client's
// symmetric key for the envelope codec.
type HandshakeService struct {
	userRepo     repository.UserRepository
	keyRepo      repository.SessionKeyRepository
	codeRepo     repository.VerificationCodeRepository
	auth         *AuthService
	stateTTL     time.Duration
	clientKeyTTL time.Duration
	codeTTL      time.Duration
	sendCode     CodeSender
}

func NewHandshakeService(
	userRepo repository.UserRepository,
	keyRepo repository.SessionKeyRepository,
	codeRepo repository.VerificationCodeRepository,
	auth *AuthService,
	stateTTL, clientKeyTTL, codeTTL time.Duration,
	sendCode CodeSender,
) *HandshakeService {
	return &HandshakeService{
		userRepo:     userRepo,
		keyRepo:      keyRepo,
		codeRepo:     codeRepo,
		auth:         auth,
		stateTTL:     stateTTL,
		clientKeyTTL: clientKeyTTL,
		codeTTL:      codeTTL,
		sendCode:     sendCode,
	}
}

// Init starts a login attempt: a fresh RSA keypair whose private half lives
// server-side under a random state token until the attempt completes or the
// state expires.
func (s *HandshakeService) Init() (*domain.HandshakeInitResponse, error) {
	privPEM, pubPEM, err := cryptox.GenerateRSAKeyPair()
	if err != nil {
		return nil, fmt.Errorf("failed to generate handshake keypair: %w", err)
	}

	state := cryptox.RandomToken(handshakeStateLength)
	if err := s.keyRepo.PutHandshakeKey(state, privPEM, s.stateTTL); err != nil {
		return nil, fmt.Errorf("failed to store handshake key: %w", err)
	}

	return &domain.HandshakeInitResponse{
		State:     state,
		PublicKey: pubPEM,
	}, nil
}

// RequestEmailCode decrypts the address with the attempt's private key and
// issues a one-time login code for it.
func (s *HandshakeService) RequestEmailCode(req *domain.EmailCodeRequest) error {
	privPEM, err := s.keyRepo.GetHandshakeKey(req.State)
	if err != nil {
		return ErrSessionExpired
	}

	email, err := cryptox.DecryptRSAOAEP(req.EncEmail, privPEM)
	if err != nil {
		return ErrDecryptFailed
	}

	code, err := verificationCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}
	if err := s.codeRepo.Issue(string(email), code, s.codeTTL); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if s.sendCode != nil {
		s.sendCode(string(email), code)
	}
	return nil
}

// LoginByEmail completes the handshake: burns the code, signs the user in,
// and stores the client's symmetric key for the envelope codec.
func (s *HandshakeService) LoginByEmail(req *domain.EmailLoginRequest) (*domain.LoginResponse, error) {
	privPEM, err := s.keyRepo.GetHandshakeKey(req.State)
	if err != nil {
		return nil, ErrSessionExpired
	}

	email, err := cryptox.DecryptRSAOAEP(req.EncEmail, privPEM)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	if err := s.codeRepo.Consume(string(email), req.EmailCode); err != nil {
		return nil, ErrInvalidCode
	}

	user, err := s.userRepo.FindByEmail(string(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if req.EncClientKey != "" {
		clientKey, err := cryptox.DecryptRSAOAEP(req.EncClientKey, privPEM)
		if err != nil {
			return nil, ErrDecryptFailed
		}
		if err := s.keyRepo.PutClientKey(user.ID, string(clientKey), s.clientKeyTTL); err != nil {
			return nil, fmt.Errorf("failed to store client key: %w", err)
		}
	}

	return s.auth.issueTokens(user)
}

func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
