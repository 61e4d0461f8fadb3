package service

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"thus-sync-server/internal/domain"
	"thus-sync-server/internal/repository"
	"thus-sync-server/pkg/cryptox"
)

const (
	clientKeyPrefix = "client_key_"
	keyPrefixLength = 5
)

// EnvelopeService decrypts the atom envelope that end-to-end encrypted
// clients send in place of a plaintext atom array.
type EnvelopeService struct {
	keyRepo repository.SessionKeyRepository
}

func NewEnvelopeService(keyRepo repository.SessionKeyRepository) *EnvelopeService {
	return &EnvelopeService{keyRepo: keyRepo}
}

// DecodeAtoms opens an encrypted envelope with the caller's stored client
// key. Any failure, from a missing key to a key prefix mismatch, yields zero
// atoms: a batch that cannot be authenticated is never partially applied.
func (s *EnvelopeService) DecodeAtoms(userID string, env *domain.EncryptedEnvelope) []domain.Atom {
	if env == nil || env.CipherText == "" || env.IV == "" {
		return nil
	}

	stored, err := s.keyRepo.GetClientKey(userID)
	if err != nil {
		return nil
	}

	keyB64 := strings.TrimPrefix(stored, clientKeyPrefix)
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil
	}

	plaintext, err := cryptox.DecryptAESGCM(env.CipherText, env.IV, key)
	if err != nil {
		return nil
	}

	var envelope domain.PlainEnvelope
	if err := json.Unmarshal(plaintext, &envelope); err != nil {
		return nil
	}

	// The pre field must echo the leading characters of the key the client
	// encrypted with.
	if len(keyB64) < keyPrefixLength || envelope.Pre != keyB64[:keyPrefixLength] {
		return nil
	}

	return envelope.Data
}
