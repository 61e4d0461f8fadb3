package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"thus-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

// SessionKeyRepository is the short-TTL key-value store behind the login
// handshake and the envelope codec. Handshake keys are the per-attempt RSA
// private halves, keyed by state token; client keys are the symmetric keys
// recovered at login, keyed by userId. Put overwrites any live record for the
// same owner, so a second handshake silently invalidates the first.
type SessionKeyRepository interface {
	PutHandshakeKey(state, privateKeyPEM string, ttl time.Duration) error
	GetHandshakeKey(state string) (string, error)
	PutClientKey(userID, key string, ttl time.Duration) error
	GetClientKey(userID string) (string, error)
}

type VerificationCodeRepository interface {
	Issue(email, code string, ttl time.Duration) error
	// Consume validates and burns the code; a second Consume with the same
	// code fails.
	Consume(email, code string) error
}

type sessionKeyRepository struct {
	client *kivik.Client
	dbName string
}

func NewSessionKeyRepository(client *kivik.Client, dbName string) SessionKeyRepository {
	return &sessionKeyRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *sessionKeyRepository) PutHandshakeKey(state, privateKeyPEM string, ttl time.Duration) error {
	return r.put(fmt.Sprintf("handshake_key:%s", state), state, privateKeyPEM, ttl)
}

func (r *sessionKeyRepository) GetHandshakeKey(state string) (string, error) {
	return r.get(fmt.Sprintf("handshake_key:%s", state))
}

func (r *sessionKeyRepository) PutClientKey(userID, key string, ttl time.Duration) error {
	return r.put(fmt.Sprintf("client_key:%s", userID), userID, key, ttl)
}

func (r *sessionKeyRepository) GetClientKey(userID string) (string, error) {
	return r.get(fmt.Sprintf("client_key:%s", userID))
}

func (r *sessionKeyRepository) put(docID, ownerID, material string, ttl time.Duration) error {
	db := r.client.DB(r.dbName)
	now := time.Now()

	record := &domain.SessionKeyRecord{
		OwnerID:     ownerID,
		KeyMaterial: material,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err == nil {
		doc, err := mergeDoc(existingDoc, record)
		if err != nil {
			return fmt.Errorf("failed to merge session key doc: %w", err)
		}
		if _, err := db.Put(context.Background(), docID, doc); err != nil {
			return fmt.Errorf("failed to overwrite session key: %w", err)
		}
		return nil
	}

	if _, err := db.Put(context.Background(), docID, record); err != nil {
		return fmt.Errorf("failed to store session key: %w", err)
	}

	return nil
}

func (r *sessionKeyRepository) get(docID string) (string, error) {
	db := r.client.DB(r.dbName)

	row := db.Get(context.Background(), docID)

	var record domain.SessionKeyRecord
	if err := row.ScanDoc(&record); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get session key: %w", err)
	}

	// Expired records read as absent; CouchDB has no native TTL.
	if record.Expired(time.Now()) {
		return "", ErrNotFound
	}

	return record.KeyMaterial, nil
}

type verificationCodeRepository struct {
	client *kivik.Client
	dbName string
}

func NewVerificationCodeRepository(client *kivik.Client, dbName string) VerificationCodeRepository {
	return &verificationCodeRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *verificationCodeRepository) Issue(email, code string, ttl time.Duration) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("verification_code:%s", email)
	now := time.Now()

	record := &domain.VerificationCode{
		Email:     email,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err == nil {
		doc, err := mergeDoc(existingDoc, record)
		if err != nil {
			return fmt.Errorf("failed to merge verification code doc: %w", err)
		}
		if _, err := db.Put(context.Background(), docID, doc); err != nil {
			return fmt.Errorf("failed to overwrite verification code: %w", err)
		}
		return nil
	}

	if _, err := db.Put(context.Background(), docID, record); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	return nil
}

func (r *verificationCodeRepository) Consume(email, code string) error {
	db := r.client.DB(r.dbName)
	docID := fmt.Sprintf("verification_code:%s", email)

	var existingDoc map[string]interface{}
	row := db.Get(context.Background(), docID)
	if err := row.ScanDoc(&existingDoc); err != nil {
		if kivik.HTTPStatus(err) == 404 {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get verification code: %w", err)
	}

	raw, err := json.Marshal(existingDoc)
	if err != nil {
		return err
	}
	var record domain.VerificationCode
	if err := json.Unmarshal(raw, &record); err != nil {
		return fmt.Errorf("failed to decode verification code: %w", err)
	}

	if record.Consumed || record.Code != code || time.Now().After(record.ExpiresAt) {
		return ErrNotFound
	}

	existingDoc["consumed"] = true
	if _, err := db.Put(context.Background(), docID, existingDoc); err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}

	return nil
}
