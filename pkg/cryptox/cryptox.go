package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
)

const gcmTagSize = 16

var ErrDecrypt = errors.New("decryption failed")

// DecryptAESGCM decrypts a base64 ciphertext produced by the Web Crypto API,
// where the 16-byte authentication tag is appended to the ciphertext. The key
// is the raw AES key (32 bytes for AES-256). The IV length is taken as-is so
// both 12-byte and 16-byte client IVs work.
func DecryptAESGCM(cipherTextB64, ivB64 string, key []byte) ([]byte, error) {
	cipherText, err := base64.StdEncoding.DecodeString(cipherTextB64)
	if err != nil {
		return nil, ErrDecrypt
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return nil, ErrDecrypt
	}
	if len(cipherText) < gcmTagSize || len(iv) == 0 {
		return nil, ErrDecrypt
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrDecrypt
	}
	aesgcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
	if err != nil {
		return nil, ErrDecrypt
	}

	plaintext, err := aesgcm.Open(nil, iv, cipherText, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// EncryptAESGCM encrypts plaintext with AES-GCM in the Web Crypto layout:
// the tag is appended to the ciphertext and both ciphertext and IV come back
// base64-encoded.
func EncryptAESGCM(plaintext, key []byte) (cipherTextB64, ivB64 string, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", err
	}

	iv := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", "", err
	}

	cipherText := aesgcm.Seal(nil, iv, plaintext, nil)

	return base64.StdEncoding.EncodeToString(cipherText),
		base64.StdEncoding.EncodeToString(iv), nil
}

// GenerateRSAKeyPair returns a fresh 2048-bit keypair as PEM strings. The
// public half is SPKI-encoded so browser clients can import it directly.
func GenerateRSAKeyPair() (privPEM, pubPEM string, err error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate keypair: %w", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", "", err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", err
	}

	privPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}))
	pubPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
	return privPEM, pubPEM, nil
}

// DecryptRSAOAEP decrypts a base64 RSA-OAEP(SHA-256) ciphertext with a PEM
// private key.
func DecryptRSAOAEP(cipherTextB64, privPEM string) ([]byte, error) {
	block, _ := pem.Decode([]byte(privPEM))
	if block == nil {
		return nil, ErrDecrypt
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, ErrDecrypt
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrDecrypt
	}

	cipherText, err := base64.StdEncoding.DecodeString(cipherTextB64)
	if err != nil {
		return nil, ErrDecrypt
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, key, cipherText, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// EncryptRSAOAEP is the counterpart of DecryptRSAOAEP, used by clients and
// tests.
func EncryptRSAOAEP(plaintext []byte, pubPEM string) (string, error) {
	block, _ := pem.Decode([]byte(pubPEM))
	if block == nil {
		return "", errors.New("invalid public key")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return "", err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return "", errors.New("not an RSA public key")
	}

	cipherText, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, key, plaintext, nil)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

// RandomToken returns n random bytes hex-encoded.
func RandomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

// RandomKey returns n random bytes, for symmetric keys.
func RandomKey(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
