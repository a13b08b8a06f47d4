// internal/app/client/crypto/cipher.go
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"payfamily/internal/domain/envelope"
)

const (
	NonceLength = envelope.NonceLength
	TagLength   = envelope.TagLength
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLength {
		return nil, fmt.Errorf("invalid key length: %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithTagSize(block, TagLength)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return gcm, nil
}

// NewNonce returns a random nonce. Nonces are never derived from content.
func NewNonce() ([]byte, error) {
	return GenerateRandomBytes(NonceLength)
}

// Seal encrypts plaintext with AES-256-GCM and splits off the tag.
func Seal(key, nonce, plaintext []byte) (ciphertext, tag []byte, err error) {
	if len(nonce) != NonceLength {
		return nil, nil, fmt.Errorf("invalid nonce length: %d", len(nonce))
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - TagLength

	return sealed[:split], sealed[split:], nil
}

// Open verifies the tag and decrypts. Any mismatch returns ErrAuthFailure
// and no plaintext.
func Open(key, nonce, ciphertext, tag []byte) ([]byte, error) {
	if len(nonce) != NonceLength || len(tag) != TagLength {
		return nil, ErrAuthFailure
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, ErrAuthFailure
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailure
	}

	return plaintext, nil
}
