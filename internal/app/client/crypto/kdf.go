// internal/app/client/crypto/kdf.go
package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"payfamily/internal/domain/envelope"
)

const (
	AlgorithmPBKDF2 = envelope.KDFPBKDF2
	AlgorithmArgon2 = envelope.KDFArgon2

	DefaultIterations = envelope.DefaultIterations
	MaxIterations     = envelope.MaxIterations
	KeyLength         = 32 // AES-256
	SaltLength        = envelope.SaltLength

	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
)

// KDFParams describes how a key was derived. It is persisted next to the
// salt so that data written with older parameters stays readable.
type KDFParams struct {
	Algorithm  string `json:"algorithm"`
	Iterations int    `json:"iterations"`
}

// DefaultKDFParams returns PBKDF2-SHA256 with DefaultIterations.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Algorithm:  AlgorithmPBKDF2,
		Iterations: DefaultIterations,
	}
}

func (p KDFParams) withDefaults() KDFParams {
	if p.Algorithm == "" {
		p.Algorithm = AlgorithmPBKDF2
	}
	if p.Iterations == 0 && p.Algorithm == AlgorithmPBKDF2 {
		p.Iterations = DefaultIterations
	}
	return p
}

// DeriveKey turns a secret and a 16 byte salt into a 32 byte key.
// An empty secret is accepted here; rejecting it is the caller's policy.
func DeriveKey(secret, salt []byte, params KDFParams) ([]byte, error) {
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("invalid salt length: %d", len(salt))
	}

	params = params.withDefaults()
	switch params.Algorithm {
	case AlgorithmPBKDF2:
		if params.Iterations < 1 || params.Iterations > MaxIterations {
			return nil, fmt.Errorf("invalid iteration count: %d", params.Iterations)
		}
		return pbkdf2.Key(secret, salt, params.Iterations, KeyLength, sha256.New), nil
	case AlgorithmArgon2:
		return argon2.IDKey(secret, salt, argon2Time, argon2Memory, argon2Threads, KeyLength), nil
	default:
		return nil, fmt.Errorf("unsupported algorithm: %s", params.Algorithm)
	}
}

// NewSalt returns a fresh random salt.
func NewSalt() ([]byte, error) {
	return GenerateRandomBytes(SaltLength)
}
