// internal/app/client/crypto/codec.go
package crypto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec turns plaintext into envelopes and back.
//
// EncryptRecord/DecryptRecord derive a key from a secret for every call and
// are meant for backups. Seal/Open use an unlocked SessionKey and are used for
// per-record storage; their envelopes carry the session salt, so a secret
// based DecryptRecord can still read them.
type Codec struct {
	params KDFParams
}

// NewCodec creates a codec that derives new keys with params.
func NewCodec(params KDFParams) *Codec {
	return &Codec{params: params.withDefaults()}
}

// EncryptRecord encrypts data under a key derived from secret with a fresh
// salt and nonce.
func (c *Codec) EncryptRecord(data string, secret []byte) (*Envelope, error) {
	salt, err := NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key, err := DeriveKey(secret, salt, c.params)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	defer ClearMemory(key)

	return sealWithKey(key, salt, c.params, []byte(data))
}

// DecryptRecord re-derives the key from the envelope salt. Every failure is
// reported as ErrDecrypt.
func (c *Codec) DecryptRecord(env *Envelope, secret []byte) (string, error) {
	raw, err := env.Decode()
	if err != nil {
		return "", ErrDecrypt
	}

	key, err := DeriveKey(secret, raw.Salt, envelopeParams(env))
	if err != nil {
		return "", ErrDecrypt
	}
	defer ClearMemory(key)

	plaintext, err := Open(key, raw.Nonce, raw.Ciphertext, raw.Tag)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}

// Seal encrypts plaintext with the session key.
func (c *Codec) Seal(key *SessionKey, plaintext []byte) (*Envelope, error) {
	var env *Envelope
	err := key.use(func(k []byte) error {
		var err error
		env, err = sealWithKey(k, key.salt, key.params, plaintext)
		return err
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

// Open decrypts an envelope with the session key. An envelope sealed under a
// different salt cannot be opened with this key and yields ErrDecrypt.
func (c *Codec) Open(key *SessionKey, env *Envelope) ([]byte, error) {
	var plaintext []byte
	err := key.use(func(k []byte) error {
		raw, err := env.Decode()
		if err != nil {
			return ErrDecrypt
		}
		if !bytes.Equal(raw.Salt, key.salt) {
			return ErrDecrypt
		}

		plaintext, err = Open(k, raw.Nonce, raw.Ciphertext, raw.Tag)
		if err != nil {
			return ErrDecrypt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}

// EncryptValue serializes v to JSON and encrypts it with secret.
func (c *Codec) EncryptValue(v any, secret []byte) (*Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return c.EncryptRecord(string(data), secret)
}

// DecryptValue decrypts env with secret and unmarshals it into target.
func (c *Codec) DecryptValue(env *Envelope, secret []byte, target any) error {
	data, err := c.DecryptRecord(env, secret)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), target); err != nil {
		return ErrDecrypt
	}
	return nil
}

// SealValue serializes v to JSON and seals it with the session key.
func (c *Codec) SealValue(key *SessionKey, v any) (*Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	defer ClearMemory(data)

	return c.Seal(key, data)
}

// OpenValue opens env with the session key and unmarshals it into target.
func (c *Codec) OpenValue(key *SessionKey, env *Envelope, target any) error {
	data, err := c.Open(key, env)
	if err != nil {
		return err
	}
	defer ClearMemory(data)

	if err := json.Unmarshal(data, target); err != nil {
		return ErrDecrypt
	}
	return nil
}

func sealWithKey(key, salt []byte, params KDFParams, plaintext []byte) (*Envelope, error) {
	nonce, err := NewNonce()
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext, tag, err := Seal(key, nonce, plaintext)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}

	return newEnvelope(ciphertext, nonce, salt, tag, params), nil
}
