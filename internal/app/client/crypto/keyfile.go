// internal/app/client/crypto/keyfile.go
package crypto

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	keyFileVersion     = 1
	keyFilePermissions = 0600
)

// KeyFile is the persisted store header. It holds the salt and a key check
// value, never the secret or the key.
type KeyFile struct {
	Version    int       `json:"version"`
	Algorithm  string    `json:"key_algorithm"`
	Iterations int       `json:"iterations"`
	Salt       string    `json:"salt"`
	KeyCheck   string    `json:"key_check"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (h *KeyFile) params() KDFParams {
	return KDFParams{Algorithm: h.Algorithm, Iterations: h.Iterations}.withDefaults()
}

// derive re-creates the session key and compares the key check.
func (h *KeyFile) derive(secret []byte) (*SessionKey, error) {
	salt, err := hex.DecodeString(h.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}

	raw, err := DeriveKey(secret, salt, h.params())
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	if !keyChecksEqual(computeKeyCheck(raw), h.KeyCheck) {
		ClearMemory(raw)
		return nil, ErrAuthFailure
	}

	return newSessionKey(raw, salt, h.params()), nil
}

func readKeyFile(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var header KeyFile
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("decode key file: %w", err)
	}

	if header.Version != keyFileVersion {
		return nil, fmt.Errorf("unsupported key file version: %d", header.Version)
	}

	return &header, nil
}

// writeKeyFile replaces the key file through a rename so a crash never
// leaves a half written header.
func writeKeyFile(path string, header *KeyFile) error {
	data, err := json.MarshalIndent(header, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal key file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, keyFilePermissions); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace key file: %w", err)
	}

	return nil
}
