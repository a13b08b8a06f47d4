// internal/app/client/crypto/session.go
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/awnumar/memguard"
)

const (
	keyCheckLabel = "payfamily/key-check/v1"
	stagedSuffix  = ".next"
)

// SessionKey is a derived key living in a memguard enclave for the lifetime
// of one unlocked session. It is never serialized.
type SessionKey struct {
	mu      sync.RWMutex
	enclave *memguard.Enclave
	salt    []byte
	params  KDFParams
}

// newSessionKey moves key into an enclave; key is wiped by memguard.
func newSessionKey(key, salt []byte, params KDFParams) *SessionKey {
	s := make([]byte, len(salt))
	copy(s, salt)

	return &SessionKey{
		enclave: memguard.NewEnclave(key),
		salt:    s,
		params:  params.withDefaults(),
	}
}

// Salt returns a copy of the salt the key was derived with.
func (k *SessionKey) Salt() []byte {
	s := make([]byte, len(k.salt))
	copy(s, k.salt)
	return s
}

// Params returns the derivation parameters of the key.
func (k *SessionKey) Params() KDFParams {
	return k.params
}

// use opens the enclave for the duration of fn.
func (k *SessionKey) use(fn func(key []byte) error) error {
	if k == nil {
		return ErrUnauthenticated
	}

	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.enclave == nil {
		return ErrUnauthenticated
	}

	buf, err := k.enclave.Open()
	if err != nil {
		return fmt.Errorf("open key enclave: %w", err)
	}
	defer buf.Destroy()

	return fn(buf.Bytes())
}

// Destroy drops the enclave. Any later use fails with ErrUnauthenticated.
func (k *SessionKey) Destroy() {
	if k == nil {
		return
	}
	k.mu.Lock()
	k.enclave = nil
	k.mu.Unlock()
}

func (k *SessionKey) keyCheck() (string, error) {
	var check string
	err := k.use(func(key []byte) error {
		check = computeKeyCheck(key)
		return nil
	})
	return check, err
}

func computeKeyCheck(key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(keyCheckLabel))
	return hex.EncodeToString(mac.Sum(nil))
}

// Manager owns the session key. Unlock creates it, Lock tears it down.
// One Manager is created by the composition root and injected where needed.
type Manager struct {
	keyPath string
	params  KDFParams
	current atomic.Pointer[SessionKey]
	mu      sync.Mutex
}

// NewManager creates a manager backed by the key file at keyPath. params
// are used only when a new key file is created.
func NewManager(keyPath string, params KDFParams) (*Manager, error) {
	absPath, err := filepath.Abs(keyPath)
	if err != nil {
		return nil, fmt.Errorf("resolve key path: %w", err)
	}

	return &Manager{
		keyPath: absPath,
		params:  params.withDefaults(),
	}, nil
}

// IsInitialized reports whether a key file exists.
func (m *Manager) IsInitialized() bool {
	_, err := os.Stat(m.keyPath)
	return err == nil
}

// GenerateSecret returns a random 32 byte token, hex encoded, for guest use.
// It is never stored; losing it makes the data unrecoverable.
func (m *Manager) GenerateSecret() (string, error) {
	return GenerateRandomHex(32)
}

// Unlock derives the session key from secret. On first use it creates the
// key file with a fresh salt; afterwards it re-derives with the stored salt
// and rejects a wrong secret with ErrAuthFailure.
func (m *Manager) Unlock(secret []byte) (*SessionKey, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		key *SessionKey
		err error
	)
	if m.IsInitialized() {
		key, err = m.restore(secret)
	} else {
		key, err = m.create(secret)
	}
	if err != nil {
		return nil, err
	}

	if prev := m.current.Swap(key); prev != nil {
		prev.Destroy()
	}

	return key, nil
}

func (m *Manager) create(secret []byte) (*SessionKey, error) {
	salt, err := NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	raw, err := DeriveKey(secret, salt, m.params)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	now := time.Now().UTC()
	header := KeyFile{
		Version:    keyFileVersion,
		Algorithm:  m.params.Algorithm,
		Iterations: m.params.Iterations,
		Salt:       hex.EncodeToString(salt),
		KeyCheck:   computeKeyCheck(raw),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	key := newSessionKey(raw, salt, m.params)
	if err := writeKeyFile(m.keyPath, &header); err != nil {
		key.Destroy()
		return nil, fmt.Errorf("save key file: %w", err)
	}

	return key, nil
}

func (m *Manager) restore(secret []byte) (*SessionKey, error) {
	header, err := readKeyFile(m.keyPath)
	if err != nil {
		return nil, err
	}

	key, err := header.derive(secret)
	if !errors.Is(err, ErrAuthFailure) {
		return key, err
	}

	// A header left staged by an interrupted change is promoted when the
	// secret matches it.
	staged, serr := readKeyFile(m.stagedPath())
	if serr != nil {
		return nil, err
	}
	key, serr = staged.derive(secret)
	if serr != nil {
		return nil, err
	}
	if serr = os.Rename(m.stagedPath(), m.keyPath); serr != nil {
		key.Destroy()
		return nil, fmt.Errorf("promote staged key file: %w", serr)
	}

	return key, nil
}

// CurrentKey returns the unlocked key or ErrUnauthenticated.
func (m *Manager) CurrentKey() (*SessionKey, error) {
	key := m.current.Load()
	if key == nil {
		return nil, ErrUnauthenticated
	}
	return key, nil
}

// Lock discards the in-memory key immediately.
func (m *Manager) Lock() {
	if prev := m.current.Swap(nil); prev != nil {
		prev.Destroy()
	}
}

// IsLocked reports whether no key is unlocked.
func (m *Manager) IsLocked() bool {
	return m.current.Load() == nil
}

// KeyChange is a prepared secret change. StageChange writes the new header
// next to the key file; CommitChange moves it into place.
type KeyChange struct {
	key       *SessionKey
	header    KeyFile
	staged    string
	committed bool
}

// Key returns the new session key.
func (c *KeyChange) Key() *SessionKey {
	return c.key
}

// Discard destroys the prepared key and removes a staged header. It does
// nothing once the change is committed.
func (c *KeyChange) Discard() {
	if c.committed {
		return
	}
	c.key.Destroy()
	if c.staged != "" {
		_ = os.Remove(c.staged)
		c.staged = ""
	}
}

// BeginChange verifies oldSecret and derives a key for newSecret under a
// fresh salt.
func (m *Manager) BeginChange(oldSecret, newSecret []byte) (*KeyChange, error) {
	if len(newSecret) == 0 {
		return nil, ErrEmptySecret
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	header, err := readKeyFile(m.keyPath)
	if err != nil {
		return nil, err
	}

	oldKey, err := header.derive(oldSecret)
	if err != nil {
		return nil, err
	}
	oldKey.Destroy()

	salt, err := NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	raw, err := DeriveKey(newSecret, salt, m.params)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	next := *header
	next.Algorithm = m.params.Algorithm
	next.Iterations = m.params.Iterations
	next.Salt = hex.EncodeToString(salt)
	next.KeyCheck = computeKeyCheck(raw)
	next.UpdatedAt = time.Now().UTC()

	return &KeyChange{
		key:    newSessionKey(raw, salt, m.params),
		header: next,
	}, nil
}

// StageChange writes the new header to a staged file. The key file and the
// current key are left untouched.
func (m *Manager) StageChange(c *KeyChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.stagedPath()
	if err := writeKeyFile(path, &c.header); err != nil {
		return fmt.Errorf("stage key file: %w", err)
	}
	c.staged = path

	return nil
}

// CommitChange makes the new key current and moves the staged header over
// the key file. Call it only after the re-encrypted records are durable.
func (m *Manager) CommitChange(c *KeyChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.staged == "" {
		return ErrChangeNotStaged
	}

	if prev := m.current.Swap(c.key); prev != nil && prev != c.key {
		prev.Destroy()
	}
	c.committed = true

	if err := os.Rename(c.staged, m.keyPath); err != nil {
		return fmt.Errorf("replace key file, new header kept at %s: %w", c.staged, err)
	}
	c.staged = ""

	return nil
}

func (m *Manager) stagedPath() string {
	return m.keyPath + stagedSuffix
}

// VerifySecret checks secret against the key file without unlocking.
func (m *Manager) VerifySecret(secret []byte) error {
	header, err := readKeyFile(m.keyPath)
	if err != nil {
		return err
	}

	key, err := header.derive(secret)
	if err != nil {
		return err
	}
	key.Destroy()

	return nil
}

func keyChecksEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
