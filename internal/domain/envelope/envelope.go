// Package envelope defines the portable form of one encryption. It knows the
// wire format and its bounds but never touches a key, so both the client and
// the backup server can validate envelopes with it.
package envelope

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	KDFPBKDF2 = "PBKDF2-SHA256"
	KDFArgon2 = "Argon2id"

	DefaultIterations = 100000
	// MaxIterations bounds the work an envelope from an untrusted source can
	// demand from a reader.
	MaxIterations = 10 * DefaultIterations

	NonceLength = 12 // 96 bit
	TagLength   = 16 // 128 bit
	SaltLength  = 16
)

var ErrInvalid = errors.New("invalid envelope")

// Envelope holds hex encoded fields. KDF and Iterations are omitted for the
// default PBKDF2 parameters.
type Envelope struct {
	Ciphertext string `json:"ciphertext"`
	IV         string `json:"iv"`
	Salt       string `json:"salt"`
	Tag        string `json:"tag"`
	KDF        string `json:"kdf,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
}

// Raw is a decoded envelope.
type Raw struct {
	Ciphertext []byte
	Nonce      []byte
	Salt       []byte
	Tag        []byte
}

// New encodes raw. kdf and iterations are dropped when they are the
// defaults.
func New(raw Raw, kdf string, iterations int) *Envelope {
	env := &Envelope{
		Ciphertext: hex.EncodeToString(raw.Ciphertext),
		IV:         hex.EncodeToString(raw.Nonce),
		Salt:       hex.EncodeToString(raw.Salt),
		Tag:        hex.EncodeToString(raw.Tag),
	}
	if kdf != "" && kdf != KDFPBKDF2 {
		env.KDF = kdf
	}
	if env.KDF == "" && iterations != DefaultIterations {
		env.Iterations = iterations
	}
	return env
}

// Validate checks the envelope shape and bounds.
func (e *Envelope) Validate() error {
	_, err := e.Decode()
	return err
}

// Decode validates e and returns its bytes.
func (e *Envelope) Decode() (*Raw, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: envelope is nil", ErrInvalid)
	}

	switch e.KDF {
	case "", KDFPBKDF2, KDFArgon2:
	default:
		return nil, fmt.Errorf("%w: unsupported kdf %q", ErrInvalid, e.KDF)
	}
	if e.Iterations < 0 || e.Iterations > MaxIterations {
		return nil, fmt.Errorf("%w: iteration count %d out of range", ErrInvalid, e.Iterations)
	}

	ciphertext, err := hex.DecodeString(e.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: decode ciphertext: %v", ErrInvalid, err)
	}
	nonce, err := hex.DecodeString(e.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: decode iv: %v", ErrInvalid, err)
	}
	salt, err := hex.DecodeString(e.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: decode salt: %v", ErrInvalid, err)
	}
	tag, err := hex.DecodeString(e.Tag)
	if err != nil {
		return nil, fmt.Errorf("%w: decode tag: %v", ErrInvalid, err)
	}

	if len(nonce) != NonceLength {
		return nil, fmt.Errorf("%w: iv length %d", ErrInvalid, len(nonce))
	}
	if len(salt) != SaltLength {
		return nil, fmt.Errorf("%w: salt length %d", ErrInvalid, len(salt))
	}
	if len(tag) != TagLength {
		return nil, fmt.Errorf("%w: tag length %d", ErrInvalid, len(tag))
	}

	return &Raw{
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Salt:       salt,
		Tag:        tag,
	}, nil
}

// Marshal encodes an envelope as JSON.
func Marshal(e *Envelope) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	return string(data), nil
}

// Parse reads and validates an envelope written by Marshal.
func Parse(data string) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}
