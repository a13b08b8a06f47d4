package envelope

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Raw {
	return Raw{
		Ciphertext: []byte("ciphertext"),
		Nonce:      make([]byte, NonceLength),
		Salt:       make([]byte, SaltLength),
		Tag:        make([]byte, TagLength),
	}
}

func TestNew_OmitsDefaults(t *testing.T) {
	env := New(sample(), KDFPBKDF2, DefaultIterations)
	assert.Empty(t, env.KDF)
	assert.Zero(t, env.Iterations)

	env = New(sample(), KDFPBKDF2, 1000)
	assert.Equal(t, 1000, env.Iterations)

	env = New(sample(), KDFArgon2, 0)
	assert.Equal(t, KDFArgon2, env.KDF)
	assert.Zero(t, env.Iterations)
}

func TestParse_RoundTrip(t *testing.T) {
	data, err := Marshal(New(sample(), KDFPBKDF2, 1000))
	require.NoError(t, err)

	env, err := Parse(data)
	require.NoError(t, err)

	raw, err := env.Decode()
	require.NoError(t, err)
	assert.Equal(t, sample(), *raw)
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Envelope)
	}{
		{"not hex", func(e *Envelope) { e.Ciphertext = "zz" }},
		{"short iv", func(e *Envelope) { e.IV = e.IV[:8] }},
		{"short salt", func(e *Envelope) { e.Salt = e.Salt[:4] }},
		{"short tag", func(e *Envelope) { e.Tag = e.Tag[:2] }},
		{"negative iterations", func(e *Envelope) { e.Iterations = -1 }},
		{"iterations above cap", func(e *Envelope) { e.Iterations = MaxIterations + 1 }},
		{"unknown kdf", func(e *Envelope) { e.KDF = "scrypt" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := New(sample(), KDFPBKDF2, DefaultIterations)
			tt.mutate(env)
			assert.ErrorIs(t, env.Validate(), ErrInvalid)
		})
	}

	t.Run("nil", func(t *testing.T) {
		var env *Envelope
		assert.ErrorIs(t, env.Validate(), ErrInvalid)
	})

	t.Run("cap itself is accepted", func(t *testing.T) {
		env := New(sample(), KDFPBKDF2, MaxIterations)
		assert.NoError(t, env.Validate())
	})
}

func TestParse_NotJSON(t *testing.T) {
	_, err := Parse(strings.Repeat("{", 3))
	assert.ErrorIs(t, err, ErrInvalid)
}
