package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)

	key, err := DeriveKey([]byte("correct-horse"), salt, DefaultKDFParams())
	require.NoError(t, err)
	assert.Len(t, key, KeyLength)

	again, err := DeriveKey([]byte("correct-horse"), salt, DefaultKDFParams())
	require.NoError(t, err)
	assert.Equal(t, key, again)

	otherSalt, err := NewSalt()
	require.NoError(t, err)
	other, err := DeriveKey([]byte("correct-horse"), otherSalt, DefaultKDFParams())
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestDeriveKey_Params(t *testing.T) {
	salt := make([]byte, SaltLength)

	tests := []struct {
		name    string
		salt    []byte
		params  KDFParams
		wantErr bool
	}{
		{name: "zero params fall back to defaults", salt: salt, params: KDFParams{}},
		{name: "argon2id", salt: salt, params: KDFParams{Algorithm: AlgorithmArgon2}},
		{name: "short salt", salt: salt[:8], params: DefaultKDFParams(), wantErr: true},
		{name: "negative iterations", salt: salt, params: KDFParams{Algorithm: AlgorithmPBKDF2, Iterations: -1}, wantErr: true},
		{name: "iterations above cap", salt: salt, params: KDFParams{Algorithm: AlgorithmPBKDF2, Iterations: MaxIterations + 1}, wantErr: true},
		{name: "unknown algorithm", salt: salt, params: KDFParams{Algorithm: "md5"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey([]byte("secret"), tt.salt, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, KeyLength)
		})
	}
}

func TestDeriveKey_EmptySecretAccepted(t *testing.T) {
	key, err := DeriveKey(nil, make([]byte, SaltLength), KDFParams{Iterations: 1000})
	require.NoError(t, err)
	assert.Len(t, key, KeyLength)
}
