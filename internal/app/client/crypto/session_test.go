package crypto

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	keyPath := filepath.Join(t.TempDir(), "master.key")
	mgr, err := NewManager(keyPath, fastParams)
	require.NoError(t, err)
	return mgr, keyPath
}

func TestManager_SessionLifecycle(t *testing.T) {
	mgr, keyPath := newTestManager(t)

	t.Run("locked before unlock", func(t *testing.T) {
		assert.False(t, mgr.IsInitialized())
		assert.True(t, mgr.IsLocked())
		_, err := mgr.CurrentKey()
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("first unlock creates key file", func(t *testing.T) {
		key, err := mgr.Unlock([]byte("correct-horse"))
		require.NoError(t, err)
		assert.Len(t, key.Salt(), SaltLength)
		assert.True(t, mgr.IsInitialized())

		info, err := os.Stat(keyPath)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(keyFilePermissions), info.Mode().Perm())

		current, err := mgr.CurrentKey()
		require.NoError(t, err)
		assert.Same(t, key, current)
	})

	t.Run("key file holds no secret", func(t *testing.T) {
		data, err := os.ReadFile(keyPath)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "correct-horse")
		assert.Contains(t, string(data), `"salt"`)
	})

	t.Run("lock discards key", func(t *testing.T) {
		key, err := mgr.CurrentKey()
		require.NoError(t, err)

		mgr.Lock()
		_, err = mgr.CurrentKey()
		assert.ErrorIs(t, err, ErrUnauthenticated)
		_, err = key.keyCheck()
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("returning user keeps salt", func(t *testing.T) {
		header, err := readKeyFile(keyPath)
		require.NoError(t, err)

		key, err := mgr.Unlock([]byte("correct-horse"))
		require.NoError(t, err)
		assert.Equal(t, header.Salt, hex.EncodeToString(key.Salt()))
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		mgr.Lock()
		_, err := mgr.Unlock([]byte("wrong-horse"))
		assert.ErrorIs(t, err, ErrAuthFailure)
		assert.True(t, mgr.IsLocked())
	})

	t.Run("empty secret rejected", func(t *testing.T) {
		_, err := mgr.Unlock(nil)
		assert.ErrorIs(t, err, ErrEmptySecret)
	})
}

func TestManager_ReEncryptAcrossUnlocks(t *testing.T) {
	mgr, _ := newTestManager(t)
	codec := NewCodec(fastParams)

	key, err := mgr.Unlock([]byte("pw-1"))
	require.NoError(t, err)
	env, err := codec.Seal(key, []byte("kept"))
	require.NoError(t, err)
	mgr.Lock()

	key, err = mgr.Unlock([]byte("pw-1"))
	require.NoError(t, err)
	plaintext, err := codec.Open(key, env)
	require.NoError(t, err)
	assert.Equal(t, "kept", string(plaintext))
}

func TestManager_ChangeSecret(t *testing.T) {
	mgr, keyPath := newTestManager(t)

	oldKey, err := mgr.Unlock([]byte("old-secret"))
	require.NoError(t, err)

	_, err = mgr.BeginChange([]byte("not-it"), []byte("new-secret"))
	assert.ErrorIs(t, err, ErrAuthFailure)

	_, err = mgr.BeginChange([]byte("old-secret"), nil)
	assert.ErrorIs(t, err, ErrEmptySecret)

	change, err := mgr.BeginChange([]byte("old-secret"), []byte("new-secret"))
	require.NoError(t, err)
	assert.NotEqual(t, oldKey.Salt(), change.Key().Salt())

	assert.ErrorIs(t, mgr.CommitChange(change), ErrChangeNotStaged)

	require.NoError(t, mgr.StageChange(change))

	// staging leaves the key file and the session alone
	require.NoError(t, mgr.VerifySecret([]byte("old-secret")))
	current, err := mgr.CurrentKey()
	require.NoError(t, err)
	assert.Same(t, oldKey, current)

	require.NoError(t, mgr.CommitChange(change))
	current, err = mgr.CurrentKey()
	require.NoError(t, err)
	assert.Same(t, change.Key(), current)

	// a committed change survives Discard
	change.Discard()
	_, err = change.Key().keyCheck()
	assert.NoError(t, err)

	_, err = oldKey.keyCheck()
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.ErrorIs(t, mgr.VerifySecret([]byte("old-secret")), ErrAuthFailure)
	assert.NoError(t, mgr.VerifySecret([]byte("new-secret")))

	_, err = os.Stat(keyPath + ".tmp")
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(keyPath + stagedSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestManager_DiscardStagedChange(t *testing.T) {
	mgr, keyPath := newTestManager(t)

	oldKey, err := mgr.Unlock([]byte("old-secret"))
	require.NoError(t, err)

	change, err := mgr.BeginChange([]byte("old-secret"), []byte("new-secret"))
	require.NoError(t, err)
	require.NoError(t, mgr.StageChange(change))

	change.Discard()

	_, err = os.Stat(keyPath + stagedSuffix)
	assert.True(t, os.IsNotExist(err))

	current, err := mgr.CurrentKey()
	require.NoError(t, err)
	assert.Same(t, oldKey, current)
	_, err = current.keyCheck()
	assert.NoError(t, err)

	assert.NoError(t, mgr.VerifySecret([]byte("old-secret")))
	assert.ErrorIs(t, mgr.VerifySecret([]byte("new-secret")), ErrAuthFailure)
}

func TestManager_UnlockPromotesStagedHeader(t *testing.T) {
	mgr, keyPath := newTestManager(t)

	_, err := mgr.Unlock([]byte("old-secret"))
	require.NoError(t, err)

	change, err := mgr.BeginChange([]byte("old-secret"), []byte("new-secret"))
	require.NoError(t, err)
	require.NoError(t, mgr.StageChange(change))
	mgr.Lock()

	// the process stopped before the staged header was moved into place
	reopened, err := NewManager(keyPath, mgr.params)
	require.NoError(t, err)

	_, err = reopened.Unlock([]byte("wrong"))
	assert.ErrorIs(t, err, ErrAuthFailure)

	key, err := reopened.Unlock([]byte("new-secret"))
	require.NoError(t, err)
	assert.Equal(t, change.Key().Salt(), key.Salt())

	_, err = os.Stat(keyPath + stagedSuffix)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, reopened.VerifySecret([]byte("new-secret")))
}

func TestManager_GenerateSecret(t *testing.T) {
	mgr, _ := newTestManager(t)

	a, err := mgr.GenerateSecret()
	require.NoError(t, err)
	b, err := mgr.GenerateSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestManager_CorruptKeyFile(t *testing.T) {
	mgr, keyPath := newTestManager(t)
	require.NoError(t, os.WriteFile(keyPath, []byte("{"), 0600))

	_, err := mgr.Unlock([]byte("pw"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthFailure)
}

func TestCheckPasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		strength PasswordStrength
	}{
		{"weak", PasswordWeak},
		{"abcdefgh", PasswordWeak},
		{"Abcdefgh123", PasswordMedium},
		{"Abcdefgh123!", PasswordStrong},
	}

	for _, tt := range tests {
		t.Run(tt.strength.String()+"_"+MaskSensitiveData(tt.password), func(t *testing.T) {
			assert.Equal(t, tt.strength, CheckPasswordStrength(tt.password))
		})
	}
}

func TestMaskSensitiveData(t *testing.T) {
	assert.Equal(t, "****", MaskSensitiveData("abcd"))
	assert.Equal(t, "ab****yz", MaskSensitiveData("abcdwxyz"))

	key := strings.Repeat("f", 64)
	masked := MaskSensitiveData(key)
	assert.Len(t, masked, len(key))
	assert.NotEqual(t, key, masked)
}
