package crypto

import "errors"

var (
	// ErrAuthFailure is returned when a tag does not match or the key is wrong.
	ErrAuthFailure = errors.New("authentication failed")
	// ErrDecrypt is the only error DecryptRecord and Open surface. It does not
	// say whether the secret was wrong or the envelope was damaged.
	ErrDecrypt = errors.New("failed to decrypt data - wrong secret or corrupted data")
	// ErrUnauthenticated means no session key is unlocked.
	ErrUnauthenticated = errors.New("session is locked")
	// ErrEmptySecret is a policy error: an empty secret is never used to unlock.
	ErrEmptySecret = errors.New("secret must not be empty")
	// ErrNotInitialized is returned when a key file is required but missing.
	ErrNotInitialized = errors.New("key file not initialized")
	// ErrChangeNotStaged is returned when a key change is committed before
	// its header was staged.
	ErrChangeNotStaged = errors.New("key change is not staged")
)
