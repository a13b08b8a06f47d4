// Package client wires the local document store, the session key, the
// categorizer and the optional backup remote into one App.
package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"payfamily/internal/app/client/backup"
	"payfamily/internal/app/client/categorize"
	"payfamily/internal/app/client/config"
	"payfamily/internal/app/client/crypto"
	"payfamily/internal/app/client/storage"
	"payfamily/internal/domain/document"
	"payfamily/internal/domain/identity"
)

const (
	accessKeyBytes = 32
	pingTimeout    = 10 * time.Second
)

var (
	ErrBackupDisabled     = errors.New("backup is disabled, set BACKUP_BACKEND to s3 or server")
	ErrNotInitialized     = errors.New("payfamily is not initialized, run init first")
	ErrAlreadyInitialized = errors.New("payfamily is already initialized")
)

type App struct {
	cfg   *config.Config
	log   *slog.Logger
	store *storage.Store
	keys  *crypto.Manager
	codec *crypto.Codec

	Documents   *document.Service
	Categorizer categorize.Categorizer

	backups   *backup.Service
	backupErr error
}

// New opens the local store and builds every collaborator. The backup
// remote, when configured, is pinged once here and never again.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	params, err := kdfParams(cfg.KDF)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.DataPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	keys, err := crypto.NewManager(cfg.KeyFilePath, params)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	codec := crypto.NewCodec(params)
	docs := document.NewService(store, codec, keys, log)

	a := &App{
		cfg:         cfg,
		log:         log.With("component", "app"),
		store:       store,
		keys:        keys,
		codec:       codec,
		Documents:   docs,
		Categorizer: categorize.NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model, log, geminiOptions(cfg.Gemini)...),
	}

	a.backups, a.backupErr = a.connectBackup(ctx)
	if a.backupErr != nil && !errors.Is(a.backupErr, ErrBackupDisabled) {
		a.log.Warn("backup remote unavailable", "backend", cfg.Backup.Backend, "error", a.backupErr)
	}

	return a, nil
}

func kdfParams(cfg config.KDF) (crypto.KDFParams, error) {
	switch cfg.Algorithm {
	case config.KDFPBKDF2, "":
		return crypto.KDFParams{Algorithm: crypto.AlgorithmPBKDF2, Iterations: cfg.Iterations}, nil
	case config.KDFArgon2:
		return crypto.KDFParams{Algorithm: crypto.AlgorithmArgon2}, nil
	}
	return crypto.KDFParams{}, fmt.Errorf("unknown kdf algorithm %q", cfg.Algorithm)
}

func geminiOptions(cfg config.Gemini) []categorize.Option {
	if cfg.BaseURL == "" {
		return nil
	}
	return []categorize.Option{categorize.WithBaseURL(cfg.BaseURL)}
}

func (a *App) connectBackup(ctx context.Context) (*backup.Service, error) {
	var (
		remote backup.Remote
		err    error
	)

	switch a.cfg.Backup.Backend {
	case config.BackendS3:
		remote, err = a.s3Remote()
	case config.BackendServer:
		remote, err = a.httpRemote()
	default:
		return nil, ErrBackupDisabled
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := remote.Ping(pingCtx); err != nil {
		return nil, err
	}

	return backup.NewService(remote, a.Documents, a.keys, a.codec, a.log), nil
}

func (a *App) s3Remote() (backup.Remote, error) {
	s3 := a.cfg.Backup.S3
	return backup.NewS3Remote(backup.S3Config{
		Endpoint:        s3.Endpoint,
		AccessKeyID:     s3.AccessKeyID,
		SecretAccessKey: s3.SecretAccessKey,
		Bucket:          s3.Bucket,
		KeyPrefix:       s3.KeyPrefix,
		UseSSL:          s3.UseSSL,
		Region:          s3.Region,
	}, a.Profile().ID, a.log)
}

func (a *App) httpRemote() (backup.Remote, error) {
	accessKey, err := a.AccessKey()
	if err != nil {
		return nil, err
	}
	return backup.NewHTTPRemote(backup.HTTPConfig{
		BaseURL:   a.cfg.Backup.ServerAddress,
		OwnerID:   serverOwnerID(a.Profile(), accessKey),
		AccessKey: accessKey,
	}, a.log)
}

// serverOwnerID is the id this install registers on the backup server.
// Guests get one derived from the access key, so two guest installs never
// claim the same owner.
func serverOwnerID(p *identity.Profile, accessKey string) string {
	if !p.IsGuest() {
		return p.ID
	}
	sum := sha256.Sum256([]byte(accessKey))
	return identity.GuestID + "-" + hex.EncodeToString(sum[:8])
}

// Backups returns the backup service, or the reason it is unavailable.
func (a *App) Backups() (*backup.Service, error) {
	if a.backupErr != nil {
		return nil, a.backupErr
	}
	return a.backups, nil
}

func (a *App) IsInitialized() bool {
	return a.keys.IsInitialized()
}

// Init creates the key file under secret and unlocks the session.
func (a *App) Init(secret []byte) error {
	if a.keys.IsInitialized() {
		return ErrAlreadyInitialized
	}
	_, err := a.keys.Unlock(secret)
	return err
}

// InitGuest initializes with a generated secret and returns it. The secret
// is not stored anywhere; the caller must show it to the user once.
func (a *App) InitGuest() (string, error) {
	secret, err := a.keys.GenerateSecret()
	if err != nil {
		return "", err
	}
	if err := a.Init([]byte(secret)); err != nil {
		return "", err
	}
	return secret, nil
}

func (a *App) Unlock(secret []byte) error {
	if !a.keys.IsInitialized() {
		return ErrNotInitialized
	}
	_, err := a.keys.Unlock(secret)
	return err
}

// ChangeSecret re-encrypts every document under newSecret.
func (a *App) ChangeSecret(ctx context.Context, oldSecret, newSecret []byte) error {
	return a.Documents.Rekey(ctx, oldSecret, newSecret)
}

// Profile returns the logged in identity or the guest profile.
func (a *App) Profile() *identity.Profile {
	p, err := identity.Load(a.cfg.ProfilePath)
	if err != nil {
		if !errors.Is(err, identity.ErrNoProfile) {
			a.log.Warn("ignoring unreadable profile", "error", err)
		}
		return identity.Guest("")
	}
	return p
}

func (a *App) Login(p *identity.Profile) error {
	return identity.Save(a.cfg.ProfilePath, p)
}

func (a *App) Logout() error {
	return identity.Remove(a.cfg.ProfilePath)
}

// NewDocument returns an empty document attributed to the current profile.
func (a *App) NewDocument(t document.Type) *document.Document {
	p := a.Profile()
	return &document.Document{
		Type:       t,
		AddedBy:    p.DisplayName(),
		FamilyRole: p.Role,
	}
}

// AccessKey returns the key this device presents to the backup server,
// creating it on first use.
func (a *App) AccessKey() (string, error) {
	data, err := os.ReadFile(a.cfg.AccessKeyPath)
	if err == nil {
		if key := strings.TrimSpace(string(data)); key != "" {
			return key, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read access key: %w", err)
	}

	key, err := crypto.GenerateRandomHex(accessKeyBytes)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(a.cfg.AccessKeyPath, []byte(key), 0600); err != nil {
		return "", fmt.Errorf("write access key: %w", err)
	}
	a.log.Info("generated backup access key", "path", a.cfg.AccessKeyPath, "key", crypto.MaskSensitiveData(key))

	return key, nil
}

// Close locks the session and closes the store.
func (a *App) Close() error {
	a.keys.Lock()
	return a.store.Close()
}
