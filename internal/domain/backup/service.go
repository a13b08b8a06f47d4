package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"payfamily/internal/domain/envelope"
)

type Servicer interface {
	Put(ctx context.Context, ownerID, name string, envelope []byte) (Info, error)
	Get(ctx context.Context, ownerID, name string) (*Backup, error)
	List(ctx context.Context, ownerID string) ([]Info, error)
	Delete(ctx context.Context, ownerID, name string) error
}

type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

var _ Servicer = (*Service)(nil)

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "backup_service"),
		now:  time.Now,
	}
}

// Put checks that envelope is a well-formed encryption envelope and stores
// its canonical form. The contents stay sealed.
func (s *Service) Put(ctx context.Context, ownerID, name string, envelope []byte) (Info, error) {
	if err := ValidateName(name); err != nil {
		return Info{}, err
	}
	if len(envelope) > MaxSize {
		return Info{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(envelope))
	}

	canonical, err := Canonicalize(envelope)
	if err != nil {
		return Info{}, err
	}

	now := s.now().UTC()
	b := &Backup{
		OwnerID:   ownerID,
		Name:      name,
		Envelope:  canonical,
		Size:      int64(len(canonical)),
		Checksum:  Checksum(canonical),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Put(ctx, b); err != nil {
		s.log.Error("failed to store backup", "owner_id", ownerID, "name", name, "error", err)
		return Info{}, fmt.Errorf("store backup: %w", err)
	}

	s.log.Info("backup stored", "owner_id", ownerID, "name", name, "size", b.Size)

	return b.Info(), nil
}

func (s *Service) Get(ctx context.Context, ownerID, name string) (*Backup, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	b, err := s.repo.Get(ctx, ownerID, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get backup: %w", err)
	}

	canonical, err := Canonicalize(b.Envelope)
	if err != nil {
		s.log.Error("stored backup is damaged", "owner_id", ownerID, "name", name, "error", err)
		return nil, err
	}
	b.Envelope = canonical

	return b, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Info, error) {
	infos, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	if infos == nil {
		infos = []Info{}
	}
	return infos, nil
}

func (s *Service) Delete(ctx context.Context, ownerID, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, ownerID, name); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete backup: %w", err)
	}

	s.log.Info("backup deleted", "owner_id", ownerID, "name", name)

	return nil
}

// Canonicalize parses data as an envelope and re-encodes it, so the same
// envelope always yields the same bytes and checksum.
func Canonicalize(data []byte) ([]byte, error) {
	env, err := envelope.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	out, err := envelope.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return []byte(out), nil
}

func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
