package owner

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Authenticate(ctx context.Context, id, accessKey string) (Owner, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
	cost int
}

var _ Servicer = (*Service)(nil)

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With("component", "owner_service"),
		cost: bcrypt.DefaultCost,
	}
}

// Authenticate checks accessKey against the stored hash. The first
// presentation of an unknown id registers it with that key.
func (s *Service) Authenticate(ctx context.Context, id, accessKey string) (Owner, error) {
	if err := ValidateID(id); err != nil {
		return Owner{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := ValidateAccessKey(accessKey); err != nil {
		return Owner{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	o, err := s.repo.Find(ctx, id)
	if errors.Is(err, ErrNotFound) {
		o, err = s.register(ctx, id, accessKey)
	}
	if err != nil {
		return Owner{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(o.KeyHash), []byte(accessKey)); err != nil {
		s.log.Debug("access key mismatch", "owner_id", id)
		return Owner{}, ErrInvalidAuth
	}

	return o, nil
}

func (s *Service) register(ctx context.Context, id, accessKey string) (Owner, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(accessKey), s.cost)
	if err != nil {
		return Owner{}, fmt.Errorf("hash access key: %w", err)
	}

	err = s.repo.Create(ctx, id, string(hash))
	if errors.Is(err, ErrExists) {
		// registered concurrently; compare against the winner
		return s.repo.Find(ctx, id)
	}
	if err != nil {
		return Owner{}, fmt.Errorf("create owner: %w", err)
	}

	s.log.Info("owner registered", "owner_id", id)

	return Owner{ID: id, KeyHash: string(hash)}, nil
}
