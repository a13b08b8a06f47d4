package backup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/exp/slog"

	"payfamily/internal/app/client/crypto"
	names "payfamily/internal/domain/backup"
	"payfamily/internal/domain/document"
)

type Documents interface {
	GetAll(ctx context.Context) ([]*document.Document, error)
	Add(ctx context.Context, d *document.Document) (string, error)
	Update(ctx context.Context, d *document.Document) error
}

type SecretVerifier interface {
	VerifySecret(secret []byte) error
}

// PullResult counts what a restore did to the local store.
type PullResult struct {
	Added   int
	Updated int
	Skipped int
}

type Service struct {
	remote Remote
	docs   Documents
	keys   SecretVerifier
	codec  *crypto.Codec
	log    *slog.Logger
	now    func() time.Time
}

func NewService(remote Remote, docs Documents, keys SecretVerifier, codec *crypto.Codec, log *slog.Logger) *Service {
	return &Service{
		remote: remote,
		docs:   docs,
		keys:   keys,
		codec:  codec,
		log:    log.With("component", "backup_service"),
		now:    time.Now,
	}
}

// Push seals every local document into one envelope under secret and
// uploads it. An empty name gets a timestamped default. The name used is
// returned.
func (s *Service) Push(ctx context.Context, name string, secret []byte) (string, error) {
	if name == "" {
		name = names.DefaultName(s.now().UTC())
	}
	if err := names.ValidateName(name); err != nil {
		return "", err
	}
	if err := s.keys.VerifySecret(secret); err != nil {
		return "", err
	}

	docs, err := s.docs.GetAll(ctx)
	if err != nil {
		return "", fmt.Errorf("read documents: %w", err)
	}

	env, err := document.EncryptDocuments(s.codec, docs, secret)
	if err != nil {
		return "", fmt.Errorf("seal backup: %w", err)
	}

	if err := s.remote.Put(ctx, name, env); err != nil {
		s.log.Error("failed to upload backup", "name", name, "error", err)
		return "", err
	}

	s.log.Info("backup pushed", "name", name, "documents", len(docs))

	return name, nil
}

// Pull restores a backup into the local store. Documents whose id already
// exists are replaced when overwrite is set and skipped otherwise. A wrong
// secret or damaged backup fails with crypto.ErrDecrypt, and a backup holding
// an invalid document fails with document.ErrInvalidDocument, before anything
// is written.
func (s *Service) Pull(ctx context.Context, name string, secret []byte, overwrite bool) (PullResult, error) {
	var res PullResult

	env, err := s.remote.Get(ctx, name)
	if err != nil {
		return res, err
	}

	docs, err := document.DecryptDocuments(s.codec, env, secret)
	if err != nil {
		return res, err
	}

	for _, d := range docs {
		if err := document.Validate(d); err != nil {
			s.log.Warn("backup holds an invalid document", "name", name, "document_id", d.ID, "error", err)
			return res, fmt.Errorf("backup document %s: %w", d.ID, err)
		}
	}

	for _, d := range docs {
		_, err := s.docs.Add(ctx, d)
		switch {
		case err == nil:
			res.Added++
		case errors.Is(err, document.ErrDuplicateID) && overwrite:
			if err := s.docs.Update(ctx, d); err != nil {
				return res, fmt.Errorf("restore document %s: %w", d.ID, err)
			}
			res.Updated++
		case errors.Is(err, document.ErrDuplicateID):
			res.Skipped++
		default:
			return res, fmt.Errorf("restore document %s: %w", d.ID, err)
		}
	}

	s.log.Info("backup pulled", "name", name, "added", res.Added, "updated", res.Updated, "skipped", res.Skipped)

	return res, nil
}

// List returns the newest backups first.
func (s *Service) List(ctx context.Context) ([]Object, error) {
	objects, err := s.remote.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].UpdatedAt.After(objects[j].UpdatedAt)
	})
	return objects, nil
}

func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.remote.Delete(ctx, name); err != nil {
		return err
	}
	s.log.Info("backup deleted", "name", name)
	return nil
}
