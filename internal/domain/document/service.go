package document

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"payfamily/internal/app/client/crypto"
	"payfamily/internal/app/client/storage"
)

// Service encrypts documents with the current session key before they reach
// the repository and decrypts them on the way out.
type Service struct {
	repo  Repository
	codec *crypto.Codec
	keys  Keys
	log   *slog.Logger
	now   func() time.Time

	ids *idLocks
	// held for reading by writers, for writing by Rekey
	rekeyMu sync.RWMutex
}

type Servicer interface {
	Add(ctx context.Context, d *Document) (string, error)
	Get(ctx context.Context, id string) (*Document, error)
	GetAll(ctx context.Context) ([]*Document, error)
	ListByType(ctx context.Context, t Type) ([]*Document, error)
	ListByDateRange(ctx context.Context, from, to string) ([]*Document, error)
	Find(ctx context.Context, f Filter) ([]*Document, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, d *Document) error
	Delete(ctx context.Context, id string) error
	Rekey(ctx context.Context, oldSecret, newSecret []byte) error
}

var _ Servicer = (*Service)(nil)

func NewService(repo Repository, codec *crypto.Codec, keys Keys, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		codec: codec,
		keys:  keys,
		log:   log.With("component", "document_service"),
		now:   time.Now,
		ids:   newIDLocks(),
	}
}

// Add validates, encrypts and stores d. An empty ID is replaced with a new
// UUID and a zero CreatedAt with the current time; d is updated in place.
func (s *Service) Add(ctx context.Context, d *Document) (string, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now().UTC()
	}
	if err := Validate(d); err != nil {
		return "", err
	}

	s.rekeyMu.RLock()
	defer s.rekeyMu.RUnlock()
	unlock := s.ids.lock(d.ID)
	defer unlock()

	row, err := s.seal(d)
	if err != nil {
		return "", err
	}
	row.UpdatedAt = row.CreatedAt

	id, err := s.repo.Add(ctx, row)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateID) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateID, d.ID)
		}
		s.log.Error("failed to add document", "document_id", d.ID, "error", err)
		return "", fmt.Errorf("add document: %w", err)
	}

	s.log.Info("document added", "document_id", id, "type", d.Type)

	return id, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	key, err := s.keys.CurrentKey()
	if err != nil {
		return nil, err
	}

	return s.open(key, row)
}

// GetAll decrypts every stored document. One unreadable record fails the
// whole call.
func (s *Service) GetAll(ctx context.Context) ([]*Document, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.log.Error("failed to list documents", "error", err)
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return s.openAll(rows)
}

func (s *Service) ListByType(ctx context.Context, t Type) ([]*Document, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	rows, err := s.repo.ListByType(ctx, t.String())
	if err != nil {
		return nil, fmt.Errorf("list documents by type: %w", err)
	}
	return s.openAll(rows)
}

// ListByDateRange returns documents dated within [from, to]. Empty bounds
// are open.
func (s *Service) ListByDateRange(ctx context.Context, from, to string) ([]*Document, error) {
	for _, bound := range []string{from, to} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, bound); err != nil {
			return nil, fmt.Errorf("%w: date bound must be YYYY-MM-DD, got %q", ErrInvalidDocument, bound)
		}
	}

	rows, err := s.repo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list documents by date: %w", err)
	}
	return s.openAll(rows)
}

// Find applies f. The date bounds run against the index, everything else
// is matched after decryption.
func (s *Service) Find(ctx context.Context, f Filter) ([]*Document, error) {
	docs, err := s.ListByDateRange(ctx, f.StartDate, f.EndDate)
	if err != nil {
		return nil, err
	}

	matched := docs[:0]
	for _, d := range docs {
		if f.Match(d) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Update replaces the stored document with d.
func (s *Service) Update(ctx context.Context, d *Document) error {
	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDocument)
	}
	if err := Validate(d); err != nil {
		return err
	}

	s.rekeyMu.RLock()
	defer s.rekeyMu.RUnlock()
	unlock := s.ids.lock(d.ID)
	defer unlock()

	row, err := s.seal(d)
	if err != nil {
		return err
	}
	row.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, row); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, d.ID)
		}
		s.log.Error("failed to update document", "document_id", d.ID, "error", err)
		return fmt.Errorf("update document: %w", err)
	}

	s.log.Info("document updated", "document_id", d.ID)

	return nil
}

// Delete removes a document. Deleting an unknown id succeeds.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.rekeyMu.RLock()
	defer s.rekeyMu.RUnlock()
	unlock := s.ids.lock(id)
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Error("failed to delete document", "document_id", id, "error", err)
		return fmt.Errorf("delete document: %w", err)
	}

	s.log.Info("document deleted", "document_id", id)

	return nil
}

// Rekey changes the user secret and re-encrypts every document under the
// new key. The new key header is staged before the transaction commits and
// moved into place only after it did, so a failed commit leaves the old
// secret and the current session working.
func (s *Service) Rekey(ctx context.Context, oldSecret, newSecret []byte) error {
	s.rekeyMu.Lock()
	defer s.rekeyMu.Unlock()

	current, err := s.keys.CurrentKey()
	if err != nil {
		return err
	}

	change, err := s.keys.BeginChange(oldSecret, newSecret)
	if err != nil {
		return err
	}
	defer change.Discard()

	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	updated := make([]storage.Row, 0, len(rows))
	for _, row := range rows {
		d, err := s.open(current, row)
		if err != nil {
			return err
		}

		envelope, err := sealDocument(s.codec, change.Key(), d)
		if err != nil {
			return fmt.Errorf("re-encrypt document %s: %w", row.ID, err)
		}

		next := *row
		next.Envelope = envelope
		next.UpdatedAt = s.now().UTC()
		updated = append(updated, next)
	}

	err = s.repo.UpdateMany(ctx, updated, func() error {
		return s.keys.StageChange(change)
	})
	if err != nil {
		s.log.Error("failed to re-encrypt documents", "error", err)
		return fmt.Errorf("re-encrypt documents: %w", err)
	}

	if err := s.keys.CommitChange(change); err != nil {
		s.log.Error("documents re-encrypted but key file not replaced", "error", err)
		return fmt.Errorf("save new key: %w", err)
	}

	s.log.Info("documents re-encrypted under new secret", "count", len(updated))

	return nil
}

func (s *Service) seal(d *Document) (storage.Row, error) {
	key, err := s.keys.CurrentKey()
	if err != nil {
		return storage.Row{}, err
	}

	envelope, err := sealDocument(s.codec, key, d)
	if err != nil {
		return storage.Row{}, fmt.Errorf("encrypt document: %w", err)
	}

	return storage.Row{
		ID:              d.ID,
		Type:            d.Type.String(),
		TransactionDate: d.TransactionDate,
		Envelope:        envelope,
		CreatedAt:       d.CreatedAt.UTC(),
	}, nil
}

func (s *Service) openAll(rows []*storage.Row) ([]*Document, error) {
	key, err := s.keys.CurrentKey()
	if err != nil {
		return nil, err
	}

	docs := make([]*Document, 0, len(rows))
	for _, row := range rows {
		d, err := s.open(key, row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (s *Service) open(key *crypto.SessionKey, row *storage.Row) (*Document, error) {
	d, err := openDocument(s.codec, key, row.Envelope)
	if err != nil {
		s.log.Warn("failed to decrypt document", "document_id", row.ID, "error", err)
		return nil, fmt.Errorf("document %s: %w", row.ID, err)
	}
	return d, nil
}
