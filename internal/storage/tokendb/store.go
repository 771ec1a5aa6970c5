// Package tokendb implements TokenStore using BadgerHold.
// It holds one session record per provider account UID; a refresh
// supersedes the record in place.
package tokendb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/courierhq/courier/internal/common"
	"github.com/courierhq/courier/internal/models"
)

// ErrNotFound is returned when no record exists for a UID.
var ErrNotFound = errors.New("token record not found")

// Store implements interfaces.TokenStore using BadgerHold.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// NewStore creates a new TokenStore backed by BadgerHold.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create token db path %s: %w", path, err)
	}
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil
	db, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open token db at %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("TokenDB opened")
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Get(_ context.Context, uid string) (*models.TokenRecord, error) {
	var rec models.TokenRecord
	if err := s.db.Get(uid, &rec); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("uid '%s': %w", uid, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get token record for '%s': %w", uid, err)
	}
	return &rec, nil
}

func (s *Store) Save(_ context.Context, record *models.TokenRecord) error {
	if record.UID == "" {
		return fmt.Errorf("token record requires a uid")
	}
	record.UpdatedAt = time.Now()
	if err := s.db.Upsert(record.UID, record); err != nil {
		return fmt.Errorf("failed to save token record for '%s': %w", record.UID, err)
	}
	s.logger.Debug().Str("uid", record.UID).Msg("Token record saved")
	return nil
}

func (s *Store) Delete(_ context.Context, uid string) error {
	if err := s.db.Delete(uid, models.TokenRecord{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete token record for '%s': %w", uid, err)
	}
	s.logger.Debug().Str("uid", uid).Msg("Token record deleted")
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
