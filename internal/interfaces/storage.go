package interfaces

import (
	"context"

	"github.com/courierhq/courier/internal/models"
)

// TokenStore persists per-identity session records, keyed by the provider
// account UID. The gateway core depends only on this interface; the
// concrete store is an external collaborator.
type TokenStore interface {
	Get(ctx context.Context, uid string) (*models.TokenRecord, error)
	Save(ctx context.Context, record *models.TokenRecord) error
	Delete(ctx context.Context, uid string) error
	Close() error
}
