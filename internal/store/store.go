package store

import (
	"context"
	"errors"

	"github.com/reviewgate/reviewgate/internal/models"
)

// ErrUnauthorized is returned by Authorize when the key is unknown or disabled.
var ErrUnauthorized = errors.New("unknown or disabled API key")

// Store defines the identity-store interface for reviewgate.
type Store interface {
	// Authorize validates the key and charges one use in a single atomic
	// operation. It returns the developer name associated with the key, or
	// ErrUnauthorized when the key is absent or disabled (in which case the
	// usage count is untouched).
	Authorize(ctx context.Context, apiKey string) (string, error)

	// Keys
	CreateKey(ctx context.Context, developerName string) (*models.APIKey, error)
	GetKey(ctx context.Context, apiKey string) (*models.APIKey, error)
	ListKeys(ctx context.Context) ([]*models.APIKey, error)
	SetKeyEnabled(ctx context.Context, apiKey string, enabled bool) error
	DeleteKey(ctx context.Context, apiKey string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
