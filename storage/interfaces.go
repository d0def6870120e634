package storage

import (
	"context"

	"ethical-rent/models"
)

// PropertyReader is the interface any typed property read model must satisfy.
type PropertyReader interface {
	FetchAll(ctx context.Context) ([]*models.PropertyRecord, error)
	Close() error
}

// RawPropertyReader is the interface for sources that yield unparsed rows.
type RawPropertyReader interface {
	ReadRaw(ctx context.Context) ([]*models.RawProperty, error)
	Close() error
}
