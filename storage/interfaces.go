package storage

import (
	"context"

	"market-scanner/models"
)

// PersistenceGateway is the interface any listing store must satisfy.
// Upsert reports whether the record was newly created (true) or merged
// into an existing row (false).
type PersistenceGateway interface {
	Upsert(ctx context.Context, l *models.Listing) (created bool, err error)
	Close() error
}

// RawListingWriter is the interface for the pre-normalization audit dump.
type RawListingWriter interface {
	WriteRaw(listings []*models.RawListing) error
	Close() error
}
