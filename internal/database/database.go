package database

import (
	"errors"

	"github.com/leca/image-gateway/internal/model"
)

// ErrNotFound is returned when a lookup matches no stored image.
var ErrNotFound = errors.New("image not found in store")

// Store is the metadata persistence interface. It is an index over the
// provider, not the source of truth: upload callers must treat its write
// failures as non-fatal.
type Store interface {
	// SaveImage inserts one image record and returns its row ID.
	SaveImage(img *model.Image) (int64, error)

	// SaveVariantURLs inserts all variant URL rows for a record in one
	// transaction. Either every row is written or none are.
	SaveVariantURLs(rowID int64, urls map[string]string) error

	// GetImageByProviderID returns the record and its variant mapping,
	// or ErrNotFound.
	GetImageByProviderID(providerID string) (*model.Image, error)

	// ListImages returns one page ordered by created_at descending,
	// plus the total record count.
	ListImages(limit, offset int) ([]*model.Image, int, error)

	// DeleteImage removes the record and, by cascade, its variants.
	// It returns the number of image rows deleted.
	DeleteImage(providerID string) (int64, error)

	Close() error
}
