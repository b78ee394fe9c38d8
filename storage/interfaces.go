package storage

import "propfinder/models"

// ListingStore is the interface the persistence backend must satisfy.
// Upsert updates by id when a listing already exists and inserts otherwise.
type ListingStore interface {
	Upsert(listings []models.Listing) error
	FetchAll() ([]models.Listing, error)
	FetchHistorical() ([]models.Listing, error)
	FetchIDs() (map[string]struct{}, error)
	MarkDelisted(ids []string) error
	Close() error
}

// RawListingWriter is the interface for persisting unprocessed scraped data.
type RawListingWriter interface {
	WriteRaw(listings []models.RawListing) error
	Close() error
}
