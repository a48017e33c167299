// Package db abstracts the document database behind the repositories.
//
// Documents are JSON objects addressed by collection. Every document carries
// a store-assigned "_id". Blobs live in named buckets.
package db

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned for a missing blob or bucket.
	ErrNotFound = errors.New("db: not found")
	// ErrDuplicate is returned when an insert violates a unique index.
	ErrDuplicate = errors.New("db: duplicate key")
)

// FindOptions controls ordering and paging of Find.
type FindOptions struct {
	// Sort names one field; a leading "-" sorts descending.
	Sort  string
	Skip  int
	Limit int // 0 means no limit
}

// Store is the document and blob API used by the repositories.
type Store interface {
	// Insert stores doc and returns its new id.
	Insert(ctx context.Context, collection string, doc map[string]any) (string, error)
	// FindOne returns the first document whose fields equal query, or nil.
	FindOne(ctx context.Context, collection string, query map[string]any) (map[string]any, error)
	Find(ctx context.Context, collection string, query map[string]any, opts *FindOptions) ([]map[string]any, error)
	Count(ctx context.Context, collection string, query map[string]any) (int, error)
	// UpdateOne sets the given field paths on the first matching document.
	// Keys of set may be dotted paths. No match is not an error.
	UpdateOne(ctx context.Context, collection string, query, set map[string]any) error

	CreateIndex(ctx context.Context, collection, field string) error
	CreateUniqueIndex(ctx context.Context, collection, field string) error

	// EnsureBucket creates a blob bucket unless it already exists.
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
	// GetObject returns the blob and its content type.
	GetObject(ctx context.Context, bucket, key string) ([]byte, string, error)
	DeleteObject(ctx context.Context, bucket, key string) error

	Ping(ctx context.Context) error
	Close() error
}
