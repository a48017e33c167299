package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/parisxmas/OxiEnroll/internal/db"
	"github.com/parisxmas/OxiEnroll/internal/models"
)

const (
	UploadsCollection = "_enroll_uploads"
	UploadsBucket     = "enroll_files"
)

// UploadRepo stores uploaded file bytes in the blob bucket and their
// metadata as documents.
type UploadRepo struct {
	store db.Store
}

func NewUploadRepo(store db.Store) *UploadRepo {
	return &UploadRepo{store: store}
}

func (r *UploadRepo) EnsureIndexes(ctx context.Context) error {
	if err := r.store.EnsureBucket(ctx, UploadsBucket); err != nil {
		return err
	}
	return r.store.CreateUniqueIndex(ctx, UploadsCollection, "blobKey")
}

// Create writes the blob first so metadata never points at missing bytes.
func (r *UploadRepo) Create(ctx context.Context, u *models.Upload, data []byte) (string, error) {
	if err := r.store.PutObject(ctx, UploadsBucket, u.BlobKey, data, u.ContentType); err != nil {
		return "", fmt.Errorf("put blob: %w", err)
	}
	doc, err := toDoc(u)
	if err != nil {
		return "", err
	}
	id, err := r.store.Insert(ctx, UploadsCollection, doc)
	if err != nil {
		_ = r.store.DeleteObject(ctx, UploadsBucket, u.BlobKey)
		return "", err
	}
	return id, nil
}

func (r *UploadRepo) FindByKey(ctx context.Context, key string) (*models.Upload, error) {
	doc, err := r.store.FindOne(ctx, UploadsCollection, map[string]any{"blobKey": key})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return fromDoc[models.Upload](doc)
}

// Open returns the metadata and bytes of the upload stored under key.
func (r *UploadRepo) Open(ctx context.Context, key string) (*models.Upload, []byte, error) {
	u, err := r.FindByKey(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	data, _, err := r.store.GetObject(ctx, UploadsBucket, u.BlobKey)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return u, data, nil
}
