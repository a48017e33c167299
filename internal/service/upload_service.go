package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parisxmas/OxiEnroll/internal/models"
	"github.com/parisxmas/OxiEnroll/internal/repository"
	"go.uber.org/zap"
)

const mb = 1 << 20

// contentTypes is the only source of the type an upload is served with.
// Anything else is served as an opaque download.
var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

const opaqueContentType = "application/octet-stream"

// UploadService stores files answered to file questions. The question's
// allowed extensions and size limit are enforced here, capped by the
// service-wide limit.
type UploadService struct {
	repo     *repository.UploadRepo
	maxBytes int64
	log      *zap.Logger
}

func NewUploadService(repo *repository.UploadRepo, maxUploadMB int, log *zap.Logger) *UploadService {
	return &UploadService{repo: repo, maxBytes: int64(maxUploadMB) * mb, log: log}
}

// FileInput is one received file. The client's declared content type is
// never trusted, so it is not carried.
type FileInput struct {
	Name string
	Body io.Reader
}

// Limit returns the byte limit applied to uploads for q.
func (s *UploadService) Limit(q models.Question) int64 {
	limit := s.maxBytes
	if q.FileConfig != nil && q.FileConfig.MaxSizeMB > 0 {
		if l := int64(q.FileConfig.MaxSizeMB * mb); l < limit || limit <= 0 {
			limit = l
		}
	}
	return limit
}

// Store checks and saves a file for q.
func (s *UploadService) Store(ctx context.Context, q models.Question, sessionID string, in FileInput) (*models.Upload, error) {
	if q.Type != models.File {
		return nil, fmt.Errorf("%w: question %q does not accept files", ErrInvalidInput, q.ID)
	}
	name := filepath.Base(strings.TrimSpace(in.Name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return nil, fmt.Errorf("%w: missing file name", ErrInvalidInput)
	}
	if !allowedExtension(q, name) {
		return nil, ErrUploadType
	}

	limit := s.Limit(q)
	data, err := io.ReadAll(io.LimitReader(in.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrUploadTooLarge
	}

	u := &models.Upload{
		FileName:    name,
		ContentType: contentTypeFor(name),
		Size:        int64(len(data)),
		BlobKey:     uuid.New().String(),
		QuestionID:  q.ID,
		SessionID:   sessionID,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	id, err := s.repo.Create(ctx, u, data)
	if err != nil {
		s.log.Error("upload: store failed", zap.String("question", q.ID), zap.Error(err))
		return nil, err
	}
	u.ID = id
	s.log.Info("upload: stored", zap.String("upload", id), zap.String("question", q.ID), zap.Int64("size", u.Size))
	return u, nil
}

// Open returns the upload behind a locator key. Keys that are not blob keys
// are reported as not found without touching the store.
func (s *UploadService) Open(ctx context.Context, key string) (*models.Upload, []byte, error) {
	if _, err := uuid.Parse(key); err != nil {
		return nil, nil, repository.ErrNotFound
	}
	return s.repo.Open(ctx, key)
}

func contentTypeFor(name string) string {
	if ct, ok := contentTypes[extension(name)]; ok {
		return ct
	}
	return opaqueContentType
}

func extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// allowedExtension reports whether name's extension is in the question's
// list. An empty list accepts any file.
func allowedExtension(q models.Question, name string) bool {
	if q.FileConfig == nil || len(q.FileConfig.AllowedTypes) == 0 {
		return true
	}
	ext := extension(name)
	for _, t := range q.FileConfig.AllowedTypes {
		if strings.TrimPrefix(strings.ToLower(strings.TrimSpace(t)), ".") == ext {
			return true
		}
	}
	return false
}
