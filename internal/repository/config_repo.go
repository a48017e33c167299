package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/db"
	"github.com/parisxmas/OxiEnroll/internal/models"
)

const ConfigCollection = "_enroll_config"

// ConfigRepo reads and writes the single configuration document. Reads are
// whole-document; writes replace individual field paths.
type ConfigRepo struct {
	store db.Store
	key   string
}

func NewConfigRepo(store db.Store) *ConfigRepo {
	return &ConfigRepo{store: store, key: models.ConfigKey}
}

func (r *ConfigRepo) EnsureIndexes(ctx context.Context) error {
	return r.store.CreateUniqueIndex(ctx, ConfigCollection, "key")
}

// Load returns the configuration or ErrNotFound when it was never seeded.
func (r *ConfigRepo) Load(ctx context.Context) (*models.Configuration, error) {
	doc, err := r.store.FindOne(ctx, ConfigCollection, r.query())
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return fromDoc[models.Configuration](doc)
}

func (r *ConfigRepo) Create(ctx context.Context, cfg *models.Configuration) (string, error) {
	cfg.Key = r.key
	cfg.UpdatedAt = now()
	doc, err := toDoc(cfg)
	if err != nil {
		return "", err
	}
	return r.store.Insert(ctx, ConfigCollection, doc)
}

// Overwrite replaces the messages and every section of an existing
// configuration.
func (r *ConfigRepo) Overwrite(ctx context.Context, cfg *models.Configuration) error {
	sections, err := toDoc(cfg.Sections)
	if err != nil {
		return err
	}
	return r.set(ctx, map[string]any{
		"openingMessage": cfg.OpeningMessage,
		"closingMessage": cfg.ClosingMessage,
		"sections":       sections,
	})
}

func (r *ConfigRepo) SetOpeningMessage(ctx context.Context, msg string) error {
	return r.set(ctx, map[string]any{"openingMessage": msg})
}

func (r *ConfigRepo) SetClosingMessage(ctx context.Context, msg string) error {
	return r.set(ctx, map[string]any{"closingMessage": msg})
}

func (r *ConfigRepo) SetPrograms(ctx context.Context, programs []string) error {
	return r.set(ctx, map[string]any{"sections.programs.list": programs})
}

// SetSectionQuestions atomically replaces a section's whole question list.
func (r *ConfigRepo) SetSectionQuestions(ctx context.Context, key models.SectionKey, qs []models.Question) error {
	list := make([]any, 0, len(qs))
	for i := range qs {
		doc, err := toDoc(qs[i])
		if err != nil {
			return fmt.Errorf("question %s: %w", qs[i].ID, err)
		}
		list = append(list, doc)
	}
	return r.set(ctx, map[string]any{key.QuestionsField(): list})
}

func (r *ConfigRepo) set(ctx context.Context, fields map[string]any) error {
	fields["updatedAt"] = now()
	return r.store.UpdateOne(ctx, ConfigCollection, r.query(), fields)
}

func (r *ConfigRepo) query() map[string]any {
	return map[string]any{"key": r.key}
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
