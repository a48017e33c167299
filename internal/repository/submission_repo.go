package repository

import (
	"context"

	"github.com/parisxmas/OxiEnroll/internal/db"
	"github.com/parisxmas/OxiEnroll/internal/models"
)

const SubmissionsCollection = "_enroll_submissions"

// SubmissionRepo is the append-only submission sink.
type SubmissionRepo struct {
	store db.Store
}

func NewSubmissionRepo(store db.Store) *SubmissionRepo {
	return &SubmissionRepo{store: store}
}

func (r *SubmissionRepo) EnsureIndexes(ctx context.Context) error {
	if err := r.store.CreateIndex(ctx, SubmissionsCollection, "submittedAt"); err != nil {
		return err
	}
	return r.store.CreateIndex(ctx, SubmissionsCollection, "enrollmentNature")
}

func (r *SubmissionRepo) Create(ctx context.Context, sub *models.Submission) (string, error) {
	doc, err := toDoc(sub)
	if err != nil {
		return "", err
	}
	return r.store.Insert(ctx, SubmissionsCollection, doc)
}

func (r *SubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	doc, err := r.store.FindOne(ctx, SubmissionsCollection, map[string]any{"_id": toNumericID(id)})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return fromDoc[models.Submission](doc)
}

// FindAll returns one page of submissions, newest first, and the total.
func (r *SubmissionRepo) FindAll(ctx context.Context, skip, limit int) ([]models.Submission, int, error) {
	query := map[string]any{}
	total, err := r.store.Count(ctx, SubmissionsCollection, query)
	if err != nil {
		return nil, 0, err
	}

	docs, err := r.store.Find(ctx, SubmissionsCollection, query, &db.FindOptions{
		Sort:  "-submittedAt",
		Skip:  skip,
		Limit: limit,
	})
	if err != nil {
		return nil, 0, err
	}

	subs := make([]models.Submission, 0, len(docs))
	for _, d := range docs {
		s, err := fromDoc[models.Submission](d)
		if err != nil {
			continue
		}
		subs = append(subs, *s)
	}
	return subs, total, nil
}

// Count counts submissions of one enrollment nature, or all when nature is
// empty.
func (r *SubmissionRepo) Count(ctx context.Context, nature string) (int, error) {
	query := map[string]any{}
	if nature != "" {
		query["enrollmentNature"] = nature
	}
	return r.store.Count(ctx, SubmissionsCollection, query)
}
