package repository

import (
	"context"

	"github.com/parisxmas/OxiEnroll/internal/db"
	"github.com/parisxmas/OxiEnroll/internal/models"
)

const UsersCollection = "_enroll_admins"

type UserRepo struct {
	store db.Store
}

func NewUserRepo(store db.Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	return r.store.CreateUniqueIndex(ctx, UsersCollection, "username")
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	doc, err := r.store.FindOne(ctx, UsersCollection, map[string]any{"username": username})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return fromDoc[models.User](doc)
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) (string, error) {
	return r.store.Insert(ctx, UsersCollection, map[string]any{
		"username":     user.Username,
		"passwordHash": user.PasswordHash,
		"role":         user.Role,
		"createdAt":    user.CreatedAt,
	})
}

// SetPasswordHash replaces the stored hash, used when the seeded admin
// password changes.
func (r *UserRepo) SetPasswordHash(ctx context.Context, username, hash string) error {
	return r.store.UpdateOne(ctx, UsersCollection,
		map[string]any{"username": username}, map[string]any{"passwordHash": hash})
}
