package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"voicechat-service/internal/models"
)

// UserRepository reads the account records owned by the user service.
type UserRepository interface {
	Get(ctx context.Context, userID int) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	List(ctx context.Context, skip, limit int) ([]models.User, error)
	Update(ctx context.Context, userID int, in models.UserUpdate) (models.User, error)
	SetReferenceAudio(ctx context.Context, userID int, url *string) (models.User, error)
}

// UserRepo is a sqlx-backed UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, email, primary_language, ref_audio_url, is_active, created_at`

// Get loads a user by id.
func (r *UserRepo) Get(ctx context.Context, userID int) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByUsername loads a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

// List returns users ordered by id.
func (r *UserRepo) List(ctx context.Context, skip, limit int) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY id OFFSET $1 LIMIT $2`, skip, limit)
	return users, err
}

// Update applies the non-nil fields of in.
func (r *UserRepo) Update(ctx context.Context, userID int, in models.UserUpdate) (models.User, error) {
	var u models.User
	err := r.db.QueryRowxContext(ctx, `
		UPDATE users SET
			username = COALESCE($2, username),
			email = COALESCE($3, email),
			primary_language = CASE WHEN $4 THEN NULLIF($5, '') ELSE primary_language END
		WHERE id=$1
		RETURNING `+userColumns,
		userID, in.Username, in.Email, in.PrimaryLanguage != nil, in.PrimaryLanguage,
	).StructScan(&u)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return models.User{}, ErrUserNotFound
	case isUniqueViolation(err):
		return models.User{}, ErrUserExists
	}
	return u, err
}

// SetReferenceAudio stores (or clears, when url is nil) the reference voice.
func (r *UserRepo) SetReferenceAudio(ctx context.Context, userID int, url *string) (models.User, error) {
	var u models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET ref_audio_url=$2 WHERE id=$1 RETURNING `+userColumns, userID, url).StructScan(&u)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}
