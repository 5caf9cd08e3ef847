package repositories

import (
	"context"
	"database/sql"

	"github.com/evn/absen_backend/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, status, created_at
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Name, &email, &u.Role, &u.Status, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	u.Email = email.String
	return &u, nil
}

// ActiveCardOwner returns the user bound to an active card with this UID.
func (r *UserRepository) ActiveCardOwner(ctx context.Context, cardUID string) (int64, error) {
	var userID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id FROM rfid_cards
		WHERE card_uid = $1 AND status = $2
		LIMIT 1
	`, cardUID, models.CardActive).Scan(&userID)
	if err != nil {
		return 0, notFound(err)
	}
	return userID, nil
}

// GetByEmailWithHash is used for login only; the hash never leaves the auth service.
func (r *UserRepository) GetByEmailWithHash(ctx context.Context, email string) (*models.User, string, error) {
	var u models.User
	var hash sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, status, created_at
		FROM users WHERE LOWER(email) = LOWER($1)
	`, email).Scan(&u.ID, &u.Name, &u.Email, &hash, &u.Role, &u.Status, &u.CreatedAt)
	if err != nil {
		return nil, "", notFound(err)
	}
	return &u, hash.String, nil
}
