package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/01moynul/taskgig-backoffice/internal/models"
)

var ErrUserNotFound = errors.New("store: user not found")

// Users reads accounts for login and role checks.
type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

const userColumns = "id, role, email, password_hash, full_name, created_at"

// FindByEmail looks up a user for login.
func (s *Users) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

// FindByID is used by the auth middleware to re-check the role on every
// request, so a demoted account loses access before its token expires.
func (s *Users) FindByID(ctx context.Context, id int64) (models.User, error) {
	return s.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

func (s *Users) findOne(ctx context.Context, query string, arg any) (models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Role, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("store: find user: %w", err)
	}
	return u, nil
}
