// Package auth provides user registration, login, and JWT issuing.
package auth

import (
	"context"
	"net/mail"
	"time"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
)

// User is an account owning materials, menus, and sales.
type User struct {
	ID           id.ID     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Repository persists users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, userID id.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// Validate checks account invariants.
func (u *User) Validate(ctx context.Context) error {
	if len(u.Name) < 3 || len(u.Name) > 100 {
		return apperror.NewValidation("name must be between 3 and 100 characters").
			WithDetail("field", "name")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return apperror.NewValidation("invalid email address").
			WithDetail("field", "email")
	}
	return nil
}
