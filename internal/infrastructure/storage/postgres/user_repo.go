package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"dapur/internal/core/apperror"
	"dapur/internal/core/id"
	"dapur/internal/domain/auth"
)

const usersTable = "users"

// UserRepo implements auth.Repository.
type UserRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ auth.Repository = (*UserRepo)(nil)

// NewUserRepo creates a user repository.
func NewUserRepo(txm *TxManager) *UserRepo {
	return &UserRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a user account.
func (r *UserRepo) Create(ctx context.Context, u *auth.User) error {
	q := r.builder.Insert(usersTable).
		Columns("id", "name", "email", "password_hash", "created_at").
		Values(u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user account.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getBy(ctx, squirrel.Eq{"id": userID}, userID)
}

// GetByEmail retrieves a user account by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email}, email)
}

func (r *UserRepo) getBy(ctx context.Context, where squirrel.Eq, ref any) (*auth.User, error) {
	q := r.builder.Select("id", "name", "email", "password_hash", "created_at").
		From(usersTable).
		Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var u auth.User
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &u, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", ref)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
