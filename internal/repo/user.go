package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tbardin/equiprent/internal/domain"
)

// UserRepo exposes the slice of the identity collaborator the API needs:
// the token endpoint resolves user IDs before minting, and tests create
// fixture accounts. Account management lives elsewhere.
type UserRepo interface {
	// GetByID retrieves a user by UUID primary key.
	// Returns domain.ErrNotFound if no user with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)

	// Create inserts a user record. Used by fixtures and the dev token
	// endpoint; a production deployment provisions users out of band.
	Create(ctx context.Context, user domain.User) (domain.User, error)
}

// pgUserRepo is the Postgres implementation of UserRepo.
type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

// GetByID retrieves a user by primary key.
func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `SELECT id, name, email, role, created_at FROM users WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", err)
	}
	return result, nil
}

// Create inserts a user row and returns the full persisted record.
func (r *pgUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	const q = `
		INSERT INTO users (name, email, role)
		VALUES (@name, @email, @role)
		RETURNING id, name, email, role, created_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"name":  user.Name,
		"email": user.Email,
		"role":  string(user.Role),
	})
	result, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.Create: %w", err)
	}
	return result, nil
}

// scanUser maps a single database row into a domain.User.
func scanUser(s scanner) (domain.User, error) {
	var (
		u    domain.User
		id   pgtype.UUID
		role string
	)

	err := s.Scan(&id, &u.Name, &u.Email, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}

	u.ID = uuid.UUID(id.Bytes)
	u.Role = domain.Role(role)
	return u, nil
}
