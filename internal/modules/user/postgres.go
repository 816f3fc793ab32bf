package user

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/teashop/backend/internal/platform/database"
	"github.com/teashop/backend/internal/platform/web"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, is_staff)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.IsStaff,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return database.Translate(err, "user")
}

const selectUser = `
	SELECT id, email, password_hash, first_name, last_name, is_staff, created_at, updated_at
	FROM users
`

func (r *postgresRepository) scan(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.IsStaff,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, database.Translate(err, "user")
	}
	return user, nil
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.scan(r.db.QueryRowContext(ctx, selectUser+` WHERE email = $1`, email))
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", web.ErrBadRequest)
	}
	return r.scan(r.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, parsedID))
}

func (r *postgresRepository) SetStaff(ctx context.Context, id string, staff bool) error {
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", web.ErrBadRequest)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_staff = $1, updated_at = NOW() WHERE id = $2`, staff, parsedID)
	if err != nil {
		return database.Translate(err, "user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	return nil
}
