package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// invalidTextRepresentation is the SQLSTATE PostgreSQL returns for an id that
// is not a valid UUID.
const invalidTextRepresentation = "22P02"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, email, display_name, avatar_url, created_at FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	var email, displayName, avatarURL sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&user.ID, &email, &displayName, &avatarURL, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, sql.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Email = email.String
	user.DisplayName = displayName.String
	user.AvatarURL = avatarURL.String

	return user, nil
}
