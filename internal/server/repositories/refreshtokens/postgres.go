package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/timex"
	"github.com/jackc/pgx/v5/pgconn"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE for a failed FK constraint.
const foreignKeyViolation = "23503"

// DB is what the repository needs from its connection: plain queries and the
// ability to open a transaction for rotation. *sql.DB satisfies it.
type DB interface {
	dbx.DBTX
	dbx.TxBeginner
}

// PostgresRepository implements Repository on top of PostgreSQL.
type PostgresRepository struct {
	db  DB
	now timex.Clock
}

// NewPostgresRepository constructs a repository bound to db.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// WithClock replaces the clock used for expiry comparisons.
func (r *PostgresRepository) WithClock(now timex.Clock) *PostgresRepository {
	r.now = now
	return r
}

func (r *PostgresRepository) FindUserByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	query := `
		SELECT u.id, u.email, u.display_name, u.avatar_url, u.created_at
		FROM refresh_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1 AND t.expires_at > $2
	`

	var (
		user                          models.User
		email, displayName, avatarURL sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, token, r.now()).
		Scan(&user.ID, &email, &displayName, &avatarURL, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Email = email.String
	user.DisplayName = displayName.String
	user.AvatarURL = avatarURL.String
	return &user, nil
}

func (r *PostgresRepository) InsertRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	return insertToken(ctx, r.db, userID, token, expiresAt)
}

func insertToken(ctx context.Context, db dbx.DBTX, userID, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := db.ExecContext(ctx, query, token, userID, expiresAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return common.ErrorUnknownUser
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, newExpiresAt, oldExpiresAt time.Time) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		// A token is superseded at most once. Losing that race, or presenting
		// an already rotated token, leaves no row to update.
		query := `
			UPDATE refresh_tokens
			SET expires_at = LEAST(expires_at, $1), superseded_at = $2
			WHERE token = $3 AND user_id = $4 AND superseded_at IS NULL AND expires_at > $2
		`
		res, err := tx.ExecContext(ctx, query, oldExpiresAt, r.now(), oldToken, userID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n == 0 {
			return common.ErrorNotFound
		}

		return insertToken(ctx, tx, userID, newToken, newExpiresAt)
	})
}

func (r *PostgresRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, r.now())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
