package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gkisanet/2026.gemini-file-search/internal/core/domain"
)

// CredentialRepository keeps each browser's login in postgres so a console
// restart does not log everyone out.
type CredentialRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db, now: time.Now}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CredentialRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across console replicas.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026011501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS console_credentials (
	browser_id TEXT PRIMARY KEY,
	token TEXT NOT NULL,
	user_id TEXT NOT NULL,
	username TEXT NOT NULL,
	role TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create console_credentials: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CredentialRepository) Load(ctx context.Context, browserID string) (*domain.Credentials, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT token, user_id, username, role
FROM console_credentials
WHERE browser_id = $1
`, browserID)

	var creds domain.Credentials
	if err := row.Scan(&creds.Token, &creds.User.ID, &creds.User.Username, &creds.User.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "postgres.load_credentials", fmt.Errorf("browser_id=%s", browserID))
		}
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return &creds, nil
}

func (r *CredentialRepository) Save(ctx context.Context, browserID string, creds domain.Credentials) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO console_credentials (browser_id, token, user_id, username, role, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (browser_id) DO UPDATE SET
	token = EXCLUDED.token,
	user_id = EXCLUDED.user_id,
	username = EXCLUDED.username,
	role = EXCLUDED.role,
	updated_at = EXCLUDED.updated_at
`, browserID, creds.Token, creds.User.ID, creds.User.Username, creds.User.Role, r.now().UTC())
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (r *CredentialRepository) Delete(ctx context.Context, browserID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM console_credentials WHERE browser_id = $1`, browserID); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}
