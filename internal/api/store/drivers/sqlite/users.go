package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/seldemircin/minimal-api/internal/api/domain"
	"github.com/seldemircin/minimal-api/internal/api/store"
)

type usersRepo struct {
	db DBTX

	// withTx runs fn in a fresh transaction. Nil when the repo is already
	// transaction-scoped.
	withTx func(ctx context.Context, fn func(tx store.Tx) error) error
}

const userColumns = `id, username, email, first_name, last_name, password_hash, roles,
	refresh_token_hash, refresh_token_expires_at, created_at, updated_at`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	createdAt, updatedAt := u.CreatedAt, u.UpdatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, first_name, last_name, password_hash, roles, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, joinRoles(u.Roles), createdAt, updatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username = ? COLLATE NOCASE`,
		username,
	)
	return scanUser(row)
}

func (r *usersRepo) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	var roles string
	err := r.db.QueryRowContext(ctx, `SELECT roles FROM users WHERE id = ?`, userID).Scan(&roles)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return splitRoles(roles), nil
}

func (r *usersRepo) AddUserRoles(ctx context.Context, userID string, roles []string, now time.Time) error {
	if len(roles) == 0 {
		return nil
	}

	// The read-merge-write below must not interleave with a concurrent
	// grant, so outside a transaction it opens one of its own.
	if r.withTx != nil {
		return r.withTx(ctx, func(tx store.Tx) error {
			return tx.Users().AddUserRoles(ctx, userID, roles, now)
		})
	}

	current, err := r.GetUserRoles(ctx, userID)
	if err != nil {
		return err
	}

	merged := joinRoles(append(current, roles...))
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET roles = ?, updated_at = ? WHERE id = ?`,
		merged, now.UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetRefreshToken(ctx context.Context, userID, tokenHash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET refresh_token_hash = ?, updated_at = ? WHERE id = ?`,
		tokenHash, now.UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetRefreshTokenWithExpiry(
	ctx context.Context,
	userID, tokenHash string,
	expiresAt, now time.Time,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = ?, refresh_token_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		tokenHash, expiresAt.UTC(), now.UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SwapRefreshToken(ctx context.Context, userID, currentHash, newHash string, now time.Time) error {
	// The WHERE clause is the compare half of the compare-and-swap: if the
	// stored fingerprint no longer equals currentHash, zero rows match and
	// the concurrent rotation that got there first wins.
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = ?, updated_at = ?
		WHERE id = ? AND refresh_token_hash = ?`,
		newHash, now.UTC(), userID, currentHash,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTokenConflict
	}
	return nil
}

func (r *usersRepo) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = NULL, updated_at = ?
		WHERE refresh_token_hash IS NOT NULL AND refresh_token_expires_at < ?`,
		now.UTC(), now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u         domain.User
		roles     string
		tokenHash sql.NullString
		expiresAt sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &roles,
		&tokenHash, &expiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Roles = splitRoles(roles)
	if tokenHash.Valid {
		val := tokenHash.String
		u.RefreshTokenHash = &val
	}
	if expiresAt.Valid {
		u.RefreshTokenExpiresAt = expiresAt.Time
	}
	return u, nil
}
