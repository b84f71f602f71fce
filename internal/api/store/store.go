package store

import (
	"context"
	"errors"
	"time"

	"github.com/seldemircin/minimal-api/internal/api/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrTokenConflict reports a lost compare-and-swap on the stored refresh
	// token: another rotation landed between read and write.
	ErrTokenConflict = errors.New("store: refresh token changed concurrently")
)

// Store is the root data access interface. Concrete drivers (sqlite)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Books() Books

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts a new user (id is provided by app via ULID).
	// CreatedAt/UpdatedAt are persisted as given; the service owns the
	// clock. Returns ErrAlreadyExists when the username is taken;
	// usernames are compared case-insensitively.
	CreateUser(ctx context.Context, u domain.User) error

	// GetUserByUsername looks up a user; the match is case-insensitive.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserRoles returns the current role set for a user. Token issuance
	// reads roles through this call rather than from a cached User value.
	GetUserRoles(ctx context.Context, userID string) ([]string, error)

	// AddUserRoles appends the given roles to the user's set, ignoring any
	// the user already holds. The merge runs in a transaction so two
	// concurrent grants cannot drop each other. now stamps updated_at.
	AddUserRoles(ctx context.Context, userID string, roles []string, now time.Time) error

	// SetRefreshToken stores the fingerprint of a freshly minted refresh
	// token, leaving the stored expiry untouched. now stamps updated_at.
	SetRefreshToken(ctx context.Context, userID, tokenHash string, now time.Time) error

	// SetRefreshTokenWithExpiry stores the fingerprint and resets the
	// refresh window to the given instant. Used by the login path.
	SetRefreshTokenWithExpiry(ctx context.Context, userID, tokenHash string, expiresAt, now time.Time) error

	// SwapRefreshToken replaces the stored fingerprint only if it still
	// equals currentHash; otherwise it returns ErrTokenConflict. The stored
	// expiry is not modified. Used by the refresh path so two concurrent
	// rotations of the same token cannot both succeed.
	SwapRefreshToken(ctx context.Context, userID, currentHash, newHash string, now time.Time) error

	// ClearExpiredRefreshTokens nulls out refresh tokens whose window has
	// passed. Housekeeping; returns the number of rows touched.
	ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type Books interface {
	// CreateBook inserts a new book and fills in its assigned id.
	CreateBook(ctx context.Context, b *domain.Book) error

	// GetBookByID returns a book by id.
	GetBookByID(ctx context.Context, id int64) (domain.Book, error)

	// ListBooks returns all books ordered by id.
	ListBooks(ctx context.Context) ([]domain.Book, error)

	// SearchBooksByTitle returns books whose title contains the given
	// substring, case-insensitively.
	SearchBooksByTitle(ctx context.Context, title string) ([]domain.Book, error)

	// UpdateBook rewrites title and price for an existing book.
	UpdateBook(ctx context.Context, b domain.Book) error

	// DeleteBook removes a book by id.
	DeleteBook(ctx context.Context, id int64) error
}
