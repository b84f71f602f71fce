package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/seldemircin/minimal-api/internal/api/domain"
)

type booksRepo struct {
	db DBTX
}

func (r *booksRepo) CreateBook(ctx context.Context, b *domain.Book) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO books (title, price, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		b.Title, b.Price, now, now,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

func (r *booksRepo) GetBookByID(ctx context.Context, id int64) (domain.Book, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, price, created_at, updated_at
		FROM books
		WHERE id = ?`,
		id,
	)

	var b domain.Book
	if err := row.Scan(&b.ID, &b.Title, &b.Price, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return domain.Book{}, mapNotFound(err)
	}
	return b, nil
}

func (r *booksRepo) ListBooks(ctx context.Context) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, price, created_at, updated_at
		FROM books
		ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBooks(rows)
}

func (r *booksRepo) SearchBooksByTitle(ctx context.Context, title string) ([]domain.Book, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, price, created_at, updated_at
		FROM books
		WHERE title LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY id`,
		title,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBooks(rows)
}

func (r *booksRepo) UpdateBook(ctx context.Context, b domain.Book) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE books SET title = ?, price = ?, updated_at = ? WHERE id = ?`,
		b.Title, b.Price, time.Now().UTC(), b.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *booksRepo) DeleteBook(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func collectBooks(rows *sql.Rows) ([]domain.Book, error) {
	var out []domain.Book
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Price, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
