package sqlite

import (
	"context"
	"testing"

	"github.com/seldemircin/minimal-api/internal/api/domain"
	"github.com/seldemircin/minimal-api/internal/api/store"
	"github.com/stretchr/testify/require"
)

func seedBooks(t *testing.T, s *Store, titles ...string) []domain.Book {
	t.Helper()

	books := make([]domain.Book, 0, len(titles))
	for i, title := range titles {
		b := domain.Book{Title: title, Price: float64(10 + i)}
		require.NoError(t, s.Books().CreateBook(context.Background(), &b))
		require.NotZero(t, b.ID)
		books = append(books, b)
	}
	return books
}

func TestBooks_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seeded := seedBooks(t, s, "Devlet", "Sefiller")

	got, err := s.Books().GetBookByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Devlet", got.Title)

	got.Title = "Devlet (rev)"
	got.Price = 42
	require.NoError(t, s.Books().UpdateBook(ctx, got))

	got, err = s.Books().GetBookByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	require.Equal(t, "Devlet (rev)", got.Title)
	require.Equal(t, 42.0, got.Price)

	all, err := s.Books().ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NoError(t, s.Books().DeleteBook(ctx, seeded[1].ID))
	_, err = s.Books().GetBookByID(ctx, seeded[1].ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Books().DeleteBook(ctx, 9999), store.ErrNotFound)
	require.ErrorIs(t, s.Books().UpdateBook(ctx, domain.Book{ID: 9999, Title: "x"}), store.ErrNotFound)
}

func TestBooks_SearchByTitle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seedBooks(t, s, "Clean Code", "Clean Architecture", "Domain-Driven Design")

	got, err := s.Books().SearchBooksByTitle(ctx, "clean")
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = s.Books().SearchBooksByTitle(ctx, "design")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Domain-Driven Design", got[0].Title)

	got, err = s.Books().SearchBooksByTitle(ctx, "nope")
	require.NoError(t, err)
	require.Empty(t, got)
}
