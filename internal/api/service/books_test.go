package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/seldemircin/minimal-api/internal/api/store"
	"github.com/seldemircin/minimal-api/internal/api/store/drivers/sqlite"
	"github.com/seldemircin/minimal-api/pkg/validatorx"
	"github.com/stretchr/testify/require"
)

func newBookService(t *testing.T) *BookService {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBookService(st, validatorx.New(), logger)
}

func TestBookService_CRUD(t *testing.T) {
	ctx := context.Background()
	svc := newBookService(t)

	created, err := svc.Create(ctx, &BookInput{Title: "Ince Memed", Price: 12.5})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Ince Memed", got.Title)

	updated, err := svc.Update(ctx, created.ID, &BookInput{Title: "Ince Memed 2", Price: 15})
	require.NoError(t, err)
	require.Equal(t, "Ince Memed 2", updated.Title)
	require.Equal(t, 15.0, updated.Price)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestBookService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newBookService(t)

	_, err := svc.Create(ctx, nil)
	require.ErrorIs(t, err, ErrMissingInput)

	var ve *validatorx.ValidationError
	_, err = svc.Create(ctx, &BookInput{Title: "", Price: -1})
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 2)
}

func TestBookService_Search(t *testing.T) {
	ctx := context.Background()
	svc := newBookService(t)

	for _, title := range []string{"Go in Action", "The Go Programming Language", "SQL Basics"} {
		_, err := svc.Create(ctx, &BookInput{Title: title, Price: 10})
		require.NoError(t, err)
	}

	got, err := svc.Search(ctx, "go")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Empty query falls back to the full listing.
	got, err = svc.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestValidateIDInRange(t *testing.T) {
	require.NoError(t, validateIDInRange(1, 1, 100))
	require.NoError(t, validateIDInRange(100, 1, 100))
	require.ErrorIs(t, validateIDInRange(0, 1, 100), ErrIDOutOfRange)
	require.ErrorIs(t, validateIDInRange(101, 1, 100), ErrIDOutOfRange)
	require.ErrorIs(t, validateIDInRange(-5, 1, 100), ErrIDOutOfRange)
}
