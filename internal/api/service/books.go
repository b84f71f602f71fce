package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seldemircin/minimal-api/internal/api/domain"
	"github.com/seldemircin/minimal-api/internal/api/store"
	"github.com/seldemircin/minimal-api/pkg/validatorx"
)

// ErrIDOutOfRange reports a book id outside the acceptable range for the
// operation.
var ErrIDOutOfRange = errors.New("service: id out of range")

// validateIDInRange rejects ids outside [min, max]. It is deliberately a
// free function taking explicit bounds rather than a method reading fields
// off a struct, so every call site states its own range.
func validateIDInRange(id, min, max int64) error {
	if id < min || id > max {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrIDOutOfRange, id, min, max)
	}
	return nil
}

// BookInput carries the writable fields of a book.
type BookInput struct {
	Title string  `json:"title" validate:"required,min=1,max=256"`
	Price float64 `json:"price" validate:"gte=0"`
}

// BookService implements the catalogue CRUD operations.
type BookService struct {
	store    store.Store
	validate validatorx.FieldValidator
	logger   *slog.Logger
}

func NewBookService(st store.Store, validate validatorx.FieldValidator, logger *slog.Logger) *BookService {
	return &BookService{
		store:    st,
		validate: validate,
		logger:   logger.With(slog.String("service", "books")),
	}
}

func (s *BookService) Create(ctx context.Context, in *BookInput) (domain.Book, error) {
	if in == nil {
		return domain.Book{}, ErrMissingInput
	}
	if err := s.validate.Validate(in); err != nil {
		return domain.Book{}, err
	}

	b := domain.Book{Title: in.Title, Price: in.Price}
	if err := s.store.Books().CreateBook(ctx, &b); err != nil {
		return domain.Book{}, err
	}

	s.logger.InfoContext(ctx, "book created", slog.Int64("book_id", b.ID))
	return b, nil
}

func (s *BookService) Get(ctx context.Context, id int64) (domain.Book, error) {
	if err := validateIDInRange(id, 1, maxBookID); err != nil {
		return domain.Book{}, err
	}
	return s.store.Books().GetBookByID(ctx, id)
}

func (s *BookService) List(ctx context.Context) ([]domain.Book, error) {
	return s.store.Books().ListBooks(ctx)
}

// Search returns books whose title contains the given substring. An empty
// query behaves like List.
func (s *BookService) Search(ctx context.Context, title string) ([]domain.Book, error) {
	if title == "" {
		return s.store.Books().ListBooks(ctx)
	}
	return s.store.Books().SearchBooksByTitle(ctx, title)
}

func (s *BookService) Update(ctx context.Context, id int64, in *BookInput) (domain.Book, error) {
	if in == nil {
		return domain.Book{}, ErrMissingInput
	}
	if err := validateIDInRange(id, 1, maxBookID); err != nil {
		return domain.Book{}, err
	}
	if err := s.validate.Validate(in); err != nil {
		return domain.Book{}, err
	}

	b := domain.Book{ID: id, Title: in.Title, Price: in.Price}
	if err := s.store.Books().UpdateBook(ctx, b); err != nil {
		return domain.Book{}, err
	}
	return s.store.Books().GetBookByID(ctx, id)
}

func (s *BookService) Delete(ctx context.Context, id int64) error {
	if err := validateIDInRange(id, 1, maxBookID); err != nil {
		return err
	}
	if err := s.store.Books().DeleteBook(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "book deleted", slog.Int64("book_id", id))
	return nil
}

// maxBookID bounds ids accepted from the outside; sqlite rowids stay well
// under this.
const maxBookID = int64(1) << 53
