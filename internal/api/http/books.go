package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/seldemircin/minimal-api/internal/api/service"
	"github.com/seldemircin/minimal-api/internal/api/store"
	"github.com/seldemircin/minimal-api/pkg/httpx"
	"github.com/seldemircin/minimal-api/pkg/slogx"
	"github.com/seldemircin/minimal-api/pkg/validatorx"
)

type BooksHandler struct {
	BookService *service.BookService
	Logger      *slog.Logger
}

// HandleList godoc
//
//	@Summary	List Books Endpoint
//	@Tags		Books
//	@Produce	json
//	@Success	200	{array}		domain.Book
//	@Failure	401	{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/books [get].
func (h *BooksHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	books, err := h.BookService.List(ctx)
	if err != nil {
		log.Error("failed to list books", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list books")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, books)
}

// HandleSearch godoc
//
//	@Summary	Search Books Endpoint
//	@Tags		Books
//	@Produce	json
//	@Param		title	query		string	false	"Title substring to match, case-insensitively"
//	@Success	200		{array}		domain.Book
//	@Failure	401		{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/books/search [get].
func (h *BooksHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	books, err := h.BookService.Search(ctx, r.URL.Query().Get("title"))
	if err != nil {
		log.Error("failed to search books", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to search books")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, books)
}

// HandleGet godoc
//
//	@Summary	Get Book Endpoint
//	@Tags		Books
//	@Produce	json
//	@Param		id	path		int	true	"Book id"
//	@Success	200	{object}	domain.Book
//	@Failure	400	{object}	httpx.ErrorResponse
//	@Failure	404	{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/books/{id} [get].
func (h *BooksHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, ok := bookID(w, r)
	if !ok {
		return
	}

	book, err := h.BookService.Get(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIDOutOfRange):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Book id is out of range")
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "Book not found")
		default:
			log.Error("failed to get book", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to get book")
		}
		return
	}
	httpx.WriteJSON(w, http.StatusOK, book)
}

// HandleCreate godoc
//
//	@Summary	Create Book Endpoint
//	@Tags		Books
//	@Accept		json
//	@Produce	json
//	@Param		body	body		service.BookInput	true	"Book fields"
//	@Success	201		{object}	domain.Book
//	@Failure	400		{object}	httpx.ErrorResponse
//	@Failure	403		{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/books [post].
func (h *BooksHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var in *service.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	book, err := h.BookService.Create(ctx, in)
	if err != nil {
		writeBookInputError(w, log, err, "Failed to create book")
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, book)
}

// HandleUpdate godoc
//
//	@Summary	Update Book Endpoint
//	@Tags		Books
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"Book id"
//	@Param		body	body		service.BookInput	true	"Book fields"
//	@Success	200		{object}	domain.Book
//	@Failure	400		{object}	httpx.ErrorResponse
//	@Failure	404		{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/books/{id} [put].
func (h *BooksHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, ok := bookID(w, r)
	if !ok {
		return
	}

	var in *service.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	book, err := h.BookService.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "Book not found")
			return
		}
		writeBookInputError(w, log, err, "Failed to update book")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, book)
}

// HandleDelete godoc
//
//	@Summary	Delete Book Endpoint
//	@Tags		Books
//	@Produce	json
//	@Param		id	path	int	true	"Book id"
//	@Success	204
//	@Failure	400	{object}	httpx.ErrorResponse
//	@Failure	404	{object}	httpx.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/books/{id} [delete].
func (h *BooksHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id, ok := bookID(w, r)
	if !ok {
		return
	}

	if err := h.BookService.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, service.ErrIDOutOfRange):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Book id is out of range")
		case errors.Is(err, store.ErrNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "Book not found")
		default:
			log.Error("failed to delete book", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to delete book")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bookID parses the {id} path value, writing a 400 on failure.
func bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Book id must be an integer")
		return 0, false
	}
	return id, true
}

func writeBookInputError(w http.ResponseWriter, log *slog.Logger, err error, fallback string) {
	var ve *validatorx.ValidationError
	switch {
	case errors.Is(err, service.ErrMissingInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Request body is required")
	case errors.Is(err, service.ErrIDOutOfRange):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Book id is out of range")
	case errors.As(err, &ve):
		httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
			Error:       "invalid_request",
			Description: "Validation failed",
			Violations:  ve.Messages(),
		})
	default:
		log.Error(fallback, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", fallback)
	}
}
