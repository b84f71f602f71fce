package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/seldemircin/minimal-api/internal/api/service"
	"github.com/seldemircin/minimal-api/internal/api/store"
	"github.com/seldemircin/minimal-api/pkg/httpx"
	"github.com/seldemircin/minimal-api/pkg/jwtx"
	"github.com/seldemircin/minimal-api/pkg/slogx"

	_ "github.com/seldemircin/minimal-api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Role names used by the authorization middleware.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	AuthService *service.AuthService
	BookService *service.BookService
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CORSMiddleware(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerBooks()
	r.registerUser()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Minimal Book API
//	@version		0.1.0
//	@description	A small book catalogue API with JWT-based authentication.
//	@description
//	@description				Access tokens are signed with HS256 and refreshed through rotating refresh tokens.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService, Logger: r.logger}

	// All three endpoints take credentials or tokens; strict rate limit by IP.
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerBooks() {
	h := &BooksHandler{BookService: r.BookService, Logger: r.logger}

	read := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyRole(RoleAdmin, RoleUser),
			httpx.RateLimitByIP(httpx.LenientLimit),
		)
	}
	write := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyRole(RoleAdmin),
			httpx.RateLimitByIP(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /api/books", read(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("GET /api/books/search", read(http.HandlerFunc(h.HandleSearch)))
	r.Mux.Handle("GET /api/books/{id}", read(http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("PUT /api/books/{id}", read(http.HandlerFunc(h.HandleUpdate)))
	r.Mux.Handle("POST /api/books", write(http.HandlerFunc(h.HandleCreate)))
	r.Mux.Handle("DELETE /api/books/{id}", write(http.HandlerFunc(h.HandleDelete)))
}

func (r *Router) registerUser() {
	h := &UserInfoHandler{}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByIP(httpx.LenientLimit),
	)

	r.Mux.Handle("GET /api/user", secured)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
