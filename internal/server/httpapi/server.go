// Package httpapi exposes the BookKeeper use cases over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
)

const shutdownTimeout = 20 * time.Second

// BookService is the catalog use case the handlers drive.
type BookService interface {
	GetByID(ctx context.Context, id string) (*models.Book, error)
	List(ctx context.Context, q services.BookQuery) ([]*models.Book, int, error)
	Create(ctx context.Context, in services.BookInput) (*models.Book, error)
	Update(ctx context.Context, id string, p services.BookPatch) (*models.Book, error)
	Delete(ctx context.Context, id string) (bool, error)
	Borrow(ctx context.Context, id, userID string) (*models.Book, error)
	ReturnChecked(ctx context.Context, id string, check func(*models.Book) error) (*models.Book, error)
	AttachCover(ctx context.Context, id, key string) (*models.Book, error)
}

// UserService is the account use case the handlers drive.
type UserService interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, in services.UserInput) (*models.User, error)
	Update(ctx context.Context, id string, p services.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id string) (bool, error)
	BooksForUser(ctx context.Context, userID string) ([]string, error)
	Login(ctx context.Context, email, password string) (*services.Token, error)
}

// CoverStore presigns object-storage URLs for book covers.
type CoverStore interface {
	PresignUpload(ctx context.Context, key string) (string, error)
	PresignDownload(ctx context.Context, key string) (string, error)
}

type HTTPServer struct {
	config *config.Config
	logger logging.Logger
	books  BookService
	users  UserService
	// covers is nil when object storage is not configured.
	covers    CoverStore
	jwtSecret []byte
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, bs BookService, us UserService, cs CoverStore) *HTTPServer {
	return &HTTPServer{
		config:    cfg,
		logger:    l.With("module", "http_server"),
		books:     bs,
		users:     us,
		covers:    cs,
		jwtSecret: []byte(cfg.SecretKey),
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.EndpointAddrHTTP)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests up to 20 seconds to finish.
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(ctx),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.logger.Info(ctx, "HTTP server stopped")
	return nil
}
