package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/bookkeeper/internal/client/migrations"
	"github.com/dmitrijs2005/bookkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/bookkeeper/internal/filex"
)

const (
	keyAccessToken = "access_token"
	keyServerURL   = "server_url"
)

// Session persists the access token between libraryctl runs.
type Session struct {
	db   *sql.DB
	repo metadata.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenSession opens (creating if needed) the session store at path.
func OpenSession(ctx context.Context, path string) (*Session, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session migrations: %w", err)
	}

	return &Session{db: db, repo: metadata.NewSQLiteRepository(db)}, nil
}

func (s *Session) Close() error {
	return s.db.Close()
}

func (s *Session) Save(ctx context.Context, serverURL, token string) error {
	if err := s.repo.Set(ctx, keyServerURL, []byte(serverURL)); err != nil {
		return err
	}
	return s.repo.Set(ctx, keyAccessToken, []byte(token))
}

// AccessToken returns the token saved for serverURL, or ErrNotLoggedIn.
func (s *Session) AccessToken(ctx context.Context, serverURL string) (string, error) {
	url, err := s.repo.Get(ctx, keyServerURL)
	if err != nil {
		return "", err
	}
	tok, err := s.repo.Get(ctx, keyAccessToken)
	if err != nil {
		return "", err
	}
	if tok == nil || string(url) != serverURL {
		return "", ErrNotLoggedIn
	}
	return string(tok), nil
}

func (s *Session) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
