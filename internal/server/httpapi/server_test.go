package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bookkeeper/internal/logging"
	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
	"github.com/dmitrijs2005/bookkeeper/internal/server/covers"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bookkeeper/internal/server/services"
)

type testEnv struct {
	t      *testing.T
	cfg    *config.Config
	db     *sql.DB
	books  *services.BookService
	users  *services.UserService
	server *HTTPServer
	ts     *httptest.Server
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDriver = config.DriverSQLite
	cfg.DatabaseDSN = ":memory:"
	cfg.SecretKey = "httpapi-test-secret"
	cfg.RateLimitEnabled = false
	return cfg
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	return newTestEnvWithCovers(t, nil, opts...)
}

// newTestEnvWithCovers uses cs as the cover store when non-nil, otherwise the
// S3 presigner when the config enables covers.
func newTestEnvWithCovers(t *testing.T, cs CoverStore, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, o := range opts {
		o(cfg)
	}

	ctx := context.Background()
	db, m, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, m.RunMigrations(ctx, db))

	env := &testEnv{
		t:     t,
		cfg:   cfg,
		db:    db,
		books: services.NewBookService(db, m),
		users: services.NewUserService(db, m, cfg),
	}

	if cs == nil && cfg.CoversEnabled() {
		cs = covers.NewService(cfg)
	}

	l := logging.NewJSONLogger(io.Discard, slog.LevelError)
	env.server = NewHTTPServer(cfg, l, env.books, env.users, cs)
	env.ts = httptest.NewServer(env.server.Routes(t.Context()))
	t.Cleanup(env.ts.Close)

	return env
}

func (e *testEnv) createUser(name, email string, admin bool) *models.User {
	e.t.Helper()
	u, err := e.users.Create(context.Background(), services.UserInput{
		Name:     name,
		Email:    email,
		Password: "pa55word-123",
		IsAdmin:  admin,
	})
	require.NoError(e.t, err)
	return u
}

func (e *testEnv) tokenFor(u *models.User) string {
	e.t.Helper()
	tok, err := auth.GenerateToken(auth.Identity{UserID: u.ID, Email: string(u.Email), IsAdmin: u.IsAdmin},
		[]byte(e.cfg.SecretKey), e.cfg.SigningMethod, time.Minute)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) createBook(title string) *models.Book {
	e.t.Helper()
	b, err := e.books.Create(context.Background(), services.BookInput{Title: title, Author: "Someone", Category: "python"})
	require.NoError(e.t, err)
	return b
}

// do sends a request and decodes the JSON response body.
func (e *testEnv) do(method, path, token string, body any) (*http.Response, map[string]any) {
	e.t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		js, err := json.Marshal(b)
		require.NoError(e.t, err)
		rdr = bytes.NewReader(js)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, rdr)
	require.NoError(e.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := e.ts.Client().Do(req)
	require.NoError(e.t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(e.t, err)

	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &out), string(raw))
	}
	return res, out
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t)

	res, body := env.do(http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	assert.Equal(t, "available", body["status"])
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	res, body := env.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.NotEmpty(t, body["error"])

	res, _ = env.do(http.MethodPatch, "/healthz", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	res, _ := env.do(http.MethodGet, "/books", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Bearer", res.Header.Get("WWW-Authenticate"))
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.createUser("Ann", "ann@example.com", false)

	tok, err := auth.GenerateToken(auth.Identity{UserID: u.ID}, []byte(env.cfg.SecretKey), env.cfg.SigningMethod, -time.Minute)
	require.NoError(t, err)

	res, _ := env.do(http.MethodGet, "/users/"+u.ID, tok, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestRequireAuthenticatedUser(t *testing.T) {
	env := newTestEnv(t)

	res, _ := env.do(http.MethodPost, "/books", "", map[string]string{"title": "x", "author": "y"})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Bearer", res.Header.Get("WWW-Authenticate"))
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.RateLimitEnabled = true
		c.RateLimitRPS = 0.001
		c.RateLimitBurst = 1
	})

	res, _ := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, body := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, "rate limit exceeded", body["error"])
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, env.ts.URL+"/books", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	res, err := env.ts.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, res.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestRecoverPanic(t *testing.T) {
	env := newTestEnv(t)

	h := env.server.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
}

func TestServe_GracefulShutdown(t *testing.T) {
	env := newTestEnv(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.server.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
