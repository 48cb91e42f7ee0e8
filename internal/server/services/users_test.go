package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/auth"
	"github.com/dmitrijs2005/bookkeeper/internal/server/config"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

func newUserService(t *testing.T) (*UserService, *memStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	store := &memStore{}
	cfg := &config.Config{
		SecretKey:                   "k",
		SigningMethod:               "HS256",
		AccessTokenValidityDuration: 30 * time.Minute,
	}
	return NewUserService(db, &fakeRepoManager{store: store}, cfg), store, mock
}

func register(t *testing.T, svc *UserService, email string) *models.User {
	t.Helper()
	u, err := svc.Create(context.Background(), UserInput{Name: "Reader", Email: email, Password: "password123"})
	require.NoError(t, err)
	return u
}

func TestUserService_Create(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, UserInput{Name: "Alice", Email: " Alice@Example.com ", Password: "password123"})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.Email("alice@example.com"), u.Email)
	assert.False(t, u.IsAdmin)
	assert.NotEqual(t, "password123", u.PasswordHash)

	got, err := svc.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	byID, err := svc.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, byID.Email)
}

func TestUserService_CreateDuplicateEmail(t *testing.T) {
	svc, store, _ := newUserService(t)
	ctx := context.Background()

	first := register(t, svc, "alice@example.com")

	_, err := svc.Create(ctx, UserInput{Name: "Impostor", Email: "ALICE@example.com", Password: "different1"})
	require.ErrorIs(t, err, models.ErrDuplicateEmail)

	require.Len(t, store.users, 1)
	assert.Equal(t, first.ID, store.users[0].ID)
	assert.Equal(t, models.Name("Reader"), store.users[0].Name)
	assert.Equal(t, first.PasswordHash, store.users[0].PasswordHash)
}

func TestUserService_CreateDuplicateRace(t *testing.T) {
	svc, store, _ := newUserService(t)
	store.saveErr = common.ErrAlreadyExists

	_, err := svc.Create(context.Background(), UserInput{Name: "A", Email: "a@example.com", Password: "password123"})
	require.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestUserService_CreateValidation(t *testing.T) {
	svc, store, _ := newUserService(t)

	tests := []struct {
		name  string
		in    UserInput
		field string
	}{
		{"empty name", UserInput{Name: "", Email: "a@example.com", Password: "password123"}, "name"},
		{"bad email", UserInput{Name: "A", Email: "not-an-email", Password: "password123"}, "email"},
		{"short password", UserInput{Name: "A", Email: "a@example.com", Password: "short"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
	assert.Empty(t, store.users)
}

func TestUserService_Authenticate(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()
	u := register(t, svc, "alice@example.com")

	got, err := svc.Authenticate(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = svc.Authenticate(ctx, "alice@example.com", "wrong-password")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Authenticate(ctx, "bob@example.com", "password123")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Authenticate(ctx, "garbage", "password123")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserService_Login(t *testing.T) {
	svc, store, _ := newUserService(t)
	ctx := context.Background()
	u := register(t, svc, "alice@example.com")
	store.users[0].IsAdmin = true

	tok, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), tok.ExpiresAt, time.Minute)

	id, err := auth.ParseToken(tok.AccessToken, []byte("k"), "HS256")
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: u.ID, Email: "alice@example.com", IsAdmin: true}, id)

	_, err = svc.Login(ctx, "alice@example.com", "nope-nope")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_LoginKeepsCause(t *testing.T) {
	svc, store, _ := newUserService(t)
	register(t, svc, "alice@example.com")
	store.users[0].PasswordHash = "not-a-bcrypt-hash"

	_, err := svc.Login(context.Background(), "alice@example.com", "password123")
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.ErrorIs(t, err, bcrypt.ErrHashTooShort)
	assert.NotErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_Update(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()
	u := register(t, svc, "alice@example.com")

	name := "Alice Liddell"
	updated, err := svc.Update(ctx, u.ID, UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, models.Name(name), updated.Name)
	assert.Equal(t, u.PasswordHash, updated.PasswordHash)
	assert.False(t, updated.IsAdmin)

	password := "new-password"
	admin := true
	updated, err = svc.Update(ctx, u.ID, UserPatch{Password: &password, IsAdmin: &admin})
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin)
	assert.Equal(t, models.Name(name), updated.Name)

	got, err := svc.Authenticate(ctx, "alice@example.com", "new-password")
	require.NoError(t, err)
	require.NotNil(t, got)

	short := "x"
	_, err = svc.Update(ctx, u.ID, UserPatch{Password: &short})
	require.ErrorIs(t, err, models.ErrValidation)

	missing, err := svc.Update(ctx, "ghost", UserPatch{Name: &name})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserService_List(t *testing.T) {
	svc, _, _ := newUserService(t)
	register(t, svc, "a@example.com")
	register(t, svc, "b@example.com")

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUserService_BooksForUser(t *testing.T) {
	svc, store, _ := newUserService(t)
	u1, u2 := "u1", "u2"
	store.books = []*models.Book{
		{ID: "b1", Status: models.StatusBorrowed, BorrowedBy: &u1},
		{ID: "b2", Status: models.StatusAvailable},
		{ID: "b3", Status: models.StatusBorrowed, BorrowedBy: &u2},
		{ID: "b4", Status: models.StatusBorrowed, BorrowedBy: &u1},
	}

	ids, err := svc.BooksForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "b4"}, ids)

	ids, err = svc.BooksForUser(context.Background(), "u3")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)
}

func TestUserService_Delete(t *testing.T) {
	svc, _, mock := newUserService(t)
	u := register(t, svc, "alice@example.com")

	mock.ExpectBegin()
	mock.ExpectCommit()
	ok, err := svc.Delete(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectCommit()
	ok, err = svc.Delete(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserService_DeleteRefusedWhileHoldingBooks(t *testing.T) {
	svc, store, mock := newUserService(t)
	u := register(t, svc, "alice@example.com")
	store.books = []*models.Book{{ID: "b1", Status: models.StatusBorrowed, BorrowedBy: &u.ID}}

	mock.ExpectBegin()
	mock.ExpectRollback()

	ok, err := svc.Delete(context.Background(), u.ID)
	require.ErrorIs(t, err, models.ErrUserHasBorrowedBooks)
	assert.False(t, ok)
	assert.Len(t, store.users, 1)
}

func TestUserService_DeleteLosesRaceToBorrow(t *testing.T) {
	svc, store, mock := newUserService(t)
	u := register(t, svc, "alice@example.com")
	store.userDeleteErr = fmt.Errorf("delete user: %w", &pgconn.PgError{Code: "23503"})

	mock.ExpectBegin()
	mock.ExpectRollback()

	ok, err := svc.Delete(context.Background(), u.ID)
	require.ErrorIs(t, err, models.ErrUserHasBorrowedBooks)
	assert.False(t, ok)
}

func TestUserService_DeleteBeginError(t *testing.T) {
	svc, _, mock := newUserService(t)

	mock.ExpectBegin().WillReturnError(errors.New("no tx"))

	_, err := svc.Delete(context.Background(), "u1")
	assert.EqualError(t, err, "no tx")
}
