package books_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/books"
	"github.com/dmitrijs2005/bookkeeper/internal/server/repositories/repomanager"
)

func openSQLite(t *testing.T) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()
	ctx := context.Background()

	db, m, err := repomanager.Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, m.RunMigrations(ctx, db))
	return db, m
}

func addUser(t *testing.T, db *sql.DB, m repomanager.RepositoryManager, email models.Email) *models.User {
	t.Helper()
	u := models.NewUser("Reader", email, "hash", false)
	require.NoError(t, m.Users(db).Save(context.Background(), u))
	return u
}

func TestSQLite_SaveAndFind(t *testing.T) {
	db, m := openSQLite(t)
	repo := m.Books(db)
	ctx := context.Background()

	b := models.NewBook("Python Crash Course", "Matthes", "intro", "978-1593279288", models.CategoryPython)
	require.NoError(t, repo.Save(ctx, b))
	assert.Equal(t, int64(1), b.Version)

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, b.Title, got.Title)
	assert.Equal(t, b.Author, got.Author)
	assert.Equal(t, b.Description, got.Description)
	assert.Equal(t, b.ISBN, got.ISBN)
	assert.Equal(t, b.Categories, got.Categories)
	assert.Equal(t, models.StatusAvailable, got.Status)
	assert.Nil(t, got.BorrowedBy)
	assert.Equal(t, int64(1), got.Version)
	assert.WithinDuration(t, b.CreatedAt, got.CreatedAt, time.Millisecond)

	missing, err := repo.FindByID(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_BorrowReturnRoundTrip(t *testing.T) {
	db, m := openSQLite(t)
	repo := m.Books(db)
	ctx := context.Background()
	u := addUser(t, db, m, "reader@example.com")

	b := models.NewBook("T", "A", "", "", models.CategoryOther)
	require.NoError(t, repo.Save(ctx, b))

	require.NoError(t, b.Borrow(u.ID))
	require.NoError(t, repo.Save(ctx, b))

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusBorrowed, got.Status)
	require.NotNil(t, got.BorrowedBy)
	assert.Equal(t, u.ID, *got.BorrowedBy)

	n, err := repo.CountBorrowedBy(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, got.Return())
	require.NoError(t, repo.Save(ctx, got))

	n, err = repo.CountBorrowedBy(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLite_StaleCopyLoses(t *testing.T) {
	db, m := openSQLite(t)
	repo := m.Books(db)
	ctx := context.Background()
	u1 := addUser(t, db, m, "one@example.com")
	u2 := addUser(t, db, m, "two@example.com")

	b := models.NewBook("T", "A", "", "", models.CategoryOther)
	require.NoError(t, repo.Save(ctx, b))

	first, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, first.Borrow(u1.ID))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Borrow(u2.ID))
	err = repo.Save(ctx, second)
	require.ErrorIs(t, err, common.ErrVersionConflict)

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, u1.ID, *got.BorrowedBy)
}

func TestSQLite_UnknownBorrowerRejected(t *testing.T) {
	db, m := openSQLite(t)
	repo := m.Books(db)
	ctx := context.Background()

	b := models.NewBook("T", "A", "", "", models.CategoryOther)
	require.NoError(t, repo.Save(ctx, b))

	require.NoError(t, b.Borrow("no-such-user"))
	assert.Error(t, repo.Save(ctx, b))
}

func TestSQLite_StatusBorrowerCheck(t *testing.T) {
	db, m := openSQLite(t)
	repo := m.Books(db)
	ctx := context.Background()

	b := models.NewBook("T", "A", "", "", models.CategoryOther)
	require.NoError(t, repo.Save(ctx, b))

	_, err := db.ExecContext(ctx, `UPDATE books SET status = 'borrowed' WHERE id = ?`, b.ID)
	assert.Error(t, err)
}

func TestSQLite_FindAllOrderAndDelete(t *testing.T) {
	db, m := openSQLite(t)
	repo := m.Books(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i, title := range []models.Title{"C", "A", "B"} {
		b := models.NewBook(title, "X", "", "", models.CategoryOther)
		b.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Save(ctx, b))
		ids = append(ids, b.ID)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, b := range all {
		assert.Equal(t, ids[i], b.ID)
	}

	ok, err := repo.Delete(ctx, ids[1])
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, ids[1])
	require.NoError(t, err)
	assert.False(t, ok)

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

var _ books.Repository = (*books.SQLRepository)(nil)
