package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	"github.com/dmitrijs2005/bookkeeper/internal/dbx"
	"github.com/dmitrijs2005/bookkeeper/internal/server/models"
)

const table = "books"

var columns = []any{
	"id", "title", "author", "description", "isbn", "categories",
	"status", "borrowed_by_id", "cover_key", "version", "created_at",
}

// SQLRepository implements Repository for any goqu dialect the schema
// migrations exist for.
type SQLRepository struct {
	db      dbx.DBTX
	dialect goqu.DialectWrapper
}

func NewSQLRepository(db dbx.DBTX, dialect string) *SQLRepository {
	return &SQLRepository{db: db, dialect: goqu.Dialect(dialect)}
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, "postgres")
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, "sqlite3")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var (
		b           models.Book
		description sql.NullString
		isbn        sql.NullString
		categories  string
		status      string
		borrowedBy  sql.NullString
		coverKey    sql.NullString
	)

	err := row.Scan(&b.ID, &b.Title, &b.Author, &description, &isbn, &categories,
		&status, &borrowedBy, &coverKey, &b.Version, &b.CreatedAt)
	if err != nil {
		return nil, err
	}

	b.Description = fromNull(description)
	b.ISBN = fromNull(isbn)
	b.Categories = models.SplitCategories(categories)
	b.Status = models.BookStatus(status)
	b.BorrowedBy = fromNull(borrowedBy)
	b.CoverKey = fromNull(coverKey)
	b.CreatedAt = b.CreatedAt.UTC()

	return &b, nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*models.Book, error) {
	query, args, err := r.dialect.From(table).
		Select(columns...).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	book, err := scanBook(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return book, nil
}

func (r *SQLRepository) FindAll(ctx context.Context) ([]*models.Book, error) {
	query, args, err := r.dialect.From(table).
		Select(columns...).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

// Save writes the whole book. A new book (Version 0) is inserted. Otherwise
// the row is updated only if its version still equals book.Version; when
// that fails because another writer got there first, common.ErrVersionConflict
// is returned and book is left untouched. On success book.Version is bumped.
func (r *SQLRepository) Save(ctx context.Context, book *models.Book) error {
	if book.Version == 0 {
		return r.insert(ctx, book)
	}

	query, args, err := r.dialect.Update(table).
		Set(r.record(book, book.Version+1)).
		Where(goqu.C("id").Eq(book.ID), goqu.C("version").Eq(book.Version)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 1 {
		book.Version++
		return nil
	}

	exists, err := r.exists(ctx, book.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("book %s at version %d: %w", book.ID, book.Version, common.ErrVersionConflict)
	}

	return r.insert(ctx, book)
}

func (r *SQLRepository) insert(ctx context.Context, book *models.Book) error {
	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	rec := r.record(book, book.Version+1)
	rec["id"] = book.ID
	rec["created_at"] = book.CreatedAt

	query, args, err := r.dialect.Insert(table).Rows(rec).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("book %s: %w", book.ID, common.ErrVersionConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}

	book.Version++
	return nil
}

func (r *SQLRepository) record(book *models.Book, version int64) goqu.Record {
	return goqu.Record{
		"title":          string(book.Title),
		"author":         string(book.Author),
		"description":    toNull(book.Description),
		"isbn":           toNull(book.ISBN),
		"categories":     models.JoinCategories(book.Categories),
		"status":         string(book.Status),
		"borrowed_by_id": toNull(book.BorrowedBy),
		"cover_key":      toNull(book.CoverKey),
		"version":        version,
	}
}

func (r *SQLRepository) exists(ctx context.Context, id string) (bool, error) {
	query, args, err := r.dialect.From(table).
		Select(goqu.COUNT("*")).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) (bool, error) {
	query, args, err := r.dialect.Delete(table).
		Where(goqu.C("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return n > 0, nil
}

func (r *SQLRepository) CountBorrowedBy(ctx context.Context, userID string) (int, error) {
	query, args, err := r.dialect.From(table).
		Select(goqu.COUNT("*")).
		Where(goqu.C("borrowed_by_id").Eq(userID)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func toNull(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
