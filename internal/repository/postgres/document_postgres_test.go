package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docsummarizer/internal/model"
	"docsummarizer/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var documentCols = []string{"id", "filename", "content_type", "storage_key", "size_bytes", "created_at"}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		Filename:    "test.txt",
		ContentType: "text/plain",
		StorageKey:  "documents/0b7c_test.txt",
		Size:        123,
	}

	rows := sqlmock.NewRows(documentCols).
		AddRow(int64(7), doc.Filename, doc.ContentType, doc.StorageKey, doc.Size, now)

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.Filename, doc.ContentType, doc.StorageKey, doc.Size).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, int64(7), result.ID)
	assert.Equal(t, now, result.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_CreateOnConn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectQuery("INSERT INTO documents").
		WillReturnError(errors.New("duplicate key value violates unique constraint"))

	repo := Factory()(conn)
	doc, err := repo.Create(ctx, &model.Document{Filename: "a.txt"})

	assert.Error(t, err)
	assert.Nil(t, doc)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(documentCols).
			AddRow(int64(42), "file.txt", "text/plain", "documents/k_file.txt", 100, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs(int64(42)).
			WillReturnRows(rows)

		doc, err := repo.FindByID(ctx, 42)

		assert.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, int64(42), doc.ID)
		assert.Equal(t, "documents/k_file.txt", doc.StorageKey)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs(int64(404)).
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, 404)

		assert.Error(t, err)
		assert.True(t, IsNoRowsError(err))
		assert.Nil(t, doc)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("paged", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := sqlmock.NewRows(documentCols).
			AddRow(int64(1), "file.txt", "text/plain", "documents/k_file.txt", 100, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY created_at DESC, id DESC LIMIT").
			WithArgs(10, 0).
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})

	t.Run("all rows newest first", func(t *testing.T) {
		newer := time.Now()
		older := newer.Add(-time.Hour)

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows(documentCols).
			AddRow(int64(2), "b.txt", "text/plain", "documents/k_b.txt", 1, newer).
			AddRow(int64(1), "a.txt", "text/plain", "documents/k_a.txt", 1, older)

		mock.ExpectQuery("SELECT (.+) FROM documents\\s+ORDER BY created_at DESC, id DESC\\s*$").
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.PageQuery{})

		require.NoError(t, err)
		require.Len(t, res.Items, 2)
		assert.Equal(t, int64(2), res.Items[0].ID)
		assert.Equal(t, int64(1), res.Items[1].ID)
	})

	t.Run("count error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnError(errors.New("conn reset"))

		res, err := repo.List(ctx, repository.PageQuery{})

		assert.Error(t, err)
		assert.Nil(t, res)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents WHERE id = ?").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, 3)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func IsNoRowsError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
