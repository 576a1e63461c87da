package postgres

import (
	"context"

	"docsummarizer/internal/model"
	"docsummarizer/internal/repository"
)

const documentColumns = `id, filename, content_type, storage_key, size_bytes, created_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db repository.DBTX
}

// NewDocumentPostgres creates a new DocumentPostgres repository bound to db.
func NewDocumentPostgres(db repository.DBTX) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

// Factory binds a DocumentPostgres to each request-scoped connection.
func Factory() repository.Factory {
	return func(q repository.DBTX) repository.DocumentRepository {
		return NewDocumentPostgres(q)
	}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	if err := s.Scan(
		&d.ID,
		&d.Filename,
		&d.ContentType,
		&d.StorageKey,
		&d.Size,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record with its generated ID.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (filename, content_type, storage_key, size_bytes)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.Filename,
		doc.ContentType,
		doc.StorageKey,
		doc.Size,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID. A missing row yields sql.ErrNoRows.
func (r *DocumentPostgres) FindByID(ctx context.Context, id int64) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns documents newest first, using LIMIT/OFFSET when a limit is given, and a total count.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	// Count total rows
	const qCount = `SELECT COUNT(*) FROM documents`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qAll = `
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY created_at DESC, id DESC
	`
	q, args := qAll, []any{}
	if pq.Limit > 0 {
		q = qAll + ` LIMIT $1 OFFSET $2`
		args = append(args, pq.Limit, pq.Offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
