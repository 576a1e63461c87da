package repository

import (
	"context"

	"docsummarizer/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here, only persistence.
type DocumentRepository interface {
	// Create inserts a new document record.
	// ID and CreatedAt are assigned by the database and returned in the stored document.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id int64) (*model.Document, error)

	// List returns documents newest first and the total row count.
	// A non-positive Limit returns every row.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id int64) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
