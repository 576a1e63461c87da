package repository

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.

import (
	"context"
	"database/sql"
)

// DBTX is the query surface shared by *sql.DB, *sql.Conn and *sql.Tx.
// Repositories are bound to one of these, usually a request-scoped *sql.Conn.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Factory binds a DocumentRepository to a connection.
type Factory func(q DBTX) DocumentRepository
