package rdbms

import (
	"database/sql"

	"golang.org/x/net/context"
)

// Connector abstracts all access to Go SQL functionality.
type Connector interface {
	Begin() (Transacter, error)
	Exec(query string, args ...interface{}) (Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	Close()
	GetType() string
}

type Transacter interface {
	Exec(query string, args ...interface{}) (Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (Result, error)
	Commit() error
	Rollback() error
}

// Result abstracts Go SQL library return values so mock connections can implement them too.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}
