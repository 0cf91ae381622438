// Package repository provides database access for the Name Hive service.
//
// Queries are written against PostgreSQL through database/sql with the pgx
// stdlib driver. The Queries type mirrors the generated-query style: one
// method per statement, Params structs for multi-argument statements, and
// plain row structs with sql.Null* types that the service layer converts to
// domain types.
package repository

import (
	"context"
	"database/sql"
)

// DBTX is the subset of *sql.DB / *sql.Tx the queries need.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries exposes all database statements.
type Queries struct {
	db DBTX
}

// New creates a Queries bound to the given database handle or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}
