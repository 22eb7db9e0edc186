package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Result reports the outcome of a mutating statement.
type Result struct {
	RowsAffected int64
}

// Gateway is the parameterized SQL surface shared by every repository.
// A Gateway returned by Transaction is bound to that transaction.
type Gateway struct {
	db      *gorm.DB
	dialect string
}

// NewGateway wraps an already opened gorm connection.
func NewGateway(db *gorm.DB, dialect string) *Gateway {
	return &Gateway{db: db, dialect: dialect}
}

// Dialect reports the SQL dialect behind the gateway.
func (g *Gateway) Dialect() string {
	return g.dialect
}

// Exec runs a statement that does not return rows.
func (g *Gateway) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	res := g.db.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return Result{}, classify("exec", res.Error)
	}
	return Result{RowsAffected: res.RowsAffected}, nil
}

// ExecReturningID runs an INSERT ... RETURNING id statement and reports the
// identifier assigned by the store.
func (g *Gateway) ExecReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var row struct {
		ID int64
	}
	res := g.db.WithContext(ctx).Raw(query, args...).Scan(&row)
	if res.Error != nil {
		return 0, classify("insert", res.Error)
	}
	if res.RowsAffected == 0 || row.ID == 0 {
		return 0, &StorageError{Op: "insert", Code: CodeUnknown, Err: fmt.Errorf("store did not assign an id")}
	}
	return row.ID, nil
}

// FetchOne scans the first row of the query into dest. found is false when
// the query matched nothing.
func (g *Gateway) FetchOne(ctx context.Context, dest interface{}, query string, args ...interface{}) (bool, error) {
	res := g.db.WithContext(ctx).Raw(query, args...).Scan(dest)
	if res.Error != nil {
		return false, classify("fetch_one", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// FetchMany scans every row of the query into dest, which must point to a slice.
func (g *Gateway) FetchMany(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if err := g.db.WithContext(ctx).Raw(query, args...).Scan(dest).Error; err != nil {
		return classify("fetch_many", err)
	}
	return nil
}

// Transaction runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise; fn's error is returned unchanged.
func (g *Gateway) Transaction(ctx context.Context, fn func(tx *Gateway) error) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gateway{db: tx, dialect: g.dialect})
	})
	return classifyKnown("transaction", err)
}

// Ping verifies the connection is usable.
func (g *Gateway) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return classify("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

// Close releases the underlying connection.
func (g *Gateway) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
