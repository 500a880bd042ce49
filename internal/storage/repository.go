// Package storage persists users, ledgers and reflections. The rest of the
// service depends only on the Repository interface; SQLite backs production
// and a mutex-guarded memory store backs development and tests.
package storage

import (
	"context"
	"errors"

	"cashflow/internal/core"
)

// ErrNotFound is returned for any missing user, transaction or reflection.
var ErrNotFound = errors.New("not found")

// Repository is the narrow persistence surface of the service. Ledgers are
// partitioned per owner email; implementations preserve insertion order.
type Repository interface {
	LoadLedger(ctx context.Context, owner string) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error)
	AppendTransaction(ctx context.Context, owner string, tx core.Transaction) error
	UpdateTransaction(ctx context.Context, owner string, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, owner, id string) error
	ReplaceLedger(ctx context.Context, owner string, txs []core.Transaction) error

	GetUser(ctx context.Context, email string) (core.User, error)
	CreateUser(ctx context.Context, u core.User) error
	UpdateUser(ctx context.Context, u core.User) error
	ListUsers(ctx context.Context) ([]core.User, error)

	ListReflections(ctx context.Context, owner string) ([]core.Reflection, error)
	AppendReflection(ctx context.Context, owner string, r core.Reflection) error
	DeleteReflection(ctx context.Context, owner, id string) error
	DeleteAllReflections(ctx context.Context, owner string) error

	Close() error
}
