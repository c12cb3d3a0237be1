package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
)

// ErrNestedTx is returned when a transaction is started inside another.
var ErrNestedTx = errors.New("sqlite: nested transactions are not supported")

// txStore scopes every repo to one *sql.Tx. Lifecycle methods that belong
// to the outer Store are no-ops here.
type txStore struct {
	tx *sql.Tx
}

var _ store.Tx = (*txStore)(nil)

func (t *txStore) Principals() store.Principals { return &principalsRepo{db: t.tx} }
func (t *txStore) Roles() store.Roles           { return &rolesRepo{db: t.tx} }
func (t *txStore) Claims() store.Claims         { return &claimsRepo{db: t.tx} }
func (t *txStore) TokenSlots() store.TokenSlots { return &tokenSlotsRepo{db: t.tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, ErrNestedTx }

func (t *txStore) WithTx(context.Context, func(store.Tx) error) error { return ErrNestedTx }

func (t *txStore) ApplyMigrations() error     { return nil }
func (t *txStore) Close() error               { return nil }
func (t *txStore) Ping(context.Context) error { return nil }
