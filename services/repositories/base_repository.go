package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"gorm.io/gorm"
)

// BaseRepository provides common database functionality
type BaseRepository struct {
	db *gorm.DB
}

func NewBaseRepository(db *gorm.DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB returns the underlying database connection
func (r *BaseRepository) DB() *gorm.DB {
	return r.db
}

// conn returns the transaction carried by ctx, or the pool when there is none.
func (r *BaseRepository) conn(ctx context.Context) *gorm.DB {
	if scope, ok := ctx.Value(txKey{}).(*txScope); ok {
		return scope.tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

// ==================== TRANSACTIONS ====================

type txKey struct{}

type txScope struct {
	tx          *gorm.DB
	afterCommit []func()
}

// Transactor implements engine.Transactor. Every repository call made with
// the ctx handed to fn joins the same gorm transaction.
type Transactor struct {
	BaseRepository
}

var _ engine.Transactor = (*Transactor)(nil)

func NewTransactor(db *gorm.DB) *Transactor {
	return &Transactor{BaseRepository: NewBaseRepository(db)}
}

// Atomic runs fn in a transaction. A nested call joins the outer one.
func (t *Transactor) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txScope); ok {
		return fn(ctx)
	}

	scope := &txScope{}
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope.tx = tx
		return fn(context.WithValue(ctx, txKey{}, scope))
	})
	if err != nil {
		return err
	}
	for _, hook := range scope.afterCommit {
		hook()
	}
	return nil
}

// AfterCommit runs hook once the transaction carried by ctx commits, or
// immediately outside a transaction. Hooks of a rolled back transaction never
// run.
func AfterCommit(ctx context.Context, hook func()) {
	if scope, ok := ctx.Value(txKey{}).(*txScope); ok {
		scope.afterCommit = append(scope.afterCommit, hook)
		return
	}
	hook()
}

// translate maps gorm's missing-row error onto engine.ErrNotFound.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return engine.ErrNotFound
	}
	return err
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, translate(err))
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
