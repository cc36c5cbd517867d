package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/YelzhanWeb/pos/internal/domain"
	"github.com/YelzhanWeb/pos/internal/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct{}

type transactor struct {
	db DB
}

func NewTransactor(db DB) interfaces.Transactor {
	return &transactor{db: db}
}

// WithinTx begins a transaction, stores it on the context handed to fn and
// commits when fn succeeds. Nested calls reuse the outer transaction.
func (t *transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// conn returns the transaction bound to ctx, or the pool.
func conn(ctx context.Context, db DB) Querier {
	if tx, ok := ctx.Value(txKey{}).(Tx); ok {
		return tx
	}
	return db
}

// Postgres error codes the repositories translate.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeInvalidText         = "22P02"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// notFound turns pgx.ErrNoRows into a domain not-found error and wraps
// anything else with context.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(what + " not found")
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// NewStore wires every Postgres repository over db.
func NewStore(db DB) interfaces.Store {
	return interfaces.Store{
		Tx:         NewTransactor(db),
		Products:   NewProductRepository(db),
		Tables:     NewTableRepository(db),
		Orders:     NewOrderRepository(db),
		TempOrders: NewTempOrderRepository(db),
		Settings:   NewSettingsRepository(db),
		Users:      NewUserRepository(db),
		Outbox:     NewOutboxRepository(db),
	}
}
