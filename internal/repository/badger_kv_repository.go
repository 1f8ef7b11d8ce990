package repository

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKVRepository stores values in an embedded BadgerDB.
type BadgerKVRepository struct {
	db *badger.DB
}

// NewBadgerKVRepository creates a new BadgerKVRepository.
func NewBadgerKVRepository(db *badger.DB) *BadgerKVRepository {
	return &BadgerKVRepository{db: db}
}

// Get reads key in a read-only transaction.
func (r *BadgerKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var val []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(val), true, nil
}

// Set overwrites key in a read-write transaction.
func (r *BadgerKVRepository) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}
