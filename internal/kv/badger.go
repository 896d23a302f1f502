package kv

import (
	"context"
	"errors"
	"log/slog"

	badger "github.com/dgraph-io/badger/v4"
)

// Badger is a Store implementation backed by BadgerDB v4.
type Badger struct {
	db *badger.DB
}

// BadgerOptions configures the BadgerDB store.
type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless
	// InMemory is set.
	Dir string

	// InMemory runs BadgerDB without disk persistence. Useful for
	// exercising the real engine in tests.
	InMemory bool

	// Logger receives badger's own log output. If nil, badger logs are
	// suppressed below error level.
	Logger *slog.Logger
}

// OpenBadger opens a BadgerDB-backed Store.
func OpenBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("kv: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = dbOpts.WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(slogAdapter{logger: opts.Logger})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	return val, err
}

func (b *Badger) Set(_ context.Context, key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (b *Badger) Delete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (b *Badger) Scan(_ context.Context, prefix string) ([]Entry, error) {
	p := []byte(prefix)
	var entries []Entry
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = p
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, Entry{
				Key:   string(item.KeyCopy(nil)),
				Value: val,
			})
		}
		return nil
	})
	return entries, err
}

func (b *Badger) BatchSet(_ context.Context, entries []Entry) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		if err := wb.Set([]byte(e.Key), e.Value); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *Badger) BatchDelete(_ context.Context, keys []string) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete([]byte(key)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// slogAdapter bridges badger's logger interface to slog, dropping info
// and debug chatter.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Errorf(f string, v ...interface{}) {
	if a.logger != nil {
		a.logger.Error("badger", "msg", sprintf(f, v...))
	}
}

func (a slogAdapter) Warningf(f string, v ...interface{}) {
	if a.logger != nil {
		a.logger.Warn("badger", "msg", sprintf(f, v...))
	}
}

func (slogAdapter) Infof(string, ...interface{})  {}
func (slogAdapter) Debugf(string, ...interface{}) {}
