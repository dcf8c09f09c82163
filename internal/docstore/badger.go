package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerConfig holds configuration for the embedded Badger backend.
type BadgerConfig struct {
	// Path is the directory for database files. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence). Used by tests.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives Badger's internal log output. Nil disables it.
	Logger *slog.Logger
}

// DefaultBadgerConfig returns production defaults for the given path.
func DefaultBadgerConfig(path string) BadgerConfig {
	return BadgerConfig{Path: path, SyncWrites: true}
}

// InMemoryBadgerConfig returns a configuration for tests: no disk I/O,
// no sync writes.
func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerStore implements Store over an embedded Badger database. Documents
// are stored as JSON envelopes under "collection/key".
type BadgerStore struct {
	db  *badger.DB
	now func() time.Time
}

// OpenBadger opens a Badger-backed document store.
func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}

	return &BadgerStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// OpenBadgerInMemory opens an in-memory store for tests.
func OpenBadgerInMemory() (*BadgerStore, error) {
	return OpenBadger(InMemoryBadgerConfig())
}

func docKey(collection, key string) []byte {
	return []byte(collection + "/" + key)
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, collection, key string, out any) error {
	var env envelope
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		})
	})
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", collection, key, err)
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	if ts, ok := out.(Timestamped); ok {
		ts.SetTimestamps(env.CreatedAt, env.UpdatedAt)
	}
	return nil
}

// Put implements Store. The whole document is replaced; each Put runs in
// its own transaction, so two concurrent read-modify-write sequences still
// race exactly as the toggle protocol specifies.
func (s *BadgerStore) Put(_ context.Context, collection, key string, doc any) error {
	now := s.now()
	k := docKey(collection, key)

	err := s.db.Update(func(txn *badger.Txn) error {
		created := now
		if item, err := txn.Get(k); err == nil {
			var existing envelope
			if verr := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); verr == nil && !existing.CreatedAt.IsZero() {
				created = existing.CreatedAt
			}
		}

		if ts, ok := doc.(Timestamped); ok {
			ts.SetTimestamps(created, now)
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		val, err := json.Marshal(envelope{CreatedAt: created, UpdatedAt: now, Data: data})
		if err != nil {
			return err
		}
		return txn.Set(k, val)
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, key, err)
	}
	return nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, collection, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(docKey(collection, key))
	})
	if err != nil && err != badger.ErrKeyNotFound {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

// List implements Store.
func (s *BadgerStore) List(_ context.Context, collection string, each func(data []byte) error) error {
	prefix := []byte(collection + "/")
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var env envelope
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				return err
			}
			if err := each(env.Data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("list %s: %w", collection, err)
	}
	return nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
