package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/passivate/pkg/adapters/bolt"
	"github.com/aretw0/passivate/pkg/adapters/file"
	"github.com/aretw0/passivate/pkg/adapters/memory"
	"github.com/aretw0/passivate/pkg/adapters/redis"
	"github.com/aretw0/passivate/pkg/adapters/sqlite"
	"github.com/aretw0/passivate/pkg/persistence/middleware"
	"github.com/aretw0/passivate/pkg/ports"
)

// Backend is an opened checkpoint store plus the locker that goes with it.
type Backend struct {
	Store ports.CheckpointStore
	// Locker is set for stores shared between processes.
	Locker ports.DistributedLocker

	closers []func() error
}

// Close releases the underlying store.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenBackend opens the configured store and wraps it with the encryption
// middleware when a key is set and with metrics when m is not nil.
func (c *Config) OpenBackend(m *middleware.StoreMetrics) (*Backend, error) {
	b := &Backend{}

	switch c.Store.Kind {
	case StoreMemory:
		b.Store = memory.NewStore()
	case StoreFile:
		b.Store = file.New(c.Store.Path)
	case StoreRedis:
		var opts []redis.Option
		if c.Store.Prefix != "" {
			opts = append(opts, redis.WithPrefix(c.Store.Prefix))
		}
		if c.Store.TTL > 0 {
			opts = append(opts, redis.WithTTL(c.Store.TTL))
		}
		s := redis.New(c.Store.Address, c.Store.Password, c.Store.DB, opts...)
		b.Store = s
		b.Locker = redis.NewLocker(s.Client(), lockPrefix(c.Store.Prefix))
		b.closers = append(b.closers, s.Close)
	case StoreBolt:
		if err := ensureDir(c.Store.Path); err != nil {
			return nil, err
		}
		s, err := bolt.Open(c.Store.Path)
		if err != nil {
			return nil, err
		}
		b.Store = s
		b.closers = append(b.closers, s.Close)
	case StoreSQLite:
		s, err := sqlite.Open(c.Store.Path)
		if err != nil {
			return nil, err
		}
		b.Store = s
		b.closers = append(b.closers, s.Close)
	default:
		return nil, fmt.Errorf("store: unknown kind %q", c.Store.Kind)
	}

	var mws []middleware.Middleware
	if m != nil {
		mws = append(mws, middleware.NewMetricsMiddleware(m))
	}
	active, fallback, err := c.Encryption.Keys()
	if err != nil {
		b.Close()
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	b.Store = middleware.Chain(b.Store, mws...)
	return b, nil
}

// lockPrefix is the bare namespace handed to the locker, which adds "lock:".
func lockPrefix(storePrefix string) string {
	if storePrefix == "" {
		return "passivate:"
	}
	return storePrefix
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return nil
}
