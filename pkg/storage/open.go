package storage

import (
	"context"
	"time"

	"github.com/cooketh/flow/pkg/errors"
	"github.com/cooketh/flow/pkg/observability"
)

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Dir     string
	Redis   RedisConfig
	Mongo   MongoConfig
}

// Open returns the configured store wrapped with [Instrument].
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "", BackendMemory:
		s = NewMemoryStore()
	case BackendFile:
		s, err = NewFileStore(cfg.Dir)
	case BackendRedis:
		s, err = DialRedis(ctx, cfg.Redis)
	case BackendMongo:
		s, err = DialMongo(ctx, cfg.Mongo)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	name := cfg.Backend
	if name == "" {
		name = BackendMemory
	}
	return Instrument(name, s), nil
}

// Instrument reports every operation on s to the registered
// [observability.StorageHooks] under the given backend name.
func Instrument(backend string, s Store) Store {
	return &instrumented{backend: backend, next: s}
}

type instrumented struct {
	backend string
	next    Store
}

func (s *instrumented) observe(ctx context.Context, op string, start time.Time, err error) {
	observability.Storage().OnOperation(ctx, s.backend, op, time.Since(start), err)
}

func (s *instrumented) Save(ctx context.Context, doc Document) (Document, error) {
	start := time.Now()
	out, err := s.next.Save(ctx, doc)
	s.observe(ctx, "save", start, err)
	return out, err
}

func (s *instrumented) Load(ctx context.Context, id string) (Document, error) {
	start := time.Now()
	doc, err := s.next.Load(ctx, id)
	s.observe(ctx, "load", start, err)
	return doc, err
}

func (s *instrumented) List(ctx context.Context) ([]Meta, error) {
	start := time.Now()
	list, err := s.next.List(ctx)
	s.observe(ctx, "list", start, err)
	return list, err
}

func (s *instrumented) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.observe(ctx, "delete", start, err)
	return err
}

func (s *instrumented) Close() error { return s.next.Close() }
