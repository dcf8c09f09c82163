package docstore

import (
	"context"
	"errors"

	"academia/internal/observability"
)

var storeMetrics = observability.NewStoreMetrics()

// startOp begins latency tracking and a trace span for a store operation.
// The returned finish func must be called with the operation's result error.
func startOp(ctx context.Context, operation, collection string) (context.Context, func(error)) {
	done := storeMetrics.TrackOperation(operation, collection)
	ctx, span := observability.GetTraceLayer().TraceStoreOperation(ctx, operation, collection)
	return ctx, func(err error) {
		// ErrNotFound is an expected outcome, not a store fault.
		if err != nil && !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
		}
		span.End()
		done()
	}
}

// instrumentedStore decorates a Store with latency metrics and trace spans.
type instrumentedStore struct {
	inner Store
}

// Instrument wraps a store so every operation records latency and a span.
func Instrument(s Store) Store {
	return &instrumentedStore{inner: s}
}

func (s *instrumentedStore) Get(ctx context.Context, collection, key string, out any) error {
	ctx, finish := startOp(ctx, "get", collection)
	err := s.inner.Get(ctx, collection, key, out)
	finish(err)
	return err
}

func (s *instrumentedStore) Put(ctx context.Context, collection, key string, doc any) error {
	ctx, finish := startOp(ctx, "put", collection)
	err := s.inner.Put(ctx, collection, key, doc)
	finish(err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, collection, key string) error {
	ctx, finish := startOp(ctx, "delete", collection)
	err := s.inner.Delete(ctx, collection, key)
	finish(err)
	return err
}

func (s *instrumentedStore) List(ctx context.Context, collection string, each func(data []byte) error) error {
	ctx, finish := startOp(ctx, "list", collection)
	err := s.inner.List(ctx, collection, each)
	finish(err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.inner.Close()
}
