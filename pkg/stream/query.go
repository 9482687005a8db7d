package stream

import (
	"context"

	"github.com/haierkeys/fast-note-local/pkg/logger"
	"go.uber.org/zap"
)

// FetchFunc reads a full snapshot.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Query re-runs fetch for each observer whenever its Notifier fires.
type Query[T any] struct {
	name     string
	notifier *Notifier
	fetch    FetchFunc[T]
	equal    func(a, b T) bool
	onFetch  func(name string)
	logger   *zap.Logger
}

// QueryOption configures a Query.
type QueryOption[T any] func(q *Query[T])

// WithEqual suppresses a snapshot equal to the one last delivered to the same observer.
func WithEqual[T any](equal func(a, b T) bool) QueryOption[T] {
	return func(q *Query[T]) { q.equal = equal }
}

// WithLogger sets the logger used for fetch failures.
func WithLogger[T any](lg *zap.Logger) QueryOption[T] {
	return func(q *Query[T]) {
		if lg != nil {
			q.logger = lg
		}
	}
}

// WithFetchHook is called before every fetch, metrics use it.
func WithFetchHook[T any](fn func(name string)) QueryOption[T] {
	return func(q *Query[T]) { q.onFetch = fn }
}

func NewQuery[T any](name string, n *Notifier, fetch FetchFunc[T], opts ...QueryOption[T]) *Query[T] {
	q := &Query[T]{
		name:     name,
		notifier: n,
		fetch:    fetch,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Observe starts a stream whose first value is the current snapshot. A failed fetch
// is logged and skipped; the next change signal retries it.
func (q *Query[T]) Observe(ctx context.Context) <-chan T {
	out := make(chan T)
	// subscribe before the first fetch so a write landing in between is not missed
	signal, unsubscribe := q.notifier.Subscribe()
	go q.run(ctx, out, signal, unsubscribe)
	return out
}

func (q *Query[T]) run(ctx context.Context, out chan<- T, signal <-chan struct{}, unsubscribe func()) {
	defer close(out)
	defer unsubscribe()

	var (
		pending    T
		hasPending bool
		last       T
		hasLast    bool
	)

	refresh := func() {
		if q.onFetch != nil {
			q.onFetch(q.name)
		}
		v, err := q.fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				q.logger.Warn("stream query failed",
					zap.String(logger.FieldQuery, q.name),
					zap.Error(err))
			}
			return
		}
		if q.equal != nil && hasLast && q.equal(last, v) {
			var zero T
			pending, hasPending = zero, false
			return
		}
		pending, hasPending = v, true
	}

	refresh()
	for {
		if !hasPending {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				refresh()
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-signal:
			refresh()
		case out <- pending:
			last, hasLast = pending, true
			var zero T
			pending, hasPending = zero, false
		}
	}
}
