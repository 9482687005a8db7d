package stream

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/fast-note-local/pkg/logger"
	"go.uber.org/zap"
)

// SourceFunc starts an upstream stream that ends when ctx is cancelled.
type SourceFunc[T any] func(ctx context.Context) <-chan T

// Shared multicasts one upstream to many observers.
//
// The upstream starts with the first observer and keeps running for keepWarm after the
// last one detaches; an observer attaching inside that window cancels the stop. New
// observers receive the latest value first. Consecutive equal values are dropped.
type Shared[T any] struct {
	name     string
	source   SourceFunc[T]
	equal    func(a, b T) bool
	keepWarm time.Duration
	logger   *zap.Logger
	onCount  func(n int)

	mu        sync.Mutex
	nextID    uint64
	subs      map[uint64]chan struct{}
	latest    T
	version   uint64
	hasLatest bool
	gen       uint64
	cancel    context.CancelFunc
	stopTimer *time.Timer
}

// SharedOption configures a Shared stream.
type SharedOption[T any] func(s *Shared[T])

// SharedLogger sets the logger.
func SharedLogger[T any](lg *zap.Logger) SharedOption[T] {
	return func(s *Shared[T]) {
		if lg != nil {
			s.logger = lg
		}
	}
}

// SharedObserverHook is called with the observer count after every attach and detach.
func SharedObserverHook[T any](fn func(n int)) SharedOption[T] {
	return func(s *Shared[T]) { s.onCount = fn }
}

func NewShared[T any](name string, source SourceFunc[T], equal func(a, b T) bool, keepWarm time.Duration, opts ...SharedOption[T]) *Shared[T] {
	s := &Shared[T]{
		name:     name,
		source:   source,
		equal:    equal,
		keepWarm: keepWarm,
		logger:   zap.NewNop(),
		subs:     make(map[uint64]chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe attaches an observer until ctx is cancelled.
func (s *Shared[T]) Observe(ctx context.Context) <-chan T {
	out := make(chan T)
	signal := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = signal
	if s.stopTimer != nil {
		s.stopTimer.Stop()
		s.stopTimer = nil
		s.logger.Debug("shared stream stop cancelled", zap.String(logger.FieldQuery, s.name))
	}
	if s.cancel == nil {
		s.start()
	}
	if s.hasLatest {
		signal <- struct{}{}
	}
	count := len(s.subs)
	s.mu.Unlock()

	s.reportCount(count)
	go s.deliver(ctx, id, out, signal)
	return out
}

// Observers returns the number of attached observers.
func (s *Shared[T]) Observers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Running reports whether the upstream is active.
func (s *Shared[T]) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Close stops the upstream immediately. Attached observers stay attached and will
// restart it on the next Observe.
func (s *Shared[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopTimer != nil {
		s.stopTimer.Stop()
		s.stopTimer = nil
	}
	s.stop()
}

// start must be called with mu held.
func (s *Shared[T]) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.gen++
	s.cancel = cancel
	gen := s.gen
	src := s.source(ctx)
	go func() {
		for v := range src {
			s.publish(gen, v)
		}
	}()
	s.logger.Debug("shared stream started", zap.String(logger.FieldQuery, s.name))
}

// stop must be called with mu held.
func (s *Shared[T]) stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	var zero T
	s.latest, s.hasLatest = zero, false
	s.logger.Debug("shared stream stopped", zap.String(logger.FieldQuery, s.name))
}

func (s *Shared[T]) publish(gen uint64, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.cancel == nil {
		return
	}
	if s.hasLatest && s.equal != nil && s.equal(s.latest, v) {
		return
	}
	s.latest, s.hasLatest = v, true
	s.version++
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Shared[T]) snapshot() (T, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.version, s.hasLatest
}

func (s *Shared[T]) deliver(ctx context.Context, id uint64, out chan<- T, signal <-chan struct{}) {
	defer close(out)
	defer s.detach(id)

	var sent uint64
	var sentAny bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-signal:
		}

		for {
			v, version, ok := s.snapshot()
			if !ok || (sentAny && version <= sent) {
				break
			}
			select {
			case <-ctx.Done():
				return
			case <-signal:
				// newer value published while waiting; re-read it
				continue
			case out <- v:
				sent, sentAny = version, true
			}
			break
		}
	}
}

func (s *Shared[T]) detach(id uint64) {
	s.mu.Lock()
	delete(s.subs, id)
	count := len(s.subs)
	if count == 0 {
		if s.keepWarm <= 0 {
			s.stop()
		} else if s.cancel != nil {
			gen := s.gen
			var timer *time.Timer
			timer = time.AfterFunc(s.keepWarm, func() {
				s.mu.Lock()
				defer s.mu.Unlock()
				if s.stopTimer == timer && len(s.subs) == 0 && s.gen == gen {
					s.stopTimer = nil
					s.stop()
				}
			})
			s.stopTimer = timer
		}
	}
	s.mu.Unlock()
	s.reportCount(count)
}

func (s *Shared[T]) reportCount(n int) {
	s.logger.Debug("shared stream observers", zap.String(logger.FieldQuery, s.name), zap.Int(logger.FieldObservers, n))
	if s.onCount != nil {
		s.onCount(n)
	}
}
