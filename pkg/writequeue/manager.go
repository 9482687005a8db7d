// Package writequeue serializes writes per key
// Package writequeue 按 key 串行化写操作
// Writers sharing a key (one per table) run one at a time in FIFO order, which keeps
// SQLite away from "database is locked" while readers stay unblocked.
// 同一 key（每张表一个）的写操作按 FIFO 顺序逐个执行，读操作不受影响
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haierkeys/fast-note-local/pkg/logger"
	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull returned when the key's queue is full
	// ErrWriteQueueFull 队列已满
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed returned after Shutdown
	// ErrWriteQueueClosed 写队列已关闭
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout returned when the write did not finish in time
	// ErrWriteTimeout 写操作超时
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity per-key queue capacity, default 100
	QueueCapacity int
	// WriteTimeout max wait for a single write, default 30s
	WriteTimeout time.Duration
	// IdleTimeout idle queues are reclaimed after this, default 10m
	IdleTimeout time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		QueueCapacity: 100,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

// writeOp states; an op runs only if the worker claims it before its caller gives up
const (
	opPending int32 = iota
	opRunning
	opAbandoned
)

type writeOp struct {
	ctx    context.Context
	cancel context.CancelFunc
	fn     func(ctx context.Context) error
	result chan error
	state  *atomic.Int32
}

type keyQueue struct {
	key      string
	ch       chan writeOp
	lastUsed atomic.Int64
	closed   atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func (q *keyQueue) stop() {
	q.stopOnce.Do(func() {
		q.closed.Store(true)
		close(q.stopCh)
	})
}

// Manager owns one queue per key
// Manager 管理所有 key 的写队列
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string]*keyQueue
	closed bool

	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
	cleanupWg   sync.WaitGroup
}

// New creates a write queue manager; nil cfg and logger fall back to defaults
// New 创建写队列管理器，cfg 与 logger 为 nil 时使用默认值
func New(cfg *Config, lg *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if lg == nil {
		lg = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:      c,
		logger:      lg,
		queues:      make(map[string]*keyQueue),
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	m.cleanupWg.Add(1)
	go m.cleanupIdleQueues()

	m.logger.Debug("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("writeTimeout", c.WriteTimeout),
		zap.Duration("idleTimeout", c.IdleTimeout))

	return m
}

// Execute runs fn on the key's worker and waits for its result
// Execute 在 key 对应的 worker 上执行 fn 并等待结果
// A write still queued when the caller gives up is skipped; a write already running gets its
// ctx cancelled and Execute waits for it, so a nil error always means fn completed.
// 调用方放弃时：仍在排队的操作被跳过；正在执行的操作被取消并等待其结束
func (m *Manager) Execute(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	q, err := m.queue(key)
	if err != nil {
		return err
	}

	timeout := m.config.WriteTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	op := writeOp{ctx: opCtx, cancel: cancel, fn: fn, result: make(chan error, 1), state: new(atomic.Int32)}
	select {
	case q.ch <- op:
	default:
		return ErrWriteQueueFull
	}

	select {
	case err := <-op.result:
		if err != nil && ctx.Err() == nil && opCtx.Err() != nil && errors.Is(err, context.DeadlineExceeded) {
			return ErrWriteTimeout
		}
		return err
	case <-opCtx.Done():
		if err := ctx.Err(); err != nil {
			return m.abandon(op, err)
		}
		return m.abandon(op, ErrWriteTimeout)
	case <-m.ctx.Done():
		return m.abandon(op, ErrWriteQueueClosed)
	}
}

// abandon withdraws a pending op, or cancels a running one and reports its real outcome
func (m *Manager) abandon(op writeOp, reason error) error {
	if op.state.CompareAndSwap(opPending, opAbandoned) {
		return reason
	}
	op.cancel()
	err := <-op.result
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return reason
	}
	return err
}

func (m *Manager) queue(key string) (*keyQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrWriteQueueClosed
	}
	if q, ok := m.queues[key]; ok && !q.closed.Load() {
		q.lastUsed.Store(time.Now().UnixNano())
		return q, nil
	}

	q := &keyQueue{
		key:    key,
		ch:     make(chan writeOp, m.config.QueueCapacity),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	q.lastUsed.Store(time.Now().UnixNano())
	m.queues[key] = q
	go m.worker(q)

	m.logger.Debug("created write queue", zap.String(logger.FieldQueue, key))
	return q, nil
}

func (m *Manager) worker(q *keyQueue) {
	defer close(q.done)
	for {
		select {
		case <-q.stopCh:
			m.drain(q)
			return
		case op := <-q.ch:
			m.executeOp(q, op)
		}
	}
}

func (m *Manager) executeOp(q *keyQueue, op writeOp) {
	q.lastUsed.Store(time.Now().UnixNano())
	if !op.state.CompareAndSwap(opPending, opRunning) {
		return
	}
	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}
	op.result <- op.fn(op.ctx)
}

func (m *Manager) drain(q *keyQueue) {
	for {
		select {
		case op := <-q.ch:
			m.executeOp(q, op)
		default:
			return
		}
	}
}

func (m *Manager) cleanupIdleQueues() {
	defer m.cleanupWg.Done()

	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.cleanupDone:
			return
		case <-ticker.C:
			m.doCleanup()
		}
	}
}

func (m *Manager) doCleanup() {
	now := time.Now().UnixNano()
	idle := m.config.IdleTimeout.Nanoseconds()

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, q := range m.queues {
		if now-q.lastUsed.Load() > idle && len(q.ch) == 0 {
			m.logger.Debug("cleaning up idle write queue", zap.String(logger.FieldQueue, key))
			q.stop()
			delete(m.queues, key)
		}
	}
}

// Shutdown stops accepting writes and waits for queued writes to finish
// Shutdown 停止接收写操作并等待已排队的操作完成
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	queues := make([]*keyQueue, 0, len(m.queues))
	for _, q := range m.queues {
		q.stop()
		queues = append(queues, q)
	}
	m.mu.Unlock()

	close(m.cleanupDone)

	done := make(chan struct{})
	go func() {
		for _, q := range queues {
			<-q.done
		}
		m.cleanupWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		m.logger.Debug("write queue manager shutdown completed")
		return nil
	case <-ctx.Done():
		m.cancel()
		m.logger.Warn("write queue manager shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}

// QueueCount returns the number of live queues
// QueueCount 返回活跃队列数量
func (m *Manager) QueueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}

// IsClosed reports whether Shutdown was called
func (m *Manager) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
