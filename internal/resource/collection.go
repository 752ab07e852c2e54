package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrClosed       = errors.New("collection closed")
	ErrReloadFailed = errors.New("reload after mutation failed")
)

// LoadFunc fetches the full collection from the backend.
type LoadFunc[T any] func(ctx context.Context) ([]T, error)

// Snapshot is a consistent view of a collection at one point in time.
type Snapshot[T any] struct {
	Items []T
	State State
	Err   error
}

// Collection mirrors one backend collection. The mirror is only ever
// replaced wholesale by a load; mutations never patch it.
type Collection[T any] struct {
	name   string
	load   LoadFunc[T]
	logger *zap.Logger

	mu     sync.Mutex
	items  []T
	state  State
	err    error
	gen    uint64
	closed bool
}

func NewCollection[T any](name string, load LoadFunc[T], logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{
		name:   name,
		load:   load,
		logger: logger.Named("resource").With(zap.String("collection", name)),
	}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{Items: c.copyItems(), State: c.state, Err: c.err}
}

func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyItems()
}

func (c *Collection[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Collection[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Reload fetches the collection. On success the items are replaced; on
// failure they are cleared and the error recorded. A load that settles after
// Close, or after a newer Reload started, is discarded.
func (c *Collection[T]) Reload(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.gen++
	gen := c.gen
	c.state = StateLoading
	c.mu.Unlock()

	items, err := c.load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		c.logger.Debug("discarding stale load", zap.Bool("closed", c.closed), zap.Error(err))
		return err
	}
	if err != nil {
		c.items = nil
		c.state = StateErrored
		c.err = err
		c.logger.Warn("load failed", zap.Error(err))
		return err
	}

	c.items = items
	c.state = StateReady
	c.err = nil
	c.logger.Debug("loaded", zap.Int("count", len(items)))
	return nil
}

// Close detaches the collection; later loads are ignored.
func (c *Collection[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Collection[T]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// copyItems never returns nil so an empty collection encodes as [].
func (c *Collection[T]) copyItems() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Mutate runs op and, once it succeeds, reloads the whole collection before
// returning. A failed op leaves items and state untouched. When the reload
// fails the op result is still returned, with an error wrapping
// ErrReloadFailed.
func Mutate[T, R any](ctx context.Context, c *Collection[T], op func(ctx context.Context) (R, error)) (R, error) {
	var zero R

	result, err := op(ctx)
	if err != nil {
		c.logger.Warn("mutation failed", zap.Error(err))
		return zero, err
	}
	if c.isClosed() {
		return result, nil
	}
	if err := c.Reload(ctx); err != nil {
		return result, fmt.Errorf("%w: %w", ErrReloadFailed, err)
	}
	return result, nil
}
