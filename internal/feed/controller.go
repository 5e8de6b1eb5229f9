package feed

import (
	"context"
	"time"
)

// DefaultDebounce is the quiet period after the last query change before a
// fetch fires. Rapid successive changes inside the window collapse into one
// fetch using the last query.
const DefaultDebounce = 300 * time.Millisecond

// FetchFunc loads the payload for a query.
type FetchFunc[Q, T any] func(ctx context.Context, query Q) (T, error)

// Controller mediates between query changes and fetch lifecycle states.
// A single goroutine owns all state; callers interact through Set, Refresh
// and the States channel. Query changes are debounced, an explicit Refresh
// bypasses the debounce and is flagged as a refresh in the emitted states.
type Controller[Q, T any] struct {
	fetch    FetchFunc[Q, T]
	debounce time.Duration

	set     chan Q
	refresh chan struct{}
	states  chan State[T]
}

// NewController starts a controller. A non-positive debounce falls back to
// DefaultDebounce. The controller stops and closes its States channel when
// ctx is cancelled.
func NewController[Q, T any](ctx context.Context, fetch FetchFunc[Q, T], debounce time.Duration) *Controller[Q, T] {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	c := &Controller[Q, T]{
		fetch:    fetch,
		debounce: debounce,
		set:      make(chan Q, 1),
		refresh:  make(chan struct{}, 1),
		states:   make(chan State[T], 16),
	}
	go c.run(ctx)
	return c
}

// States emits every lifecycle transition. The channel is buffered; a
// consumer that falls far behind loses the oldest transitions rather than
// stalling the controller.
func (c *Controller[Q, T]) States() <-chan State[T] {
	return c.states
}

// Set schedules a fetch for the query after the quiet period. Calling it
// again before the period elapses restarts the period with the new query.
// The pending slot holds a single query; a newer call supersedes an
// unconsumed older one, so the last change always wins.
func (c *Controller[Q, T]) Set(query Q) {
	for {
		select {
		case c.set <- query:
			return
		default:
		}
		select {
		case <-c.set:
		default:
		}
	}
}

// Refresh re-fetches the current query immediately, skipping the debounce.
func (c *Controller[Q, T]) Refresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

func (c *Controller[Q, T]) run(ctx context.Context) {
	defer close(c.states)

	timer := time.NewTimer(c.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var (
		current  Q
		hasQuery bool
		armed    bool
	)

	c.emit(Idle[T]())

	for {
		select {
		case <-ctx.Done():
			return

		case query := <-c.set:
			// Drain any changes already queued; only the last one counts.
			for {
				select {
				case query = <-c.set:
					continue
				default:
				}
				break
			}
			current = query
			hasQuery = true
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(c.debounce)
			armed = true

		case <-timer.C:
			armed = false
			c.load(ctx, current, false)

		case <-c.refresh:
			if !hasQuery {
				continue
			}
			if armed {
				if !timer.Stop() {
					<-timer.C
				}
				armed = false
			}
			c.load(ctx, current, true)
		}
	}
}

func (c *Controller[Q, T]) load(ctx context.Context, query Q, refreshing bool) {
	c.emit(Loading[T](refreshing))

	data, err := c.fetch(ctx, query)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.emit(Failure[T](err.Error()))
		return
	}
	c.emit(Success(data))
}

func (c *Controller[Q, T]) emit(state State[T]) {
	for {
		select {
		case c.states <- state:
			return
		default:
		}
		select {
		case <-c.states:
		default:
		}
	}
}
