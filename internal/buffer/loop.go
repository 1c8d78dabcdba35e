package buffer

import (
	"context"
	"errors"

	"github.com/roach88/tfscope/internal/tf"
)

// ErrLoopStopped is returned when work is submitted to a stopped Loop.
var ErrLoopStopped = errors.New("buffer loop stopped")

// Loop serialises access to one Buffer.
//
// Thread-safety model:
//   - Enqueue(), Do(), Query(), Stop(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// Every batch is applied in full before the next event is looked at, so a
// query closure never observes a half-applied batch.
type Loop struct {
	buf   *Buffer
	queue *eventQueue
}

// NewLoop wraps b. b must not be used directly once Run has started.
func NewLoop(b *Buffer) *Loop {
	return &Loop{buf: b, queue: newEventQueue()}
}

// Enqueue submits a batch. Returns false if the loop has been stopped.
func (l *Loop) Enqueue(records []tf.Record) bool {
	return l.queue.Enqueue(Event{Type: EventTypeBatch, Records: records})
}

// Do submits fn to run on the loop goroutine. Returns false if the loop has
// been stopped.
func (l *Loop) Do(fn func(*Buffer)) bool {
	return l.queue.Enqueue(Event{Type: EventTypeQuery, Query: fn})
}

// Query runs fn on the loop goroutine and waits for it to finish.
// Returns ErrLoopStopped if the loop is cancelled before fn runs.
func (l *Loop) Query(ctx context.Context, fn func(*Buffer)) error {
	done := make(chan struct{})
	abandoned := make(chan struct{})
	if !l.queue.Enqueue(Event{
		Type: EventTypeQuery,
		Query: func(b *Buffer) {
			defer close(done)
			fn(b)
		},
		Abandon: func() { close(abandoned) },
	}) {
		return ErrLoopStopped
	}

	select {
	case <-done:
		return nil
	case <-abandoned:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes events until ctx is cancelled or Stop is called. After Stop,
// events already queued are still processed before Run returns nil. On
// cancellation, queued batches are dropped and pending Query calls return
// ErrLoopStopped.
func (l *Loop) Run(ctx context.Context) error {
	l.buf.logger.Debug("buffer loop starting")

	for {
		if err := ctx.Err(); err != nil {
			return l.abandon(err)
		}
		if ev, ok := l.queue.TryDequeue(); ok {
			l.process(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			return l.abandon(ctx.Err())

		case <-l.queue.Wait():
			// The signal channel closes with the queue, so this fires
			// immediately once stopped.
			if l.closedAndEmpty() {
				l.buf.logger.Debug("buffer loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue; Run drains what is left and returns.
func (l *Loop) Stop() {
	l.queue.Close()
}

// abandon closes the queue and releases every event still in it.
func (l *Loop) abandon(cause error) error {
	l.queue.Close()
	dropped := 0
	for {
		ev, ok := l.queue.TryDequeue()
		if !ok {
			break
		}
		dropped++
		if ev.Abandon != nil {
			ev.Abandon()
		}
	}
	l.buf.logger.Debug("buffer loop stopping: context cancelled", "dropped", dropped)
	return cause
}

func (l *Loop) closedAndEmpty() bool {
	l.queue.mu.Lock()
	defer l.queue.mu.Unlock()
	return l.queue.closed && len(l.queue.events) == 0
}

func (l *Loop) process(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventTypeBatch:
		l.buf.ApplyBatch(ctx, ev.Records)
	case EventTypeQuery:
		if ev.Query != nil {
			ev.Query(l.buf)
		}
	default:
		l.buf.logger.Error("unknown loop event", "type", int(ev.Type))
	}
}
