package stream

import (
	"context"
	"errors"
	"sync"
)

// DefaultQueueSize is the per-subscriber delivery queue capacity used when
// NewBus is given a non-positive size. A full pipeline run emits well under
// a hundred envelopes, so overflow only happens with a badly stalled viewer.
const DefaultQueueSize = 512

// ErrUnsubscribed is returned by Receive once a subscriber has been removed
// from the bus and its queue has been drained.
var ErrUnsubscribed = errors.New("stream: subscriber unsubscribed")

// Bus fans envelopes out from pipeline runs to any number of subscribers.
// Publish never blocks: each subscriber has its own bounded queue, and when
// a queue is full the oldest envelope is dropped to make room. Delivery is
// FIFO per subscriber. All methods are safe for concurrent use.
type Bus struct {
	mu        sync.Mutex
	subs      map[*Subscriber]struct{}
	queueSize int
}

// Subscriber is one registered delivery queue. Obtain with Bus.Subscribe,
// release with Bus.Unsubscribe.
type Subscriber struct {
	ch      chan Envelope
	removed chan struct{}
	once    sync.Once
}

// NewBus creates a bus whose subscribers each get a queue of the given
// capacity. Sizes <= 0 fall back to DefaultQueueSize.
func NewBus(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bus{
		subs:      make(map[*Subscriber]struct{}),
		queueSize: queueSize,
	}
}

// Subscribe registers a new delivery queue. The subscriber only receives
// envelopes published after this call; there is no replay.
func (b *Bus) Subscribe() *Subscriber {
	s := &Subscriber{
		ch:      make(chan Envelope, b.queueSize),
		removed: make(chan struct{}),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe removes a subscriber from the registry. It is idempotent:
// removing an already-removed subscriber is a no-op. A blocked Receive on
// the subscriber is woken and, once its queue drains, returns ErrUnsubscribed.
func (b *Bus) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
	s.once.Do(func() { close(s.removed) })
}

// Publish delivers env to every currently registered subscriber and returns
// immediately. With zero subscribers it is a no-op. The registry lock is
// held across the fan-out, so envelopes published from concurrent runs are
// observed in a single consistent order by every subscriber.
func (b *Bus) Publish(env Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subs {
		select {
		case s.ch <- env:
		default:
			// Queue full: drop the oldest envelope, then retry once. The
			// second send can only fail if a concurrent Receive drained the
			// queue in between, in which case there is room next time.
			select {
			case <-s.ch:
			default:
			}
			select {
			case s.ch <- env:
			default:
			}
		}
	}
}

// SubscriberCount reports the number of currently registered subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Receive blocks until an envelope is available, the context is cancelled,
// or the subscriber has been unsubscribed and its queue fully drained.
func (s *Subscriber) Receive(ctx context.Context) (Envelope, error) {
	for {
		// Drain queued envelopes before reporting removal, so nothing
		// published prior to Unsubscribe is lost.
		select {
		case env := <-s.ch:
			return env, nil
		default:
		}

		select {
		case env := <-s.ch:
			return env, nil
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		case <-s.removed:
			select {
			case env := <-s.ch:
				return env, nil
			default:
				return Envelope{}, ErrUnsubscribed
			}
		}
	}
}
