// Package events carries in-process notifications between the fetch layer,
// the load coordinator, and view adapters.
package events

import (
	"sync"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
)

// DataUpdated announces that a background revalidation stored newer data
// for Region.
type DataUpdated struct {
	Region domain.Region
}

// DateSelected asks for the dashboard as it stood on Date (YYYY-MM-DD).
type DateSelected struct {
	Date string
}

// Broadcaster fans values out to subscribers. Each subscriber holds at most
// one pending value; publishing over an undelivered value replaces it, so
// slow consumers only ever see the latest signal.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   []chan T
	closed bool
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{}
}

// Subscribe registers a new subscriber. The channel is closed by Close.
func (b *Broadcaster[T]) Subscribe() <-chan T {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan T, 1)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers v to every subscriber without blocking.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		for {
			select {
			case ch <- v:
			default:
				// Drop the stale value and retry.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}

// Bus groups the broadcasters shared by one running dashboard.
type Bus struct {
	DataUpdated  *Broadcaster[DataUpdated]
	DateSelected *Broadcaster[DateSelected]
}

// NewBus creates a Bus with empty broadcasters.
func NewBus() *Bus {
	return &Bus{
		DataUpdated:  NewBroadcaster[DataUpdated](),
		DateSelected: NewBroadcaster[DateSelected](),
	}
}

// Close closes both broadcasters.
func (b *Bus) Close() {
	b.DataUpdated.Close()
	b.DateSelected.Close()
}
