// Package feed fans out change notifications from the store to live views.
//
// A subscriber holds at most one pending notification: a view that re-reads
// its collection on every event loses nothing when bursts are coalesced.
package feed

import (
	"sync"
	"time"
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes one write to a collection.
type Event struct {
	Collection string
	Op         Op
	ID         string
	At         time.Time
}

type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]*Subscription
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]*Subscription)}
}

// Subscription is a disposable handle on a collection's change stream.
type Subscription struct {
	broker     *Broker
	collection string
	id         int
	ch         chan Event
	once       sync.Once
}

// Subscribe registers interest in a collection. The caller owns the handle
// and must Close it when the view goes away.
func (b *Broker) Subscribe(collection string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	s := &Subscription{
		broker:     b,
		collection: collection,
		id:         b.nextID,
		ch:         make(chan Event, 1),
	}
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[int]*Subscription)
	}
	b.subs[collection][s.id] = s
	return s
}

// Publish notifies every subscriber of ev.Collection without blocking.
func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs[ev.Collection] {
		select {
		case s.ch <- ev:
		default:
			// a notification is already pending
		}
	}
}

// Subscribers returns the number of open subscriptions on a collection.
func (b *Broker) Subscribers(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[collection])
}

// C delivers change events. It is closed by Close.
func (s *Subscription) C() <-chan Event { return s.ch }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.broker
		b.mu.Lock()
		delete(b.subs[s.collection], s.id)
		if len(b.subs[s.collection]) == 0 {
			delete(b.subs, s.collection)
		}
		close(s.ch)
		b.mu.Unlock()
	})
}
