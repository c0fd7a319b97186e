package feed

import (
	"context"
	"log/slog"
	"sync"
)

// Mirror keeps an in-memory copy of a collection, reloading it whenever the
// collection changes. Readers always see a complete list.
type Mirror[T any] struct {
	name      string
	subscribe func() *Subscription
	load      func(context.Context) ([]T, error)

	mu    sync.RWMutex
	items []T

	sub  *Subscription
	wg   sync.WaitGroup
	once sync.Once
}

func NewMirror[T any](name string, subscribe func() *Subscription, load func(context.Context) ([]T, error)) *Mirror[T] {
	return &Mirror[T]{name: name, subscribe: subscribe, load: load}
}

// Start performs the first load and then follows changes until ctx ends or
// Close is called. The subscription is opened before the first load so no
// write between the two is missed.
func (m *Mirror[T]) Start(ctx context.Context) error {
	m.sub = m.subscribe()
	if err := m.reload(ctx); err != nil {
		m.sub.Close()
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-m.sub.C():
				if !ok {
					return
				}
				if err := m.reload(ctx); err != nil {
					// keep serving the previous list
					slog.Error("Failed to refresh mirror", "collection", m.name, "error", err)
				}
			}
		}
	}()
	return nil
}

func (m *Mirror[T]) reload(ctx context.Context) error {
	items, err := m.load(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items = items
	m.mu.Unlock()
	return nil
}

// Items returns a snapshot. The slice is the caller's to modify.
func (m *Mirror[T]) Items() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, len(m.items))
	copy(out, m.items)
	return out
}

// Close stops following changes and waits for the refresh loop to exit.
func (m *Mirror[T]) Close() {
	m.once.Do(func() {
		if m.sub != nil {
			m.sub.Close()
		}
		m.wg.Wait()
	})
}
