package memory

import (
	"context"
	"sync"
)

// Locker serialises work per key within one process.
type Locker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

// NewLocker creates a Locker.
func NewLocker() *Locker {
	return &Locker{locks: map[string]chan struct{}{}}
}

func (l *Locker) slot(k string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[k]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[k] = ch
	}
	return ch
}

// Lock blocks until the key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, tenantID, k string) (func(context.Context) error, error) {
	ch := l.slot(key(tenantID, k))
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-ch })
		return nil
	}, nil
}
