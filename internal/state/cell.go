package state

import "sync"

// Cell is an observable value. Every Set replaces the value and notifies each
// subscriber synchronously, in subscription order. Subscribers are called
// without the cell lock held, so they may read or write the cell.
type Cell[T any] struct {
	mu    sync.Mutex
	value T
	subs  []subscriber[T]
	next  int
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// NewCell returns a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

func (c *Cell[T]) Set(value T) {
	c.mu.Lock()
	c.value = value
	subs := append([]subscriber[T](nil), c.subs...)
	c.mu.Unlock()
	for _, s := range subs {
		s.fn(value)
	}
}

// Update replaces the value with fn applied to the current one.
func (c *Cell[T]) Update(fn func(T) T) {
	c.Set(fn(c.Get()))
}

// Subscribe registers fn and calls it once with the current value. The
// returned function removes the subscription.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	value := c.value
	c.mu.Unlock()

	fn(value)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}
