package feed

import "sync"

// observers is a set of change callbacks run outside the owner's lock.
type observers struct {
	mu   sync.Mutex
	fns  map[int]func()
	next int
}

func (o *observers) add(fn func()) func() {
	o.mu.Lock()
	if o.fns == nil {
		o.fns = make(map[int]func())
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.fns, id)
		o.mu.Unlock()
	}
}

func (o *observers) notify() {
	o.mu.Lock()
	fns := make([]func(), 0, len(o.fns))
	for id := 0; id < o.next; id++ {
		if fn, ok := o.fns[id]; ok {
			fns = append(fns, fn)
		}
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
