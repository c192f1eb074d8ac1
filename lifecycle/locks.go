package lifecycle

import "sync"

// keyedMutex serializes operations per key (per order, per table). Entries
// are kept for the life of the process; the key space is bounded by the
// number of live orders and tables.
type keyedMutex struct {
	mus sync.Map // key -> *sync.Mutex
}

// lock acquires the mutex for key and returns its unlock function
func (k *keyedMutex) lock(key string) func() {
	mu, _ := k.mus.LoadOrStore(key, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
