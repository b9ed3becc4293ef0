package services

import (
	"sync"
	"time"

	"wallet-backend/internal/metrics"

	"github.com/ethereum/go-ethereum/common"
)

// NonceLockRegistry hands out one mutex per sender address so that at most one
// transaction per sender is built, broadcast and confirmed at a time.
// Locks are created on first use and never removed. Acquire has no timeout.
type NonceLockRegistry struct {
	mu    sync.Mutex // guards locks only, never held while waiting on a sender lock
	locks map[common.Address]*sync.Mutex
}

// NewNonceLockRegistry creates an empty registry
func NewNonceLockRegistry() *NonceLockRegistry {
	return &NonceLockRegistry{
		locks: make(map[common.Address]*sync.Mutex),
	}
}

// getOrCreateLock returns the sender's lock, creating it if absent
func (r *NonceLockRegistry) getOrCreateLock(address common.Address) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, exists := r.locks[address]
	if !exists {
		lock = &sync.Mutex{}
		r.locks[address] = lock
		metrics.NonceLocks.Set(float64(len(r.locks)))
	}
	return lock
}

// Acquire blocks until the sender's lock is held and returns its release function.
// The release function is safe to call more than once.
func (r *NonceLockRegistry) Acquire(address common.Address) func() {
	lock := r.getOrCreateLock(address)

	start := time.Now()
	lock.Lock()
	metrics.NonceLockWaitSeconds.Observe(time.Since(start).Seconds())

	var once sync.Once
	return func() {
		once.Do(lock.Unlock)
	}
}

// Len returns the number of senders that have a lock
func (r *NonceLockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
