package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonceLockRegistrySerializesSameAddress(t *testing.T) {
	registry := NewNonceLockRegistry()
	sender := common.HexToAddress("0x01")

	var active, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := registry.Acquire(sender)
			defer release()

			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), peak.Load())
	assert.Equal(t, 1, registry.Len())
}

func TestNonceLockRegistryDifferentAddressesDoNotBlock(t *testing.T) {
	registry := NewNonceLockRegistry()
	releaseA := registry.Acquire(common.HexToAddress("0x0a"))
	defer releaseA()

	acquired := make(chan struct{})
	go func() {
		release := registry.Acquire(common.HexToAddress("0x0b"))
		release()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock on a different sender blocked")
	}
	assert.Equal(t, 2, registry.Len())
}

func TestNonceLockReleaseIsIdempotent(t *testing.T) {
	registry := NewNonceLockRegistry()
	sender := common.HexToAddress("0x0c")

	release := registry.Acquire(sender)
	release()
	require.NotPanics(t, release)

	done := make(chan struct{})
	go func() {
		registry.Acquire(sender)()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock not released")
	}
}
