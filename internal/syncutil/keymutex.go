// Package syncutil provides concurrency helpers shared across request
// handlers.
package syncutil

import (
	"context"
	"hash/fnv"
)

const shardCount = 256

// KeyMutex is a fixed pool of channel-based locks keyed by string, with
// context-aware acquisition. Memory stays bounded no matter how many keys are
// seen; keys hashing to the same shard occasionally contend with each other.
type KeyMutex struct {
	shards [shardCount]chan struct{}
}

// NewKeyMutex creates a KeyMutex with all shards unlocked.
func NewKeyMutex() *KeyMutex {
	m := &KeyMutex{}
	for i := range m.shards {
		m.shards[i] = make(chan struct{}, 1)
		m.shards[i] <- struct{}{}
	}
	return m
}

// Lock acquires the lock for key, or gives up when ctx is cancelled while
// waiting. On success the returned function releases the lock and must be
// called exactly once; on cancellation it returns nil and the context error.
func (m *KeyMutex) Lock(ctx context.Context, key string) (func(), error) {
	shard := m.shards[shardFor(key)]
	select {
	case <-shard:
		return func() { shard <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
