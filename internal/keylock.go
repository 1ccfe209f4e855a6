package internal

import (
	"hash/fnv"
	"sync"
)

const keyLockShards = 64

// KeyedMutex provides per-key mutual exclusion via a fixed set of lock
// shards. Two keys hashing to the same shard contend with each other, which
// is acceptable for the low-frequency critical sections it guards (the
// read-modify-write of a user's security state).
//
// The zero value is ready to use.
type KeyedMutex struct {
	shards [keyLockShards]sync.Mutex
}

// Lock acquires the shard for key and returns its unlock function.
func (m *KeyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	shard := &m.shards[h.Sum32()%keyLockShards]
	shard.Lock()
	return shard.Unlock
}
