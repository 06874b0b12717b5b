package history

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/alexanderramin/expedit/internal/domain"
)

const (
	defaultShardCount      = 16
	defaultTTL             = 15 * time.Minute
	defaultCleanupInterval = time.Minute
)

type entry struct {
	versions  []domain.VersionInfo
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

type shard struct {
	mu    sync.RWMutex
	items map[string]*entry
}

// MemoryCache is a sharded in-process Cache with per-entry TTL.
type MemoryCache struct {
	shards []*shard
	ttl    time.Duration
	now    func() time.Time

	cleanupInterval time.Duration
	workerMu        sync.Mutex
	workerRunning   bool
	workerStop      chan struct{}
	workerWg        sync.WaitGroup
}

// NewMemoryCache creates a cache with shardCount shards and the given TTL.
// Non-positive arguments fall back to defaults.
func NewMemoryCache(shardCount int, ttl time.Duration) *MemoryCache {
	if shardCount < 1 {
		shardCount = defaultShardCount
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = &shard{items: make(map[string]*entry)}
	}
	return &MemoryCache{
		shards:          shards,
		ttl:             ttl,
		now:             time.Now,
		cleanupInterval: defaultCleanupInterval,
	}
}

func (c *MemoryCache) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}

// Get returns a copy of the cached list.
func (c *MemoryCache) Get(ctx context.Context, key Key) ([]domain.VersionInfo, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	k := key.String()
	s := c.shardFor(k)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[k]
	if !ok || e.expired(c.now()) {
		return nil, false, nil
	}
	return append([]domain.VersionInfo(nil), e.versions...), true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key Key, versions []domain.VersionInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := key.String()
	s := c.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[k] = &entry{
		versions:  append([]domain.VersionInfo(nil), versions...),
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context, key Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k := key.String()
	s := c.shardFor(k)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, k)
	return nil
}

// CleanExpired drops every expired entry.
func (c *MemoryCache) CleanExpired() {
	now := c.now()
	for _, s := range c.shards {
		s.mu.Lock()
		for k, e := range s.items {
			if e.expired(now) {
				delete(s.items, k)
			}
		}
		s.mu.Unlock()
	}
}

// Len counts live and expired entries still held.
func (c *MemoryCache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// StartCleanupWorker periodically removes expired entries until Close.
func (c *MemoryCache) StartCleanupWorker() {
	c.workerMu.Lock()
	defer c.workerMu.Unlock()
	if c.workerRunning {
		return
	}
	c.workerRunning = true
	c.workerStop = make(chan struct{})
	c.workerWg.Add(1)
	go func() {
		defer c.workerWg.Done()
		ticker := time.NewTicker(c.cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.CleanExpired()
			case <-c.workerStop:
				return
			}
		}
	}()
}

// Close stops the cleanup worker if it is running.
func (c *MemoryCache) Close() error {
	c.workerMu.Lock()
	defer c.workerMu.Unlock()
	if !c.workerRunning {
		return nil
	}
	close(c.workerStop)
	c.workerWg.Wait()
	c.workerRunning = false
	return nil
}
