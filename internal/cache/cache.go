package cache

import (
	"fmt"
	"os"
	"time"

	"orderboard/internal/log"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// FileCache memoizes values parsed from files. Entries are keyed by path,
// modification time and size, so a rewritten file is parsed again.
type FileCache[T any] struct {
	lru Cache[T]
}

// NewFileCache creates a file cache backed by an LRU cache.
func NewFileCache[T any](maxSize int, ttl time.Duration) *FileCache[T] {
	return &FileCache[T]{lru: NewLRUCache[T](maxSize, ttl)}
}

// Load returns the cached value for path, or parses it and caches the result.
// Parse errors are not cached.
func (c *FileCache[T]) Load(path string, parse func(path string) (T, error)) (T, error) {
	info, err := os.Stat(path)
	if err != nil {
		return parse(path)
	}
	key := fmt.Sprintf("%s|%d|%d", path, info.ModTime().UnixNano(), info.Size())
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}
	v, err := parse(path)
	if err != nil {
		return v, err
	}
	c.lru.Set(key, v)
	return v, nil
}

// CleanExpired forwards to the underlying cache when it supports cleanup.
func (c *FileCache[T]) CleanExpired() int {
	if cl, ok := c.lru.(Cleaner); ok {
		return cl.CleanExpired()
	}
	return 0
}

// Size returns the number of cached files.
func (c *FileCache[T]) Size() int { return c.lru.Size() }

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	logger      *log.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// NewManager creates a new cache manager
func NewManager(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		logger:      logger.WithComponent(log.ComponentCache),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			totalCleaned := 0
			for _, cache := range m.caches {
				totalCleaned += cache.CleanExpired()
			}
			if totalCleaned > 0 {
				m.logger.Debug("Expired cache entries removed", "count", totalCleaned)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop stops the cleanup routine. It must be called at most once, after
// StartCleanup.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
