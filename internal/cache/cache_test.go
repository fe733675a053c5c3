package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())

	c.Delete("a")
	assert.Equal(t, 1, c.Size())
}

func TestLRUCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("j", "w")
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestFileCacheReparsesChangedFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	fc := NewFileCache[string](4, time.Hour)
	calls := 0
	parse := func(p string) (string, error) {
		calls++
		b, err := os.ReadFile(p)
		return string(b), err
	}

	v, err := fc.Load(path, parse)
	require.NoError(t, err)
	assert.Equal(t, "one", v)
	_, err = fc.Load(path, parse)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))
	v, err = fc.Load(path, parse)
	require.NoError(t, err)
	assert.Equal(t, "second", v)
	assert.Equal(t, 2, calls)
}

func TestFileCacheDoesNotCacheErrors(t *testing.T) {
	fc := NewFileCache[string](4, time.Hour)
	missing := filepath.Join(t.TempDir(), "missing.csv")
	boom := errors.New("boom")

	_, err := fc.Load(missing, func(string) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, fc.Size())
}

func TestManagerStop(t *testing.T) {
	m := NewManager(nil)
	m.Register(NewFileCache[int](1, time.Millisecond))
	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
}
