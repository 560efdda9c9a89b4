package script

import (
	"container/list"

	"github.com/linerun-dev/linerun/engine"
)

// CachingLoader wraps a Loader and caches built Programs by locator with
// LRU eviction. Programs are immutable, so a cached one can be handed to
// any number of runs; a tight loop around run_file stops re-executing the
// same file on every call.
type CachingLoader struct {
	underlying engine.Loader
	cache      map[string]*list.Element
	evictList  *list.List
	maxSize    int
}

type cacheEntry struct {
	locator string
	program *engine.Program
}

// NewCachingLoader wraps underlying with an LRU program cache. maxSize is
// the maximum number of cached programs (0 or negative means the default).
func NewCachingLoader(underlying engine.Loader, maxSize int) *CachingLoader {
	if maxSize <= 0 {
		maxSize = 64
	}
	return &CachingLoader{
		underlying: underlying,
		cache:      make(map[string]*list.Element),
		evictList:  list.New(),
		maxSize:    maxSize,
	}
}

func (l *CachingLoader) Load(locator string) (*engine.Program, error) {
	if elem, ok := l.cache[locator]; ok {
		l.evictList.MoveToFront(elem)
		return elem.Value.(*cacheEntry).program, nil
	}

	prog, err := l.underlying.Load(locator)
	if err != nil {
		return nil, err
	}
	l.addToCache(locator, prog)
	return prog, nil
}

func (l *CachingLoader) addToCache(locator string, prog *engine.Program) {
	elem := l.evictList.PushFront(&cacheEntry{locator: locator, program: prog})
	l.cache[locator] = elem
	if l.evictList.Len() > l.maxSize {
		l.evictOldest()
	}
}

func (l *CachingLoader) evictOldest() {
	elem := l.evictList.Back()
	if elem != nil {
		l.evictList.Remove(elem)
		delete(l.cache, elem.Value.(*cacheEntry).locator)
	}
}

// CacheStats reports cache occupancy for monitoring.
type CacheStats struct {
	Size    int
	MaxSize int
}

func (l *CachingLoader) Stats() CacheStats {
	return CacheStats{
		Size:    len(l.cache),
		MaxSize: l.maxSize,
	}
}
