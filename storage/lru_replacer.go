package storage

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// LRUReplacer implements plain LRU replacement on top of hashicorp's
// LRU cache. Only evictable frames live in the cache; recency is
// refreshed on RecordAccess while evictable, so the oldest entry is
// always the least recently used evictable frame.
//
// Unlike LRU-K with k=1, an access made while a frame is not evictable
// does not count: a frame's recency is the later of when it last became
// evictable and its last access while evictable. Any in-range frame
// marked evictable is tracked, with or without a recorded access. It
// serves as the factory's lighter-weight alternative policy.
type LRUReplacer struct {
	evictable *lru.Cache
	numFrames int
	mutex sync.Mutex
}

// NewLRUReplacer creates a new LRU replacer for numFrames frames
func NewLRUReplacer(numFrames int) *LRUReplacer {
	if numFrames < 1 {
		numFrames = 1
	}
	// The cache never evicts on its own: at most numFrames distinct
	// frame ids exist, matching its capacity.
	cache, err := lru.New(numFrames)
	if err != nil {
		panic(NewStorageError(ErrCodeInternal, "NewLRUReplacer", "lru cache init failed", err))
	}
	return &LRUReplacer{
		evictable: cache,
		numFrames: numFrames,
	}
}

// RecordAccess refreshes the frame's recency if it is currently
// evictable. Panics if frameID is out of range.
func (r *LRUReplacer) RecordAccess(frameID FrameID, accessType AccessType) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.mustBeValid("RecordAccess", frameID)
	r.evictable.Get(frameID)
}

// SetEvictable inserts or removes the frame from the eviction order.
// Panics if frameID is out of range.
func (r *LRUReplacer) SetEvictable(frameID FrameID, evictable bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.mustBeValid("SetEvictable", frameID)
	if evictable {
		r.evictable.ContainsOrAdd(frameID, struct{}{})
	} else {
		r.evictable.Remove(frameID)
	}
}

// Remove drops the frame from the eviction order. Panics if frameID
// is out of range.
func (r *LRUReplacer) Remove(frameID FrameID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.mustBeValid("Remove", frameID)
	r.evictable.Remove(frameID)
}

// Evict removes and returns the least recently used evictable frame
func (r *LRUReplacer) Evict() (FrameID, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	key, _, ok := r.evictable.RemoveOldest()
	if !ok {
		return 0, false
	}
	return key.(FrameID), true
}

// Size returns the number of evictable frames
func (r *LRUReplacer) Size() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.evictable.Len()
}

func (r *LRUReplacer) mustBeValid(op string, frameID FrameID) {
	if frameID < 0 || int(frameID) >= r.numFrames {
		panic(ErrFrameOutOfRange(op, frameID, r.numFrames))
	}
}
