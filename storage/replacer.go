package storage

// Replacer tracks accesses to buffer pool frames and selects eviction
// victims. Implementations are internally synchronized: the buffer pool
// calls them under its own latch, but each replacer must remain correct
// as a standalone component.
type Replacer interface {
	// RecordAccess notes an access to the given frame at the current
	// logical timestamp. Panics if frameID is out of range.
	RecordAccess(frameID FrameID, accessType AccessType)

	// SetEvictable marks whether the frame may be chosen as a victim.
	// LRUKReplacer ignores frames with no recorded access; LRUReplacer
	// tracks any frame marked evictable. Panics if frameID is out of
	// range.
	SetEvictable(frameID FrameID, evictable bool)

	// Remove drops all replacer state for the frame. Unknown frames
	// are ignored. Panics if frameID is out of range.
	Remove(frameID FrameID)

	// Evict selects a victim frame, erases its state and returns it.
	// Returns false when no frame is evictable.
	Evict() (FrameID, bool)

	// Size returns the number of evictable frames.
	Size() int
}

// NewReplacerPolicy creates a replacer based on the specified policy
func NewReplacerPolicy(policy string, numFrames, k int) Replacer {
	switch policy {
	case "lru":
		return NewLRUReplacer(numFrames)
	case "lru-k":
		return NewLRUKReplacer(numFrames, k)
	default:
		// Default to LRU-K
		return NewLRUKReplacer(numFrames, k)
	}
}
