package storage

import (
	"container/list"
	"sync"
)

// lruKNode tracks the access history of a single frame. history holds
// the most recent k access timestamps, oldest at the front, so for a
// frame with k recorded accesses the front element is the k-th most
// recent access.
type lruKNode struct {
	history *list.List // of uint64 logical timestamps
	evictable bool
}

// LRUKReplacer implements the LRU-K replacement policy.
//
// The backward k-distance of a frame is the difference between the
// current timestamp and the timestamp of its k-th most recent access.
// A frame with fewer than k recorded accesses has infinite distance.
// The victim is the evictable frame with the largest distance; frames
// with infinite distance always win, ordered among themselves by oldest
// first access (classical LRU over the under-k set).
type LRUKReplacer struct {
	nodes map[FrameID]*lruKNode
	numFrames int
	k int
	timestamp uint64 // logical clock, advanced on every RecordAccess
	currSize int // number of evictable frames
	mutex sync.Mutex
}

// NewLRUKReplacer creates an LRU-K replacer for numFrames frames with
// history depth k
func NewLRUKReplacer(numFrames, k int) *LRUKReplacer {
	return &LRUKReplacer{
		nodes: make(map[FrameID]*lruKNode),
		numFrames: numFrames,
		k: k,
	}
}

// RecordAccess appends the current timestamp to the frame's history,
// keeping only the most recent k entries, and advances the clock.
// A frame seen for the first time gets a fresh node.
// Panics if frameID is out of range: that is a buffer pool bug, not a
// recoverable condition.
func (r *LRUKReplacer) RecordAccess(frameID FrameID, accessType AccessType) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.mustBeValid("RecordAccess", frameID)

	node, ok := r.nodes[frameID]
	if !ok {
		node = &lruKNode{history: list.New()}
		r.nodes[frameID] = node
	}

	node.history.PushBack(r.timestamp)
	if node.history.Len() > r.k {
		node.history.Remove(node.history.Front())
	}

	r.timestamp++
}

// SetEvictable toggles whether the frame may be chosen as a victim and
// keeps the evictable count in sync. Frames without recorded accesses
// are ignored. Panics if frameID is out of range.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, evictable bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.mustBeValid("SetEvictable", frameID)

	node, ok := r.nodes[frameID]
	if !ok {
		return
	}

	if node.evictable != evictable {
		node.evictable = evictable
		if evictable {
			r.currSize++
		} else {
			r.currSize--
		}
	}
}

// Remove erases all state for the frame, whether or not it is
// evictable. Frames without recorded accesses are ignored. Panics if
// frameID is out of range.
func (r *LRUKReplacer) Remove(frameID FrameID) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.mustBeValid("Remove", frameID)

	node, ok := r.nodes[frameID]
	if !ok {
		return
	}
	if node.evictable {
		r.currSize--
	}
	delete(r.nodes, frameID)
}

// Evict selects the victim with the largest backward k-distance, erases
// its state and returns it. The under-k (infinite distance) candidates
// and the finite candidates are tracked separately: an under-k frame
// always wins, and among under-k frames the one with the oldest first
// access is chosen. Finite ties break toward the smallest frame id.
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currSize == 0 {
		return 0, false
	}

	var (
		infFound bool
		infVictim FrameID
		infOldest uint64

		finFound bool
		finVictim FrameID
		finMaxDist uint64
	)

	for frameID, node := range r.nodes {
		if !node.evictable {
			continue
		}

		if node.history.Len() < r.k {
			first := node.history.Front().Value.(uint64)
			if !infFound || first < infOldest {
				infFound = true
				infVictim = frameID
				infOldest = first
			}
			continue
		}

		kDist := r.timestamp - node.history.Front().Value.(uint64)
		if !finFound || kDist > finMaxDist || (kDist == finMaxDist && frameID < finVictim) {
			finFound = true
			finVictim = frameID
			finMaxDist = kDist
		}
	}

	var victim FrameID
	switch {
	case infFound:
		victim = infVictim
	case finFound:
		victim = finVictim
	default:
		return 0, false
	}

	if r.nodes[victim].evictable {
		r.currSize--
	}
	delete(r.nodes, victim)

	return victim, true
}

// Size returns the number of evictable frames
func (r *LRUKReplacer) Size() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.currSize
}

// mustBeValid panics when the frame id exceeds the replacer capacity.
// Caller holds r.mutex.
func (r *LRUKReplacer) mustBeValid(op string, frameID FrameID) {
	if frameID < 0 || int(frameID) >= r.numFrames {
		panic(ErrFrameOutOfRange(op, frameID, r.numFrames))
	}
}
