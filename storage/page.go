package storage

import (
	"sync/atomic"
)

// Page is the in-memory image of a disk page held by a buffer pool
// frame. The pool's latch protects the identity fields (page id, pin
// count, dirty flag) during its own operations, but pin count and dirty
// flag are also atomic so callers can observe them without the pool
// latch. The per-page RWLatch guards the data buffer during user
// reads and writes; the pool latch is never held across data access.
type Page struct {
	pageID PageID
	pinCount int32 // atomic
	isDirty uint32 // atomic bool (0=false, 1=true)
	data [PageSize]byte
	latch RWLatch
}

func newPage() *Page {
	return &Page{pageID: InvalidPageID}
}

// GetPageID returns the page ID, or InvalidPageID for an empty frame
func (p *Page) GetPageID() PageID {
	return p.pageID
}

// GetPinCount returns the number of active users of the page
func (p *Page) GetPinCount() int32 {
	return atomic.LoadInt32(&p.pinCount)
}

// IsDirty returns whether the page content has diverged from the
// on-disk image
func (p *Page) IsDirty() bool {
	return atomic.LoadUint32(&p.isDirty) != 0
}

// GetData returns the page's raw data buffer. Callers must hold the
// page latch (RLatch/WLatch) while reading or writing it.
func (p *Page) GetData() []byte {
	return p.data[:]
}

// RLatch acquires the page's shared data latch
func (p *Page) RLatch() {
	p.latch.RLock()
}

// RUnlatch releases the page's shared data latch
func (p *Page) RUnlatch() {
	p.latch.RUnlock()
}

// WLatch acquires the page's exclusive data latch
func (p *Page) WLatch() {
	p.latch.Lock()
}

// WUnlatch releases the page's exclusive data latch
func (p *Page) WUnlatch() {
	p.latch.Unlock()
}

// pin increments the pin count. Called under the pool latch.
func (p *Page) pin() {
	atomic.AddInt32(&p.pinCount, 1)
}

// unpin decrements the pin count. Called under the pool latch.
func (p *Page) unpin() {
	atomic.AddInt32(&p.pinCount, -1)
}

// setDirty stores the dirty flag. Called under the pool latch; the
// sticky OR semantics live in the buffer pool, never here.
func (p *Page) setDirty(dirty bool) {
	var v uint32
	if dirty {
		v = 1
	}
	atomic.StoreUint32(&p.isDirty, v)
}

// resetMemory zeroes the data buffer
func (p *Page) resetMemory() {
	for i := range p.data {
		p.data[i] = 0
	}
}

// reset returns the frame to its unoccupied state
func (p *Page) reset() {
	p.pageID = InvalidPageID
	atomic.StoreInt32(&p.pinCount, 0)
	atomic.StoreUint32(&p.isDirty, 0)
	p.resetMemory()
}
