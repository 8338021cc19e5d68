package storage

// BasicPageGuard keeps a page pinned until dropped. Dropping twice is
// safe; the pin is released exactly once.
type BasicPageGuard struct {
	bpm *BufferPoolManager
	page *Page
	isDirty bool
}

// NewPageGuarded allocates a new page and wraps it in a guard
func (bpm *BufferPoolManager) NewPageGuarded() (*BasicPageGuard, error) {
	page, err := bpm.NewPage()
	if err != nil {
		return nil, err
	}
	return &BasicPageGuard{bpm: bpm, page: page}, nil
}

// FetchPageBasic fetches a page and wraps it in a guard
func (bpm *BufferPoolManager) FetchPageBasic(pageID PageID) (*BasicPageGuard, error) {
	page, err := bpm.FetchPage(pageID)
	if err != nil {
		return nil, err
	}
	return &BasicPageGuard{bpm: bpm, page: page}, nil
}

// GetPage returns the guarded page, or nil after Drop
func (g *BasicPageGuard) GetPage() *Page {
	return g.page
}

// GetPageID returns the guarded page's id
func (g *BasicPageGuard) GetPageID() PageID {
	return g.page.GetPageID()
}

// SetDirty marks the page dirty when the guard is dropped
func (g *BasicPageGuard) SetDirty() {
	g.isDirty = true
}

// Drop unpins the page, propagating the guard's dirty mark
func (g *BasicPageGuard) Drop() {
	if g.page == nil {
		return
	}
	g.bpm.UnpinPage(g.page.GetPageID(), g.isDirty)
	g.page = nil
}

// ReadPageGuard holds a pinned page plus its shared data latch
type ReadPageGuard struct {
	guard BasicPageGuard
}

// FetchPageRead fetches a page and acquires its shared data latch.
// The pool latch is released before the data latch is taken.
func (bpm *BufferPoolManager) FetchPageRead(pageID PageID) (*ReadPageGuard, error) {
	page, err := bpm.FetchPage(pageID)
	if err != nil {
		return nil, err
	}
	page.RLatch()
	return &ReadPageGuard{guard: BasicPageGuard{bpm: bpm, page: page}}, nil
}

// GetData returns the page data for reading
func (g *ReadPageGuard) GetData() []byte {
	return g.guard.page.GetData()
}

// GetPageID returns the guarded page's id
func (g *ReadPageGuard) GetPageID() PageID {
	return g.guard.page.GetPageID()
}

// Drop releases the data latch, then the pin
func (g *ReadPageGuard) Drop() {
	if g.guard.page == nil {
		return
	}
	g.guard.page.RUnlatch()
	g.guard.Drop()
}

// WritePageGuard holds a pinned page plus its exclusive data latch.
// The page is marked dirty on Drop.
type WritePageGuard struct {
	guard BasicPageGuard
}

// FetchPageWrite fetches a page and acquires its exclusive data latch
func (bpm *BufferPoolManager) FetchPageWrite(pageID PageID) (*WritePageGuard, error) {
	page, err := bpm.FetchPage(pageID)
	if err != nil {
		return nil, err
	}
	page.WLatch()
	return &WritePageGuard{guard: BasicPageGuard{bpm: bpm, page: page, isDirty: true}}, nil
}

// GetData returns the page data for writing
func (g *WritePageGuard) GetData() []byte {
	return g.guard.page.GetData()
}

// GetPageID returns the guarded page's id
func (g *WritePageGuard) GetPageID() PageID {
	return g.guard.page.GetPageID()
}

// Drop releases the data latch, then the pin, marking the page dirty
func (g *WritePageGuard) Drop() {
	if g.guard.page == nil {
		return
	}
	g.guard.page.WUnlatch()
	g.guard.Drop()
}
