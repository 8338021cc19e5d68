package storage

import (
	"sync"
	"time"

	"github.com/phuslu/log"
)

// BufferPoolManager mediates between a fixed pool of in-memory frames
// and a page-oriented disk store. Victim selection is delegated to a
// Replacer.
//
// A single coarse latch serializes every operation on the page table,
// free list and replacer. Disk I/O blocks under the latch; the
// per-page data latch is never taken while the pool latch is held.
type BufferPoolManager struct {
	poolSize int
	frames []*Page // frame storage, index is the FrameID
	pageTable map[PageID]FrameID
	freeList []FrameID
	replacer Replacer
	diskManager DiskManager
	logManager *LogManager // write-ahead rule only; may be nil
	nextPageID PageID
	metrics *Metrics
	logger *log.Logger
	latch sync.Mutex
}

// NewBufferPoolManager creates a buffer pool of poolSize frames with
// an LRU-K replacer of the given history depth
func NewBufferPoolManager(poolSize int, diskManager DiskManager, replacerK int, logManager *LogManager) (*BufferPoolManager, error) {
	return newBufferPoolManager(poolSize, diskManager, NewLRUKReplacer(poolSize, replacerK), logManager, "info")
}

// NewBufferPoolManagerFromConfig creates a buffer pool configured by cfg
func NewBufferPoolManagerFromConfig(cfg *Config, diskManager DiskManager, logManager *LogManager) (*BufferPoolManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	replacer := NewReplacerPolicy(cfg.ReplacerPolicy, cfg.PoolSize, cfg.ReplacerK)
	return newBufferPoolManager(cfg.PoolSize, diskManager, replacer, logManager, cfg.LogLevel)
}

func newBufferPoolManager(poolSize int, diskManager DiskManager, replacer Replacer, logManager *LogManager, logLevel string) (*BufferPoolManager, error) {
	if poolSize <= 0 {
		return nil, NewStorageError(ErrCodeInternal, "NewBufferPoolManager", "pool size must be greater than 0", nil)
	}

	bpm := &BufferPoolManager{
		poolSize: poolSize,
		frames: make([]*Page, poolSize),
		pageTable: make(map[PageID]FrameID),
		freeList: make([]FrameID, 0, poolSize),
		replacer: replacer,
		diskManager: diskManager,
		logManager: logManager,
		metrics: NewMetrics(),
		logger: newKernelLogger(logLevel),
	}

	// Initially, every frame is in the free list
	for i := 0; i < poolSize; i++ {
		bpm.frames[i] = newPage()
		bpm.freeList = append(bpm.freeList, FrameID(i))
	}

	return bpm, nil
}

// GetPoolSize returns the number of frames in the pool
func (bpm *BufferPoolManager) GetPoolSize() int {
	return bpm.poolSize
}

// GetMetrics returns the buffer pool metrics
func (bpm *BufferPoolManager) GetMetrics() *Metrics {
	return bpm.metrics
}

// NewPage allocates a fresh page id, installs it in a frame pinned
// once with zeroed data, and returns it. Returns ErrCodeNoFreeFrames
// when every frame is pinned.
func (bpm *BufferPoolManager) NewPage() (*Page, error) {
	bpm.latch.Lock()
	defer bpm.latch.Unlock()

	frameID, ok := bpm.acquireFrameLocked()
	if !ok {
		return nil, ErrNoFreeFrames("NewPage")
	}

	pageID := bpm.allocatePageLocked()

	page := bpm.frames[frameID]
	page.reset()
	page.pageID = pageID
	page.pin()

	bpm.pageTable[pageID] = frameID
	bpm.replacer.RecordAccess(frameID, AccessUnknown)
	bpm.replacer.SetEvictable(frameID, false)

	bpm.logger.Debug().Int("page", int(pageID)).Int("frame", int(frameID)).Msg("new page")

	return page, nil
}

// FetchPage returns the requested page pinned once more. On a hit the
// frame is returned as-is, never re-read from disk. On a miss a frame
// is acquired (free list first, then eviction) and the page is read
// from disk. Returns ErrCodeInvalidPageID for InvalidPageID and
// ErrCodeNoFreeFrames when every frame is pinned.
func (bpm *BufferPoolManager) FetchPage(pageID PageID) (*Page, error) {
	if pageID == InvalidPageID {
		return nil, ErrInvalidPageID("FetchPage")
	}

	start := time.Now()
	defer func() {
		bpm.metrics.RecordPageFetchLatency(time.Since(start))
	}()

	bpm.latch.Lock()
	defer bpm.latch.Unlock()

	if frameID, ok := bpm.pageTable[pageID]; ok {
		bpm.metrics.RecordCacheHit()
		page := bpm.frames[frameID]
		page.pin()
		bpm.replacer.RecordAccess(frameID, AccessUnknown)
		bpm.replacer.SetEvictable(frameID, false)
		return page, nil
	}

	bpm.metrics.RecordCacheMiss()

	frameID, ok := bpm.acquireFrameLocked()
	if !ok {
		return nil, ErrNoFreeFrames("FetchPage")
	}

	page := bpm.frames[frameID]
	page.reset()
	page.pageID = pageID
	page.pin()

	if err := bpm.diskManager.ReadPage(pageID, page.GetData()); err != nil {
		page.reset()
		bpm.freeList = append(bpm.freeList, frameID)
		return nil, NewStorageError(ErrCodeDiskReadFailed, "FetchPage", "failed to read page from disk", err)
	}

	bpm.pageTable[pageID] = frameID
	bpm.replacer.RecordAccess(frameID, AccessUnknown)
	bpm.replacer.SetEvictable(frameID, false)

	return page, nil
}

// UnpinPage drops one pin on the page. The dirty hint is OR-ed into
// the frame's dirty flag; a caller can set it but never clear it.
// Returns false when the page is not resident or already unpinned.
func (bpm *BufferPoolManager) UnpinPage(pageID PageID, isDirty bool) bool {
	bpm.latch.Lock()
	defer bpm.latch.Unlock()

	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return false
	}

	page := bpm.frames[frameID]
	if page.GetPinCount() <= 0 {
		return false
	}

	page.unpin()
	if isDirty {
		page.setDirty(true)
	}

	if page.GetPinCount() == 0 {
		bpm.replacer.SetEvictable(frameID, true)
	}

	return true
}

// FlushPage writes the page to disk regardless of its dirty flag, then
// clears the flag. Returns false when the page is not resident.
func (bpm *BufferPoolManager) FlushPage(pageID PageID) bool {
	start := time.Now()
	defer func() {
		bpm.metrics.RecordPageFlushLatency(time.Since(start))
	}()

	bpm.latch.Lock()
	defer bpm.latch.Unlock()

	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return false
	}

	bpm.writeBackLocked(bpm.frames[frameID])
	return true
}

// FlushAllPages writes every resident page to disk. The per-page flush
// is inlined under a single latch acquisition.
func (bpm *BufferPoolManager) FlushAllPages() {
	bpm.latch.Lock()
	defer bpm.latch.Unlock()

	for _, frameID := range bpm.pageTable {
		bpm.writeBackLocked(bpm.frames[frameID])
	}
}

// DeletePage removes a page from the pool and retires its id. Deleting
// a page that is not resident succeeds trivially; deleting a pinned
// page is refused.
func (bpm *BufferPoolManager) DeletePage(pageID PageID) bool {
	bpm.latch.Lock()
	defer bpm.latch.Unlock()

	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return true
	}

	page := bpm.frames[frameID]
	if page.GetPinCount() > 0 {
		return false
	}

	delete(bpm.pageTable, pageID)
	bpm.replacer.Remove(frameID)
	bpm.freeList = append(bpm.freeList, frameID)
	page.reset()

	bpm.deallocatePageLocked(pageID)
	bpm.metrics.RecordPageDeletion()
	bpm.logger.Debug().Int("page", int(pageID)).Int("frame", int(frameID)).Msg("deleted page")

	return true
}

// acquireFrameLocked obtains a reusable frame, preferring the free
// list over eviction. An evicted frame's old page is written back if
// dirty and dropped from the page table before the frame is handed
// out. Caller holds bpm.latch.
func (bpm *BufferPoolManager) acquireFrameLocked() (FrameID, bool) {
	if len(bpm.freeList) > 0 {
		frameID := bpm.freeList[0]
		bpm.freeList = bpm.freeList[1:]
		return frameID, true
	}

	frameID, ok := bpm.replacer.Evict()
	if !ok {
		return 0, false
	}

	page := bpm.frames[frameID]
	if page.IsDirty() {
		bpm.metrics.RecordDirtyPageFlush()
		bpm.writeBackLocked(page)
	}

	bpm.logger.Debug().Int("page", int(page.GetPageID())).Int("frame", int(frameID)).Msg("evicted page")
	bpm.metrics.RecordPageEviction()
	delete(bpm.pageTable, page.GetPageID())

	return frameID, true
}

// writeBackLocked writes the frame's page to disk unconditionally and
// clears its dirty flag, flushing the WAL first when the page is
// dirty. Caller holds bpm.latch.
func (bpm *BufferPoolManager) writeBackLocked(page *Page) {
	if bpm.logManager != nil && page.IsDirty() {
		if err := bpm.logManager.Flush(); err != nil {
			bpm.logger.Error().Err(err).Msg("wal flush before page write failed")
		}
	}

	if err := bpm.diskManager.WritePage(page.GetPageID(), page.GetData()); err != nil {
		bpm.logger.Error().Err(err).Int("page", int(page.GetPageID())).Msg("page write-back failed")
	}

	page.setDirty(false)
}

// allocatePageLocked hands out the next page id. Caller holds
// bpm.latch.
func (bpm *BufferPoolManager) allocatePageLocked() PageID {
	pageID := bpm.nextPageID
	bpm.nextPageID++
	return pageID
}

// deallocatePageLocked retires a page id. Reclaiming the on-disk slot
// is the disk layout's concern; the id is simply never handed out
// again. Caller holds bpm.latch.
func (bpm *BufferPoolManager) deallocatePageLocked(pageID PageID) {
}
