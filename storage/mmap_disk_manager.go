//go:build linux || darwin

package storage

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// MmapDiskManager provides page access through a memory-mapped file;
// reads and writes copy between the mapping and the caller's buffer. Pages live at fixed PageSize offsets; the file
// grows and remaps when a write lands past the current mapping.
type MmapDiskManager struct {
	file *os.File
	mapping []byte
	fileSize int64
	mutex sync.Mutex
}

const (
	// Initial file size: 16MB (4K pages * 4KB)
	mmapInitialSize = 16 * 1024 * 1024
	// Grow by 16MB when a write lands past the mapping
	mmapGrowSize = 16 * 1024 * 1024
)

// NewMmapDiskManager creates a new memory-mapped disk manager
func NewMmapDiskManager(fileName string) (*MmapDiskManager, error) {
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open/create file %s: %w", fileName, err)
	}

	fileInfo, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	fileSize := fileInfo.Size()
	if fileSize < mmapInitialSize {
		if err := file.Truncate(mmapInitialSize); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to grow file: %w", err)
		}
		fileSize = mmapInitialSize
	}

	dm := &MmapDiskManager{
		file: file,
		fileSize: fileSize,
	}

	if err := dm.remap(); err != nil {
		file.Close()
		return nil, err
	}

	return dm, nil
}

// remap (re)creates the mapping over the current file size.
// Caller holds dm.mutex, or is the constructor.
func (dm *MmapDiskManager) remap() error {
	if dm.mapping != nil {
		if err := unix.Munmap(dm.mapping); err != nil {
			return fmt.Errorf("failed to unmap file: %w", err)
		}
		dm.mapping = nil
	}

	mapping, err := unix.Mmap(
		int(dm.file.Fd()),
		0,
		int(dm.fileSize),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return fmt.Errorf("failed to mmap file: %w", err)
	}

	dm.mapping = mapping
	return nil
}

// grow extends the file and mapping to cover at least minSize.
// Caller holds dm.mutex.
func (dm *MmapDiskManager) grow(minSize int64) error {
	newSize := dm.fileSize
	for newSize < minSize {
		newSize += mmapGrowSize
	}

	if err := dm.file.Truncate(newSize); err != nil {
		return fmt.Errorf("failed to grow file to %d: %w", newSize, err)
	}

	dm.fileSize = newSize
	return dm.remap()
}

// ReadPage copies a page out of the mapping. Pages past the mapped
// region were never written and read back as zeroes.
func (dm *MmapDiskManager) ReadPage(pageID PageID, data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("page buffer must be exactly %d bytes, got %d", PageSize, len(data))
	}

	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	offset := int64(pageID) * PageSize
	if offset+PageSize > dm.fileSize {
		for i := range data {
			data[i] = 0
		}
		return nil
	}

	copy(data, dm.mapping[offset:offset+PageSize])
	return nil
}

// WritePage copies a page into the mapping, growing the file first if
// needed, and schedules an asynchronous writeback of the dirtied range
func (dm *MmapDiskManager) WritePage(pageID PageID, data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("page data must be exactly %d bytes, got %d", PageSize, len(data))
	}

	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	offset := int64(pageID) * PageSize
	if offset+PageSize > dm.fileSize {
		if err := dm.grow(offset + PageSize); err != nil {
			return err
		}
	}

	copy(dm.mapping[offset:offset+PageSize], data)

	// Page-aligned range, so msync accepts it directly
	return unix.Msync(dm.mapping[offset:offset+PageSize], unix.MS_ASYNC)
}

// Sync forces all dirtied mapping ranges to stable storage
func (dm *MmapDiskManager) Sync() error {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	if dm.mapping == nil {
		return nil
	}
	return unix.Msync(dm.mapping, unix.MS_SYNC)
}

// Close syncs, unmaps and closes the underlying file
func (dm *MmapDiskManager) Close() error {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	if dm.mapping != nil {
		if err := unix.Msync(dm.mapping, unix.MS_SYNC); err != nil {
			return fmt.Errorf("failed to sync mapping: %w", err)
		}
		if err := unix.Munmap(dm.mapping); err != nil {
			return fmt.Errorf("failed to unmap file: %w", err)
		}
		dm.mapping = nil
	}

	if dm.file != nil {
		return dm.file.Close()
	}
	return nil
}
