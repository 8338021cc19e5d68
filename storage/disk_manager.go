package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// DiskManager reads and writes fixed-size pages on a block device.
// The buffer pool logs write errors and carries on; a read error fails
// the FetchPage that issued it.
type DiskManager interface {
	// ReadPage reads PageSize bytes of the page into data
	ReadPage(pageID PageID, data []byte) error

	// WritePage persists PageSize bytes of the page from data
	WritePage(pageID PageID, data []byte) error

	// Close releases the underlying resources
	Close() error
}

// FileDiskManager stores pages in a single file at fixed offsets.
// With a codec attached, each slot holds a codec frame (compressed
// payload + checksum) instead of the raw page.
type FileDiskManager struct {
	file *os.File
	codec *PageCodec
	mutex sync.Mutex
}

// NewFileDiskManager creates a disk manager over the given file,
// storing raw pages
func NewFileDiskManager(fileName string) (*FileDiskManager, error) {
	return NewFileDiskManagerWithCodec(fileName, nil)
}

// NewFileDiskManagerWithCodec creates a disk manager that frames every
// page through the codec
func NewFileDiskManagerWithCodec(fileName string, codec *PageCodec) (*FileDiskManager, error) {
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open/create file %s: %w", fileName, err)
	}

	return &FileDiskManager{
		file: file,
		codec: codec,
	}, nil
}

// slotSize is the on-disk footprint of one page
func (dm *FileDiskManager) slotSize() int64 {
	if dm.codec != nil {
		return CodecFrameSize
	}
	return PageSize
}

// ReadPage reads a page from disk into data. A region past the end of
// the file (a page allocated but never written) reads back as zeroes.
func (dm *FileDiskManager) ReadPage(pageID PageID, data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("page buffer must be exactly %d bytes, got %d", PageSize, len(data))
	}

	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	slot := make([]byte, dm.slotSize())
	offset := int64(pageID) * dm.slotSize()

	n, err := dm.file.ReadAt(slot, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read page %d: %w", pageID, err)
	}
	for i := n; i < len(slot); i++ {
		slot[i] = 0
	}

	if dm.codec != nil {
		decoded, err := dm.codec.Decode(slot)
		if err != nil {
			return fmt.Errorf("failed to decode page %d: %w", pageID, err)
		}
		copy(data, decoded)
		return nil
	}

	copy(data, slot)
	return nil
}

// WritePage writes a page to disk at its slot and syncs the file
func (dm *FileDiskManager) WritePage(pageID PageID, data []byte) error {
	if len(data) != PageSize {
		return fmt.Errorf("page data must be exactly %d bytes, got %d", PageSize, len(data))
	}

	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	slot := data
	if dm.codec != nil {
		frame, err := dm.codec.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode page %d: %w", pageID, err)
		}
		slot = frame
	}

	offset := int64(pageID) * dm.slotSize()
	if _, err := dm.file.WriteAt(slot, offset); err != nil {
		return fmt.Errorf("failed to write page %d: %w", pageID, err)
	}

	return dm.file.Sync()
}

// Close closes the disk manager and its underlying file
func (dm *FileDiskManager) Close() error {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	if dm.file != nil {
		return dm.file.Close()
	}
	return nil
}
