package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
)

// LogManager is the write-ahead log the buffer pool holds a reference
// to. The pool itself only consults Flush, to honor the write-ahead
// rule before a dirty page leaves the pool; record construction and
// replay belong to the recovery layer, which is out of scope here.
type LogManager struct {
	file *os.File
	buffer []byte
	nextLSN uint64
	flushedLSN uint64
	mutex sync.Mutex
}

// NewLogManager creates a log manager appending to the given file
func NewLogManager(fileName string) (*LogManager, error) {
	file, err := os.OpenFile(fileName, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open/create log file %s: %w", fileName, err)
	}

	return &LogManager{
		file: file,
		buffer: make([]byte, 0, 1<<16),
		nextLSN: 1,
	}, nil
}

// Append buffers a log payload and returns its LSN.
// Frame format: LSN(8) | Length(4) | Payload
func (lm *LogManager) Append(payload []byte) uint64 {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	lsn := lm.nextLSN
	lm.nextLSN++

	var header [12]byte
	binary.LittleEndian.PutUint64(header[0:8], lsn)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))

	lm.buffer = append(lm.buffer, header[:]...)
	lm.buffer = append(lm.buffer, payload...)

	return lsn
}

// Flush writes all buffered records to disk and syncs
func (lm *LogManager) Flush() error {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()

	if len(lm.buffer) == 0 {
		return nil
	}

	if _, err := lm.file.Write(lm.buffer); err != nil {
		return fmt.Errorf("failed to write log buffer: %w", err)
	}
	if err := lm.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync log file: %w", err)
	}

	lm.buffer = lm.buffer[:0]
	lm.flushedLSN = lm.nextLSN - 1
	return nil
}

// GetFlushedLSN returns the highest LSN known to be on disk
func (lm *LogManager) GetFlushedLSN() uint64 {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	return lm.flushedLSN
}

// Close flushes outstanding records and closes the file
func (lm *LogManager) Close() error {
	if err := lm.Flush(); err != nil {
		return err
	}

	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	if lm.file != nil {
		return lm.file.Close()
	}
	return nil
}
