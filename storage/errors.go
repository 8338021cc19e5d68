package storage

import (
	"fmt"
)

// ErrorCode represents different types of storage errors
type ErrorCode int

const (
	// Generic errors
	ErrCodeUnknown ErrorCode = iota
	ErrCodeInternal

	// Buffer pool errors
	ErrCodeNoFreeFrames
	ErrCodePageNotFound
	ErrCodeInvalidPageID
	ErrCodePagePinned
	ErrCodeFrameOutOfRange

	// Disk errors
	ErrCodeDiskReadFailed
	ErrCodeDiskWriteFailed
	ErrCodePageCorrupted
)

// StorageError represents a storage engine error with context
type StorageError struct {
	Code ErrorCode
	Message string
	Op string // Operation that failed
	Err error // Underlying error (if any)
}

// Error implements the error interface
func (e *StorageError) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a specific error code
func (e *StorageError) Is(target error) bool {
	if t, ok := target.(*StorageError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewStorageError creates a new storage error
func NewStorageError(code ErrorCode, op, message string, err error) *StorageError {
	return &StorageError{
		Code: code,
		Message: message,
		Op: op,
		Err: err,
	}
}

// Helper functions for common errors

func ErrNoFreeFrames(op string) *StorageError {
	return NewStorageError(
		ErrCodeNoFreeFrames,
		op,
		"no free frame and no evictable frame in buffer pool",
		nil,
	)
}

func ErrPageNotFound(op string, pageID PageID) *StorageError {
	return NewStorageError(
		ErrCodePageNotFound,
		op,
		fmt.Sprintf("page %d not resident in buffer pool", pageID),
		nil,
	)
}

func ErrInvalidPageID(op string) *StorageError {
	return NewStorageError(
		ErrCodeInvalidPageID,
		op,
		"invalid page id",
		nil,
	)
}

func ErrPagePinned(op string, pageID PageID, pinCount int32) *StorageError {
	return NewStorageError(
		ErrCodePagePinned,
		op,
		fmt.Sprintf("page %d is pinned (pin count: %d)", pageID, pinCount),
		nil,
	)
}

func ErrFrameOutOfRange(op string, frameID FrameID, numFrames int) *StorageError {
	return NewStorageError(
		ErrCodeFrameOutOfRange,
		op,
		fmt.Sprintf("frame %d out of range [0, %d)", frameID, numFrames),
		nil,
	)
}

func ErrPageCorrupted(op string, pageID PageID) *StorageError {
	return NewStorageError(
		ErrCodePageCorrupted,
		op,
		fmt.Sprintf("page %d failed checksum verification", pageID),
		nil,
	)
}

func ErrDiskOperation(op string, err error) *StorageError {
	return NewStorageError(
		ErrCodeDiskWriteFailed,
		op,
		"disk operation failed",
		err,
	)
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	if se, ok := err.(*StorageError); ok {
		return se.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrCodeUnknown
func GetErrorCode(err error) ErrorCode {
	if se, ok := err.(*StorageError); ok {
		return se.Code
	}
	return ErrCodeUnknown
}
