package storage

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// CompressionType represents the compression algorithm used
type CompressionType uint8

const (
	CompressionNone CompressionType = 0
	CompressionLZ4 CompressionType = 1
	CompressionSnappy CompressionType = 2
)

// Codec frame layout:
// [0-1]: Magic number (0xC0DE for encoded pages)
// [2]: Compression type (0=none, 1=LZ4, 2=Snappy)
// [3]: Reserved
// [4-5]: Uncompressed size
// [6-7]: Compressed size
// [8-11]: Checksum of the uncompressed page (CRC32)
// [12+]: Payload
const (
	codecMagic = 0xC0DE
	codecHeaderSize = 12

	// CodecFrameSize is the on-disk slot size for encoded pages: a
	// full header plus room for an uncompressed payload, so a page
	// that does not compress still fits its slot.
	CodecFrameSize = codecHeaderSize + PageSize

	// Minimum bytes saved for compression to be kept
	minCompressionGain = 100
)

// PageCodec frames pages for disk with optional transparent
// compression and checksum verification. A nil *PageCodec means raw
// fixed-size pages.
type PageCodec struct {
	alg CompressionType
}

// NewPageCodec creates a codec for the named algorithm
// ("none", "lz4", "snappy")
func NewPageCodec(algorithm string) (*PageCodec, error) {
	switch algorithm {
	case "none":
		return &PageCodec{alg: CompressionNone}, nil
	case "lz4":
		return &PageCodec{alg: CompressionLZ4}, nil
	case "snappy":
		return &PageCodec{alg: CompressionSnappy}, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", algorithm)
	}
}

// Encode frames a PageSize page into a CodecFrameSize slot. When the
// configured algorithm saves fewer than minCompressionGain bytes the
// payload is stored uncompressed.
func (c *PageCodec) Encode(data []byte) ([]byte, error) {
	if len(data) != PageSize {
		return nil, fmt.Errorf("page data must be exactly %d bytes, got %d", PageSize, len(data))
	}

	checksum := crc32.ChecksumIEEE(data)

	alg := c.alg
	var compressed []byte

	switch alg {
	case CompressionNone:
		compressed = data

	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("LZ4 compression failed: %w", err)
		}
		if n == 0 {
			// Incompressible input
			compressed = data
			alg = CompressionNone
		} else {
			compressed = buf[:n]
		}

	case CompressionSnappy:
		compressed = snappy.Encode(nil, data)

	default:
		return nil, fmt.Errorf("unsupported compression type: %d", alg)
	}

	if alg != CompressionNone && len(data)-len(compressed) < minCompressionGain {
		compressed = data
		alg = CompressionNone
	}

	frame := make([]byte, CodecFrameSize)
	binary.LittleEndian.PutUint16(frame[0:2], codecMagic)
	frame[2] = byte(alg)
	binary.LittleEndian.PutUint16(frame[4:6], uint16(len(data)))
	binary.LittleEndian.PutUint16(frame[6:8], uint16(len(compressed)))
	binary.LittleEndian.PutUint32(frame[8:12], checksum)
	copy(frame[codecHeaderSize:], compressed)

	return frame, nil
}

// Decode unframes a slot produced by Encode and returns the PageSize
// page. A slot without the codec magic (an unwritten region) is
// returned as-is, truncated to PageSize.
func (c *PageCodec) Decode(frame []byte) ([]byte, error) {
	if len(frame) < codecHeaderSize {
		return nil, fmt.Errorf("frame too short: %d bytes", len(frame))
	}

	if binary.LittleEndian.Uint16(frame[0:2]) != codecMagic {
		data := make([]byte, PageSize)
		copy(data, frame)
		return data, nil
	}

	alg := CompressionType(frame[2])
	uncompressedSize := binary.LittleEndian.Uint16(frame[4:6])
	compressedSize := binary.LittleEndian.Uint16(frame[6:8])
	checksum := binary.LittleEndian.Uint32(frame[8:12])

	if uncompressedSize != PageSize {
		return nil, fmt.Errorf("invalid frame: uncompressed size %d, expected %d", uncompressedSize, PageSize)
	}
	if int(compressedSize) > len(frame)-codecHeaderSize {
		return nil, fmt.Errorf("invalid frame: compressed size %d exceeds payload", compressedSize)
	}

	payload := frame[codecHeaderSize : codecHeaderSize+int(compressedSize)]

	var data []byte
	switch alg {
	case CompressionNone:
		data = make([]byte, PageSize)
		copy(data, payload)

	case CompressionLZ4:
		data = make([]byte, PageSize)
		n, err := lz4.UncompressBlock(payload, data)
		if err != nil {
			return nil, fmt.Errorf("LZ4 decompression failed: %w", err)
		}
		if n != PageSize {
			return nil, fmt.Errorf("LZ4 decompression size mismatch: got %d, expected %d", n, PageSize)
		}

	case CompressionSnappy:
		var err error
		data, err = snappy.Decode(nil, payload)
		if err != nil {
			return nil, fmt.Errorf("snappy decompression failed: %w", err)
		}
		if len(data) != PageSize {
			return nil, fmt.Errorf("snappy decompression size mismatch: got %d, expected %d", len(data), PageSize)
		}

	default:
		return nil, fmt.Errorf("unsupported compression type: %d", alg)
	}

	if crc32.ChecksumIEEE(data) != checksum {
		return nil, fmt.Errorf("checksum mismatch on decoded page")
	}

	return data, nil
}
