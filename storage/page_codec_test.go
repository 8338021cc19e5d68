package storage

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"
)

// TestPageCodecRoundTrip tests encode/decode for each algorithm
func TestPageCodecRoundTrip(t *testing.T) {
	data := make([]byte, PageSize)
	for i := range data {
		data[i] = byte(i % 16)
	}

	for _, alg := range []string{"none", "lz4", "snappy"} {
		codec, err := NewPageCodec(alg)
		if err != nil {
			t.Fatalf("Failed to create %s codec: %v", alg, err)
		}

		frame, err := codec.Encode(data)
		if err != nil {
			t.Fatalf("[%s] Encode failed: %v", alg, err)
		}
		if len(frame) != CodecFrameSize {
			t.Errorf("[%s] Expected frame size %d, got %d", alg, CodecFrameSize, len(frame))
		}

		decoded, err := codec.Decode(frame)
		if err != nil {
			t.Fatalf("[%s] Decode failed: %v", alg, err)
		}
		if !bytes.Equal(decoded, data) {
			t.Errorf("[%s] Decoded page does not match original", alg)
		}
	}
}

// TestPageCodecCompresses tests that a repetitive page actually
// shrinks on disk
func TestPageCodecCompresses(t *testing.T) {
	data := make([]byte, PageSize)
	for i := range data {
		data[i] = 0xAB
	}

	for _, alg := range []struct {
		name string
		typ CompressionType
	}{
		{"lz4", CompressionLZ4},
		{"snappy", CompressionSnappy},
	} {
		codec, _ := NewPageCodec(alg.name)
		frame, err := codec.Encode(data)
		if err != nil {
			t.Fatalf("[%s] Encode failed: %v", alg.name, err)
		}

		if CompressionType(frame[2]) != alg.typ {
			t.Errorf("[%s] Expected compression type %d, got %d", alg.name, alg.typ, frame[2])
		}

		compressedSize := binary.LittleEndian.Uint16(frame[6:8])
		if int(compressedSize) >= PageSize-minCompressionGain {
			t.Errorf("[%s] Repetitive page should compress well, payload is %d bytes", alg.name, compressedSize)
		}
	}
}

// TestPageCodecIncompressibleFallback tests that random data falls
// back to uncompressed storage
func TestPageCodecIncompressibleFallback(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, PageSize)
	rng.Read(data)

	codec, _ := NewPageCodec("snappy")
	frame, err := codec.Encode(data)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if CompressionType(frame[2]) != CompressionNone {
		t.Errorf("Expected fallback to CompressionNone, got %d", frame[2])
	}

	decoded, err := codec.Decode(frame)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Error("Decoded page does not match original")
	}
}

// TestPageCodecChecksum tests that a corrupted payload is rejected
func TestPageCodecChecksum(t *testing.T) {
	data := make([]byte, PageSize)
	for i := range data {
		data[i] = byte(i % 7)
	}

	codec, _ := NewPageCodec("snappy")
	frame, err := codec.Encode(data)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Flip the stored checksum
	frame[8] ^= 0xFF

	if _, err := codec.Decode(frame); err == nil {
		t.Error("Decode should reject a corrupted checksum")
	}
}

// TestPageCodecRawFallthrough tests that an unframed slot (no magic)
// passes through untouched
func TestPageCodecRawFallthrough(t *testing.T) {
	codec, _ := NewPageCodec("snappy")

	slot := make([]byte, CodecFrameSize)
	decoded, err := codec.Decode(slot)
	if err != nil {
		t.Fatalf("Decode of zeroed slot failed: %v", err)
	}
	if len(decoded) != PageSize {
		t.Errorf("Expected %d bytes, got %d", PageSize, len(decoded))
	}
	for _, b := range decoded {
		if b != 0 {
			t.Fatal("Zeroed slot should decode to a zeroed page")
		}
	}
}

// TestPageCodecBadInput tests size validation
func TestPageCodecBadInput(t *testing.T) {
	codec, _ := NewPageCodec("lz4")

	if _, err := codec.Encode(make([]byte, 100)); err == nil {
		t.Error("Encode of a short page should fail")
	}
	if _, err := codec.Decode(make([]byte, 4)); err == nil {
		t.Error("Decode of a short frame should fail")
	}
	if _, err := NewPageCodec("zstd"); err == nil {
		t.Error("Unknown algorithm should be rejected")
	}
}
