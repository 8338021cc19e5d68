//go:build linux || darwin

package storage

import (
	"bytes"
	"path/filepath"
	"testing"
)

// TestMmapDiskManagerRoundTrip tests page persistence through the
// mapping
func TestMmapDiskManagerRoundTrip(t *testing.T) {
	dm, err := NewMmapDiskManager(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("Failed to create mmap disk manager: %v", err)
	}
	defer dm.Close()

	data := make([]byte, PageSize)
	copy(data, []byte("mapped page"))

	if err := dm.WritePage(3, data); err != nil {
		t.Fatalf("WritePage failed: %v", err)
	}

	got := make([]byte, PageSize)
	if err := dm.ReadPage(3, got); err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Read data does not match written data")
	}
}

// TestMmapDiskManagerUnwrittenPage tests zero reads past the data
func TestMmapDiskManagerUnwrittenPage(t *testing.T) {
	dm, err := NewMmapDiskManager(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("Failed to create mmap disk manager: %v", err)
	}
	defer dm.Close()

	got := make([]byte, PageSize)
	if err := dm.ReadPage(100, got); err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	for _, b := range got {
		if b != 0 {
			t.Fatal("Unwritten page should read back zeroed")
		}
	}
}

// TestMmapDiskManagerGrowth tests file growth and remapping on a
// write past the initial mapping
func TestMmapDiskManagerGrowth(t *testing.T) {
	dm, err := NewMmapDiskManager(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("Failed to create mmap disk manager: %v", err)
	}
	defer dm.Close()

	// A page id past the initial 16MB mapping
	farPage := PageID(mmapInitialSize/PageSize + 10)

	data := make([]byte, PageSize)
	copy(data, []byte("beyond initial mapping"))

	if err := dm.WritePage(farPage, data); err != nil {
		t.Fatalf("WritePage past mapping failed: %v", err)
	}

	got := make([]byte, PageSize)
	if err := dm.ReadPage(farPage, got); err != nil {
		t.Fatalf("ReadPage failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("Read data does not match written data after growth")
	}
}

// TestBufferPoolOverMmapDiskManager drives the pool against the
// mmap-backed disk manager
func TestBufferPoolOverMmapDiskManager(t *testing.T) {
	dm, err := NewMmapDiskManager(filepath.Join(t.TempDir(), "pages.db"))
	if err != nil {
		t.Fatalf("Failed to create mmap disk manager: %v", err)
	}
	defer dm.Close()

	bpm, err := NewBufferPoolManager(1, dm, 2, nil)
	if err != nil {
		t.Fatalf("Failed to create buffer pool: %v", err)
	}

	p0, err := bpm.NewPage()
	if err != nil {
		t.Fatalf("NewPage failed: %v", err)
	}
	p0ID := p0.GetPageID()
	copy(p0.GetData(), []byte("mmap backed"))
	bpm.UnpinPage(p0ID, true)

	p1, err := bpm.NewPage()
	if err != nil {
		t.Fatalf("NewPage failed: %v", err)
	}
	bpm.UnpinPage(p1.GetPageID(), false)

	fetched, err := bpm.FetchPage(p0ID)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}
	if !bytes.HasPrefix(fetched.GetData(), []byte("mmap backed")) {
		t.Error("Page content lost through the mmap disk manager")
	}
}
