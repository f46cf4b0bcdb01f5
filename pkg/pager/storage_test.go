// pkg/pager/storage_test.go
package pager

import "testing"

func TestStorageInterfaces(t *testing.T) {
	var _ Storage = (*MemoryStorage)(nil)
	var _ Storage = (*FileStorage)(nil)
	var _ Storage = (*MmapStorage)(nil)
}

func TestMemoryStorageBasicOperations(t *testing.T) {
	storage := NewMemoryStorage()
	if storage.Size() != PageSize {
		t.Errorf("expected initial size %d, got %d", PageSize, storage.Size())
	}

	data := []byte("hello store")
	if err := storage.WriteAt(data, 100); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	got := make([]byte, len(data))
	if err := storage.ReadAt(got, 100); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("expected %q, got %q", data, got)
	}
}

func TestMemoryStorageGrowPreservesData(t *testing.T) {
	storage := NewMemoryStorage()
	data := []byte("initial data")
	if err := storage.WriteAt(data, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	newSize := int64(PageSize * 2)
	if err := storage.Grow(newSize); err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if storage.Size() != newSize {
		t.Errorf("expected size %d after grow, got %d", newSize, storage.Size())
	}

	got := make([]byte, len(data))
	if err := storage.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt after grow: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("data not preserved across grow: expected %q, got %q", data, got)
	}

	tail := []byte("end data")
	if err := storage.WriteAt(tail, int64(PageSize)); err != nil {
		t.Fatalf("WriteAt in grown region: %v", err)
	}
	gotTail := make([]byte, len(tail))
	if err := storage.ReadAt(gotTail, int64(PageSize)); err != nil {
		t.Fatalf("ReadAt in grown region: %v", err)
	}
	if string(gotTail) != string(tail) {
		t.Errorf("expected %q in grown region, got %q", tail, gotTail)
	}
}

func TestMemoryStorageGrowIsNoOpWhenSmaller(t *testing.T) {
	storage := NewMemoryStorage()
	if err := storage.Grow(PageSize / 2); err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if storage.Size() != PageSize {
		t.Errorf("shrinking Grow should be a no-op, got size %d", storage.Size())
	}
}

func TestMemoryStorageSync(t *testing.T) {
	storage := NewMemoryStorage()
	if err := storage.Sync(); err != nil {
		t.Errorf("Sync should never fail for MemoryStorage: %v", err)
	}
}

func TestMemoryStorageOutOfRange(t *testing.T) {
	storage := NewMemoryStorage()

	buf := make([]byte, 10)
	if err := storage.ReadAt(buf, int64(PageSize-5)); err == nil {
		t.Error("expected error reading past the end of storage")
	}
	if err := storage.WriteAt(buf, int64(PageSize-5)); err == nil {
		t.Error("expected error writing past the end of storage")
	}
	if err := storage.ReadAt(buf, -1); err == nil {
		t.Error("expected error for negative offset")
	}
}
