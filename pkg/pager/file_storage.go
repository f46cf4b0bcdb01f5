// pkg/pager/file_storage.go
package pager

import "os"

// FileStorage implements Storage with positioned reads and writes against a
// real file, using os.File.ReadAt/WriteAt so callers never need to
// serialize on a shared seek offset. This is the default backend: it is
// portable and matches the store's "positioned read/write/flush" contract
// directly, without needing a platform-specific mapping layer.
type FileStorage struct {
	file *os.File
	size int64
}

// OpenFileStorage opens (creating if necessary) the file at path as a
// FileStorage backend.
func OpenFileStorage(path string) (*FileStorage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileStorage{file: f, size: info.Size()}, nil
}

// ReadAt implements Storage.
func (f *FileStorage) ReadAt(buf []byte, off int64) error {
	_, err := f.file.ReadAt(buf, off)
	return err
}

// WriteAt implements Storage.
func (f *FileStorage) WriteAt(buf []byte, off int64) error {
	_, err := f.file.WriteAt(buf, off)
	return err
}

// Size implements Storage.
func (f *FileStorage) Size() int64 {
	return f.size
}

// Grow extends the backing file to newSize via Truncate.
func (f *FileStorage) Grow(newSize int64) error {
	if newSize <= f.size {
		return nil
	}
	if err := f.file.Truncate(newSize); err != nil {
		return err
	}
	f.size = newSize
	return nil
}

// Sync durably flushes the file, matching the use_write_cache=false /
// flush_at_write options' write-through intent.
func (f *FileStorage) Sync() error {
	return f.file.Sync()
}

// Close closes the backing file.
func (f *FileStorage) Close() error {
	return f.file.Close()
}
