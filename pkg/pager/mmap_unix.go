//go:build unix || darwin || linux || freebsd || openbsd || netbsd

// pkg/pager/mmap_unix.go
package pager

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// OpenMmapStorage opens (creating if necessary) the file at path and maps
// it into memory. An empty new file is grown to one page before mapping,
// since an empty mapping is not meaningful.
func OpenMmapStorage(path string) (*MmapStorage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := stat.Size()
	if size == 0 {
		if err := f.Truncate(PageSize); err != nil {
			f.Close()
			return nil, err
		}
		size = PageSize
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(size),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &MmapStorage{file: f, data: data}, nil
}

// Sync flushes the mapping to disk.
func (m *MmapStorage) Sync() error {
	if m.data == nil {
		return errors.New("pager: mmap storage already closed")
	}
	return unix.Msync(m.data, unix.MS_SYNC)
}

// Grow extends the backing file and remaps it at the new size.
func (m *MmapStorage) Grow(newSize int64) error {
	if newSize <= int64(len(m.data)) {
		return nil
	}

	// flush before unmapping; MAP_SHARED writes only reach the page cache.
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return err
	}
	if err := syscall.Munmap(m.data); err != nil {
		return err
	}

	if err := m.file.Truncate(newSize); err != nil {
		return err
	}

	data, err := syscall.Mmap(int(m.file.Fd()), 0, int(newSize),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return err
	}

	m.data = data
	return nil
}

// Close unmaps and closes the backing file.
func (m *MmapStorage) Close() error {
	var firstErr error

	if m.data != nil {
		if err := syscall.Munmap(m.data); err != nil && firstErr == nil {
			firstErr = err
		}
		m.data = nil
	}

	if m.file != nil {
		if err := m.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.file = nil
	}

	return firstErr
}
