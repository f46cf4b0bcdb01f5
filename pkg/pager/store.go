// pkg/pager/store.go
package pager

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Backend selects which concrete Storage implementation Open wires up for a
// path-based store. OpenStorage bypasses this entirely for callers (tests,
// embedders) that already hold a Storage.
type Backend int

const (
	// BackendFile uses positioned os.File reads/writes. This is the
	// default: portable, and a direct match for spec's "byte-addressable,
	// seekable, read/write store" wording.
	BackendFile Backend = iota
	// BackendMmap memory-maps the file (unix only).
	BackendMmap
)

// Options configures a Store.
type Options struct {
	// VerifyOnRead makes ReadAll validate each page's checksum before
	// consuming it, failing the whole call on the first mismatch.
	VerifyOnRead bool

	// UseWriteCache, when false, makes every mutating operation end with a
	// durable flush, the same as FlushAtWrite. Defaults to true (the zero
	// value is overridden in Open).
	UseWriteCache *bool

	// FlushAtWrite makes every mutating operation end with a durable
	// flush, instead of leaving durability to an explicit Sync or Close.
	FlushAtWrite bool

	// BufferSize is an informational I/O buffer-size hint; it does not
	// change page size, which is always fixed at PageSize.
	BufferSize int

	// Backend selects the concrete Storage for path-based Open calls.
	Backend Backend

	// Logger receives lifecycle and diagnostic events (chapter growth,
	// corruption detection). Defaults to a quiet, warn-level logger.
	Logger *logrus.Logger
}

func (o *Options) setDefaults() {
	if o.UseWriteCache == nil {
		t := true
		o.UseWriteCache = &t
	}
	if o.BufferSize == 0 {
		o.BufferSize = PageSize
	}
	if o.Logger == nil {
		o.Logger = defaultLogger()
	}
}

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// Store is a paged compound file store: allocation, free, read and write of
// independently sized byte streams over a single checksum-protected backing
// file, serialized behind one mutex (spec §5 — no reader/writer split, no
// per-operation cancellation).
type Store struct {
	mu sync.Mutex

	storage      Storage
	opts         Options
	header       fileHeader
	chapterCount uint64
	closed       bool
}

// Open opens or creates the store file at path using the backend named in
// opts.Backend.
func Open(path string, opts Options) (*Store, error) {
	opts.setDefaults()

	var (
		storage Storage
		err     error
	)
	switch opts.Backend {
	case BackendMmap:
		storage, err = OpenMmapStorage(path)
	default:
		storage, err = OpenFileStorage(path)
	}
	if err != nil {
		return nil, ioErr("open backing store", err)
	}

	return openStorage(storage, opts)
}

// OpenStorage opens a store directly against an already-constructed
// Storage, bypassing path resolution. This is how the test suite runs
// every algorithm-level test against MemoryStorage.
func OpenStorage(storage Storage, opts Options) (*Store, error) {
	opts.setDefaults()
	return openStorage(storage, opts)
}

func openStorage(storage Storage, opts Options) (*Store, error) {
	s := &Store{storage: storage, opts: opts}

	if storage.Size() == 0 || chapterCountFromSize(storage.Size()) == 0 {
		if err := s.initializeNew(); err != nil {
			storage.Close()
			return nil, err
		}
		return s, nil
	}

	var page0 [PageSize]byte
	if err := storage.ReadAt(page0[:], 0); err != nil {
		storage.Close()
		return nil, ioErr("read file header", err)
	}

	h, err := decodeHeader(page0[:])
	if err != nil {
		storage.Close()
		return nil, err
	}

	s.header = h
	s.chapterCount = chapterCountFromSize(storage.Size())
	return s, nil
}

// initializeNew sets up a brand-new store: magic + first_free_page = 1,
// one chapter, header written and flushed.
func (s *Store) initializeNew() error {
	if err := s.storage.Grow(ChapterSize); err != nil {
		return ioErr("grow store", err)
	}

	count, err := addChapter(s.storage, 0)
	if err != nil {
		return err
	}
	s.chapterCount = count
	s.opts.Logger.WithField("chapters", count).Debug("initialized new store")

	s.header = fileHeader{
		Version:       currentFormatVersion,
		PageSize:      PageSize,
		ChapterSize:   PagesPerChapter,
		FirstFreePage: 1,
	}
	if err := s.writeHeaderLocked(); err != nil {
		return err
	}
	return ioErr("flush new store", s.storage.Sync())
}

// writeHeaderLocked serializes and stamps the current in-memory header to
// page 0. Called after every allocate/free and on close.
func (s *Store) writeHeaderLocked() error {
	buf := encodeHeader(s.header)
	if err := s.storage.WriteAt(buf, 0); err != nil {
		return ioErr("write file header", err)
	}
	return recomputeCRC(s.storage, 0)
}

// maybeFlush syncs after a mutating operation when the caller asked for
// write-through durability, either explicitly (FlushAtWrite) or by turning
// off write caching altogether (UseWriteCache == false).
func (s *Store) maybeFlush() error {
	if s.opts.FlushAtWrite || !*s.opts.UseWriteCache {
		if err := s.storage.Sync(); err != nil {
			return ioErr("flush", err)
		}
	}
	return nil
}

// Close writes the file header, flushes durably, and releases the backing
// store. After Close, the stream operations, FreePageCount and Validate
// return ErrAlreadyClosed; ChapterCount and FirstFreePage still report the
// last known values, and a second Close is a no-op returning nil.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Store) closeLocked() error {
	if s.closed {
		return nil
	}
	if err := s.writeHeaderLocked(); err != nil {
		s.storage.Close()
		s.closed = true
		return err
	}
	if err := s.storage.Sync(); err != nil {
		s.storage.Close()
		s.closed = true
		return ioErr("sync on close", err)
	}
	s.closed = true
	return ioErr("close backing store", s.storage.Close())
}

// ChapterCount reports the number of 16 MiB chapters the backing store
// currently has. It is derived from the store's size, never stored.
func (s *Store) ChapterCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chapterCount
}

// FirstFreePage reports the current free-list head, primarily useful to
// tests asserting invariant 5 (free list + stream chains partition every
// page).
func (s *Store) FirstFreePage() PageID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header.FirstFreePage
}

func (s *Store) checkOpen() error {
	if s.closed {
		return ErrAlreadyClosed
	}
	return nil
}

func (s *Store) totalPages() PageID {
	return PageID(s.chapterCount * PagesPerChapter)
}

func (s *Store) checkHandle(h Handle) error {
	if h == 0 {
		return ErrInvalidHandle
	}
	if h >= s.totalPages() {
		return ErrInvalidHandle
	}
	return nil
}
