// pkg/pager/stream.go
package pager

// A stream is a chain of pages starting at a handle. The head page's length
// field holds the stream's total byte length; every page's link field
// points to the next page in the chain, terminating at link=0. Pages are
// filled to PageDataSize before the chain grows, so a stream of n bytes
// always occupies ceil(n/PageDataSize) pages (at least one, even for a
// zero-length stream).

func pagesNeeded(size uint32) int {
	if size == 0 {
		return 1
	}
	n := int(size) / PageDataSize
	if int(size)%PageDataSize != 0 {
		n++
	}
	return n
}

// Allocate reserves a new stream of the given size (in bytes, may be 0) and
// returns its handle. The stream's bytes are zero-filled.
func (s *Store) Allocate(size uint32) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	n := pagesNeeded(size)
	pages := make([]PageID, 0, n)
	for i := 0; i < n; i++ {
		p, err := s.popFreePageLocked()
		if err != nil {
			return 0, err
		}
		pages = append(pages, p)
	}

	for i, p := range pages {
		h := pageHeader{Status: StatusAllocated, Length: 0}
		if i == 0 {
			h.Length = size
		}
		if i < len(pages)-1 {
			h.Link = pages[i+1]
		}
		if err := writeHeader(s.storage, p, h); err != nil {
			return 0, err
		}
		var zero [PageDataSize]byte
		if err := writeData(s.storage, p, 0, zero[:]); err != nil {
			return 0, err
		}
		if err := recomputeCRC(s.storage, p); err != nil {
			return 0, err
		}
	}

	if err := s.writeHeaderLocked(); err != nil {
		return 0, err
	}
	if err := s.maybeFlush(); err != nil {
		return 0, err
	}
	return pages[0], nil
}

// GetLength returns a stream's current byte length.
func (s *Store) GetLength(handle Handle) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if err := s.checkHandle(handle); err != nil {
		return 0, err
	}
	h, err := readHeader(s.storage, handle)
	if err != nil {
		return 0, err
	}
	if h.Status != StatusAllocated {
		return 0, ErrInvalidHandle
	}
	return h.Length, nil
}

// Write overwrites a stream's entire contents with data, starting from the
// first page. If data is longer than the stream's current page capacity,
// the chain is extended with newly popped free pages; if shorter, any
// surplus trailing pages are trimmed back onto the free list. Write never
// preserves bytes beyond len(data): unlike WriteAt, it always replaces the
// whole stream.
func (s *Store) Write(handle Handle, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.checkHandle(handle); err != nil {
		return err
	}

	head, err := readHeader(s.storage, handle)
	if err != nil {
		return err
	}
	if head.Status != StatusAllocated {
		return ErrInvalidHandle
	}

	needed := pagesNeeded(uint32(len(data)))

	cur := handle
	remaining := data
	count := 1
	for {
		h, err := readHeader(s.storage, cur)
		if err != nil {
			return err
		}

		var chunk []byte
		if len(remaining) >= PageDataSize {
			chunk = remaining[:PageDataSize]
			remaining = remaining[PageDataSize:]
		} else {
			chunk = remaining
			remaining = nil
		}

		var buf [PageDataSize]byte
		copy(buf[:], chunk)
		if err := writeData(s.storage, cur, 0, buf[:]); err != nil {
			return err
		}

		newHeader := pageHeader{Status: StatusAllocated, Link: h.Link}
		if cur == handle {
			newHeader.Length = uint32(len(data))
		}

		if count >= needed {
			// This page is the new tail; trim anything beyond it.
			if h.Link != 0 {
				if err := s.freeChainLocked(h.Link); err != nil {
					return err
				}
			}
			newHeader.Link = 0
			if err := writeHeader(s.storage, cur, newHeader); err != nil {
				return err
			}
			if err := recomputeCRC(s.storage, cur); err != nil {
				return err
			}
			break
		}

		if h.Link == 0 {
			next, err := s.popFreePageLocked()
			if err != nil {
				return err
			}
			// The popped page still carries its free-list link; claim it as
			// an allocated chain tail before the loop moves onto it.
			if err := writeHeader(s.storage, next, pageHeader{Status: StatusAllocated}); err != nil {
				return err
			}
			newHeader.Link = next
		}
		if err := writeHeader(s.storage, cur, newHeader); err != nil {
			return err
		}
		if err := recomputeCRC(s.storage, cur); err != nil {
			return err
		}

		cur = newHeader.Link
		count++
	}

	if err := s.writeHeaderLocked(); err != nil {
		return err
	}
	return s.maybeFlush()
}

// WriteAt writes data at a byte offset within a stream, hopping along the
// existing chain page-by-page (position/PageDataSize hops, never
// arithmetic handle+offset addressing, since pages are not laid out
// contiguously by handle). Unlike Write, it never trims: if data extends
// past the current length, the chain grows and the stream's length field is
// raised to offset+len(data); if it starts within bounds but would need
// pages beyond the existing chain, the chain is extended with newly popped
// free pages to reach it.
func (s *Store) WriteAt(handle Handle, offset uint32, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.checkHandle(handle); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	head, err := readHeader(s.storage, handle)
	if err != nil {
		return err
	}
	if head.Status != StatusAllocated {
		return ErrInvalidHandle
	}

	startPage := int(offset) / PageDataSize
	startOff := int(offset) % PageDataSize

	cur := handle
	curHeader := head
	for i := 0; i < startPage; i++ {
		if curHeader.Link == 0 {
			next, err := s.popFreePageLocked()
			if err != nil {
				return err
			}
			curHeader.Link = next
			if err := writeHeader(s.storage, cur, curHeader); err != nil {
				return err
			}
			if err := recomputeCRC(s.storage, cur); err != nil {
				return err
			}
			nh := pageHeader{Status: StatusAllocated}
			if err := writeHeader(s.storage, next, nh); err != nil {
				return err
			}
			var zero [PageDataSize]byte
			if err := writeData(s.storage, next, 0, zero[:]); err != nil {
				return err
			}
			if err := recomputeCRC(s.storage, next); err != nil {
				return err
			}
		}
		nh, err := readHeader(s.storage, curHeader.Link)
		if err != nil {
			return err
		}
		cur = curHeader.Link
		curHeader = nh
	}

	remaining := data
	pos := startOff
	for len(remaining) > 0 {
		space := PageDataSize - pos
		chunk := remaining
		if len(chunk) > space {
			chunk = chunk[:space]
		}
		if err := writeData(s.storage, cur, pos, chunk); err != nil {
			return err
		}
		remaining = remaining[len(chunk):]
		pos = 0

		if len(remaining) > 0 {
			h, err := readHeader(s.storage, cur)
			if err != nil {
				return err
			}
			next := h.Link
			if next == 0 {
				next, err = s.popFreePageLocked()
				if err != nil {
					return err
				}
				h.Link = next
				if err := writeHeader(s.storage, cur, h); err != nil {
					return err
				}
				if err := recomputeCRC(s.storage, cur); err != nil {
					return err
				}
				nh := pageHeader{Status: StatusAllocated}
				if err := writeHeader(s.storage, next, nh); err != nil {
					return err
				}
				var zero [PageDataSize]byte
				if err := writeData(s.storage, next, 0, zero[:]); err != nil {
					return err
				}
			}
			if err := recomputeCRC(s.storage, cur); err != nil {
				return err
			}
			cur = next
		} else {
			if err := recomputeCRC(s.storage, cur); err != nil {
				return err
			}
		}
	}

	newLen := offset + uint32(len(data))
	if newLen > head.Length {
		current, err := readHeader(s.storage, handle)
		if err != nil {
			return err
		}
		current.Length = newLen
		if err := writeHeader(s.storage, handle, current); err != nil {
			return err
		}
		if err := recomputeCRC(s.storage, handle); err != nil {
			return err
		}
	}

	if err := s.writeHeaderLocked(); err != nil {
		return err
	}
	return s.maybeFlush()
}

// ReadAll returns a stream's full contents.
func (s *Store) ReadAll(handle Handle) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := s.checkHandle(handle); err != nil {
		return nil, err
	}

	head, err := readHeader(s.storage, handle)
	if err != nil {
		return nil, err
	}
	if head.Status != StatusAllocated {
		return nil, ErrInvalidHandle
	}

	out := make([]byte, 0, head.Length)
	cur := handle
	remaining := int(head.Length)
	for remaining > 0 {
		if s.opts.VerifyOnRead {
			ok, expected, actual, err := checkCRC(s.storage, cur)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &CorruptionError{Page: cur, ExpectedCRC: expected, ActualCRC: actual}
			}
		}

		h, err := readHeader(s.storage, cur)
		if err != nil {
			return nil, err
		}

		n := remaining
		if n > PageDataSize {
			n = PageDataSize
		}
		buf := make([]byte, n)
		if err := readData(s.storage, cur, 0, buf); err != nil {
			return nil, err
		}
		out = append(out, buf...)
		remaining -= n

		if remaining > 0 {
			if h.Link == 0 {
				return nil, &CorruptionError{Page: cur}
			}
			cur = h.Link
		}
	}
	return out, nil
}

// ReadAt reads up to count bytes starting at offset within a stream,
// hopping the chain by offset/PageDataSize to find the starting page. It
// clamps rather than errors on a generous count: if offset is at or beyond
// the stream's length, it returns zero bytes; otherwise it returns
// min(count, length-offset) bytes, which may be fewer than requested.
// ErrOutOfRange is returned only for a negative count.
func (s *Store) ReadAt(handle Handle, offset uint32, count int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := s.checkHandle(handle); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, ErrOutOfRange
	}

	head, err := readHeader(s.storage, handle)
	if err != nil {
		return nil, err
	}
	if head.Status != StatusAllocated {
		return nil, ErrInvalidHandle
	}
	if uint64(offset) >= uint64(head.Length) {
		return []byte{}, nil
	}
	if avail := uint64(head.Length) - uint64(offset); uint64(count) > avail {
		count = int(avail)
	}
	if count == 0 {
		return []byte{}, nil
	}

	startPage := int(offset) / PageDataSize
	startOff := int(offset) % PageDataSize

	cur := handle
	for i := 0; i < startPage; i++ {
		h, err := readHeader(s.storage, cur)
		if err != nil {
			return nil, err
		}
		if h.Link == 0 {
			return nil, &CorruptionError{Page: cur}
		}
		cur = h.Link
	}

	out := make([]byte, 0, count)
	pos := startOff
	remaining := count
	for remaining > 0 {
		if s.opts.VerifyOnRead {
			ok, expected, actual, err := checkCRC(s.storage, cur)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &CorruptionError{Page: cur, ExpectedCRC: expected, ActualCRC: actual}
			}
		}

		space := PageDataSize - pos
		n := remaining
		if n > space {
			n = space
		}
		buf := make([]byte, n)
		if err := readData(s.storage, cur, pos, buf); err != nil {
			return nil, err
		}
		out = append(out, buf...)
		remaining -= n
		pos = 0

		if remaining > 0 {
			h, err := readHeader(s.storage, cur)
			if err != nil {
				return nil, err
			}
			if h.Link == 0 {
				return nil, &CorruptionError{Page: cur}
			}
			cur = h.Link
		}
	}
	return out, nil
}

// Free releases every page of a stream back to the free list.
func (s *Store) Free(handle Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.checkHandle(handle); err != nil {
		return err
	}

	h, err := readHeader(s.storage, handle)
	if err != nil {
		return err
	}
	if h.Status != StatusAllocated {
		return ErrInvalidHandle
	}

	if err := s.freeChainLocked(handle); err != nil {
		return err
	}
	if err := s.writeHeaderLocked(); err != nil {
		return err
	}
	return s.maybeFlush()
}
