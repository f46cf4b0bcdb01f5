// pkg/pager/freelist.go
package pager

// The free list is not a separate structure: every free page IS a node of
// it, via that page's own link field, threaded from the file header's
// first_free_page down to a page whose link is 0. Allocation pops the head;
// freeing pushes onto the head. This replaces a trunk-page-of-leaf-numbers
// design (batched pointers, one page holding many leaf numbers) with the
// simplest chain that satisfies invariant 3: singly linked, terminates at
// link=0, every node status=1.

// growByOneChapterLocked extends the backing store by one chapter and
// threads every page of it onto the free list, with FirstFreePage pointing
// at the first page of the new chapter. The caller holds s.mu.
func (s *Store) growByOneChapterLocked() error {
	count, err := addChapter(s.storage, s.chapterCount)
	if err != nil {
		return err
	}
	prevTotal := PageID(s.chapterCount * PagesPerChapter)
	s.chapterCount = count
	s.header.FirstFreePage = prevTotal
	s.opts.Logger.WithField("chapters", count).Info("free list exhausted, grew store by one chapter")
	return nil
}

// popFreePageLocked removes and returns the page at the free-list head,
// growing the store by one chapter first if the list is empty, or eagerly
// once the popped page turns out to be the last one (its own link reads 0)
// so first_free_page never settles on 0 while the store is initialized.
// The caller holds s.mu and is responsible for persisting the header
// afterward.
func (s *Store) popFreePageLocked() (PageID, error) {
	if s.header.FirstFreePage == 0 {
		if err := s.growByOneChapterLocked(); err != nil {
			return 0, err
		}
	}

	head := s.header.FirstFreePage
	h, err := readHeader(s.storage, head)
	if err != nil {
		return 0, err
	}
	if h.Status != StatusFree {
		return 0, &CorruptionError{Page: head}
	}

	if h.Link == 0 {
		if err := s.growByOneChapterLocked(); err != nil {
			return 0, err
		}
	} else {
		s.header.FirstFreePage = h.Link
	}
	return head, nil
}

// freeChainLocked walks from head to the chain terminator (link=0),
// stamping every page free while leaving its existing link untouched, then
// splices the terminator onto the current free-list head in one step. This
// preserves the freed chain's original order: the freed pages become the
// new prefix of the free list, still linked to each other exactly as they
// were linked as a stream, with the old free-list head now hanging off the
// chain's former tail. Used by Free to release an entire stream.
func (s *Store) freeChainLocked(head PageID) error {
	cur := head
	for {
		h, err := readHeader(s.storage, cur)
		if err != nil {
			return err
		}

		if h.Link == 0 {
			h.Status = StatusFree
			h.Length = 0
			h.Link = s.header.FirstFreePage
			if err := writeHeader(s.storage, cur, h); err != nil {
				return err
			}
			if err := recomputeCRC(s.storage, cur); err != nil {
				return err
			}
			break
		}

		h.Status = StatusFree
		h.Length = 0
		if err := writeHeader(s.storage, cur, h); err != nil {
			return err
		}
		if err := recomputeCRC(s.storage, cur); err != nil {
			return err
		}
		cur = h.Link
	}

	s.header.FirstFreePage = head
	return nil
}

// FreePageCount walks the free list and counts its length. This is an O(n)
// diagnostic, not something the hot allocate/free path relies on.
func (s *Store) FreePageCount() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var count uint64
	cur := s.header.FirstFreePage
	seen := make(map[PageID]bool)
	for cur != 0 {
		if seen[cur] {
			return 0, &CorruptionError{Page: cur}
		}
		seen[cur] = true

		h, err := readHeader(s.storage, cur)
		if err != nil {
			return 0, err
		}
		if h.Status != StatusFree {
			return 0, &CorruptionError{Page: cur}
		}
		count++
		cur = h.Link
	}
	return count, nil
}
