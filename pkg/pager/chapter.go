// pkg/pager/chapter.go
package pager

// addChapter appends exactly one chapter (PagesPerChapter fully
// initialized free pages) to storage. It builds the chapter in memory and
// writes it in a single call, then returns the new total chapter count.
// Callers are responsible for writing the file header afterward — folding
// that into a larger operation (allocate/free) is a deliberate
// write-amplification optimization, not an oversight.
func addChapter(s Storage, chapterCount uint64) (uint64, error) {
	base := PageID(chapterCount * PagesPerChapter)

	newTotal := (chapterCount + 1) * PagesPerChapter
	if newTotal > maxPages {
		return 0, ErrOutOfSpace
	}

	buf := make([]byte, ChapterSize)
	for i := 0; i < PagesPerChapter; i++ {
		off := i * PageSize
		page := buf[off : off+PageSize]

		var link uint32
		if i < PagesPerChapter-1 {
			link = uint32(base) + uint32(i) + 1
		} else {
			link = 0 // terminator of the new chapter's free chain
		}

		page[pageStatusOffset] = byte(StatusFree)
		putUint32(page[pageLinkOffset:], link)
		putUint32(page[pageLengthOffset:], 0)
		stampCRC(page)
	}

	if err := s.Grow(int64(chapterCount+1) * ChapterSize); err != nil {
		return 0, ioErr("grow store", err)
	}
	if err := s.WriteAt(buf, int64(base)*PageSize); err != nil {
		return 0, ioErr("write new chapter", err)
	}

	return chapterCount + 1, nil
}

// chapterCountFromSize derives the chapter count from a backing store's
// byte size; it is never itself persisted (invariant 1: size is always an
// integer multiple of chapter size).
func chapterCountFromSize(size int64) uint64 {
	return uint64(size) / ChapterSize
}
