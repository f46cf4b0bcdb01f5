// pkg/pager/page.go
package pager

// PageID is the index of a page within the backing store. Multiplying a
// PageID by PageSize yields the page's byte offset.
type PageID uint32

// Handle is the PageID of the first page of a stream. 0 is reserved for the
// file header and is never a valid handle.
type Handle = PageID

const (
	// PageSize is the fixed size, in bytes, of every page in the store.
	PageSize = 4096

	// pageStatusOffset, pageLinkOffset, pageLengthOffset, pageDataOffset and
	// pageCRCOffset lay out the fixed page header: 1 byte status, 4 bytes
	// link, 4 bytes length, then payload, then a trailing 4-byte CRC.
	pageStatusOffset = 0
	pageLinkOffset   = 1
	pageLengthOffset = 5
	pageDataOffset   = 9
	pageCRCOffset    = PageSize - 4

	// PageDataSize is the number of payload bytes available per page.
	PageDataSize = pageCRCOffset - pageDataOffset

	// PagesPerChapter is the number of contiguous pages in one chapter.
	PagesPerChapter = 4096

	// ChapterSize is the number of bytes one chapter occupies on disk.
	ChapterSize = PagesPerChapter * PageSize

	// maxPages bounds the total page count a store may grow to; handles and
	// links are 32-bit page indices.
	maxPages = uint64(1) << 32
)

// PageStatus identifies whether a page is allocated or sits on the free
// list.
type PageStatus byte

const (
	// StatusAllocated marks a page that belongs to a live stream chain.
	StatusAllocated PageStatus = 0
	// StatusFree marks a page reachable from the file header's free-list
	// head.
	StatusFree PageStatus = 1
)

// pageHeader is the 9-byte fixed header every page carries ahead of its
// payload: status, link to the next page in whatever chain the page
// belongs to, and length (meaningful only on a stream's head page).
type pageHeader struct {
	Status PageStatus
	Link   PageID
	Length uint32
}
