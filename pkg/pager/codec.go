// pkg/pager/codec.go
package pager

import (
	"encoding/binary"
	"hash/crc32"
)

// putUint32 is a small local alias kept next to the rest of the byte-level
// codec helpers so every multi-byte field in this package goes through one
// explicit little-endian encoder rather than ad hoc struct packing.
func putUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// stampCRC computes crc32 over page[:pageCRCOffset] and writes it into
// page's trailing 4 bytes in place. Used when a whole page buffer is built
// in memory (chapter initialization) rather than mutated on disk.
func stampCRC(page []byte) {
	sum := crc32.ChecksumIEEE(page[:pageCRCOffset])
	binary.LittleEndian.PutUint32(page[pageCRCOffset:], sum)
}

// readHeader reads the 9-byte fixed header of page ix.
func readHeader(s Storage, ix PageID) (pageHeader, error) {
	var buf [pageDataOffset]byte
	if err := s.ReadAt(buf[:], int64(ix)*PageSize); err != nil {
		return pageHeader{}, ioErr("read page header", err)
	}
	return pageHeader{
		Status: PageStatus(buf[pageStatusOffset]),
		Link:   PageID(binary.LittleEndian.Uint32(buf[pageLinkOffset:])),
		Length: binary.LittleEndian.Uint32(buf[pageLengthOffset:]),
	}, nil
}

// writeHeader writes the 9-byte fixed header of page ix, leaving the
// payload and checksum untouched. Callers must call recomputeCRC afterward
// so the stored checksum reflects the new header bytes.
func writeHeader(s Storage, ix PageID, h pageHeader) error {
	var buf [pageDataOffset]byte
	buf[pageStatusOffset] = byte(h.Status)
	binary.LittleEndian.PutUint32(buf[pageLinkOffset:], uint32(h.Link))
	binary.LittleEndian.PutUint32(buf[pageLengthOffset:], h.Length)
	if err := s.WriteAt(buf[:], int64(ix)*PageSize); err != nil {
		return ioErr("write page header", err)
	}
	return nil
}

// writeLink rewrites just the 4-byte link field of page ix.
func writeLink(s Storage, ix PageID, link PageID) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(link))
	if err := s.WriteAt(buf[:], int64(ix)*PageSize+pageLinkOffset); err != nil {
		return ioErr("write page link", err)
	}
	return nil
}

// readData reads up to len(buf) payload bytes starting at offset within
// ix's data region.
func readData(s Storage, ix PageID, offset int, buf []byte) error {
	if err := s.ReadAt(buf, int64(ix)*PageSize+int64(pageDataOffset+offset)); err != nil {
		return ioErr("read page data", err)
	}
	return nil
}

// writeData writes buf into ix's data region starting at offset.
func writeData(s Storage, ix PageID, offset int, buf []byte) error {
	if err := s.WriteAt(buf, int64(ix)*PageSize+int64(pageDataOffset+offset)); err != nil {
		return ioErr("write page data", err)
	}
	return nil
}

// recomputeCRC reads the first pageCRCOffset bytes of page ix back from
// storage and stamps their CRC-32 (IEEE) into the page's trailing 4 bytes.
// This must be called after any in-place mutation of a page's header or
// data so invariant 2 (stored crc == crc32 of the first 4092 bytes) holds
// before the next durable flush.
func recomputeCRC(s Storage, ix PageID) error {
	var prefix [pageCRCOffset]byte
	if err := s.ReadAt(prefix[:], int64(ix)*PageSize); err != nil {
		return ioErr("read page for checksum", err)
	}
	sum := crc32.ChecksumIEEE(prefix[:])
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], sum)
	if err := s.WriteAt(crcBuf[:], int64(ix)*PageSize+pageCRCOffset); err != nil {
		return ioErr("write page checksum", err)
	}
	return nil
}

// checkCRC reads page ix in full and reports whether its stored checksum
// matches crc32 of its first 4092 bytes. On mismatch it returns the
// expected/actual values for diagnostics.
func checkCRC(s Storage, ix PageID) (ok bool, expected, actual uint32, err error) {
	var page [PageSize]byte
	if rerr := s.ReadAt(page[:], int64(ix)*PageSize); rerr != nil {
		return false, 0, 0, ioErr("read page for verification", rerr)
	}
	expected = binary.LittleEndian.Uint32(page[pageCRCOffset:])
	actual = crc32.ChecksumIEEE(page[:pageCRCOffset])
	return expected == actual, expected, actual, nil
}
