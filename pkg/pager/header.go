// pkg/pager/header.go
package pager

import (
	"encoding/binary"
	"hash/crc32"
)

const (
	// magicString identifies a valid store file. It is ASCII, NUL-padded
	// out to headerMagicSize bytes; parsers read up to the first NUL.
	magicString     = "UNICORNS 4-LIFE"
	headerMagicSize = 50

	headerVersionOffset     = 50
	headerPageSizeOffset    = 52
	headerChapterSizeOffset = 54
	headerFreeListOffset    = 60
	headerCRCOffset         = PageSize - 4

	// currentFormatVersion is the only version this build reads and
	// writes; opening a file with a higher version fails with
	// ErrUnsupportedVersion.
	currentFormatVersion = 1
)

// fileHeader is the in-memory form of page 0, the store's self-describing
// header block.
type fileHeader struct {
	Version      uint16
	PageSize     uint16
	ChapterSize  uint16
	FirstFreePage PageID
}

// encodeHeader serializes h into a PageSize-byte buffer, magic string
// first, trailing 4 bytes left zero for the caller to stamp with
// recomputeCRC.
func encodeHeader(h fileHeader) []byte {
	buf := make([]byte, PageSize)
	copy(buf[0:headerMagicSize], magicString)
	binary.LittleEndian.PutUint16(buf[headerVersionOffset:], h.Version)
	binary.LittleEndian.PutUint16(buf[headerPageSizeOffset:], h.PageSize)
	binary.LittleEndian.PutUint16(buf[headerChapterSizeOffset:], h.ChapterSize)
	binary.LittleEndian.PutUint32(buf[headerFreeListOffset:], uint32(h.FirstFreePage))
	return buf
}

// decodeHeader parses page 0's bytes into a fileHeader, validating the
// magic string, the stored checksum, and the format version in that order
// so the caller can distinguish ErrCorruptData from ErrUnsupportedVersion.
func decodeHeader(buf []byte) (fileHeader, error) {
	if len(buf) < PageSize {
		return fileHeader{}, ErrCorruptData
	}

	magic := buf[0:headerMagicSize]
	nul := len(magic)
	for i, b := range magic {
		if b == 0 {
			nul = i
			break
		}
	}
	if string(magic[:nul]) != magicString {
		return fileHeader{}, ErrCorruptData
	}

	expected := binary.LittleEndian.Uint32(buf[headerCRCOffset:])
	actual := crc32.ChecksumIEEE(buf[:headerCRCOffset])
	if expected != actual {
		return fileHeader{}, &CorruptionError{Page: 0, ExpectedCRC: expected, ActualCRC: actual}
	}

	h := fileHeader{
		Version:       binary.LittleEndian.Uint16(buf[headerVersionOffset:]),
		PageSize:      binary.LittleEndian.Uint16(buf[headerPageSizeOffset:]),
		ChapterSize:   binary.LittleEndian.Uint16(buf[headerChapterSizeOffset:]),
		FirstFreePage: PageID(binary.LittleEndian.Uint32(buf[headerFreeListOffset:])),
	}
	if h.Version > currentFormatVersion {
		return fileHeader{}, ErrUnsupportedVersion
	}
	return h, nil
}
