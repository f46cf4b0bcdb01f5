// pkg/pager/header_test.go
package pager

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	want := fileHeader{
		Version:       currentFormatVersion,
		PageSize:      PageSize,
		ChapterSize:   PagesPerChapter,
		FirstFreePage: 5,
	}
	buf := encodeHeader(want)
	stampCRC(buf)

	got, err := decodeHeader(buf)
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	buf := encodeHeader(fileHeader{Version: 1})
	copy(buf[0:10], "not-magic!")
	stampCRC(buf)

	if _, err := decodeHeader(buf); err != ErrCorruptData {
		t.Errorf("expected ErrCorruptData for bad magic, got %v", err)
	}
}

func TestHeaderRejectsBadChecksum(t *testing.T) {
	buf := encodeHeader(fileHeader{Version: 1})
	stampCRC(buf)
	buf[49] ^= 0xFF

	_, err := decodeHeader(buf)
	if err == nil {
		t.Fatal("expected error for tampered header")
	}
	var cerr *CorruptionError
	if !errors.As(err, &cerr) {
		t.Errorf("expected *CorruptionError, got %T: %v", err, err)
	}
}

func TestHeaderRejectsFutureVersion(t *testing.T) {
	buf := encodeHeader(fileHeader{Version: currentFormatVersion + 1})
	stampCRC(buf)

	if _, err := decodeHeader(buf); err != ErrUnsupportedVersion {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestHeaderTooShort(t *testing.T) {
	buf := make([]byte, 10)
	binary.LittleEndian.PutUint16(buf, 0)
	if _, err := decodeHeader(buf); err != ErrCorruptData {
		t.Errorf("expected ErrCorruptData for short buffer, got %v", err)
	}
}
