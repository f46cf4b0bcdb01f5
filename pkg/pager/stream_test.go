// pkg/pager/stream_test.go
package pager

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateZeroFillsStream(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(5000)
	require.NoError(t, err)

	got, err := s.ReadAll(h)
	require.NoError(t, err)
	require.Len(t, got, 5000)
	require.True(t, bytes.Equal(got, make([]byte, 5000)))
}

func TestAllocateZeroLengthUsesOnePage(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(0)
	require.NoError(t, err)

	length, err := s.GetLength(h)
	require.NoError(t, err)
	require.Equal(t, uint32(0), length)

	got, err := s.ReadAll(h)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestAllocateSpansMultiplePages(t *testing.T) {
	s := openMemStore(t, Options{})

	size := uint32(PageDataSize*3 + 17)
	h, err := s.Allocate(size)
	require.NoError(t, err)

	length, err := s.GetLength(h)
	require.NoError(t, err)
	require.Equal(t, size, length)
}

func TestWriteThenReadAllRoundTrips(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(10)
	require.NoError(t, err)

	payload := randomBytes(t, PageDataSize*4+123)
	require.NoError(t, s.Write(h, payload))

	got, err := s.ReadAll(h)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	length, err := s.GetLength(h)
	require.NoError(t, err)
	require.Equal(t, uint32(len(payload)), length)
}

func TestWriteGrowsChain(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(10)
	require.NoError(t, err)

	big := randomBytes(t, PageDataSize*5)
	require.NoError(t, s.Write(h, big))

	got, err := s.ReadAll(h)
	require.NoError(t, err)
	require.Equal(t, big, got)
}

func TestWriteShrinksAndTrimsTail(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(10)
	require.NoError(t, err)

	big := randomBytes(t, PageDataSize*5)
	require.NoError(t, s.Write(h, big))

	freeBefore, err := s.FreePageCount()
	require.NoError(t, err)

	small := []byte("tiny")
	require.NoError(t, s.Write(h, small))

	got, err := s.ReadAll(h)
	require.NoError(t, err)
	require.Equal(t, small, got)

	freeAfter, err := s.FreePageCount()
	require.NoError(t, err)
	require.Greater(t, freeAfter, freeBefore)
}

func TestWriteAtOverwritesWithoutTrimming(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(0)
	require.NoError(t, err)

	original := randomBytes(t, PageDataSize*3)
	require.NoError(t, s.Write(h, original))

	patch := []byte("PATCHED-REGION")
	offset := uint32(PageDataSize + 50)
	require.NoError(t, s.WriteAt(h, offset, patch))

	got, err := s.ReadAll(h)
	require.NoError(t, err)
	require.Len(t, got, len(original))

	want := append([]byte(nil), original...)
	copy(want[offset:], patch)
	require.Equal(t, want, got)
}

func TestWriteAtExtendsStreamLength(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(10)
	require.NoError(t, err)

	tail := []byte("appended past old length")
	offset := uint32(PageDataSize*2 + 10)
	require.NoError(t, s.WriteAt(h, offset, tail))

	length, err := s.GetLength(h)
	require.NoError(t, err)
	require.Equal(t, offset+uint32(len(tail)), length)

	got, err := s.ReadAt(h, offset, len(tail))
	require.NoError(t, err)
	require.Equal(t, tail, got)
}

func TestReadAtClampsToStreamLength(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(10)
	require.NoError(t, err)
	require.NoError(t, s.Write(h, []byte("0123456789")))

	got, err := s.ReadAt(h, 5, 10)
	require.NoError(t, err)
	require.Equal(t, []byte("56789"), got)
}

func TestReadAtOffsetAtEndReturnsEmpty(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(10)
	require.NoError(t, err)
	require.NoError(t, s.Write(h, []byte("0123456789")))

	got, err := s.ReadAt(h, 10, 5)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = s.ReadAt(h, 50, 5)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestReadAtZeroCountReturnsEmpty(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(10)
	require.NoError(t, err)
	require.NoError(t, s.Write(h, []byte("0123456789")))

	got, err := s.ReadAt(h, 3, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFreeReleasesEntireChain(t *testing.T) {
	s := openMemStore(t, Options{})

	h, err := s.Allocate(0)
	require.NoError(t, err)
	require.NoError(t, s.Write(h, randomBytes(t, PageDataSize*4)))

	freeBefore, err := s.FreePageCount()
	require.NoError(t, err)

	require.NoError(t, s.Free(h))

	freeAfter, err := s.FreePageCount()
	require.NoError(t, err)
	require.Equal(t, freeBefore+4, freeAfter)

	_, err = s.ReadAll(h)
	require.ErrorIs(t, err, ErrInvalidHandle)
}

func TestVerifyOnReadCatchesTamperedPage(t *testing.T) {
	s := openMemStore(t, Options{VerifyOnRead: true})

	h, err := s.Allocate(0)
	require.NoError(t, err)
	require.NoError(t, s.Write(h, randomBytes(t, PageDataSize*2)))

	var corrupt [1]byte
	corrupt[0] = 0xEE
	require.NoError(t, s.storage.WriteAt(corrupt[:], int64(h)*PageSize+50))

	_, err = s.ReadAll(h)
	require.Error(t, err)
	var cerr *CorruptionError
	require.ErrorAs(t, err, &cerr)
}

func TestAllocatedAndFreePagesPartitionTheFile(t *testing.T) {
	s := openMemStore(t, Options{})

	var handles []Handle
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		size := uint32(r.Intn(PageDataSize * 3))
		h, err := s.Allocate(size)
		require.NoError(t, err)
		handles = append(handles, h)
	}

	report, err := s.Validate(handles)
	require.NoError(t, err)
	require.True(t, report.OK())
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	r := rand.New(rand.NewSource(int64(n) + 7))
	buf := make([]byte, n)
	r.Read(buf)
	return buf
}
