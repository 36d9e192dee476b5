package bstream_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twinfer/bbin/pkg/bstream"
)

func TestReadByteReconstructsSourceValueRegardlessOfBitOrder(t *testing.T) {
	for _, order := range []bstream.BitOrder{bstream.LSB0, bstream.MSB0} {
		s := bstream.New(bytes.NewReader([]byte{0xA5}), order)
		b, err := s.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte(0xA5), b, "order=%v", order)
	}
}

func TestReadBitFieldLSB0LowNibbleFirst(t *testing.T) {
	// 0xA5 = 1010_0101
	s := bstream.New(bytes.NewReader([]byte{0xA5}), bstream.LSB0)
	lo, err := s.ReadBitField(4)
	require.NoError(t, err)
	assert.Equal(t, byte(0x5), lo)
	hi, err := s.ReadBitField(4)
	require.NoError(t, err)
	assert.Equal(t, byte(0xA), hi)
}

func TestReadBitFieldMSB0HighNibbleFirst(t *testing.T) {
	s := bstream.New(bytes.NewReader([]byte{0xA5}), bstream.MSB0)
	hi, err := s.ReadBitField(4)
	require.NoError(t, err)
	assert.Equal(t, byte(0xA), hi)
	lo, err := s.ReadBitField(4)
	require.NoError(t, err)
	assert.Equal(t, byte(0x5), lo)
}

func TestReadUint32ByteOrder(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04}
	be := bstream.New(bytes.NewReader(data), bstream.LSB0)
	v, err := be.ReadUint32(bstream.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), v)

	le := bstream.New(bytes.NewReader(data), bstream.LSB0)
	v2, err := le.ReadUint32(bstream.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), v2)
}

func TestWholeStreamByteArray(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 1024)
	s := bstream.New(bytes.NewReader(data), bstream.LSB0)
	out, err := s.ReadByteArray(-1)
	require.NoError(t, err)
	assert.Len(t, out, 1024)
}

func TestWholeStreamBitArrayCountsEightPerByte(t *testing.T) {
	data := bytes.Repeat([]byte{0xFF}, 1024)
	s := bstream.New(bytes.NewReader(data), bstream.LSB0)
	bits, err := s.ReadBitsArray(-1, 1)
	require.NoError(t, err)
	assert.Len(t, bits, 8*1024)
}

func TestAlignAdvancesToBoundaryAndDiscardsBitBuffer(t *testing.T) {
	s := bstream.New(bytes.NewReader([]byte{0xFF, 0xAA, 0xBB, 0xCC}), bstream.LSB0)
	_, err := s.ReadBitField(3)
	require.NoError(t, err)
	require.NoError(t, s.Align(2))
	assert.Equal(t, int64(2), s.Counter())
	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0xBB), b)
}

func TestAlignOneIsNoOpButStillDiscardsBuffer(t *testing.T) {
	s := bstream.New(bytes.NewReader([]byte{0xFF, 0xAA}), bstream.LSB0)
	_, err := s.ReadBitField(3)
	require.NoError(t, err)
	require.NoError(t, s.Align(1))
	assert.Equal(t, int64(1), s.Counter())
	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), b)
}

func TestSkipReturnsActualBytesSkippedAtEOF(t *testing.T) {
	s := bstream.New(bytes.NewReader([]byte{1, 2, 3}), bstream.LSB0)
	n, err := s.Skip(10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestHasAvailableDataAndCounter(t *testing.T) {
	s := bstream.New(bytes.NewReader([]byte{1, 2}), bstream.LSB0)
	has, err := s.HasAvailableData()
	require.NoError(t, err)
	assert.True(t, has)

	_, err = s.ReadByte()
	require.NoError(t, err)
	_, err = s.ReadByte()
	require.NoError(t, err)

	has, err = s.HasAvailableData()
	require.NoError(t, err)
	assert.False(t, has)
	assert.Equal(t, int64(2), s.Counter())
}

func TestResetCounterZeroesCounterAndKeepsPosition(t *testing.T) {
	s := bstream.New(bytes.NewReader([]byte{1, 2, 3}), bstream.LSB0)
	_, err := s.ReadByte()
	require.NoError(t, err)
	s.ResetCounter()
	assert.Equal(t, int64(0), s.Counter())
	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(2), b)
}

func TestEndOfStreamErrorUnwrapsToEOF(t *testing.T) {
	s := bstream.New(bytes.NewReader(nil), bstream.LSB0)
	_, err := s.ReadByte()
	require.Error(t, err)
	assert.ErrorIs(t, err, io.EOF)
}
