package bstream

import (
	"bufio"
	"fmt"
	"io"
)

// Stream is a bit-accurate reader over an io.Reader. A Stream is not safe
// for concurrent use; each parse invocation owns exactly one Stream.
type Stream struct {
	r        *bufio.Reader
	bitOrder BitOrder

	curByte  byte
	bitsLeft uint8 // unread bits remaining in curByte, 0 means "pull a new byte"

	counter int64 // whole source bytes pulled from r since the last reset
}

// New wraps r in a Stream that consumes bits in the given order.
func New(r io.Reader, bitOrder BitOrder) *Stream {
	return &Stream{r: bufio.NewReader(r), bitOrder: bitOrder}
}

func (s *Stream) nextByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		return 0, err
	}
	s.counter++
	return b, nil
}

// ReadBitField reads the next width (1..8) bits and returns them packed
// into the low bits of a byte. Bit order is fixed at construction.
func (s *Stream) ReadBitField(width int) (byte, error) {
	if width < 1 || width > 8 {
		return 0, fmt.Errorf("bstream: bit width %d out of range 1..8", width)
	}

	var result byte
	for i := 0; i < width; i++ {
		if s.bitsLeft == 0 {
			b, err := s.nextByte()
			if err != nil {
				return 0, &EndOfStreamError{Wanted: width - i}
			}
			s.curByte = b
			s.bitsLeft = 8
		}

		consumedPos := 8 - s.bitsLeft // 0-based index of the bit about to be consumed, in consumption order
		var srcShift uint8
		if s.bitOrder == LSB0 {
			srcShift = consumedPos
		} else {
			srcShift = 7 - consumedPos
		}
		bit := (s.curByte >> srcShift) & 1
		s.bitsLeft--

		var dstShift int
		if s.bitOrder == LSB0 {
			dstShift = i
		} else {
			dstShift = width - 1 - i
		}
		result |= bit << uint(dstShift)
	}
	return result, nil
}

// ReadByte reads a full byte, reconstructing the source byte's value
// regardless of bit order.
func (s *Stream) ReadByte() (byte, error) {
	return s.ReadBitField(8)
}

// ReadBoolean reads a full byte and reports whether any of its bits are set.
func (s *Stream) ReadBoolean() (bool, error) {
	b, err := s.ReadByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

func (s *Stream) combine(bs []byte, order ByteOrder) uint64 {
	var v uint64
	if order == LittleEndian {
		for i := len(bs) - 1; i >= 0; i-- {
			v = (v << 8) | uint64(bs[i])
		}
	} else {
		for _, b := range bs {
			v = (v << 8) | uint64(b)
		}
	}
	return v
}

func (s *Stream) readBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := s.ReadByte()
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

// ReadUint16 reads two bytes and combines them per order.
func (s *Stream) ReadUint16(order ByteOrder) (uint16, error) {
	bs, err := s.readBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(s.combine(bs, order)), nil
}

// ReadUint32 reads four bytes and combines them per order.
func (s *Stream) ReadUint32(order ByteOrder) (uint32, error) {
	bs, err := s.readBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(s.combine(bs, order)), nil
}

// ReadUint64 reads eight bytes and combines them per order.
func (s *Stream) ReadUint64(order ByteOrder) (uint64, error) {
	bs, err := s.readBytes(8)
	if err != nil {
		return 0, err
	}
	return s.combine(bs, order), nil
}

// ReadBitsArray reads count fields of the given bit width, or, when
// count is -1, reads whole-width fields until the stream is exhausted.
func (s *Stream) ReadBitsArray(count int, width int) ([]byte, error) {
	if count < 0 {
		var out []byte
		for {
			has, err := s.HasAvailableData()
			if err != nil {
				return nil, err
			}
			if !has {
				return out, nil
			}
			v, err := s.ReadBitField(width)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	out := make([]byte, count)
	for i := 0; i < count; i++ {
		v, err := s.ReadBitField(width)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadBoolArray reads count booleans, or, when count is -1, reads until
// the stream is exhausted.
func (s *Stream) ReadBoolArray(count int) ([]bool, error) {
	if count < 0 {
		var out []bool
		for {
			has, err := s.HasAvailableData()
			if err != nil {
				return nil, err
			}
			if !has {
				return out, nil
			}
			v, err := s.ReadBoolean()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		v, err := s.ReadBoolean()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadByteArray reads count bytes, or, when count is -1, reads until the
// stream is exhausted.
func (s *Stream) ReadByteArray(count int) ([]byte, error) {
	if count < 0 {
		var out []byte
		for {
			has, err := s.HasAvailableData()
			if err != nil {
				return nil, err
			}
			if !has {
				return out, nil
			}
			v, err := s.ReadByte()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return s.readBytes(count)
}

// ReadUint16Array reads count u16s, or, when count is -1, reads until the
// stream is exhausted.
func (s *Stream) ReadUint16Array(count int, order ByteOrder) ([]uint16, error) {
	if count < 0 {
		var out []uint16
		for {
			has, err := s.HasAvailableData()
			if err != nil {
				return nil, err
			}
			if !has {
				return out, nil
			}
			v, err := s.ReadUint16(order)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	out := make([]uint16, count)
	for i := 0; i < count; i++ {
		v, err := s.ReadUint16(order)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadUint32Array reads count u32s, or, when count is -1, reads until the
// stream is exhausted.
func (s *Stream) ReadUint32Array(count int, order ByteOrder) ([]uint32, error) {
	if count < 0 {
		var out []uint32
		for {
			has, err := s.HasAvailableData()
			if err != nil {
				return nil, err
			}
			if !has {
				return out, nil
			}
			v, err := s.ReadUint32(order)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	out := make([]uint32, count)
	for i := 0; i < count; i++ {
		v, err := s.ReadUint32(order)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ReadUint64Array reads count u64s, or, when count is -1, reads until the
// stream is exhausted.
func (s *Stream) ReadUint64Array(count int, order ByteOrder) ([]uint64, error) {
	if count < 0 {
		var out []uint64
		for {
			has, err := s.HasAvailableData()
			if err != nil {
				return nil, err
			}
			if !has {
				return out, nil
			}
			v, err := s.ReadUint64(order)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	out := make([]uint64, count)
	for i := 0; i < count; i++ {
		v, err := s.ReadUint64(order)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Align discards any partial bit buffer and, if the byte counter is not
// already a multiple of n, advances past bytes until it is.
func (s *Stream) Align(n int) error {
	s.bitsLeft = 0
	if n <= 1 {
		return nil
	}
	rem := int(s.counter % int64(n))
	if rem == 0 {
		return nil
	}
	toSkip := n - rem
	skipped, err := s.Skip(toSkip)
	if err != nil {
		return err
	}
	if skipped != int64(toSkip) {
		return &EndOfStreamError{Wanted: toSkip * 8}
	}
	return nil
}

// Skip advances up to n bytes, discarding any pending bit buffer first,
// and returns the number of bytes actually skipped.
func (s *Stream) Skip(n int) (int64, error) {
	s.bitsLeft = 0
	var skipped int64
	for skipped < int64(n) {
		if _, err := s.nextByte(); err != nil {
			if err == io.EOF {
				return skipped, nil
			}
			return skipped, err
		}
		skipped++
	}
	return skipped, nil
}

// HasAvailableData reports whether at least one more bit or byte can be
// read without blocking.
func (s *Stream) HasAvailableData() (bool, error) {
	if s.bitsLeft > 0 {
		return true, nil
	}
	_, err := s.r.Peek(1)
	if err == nil {
		return true, nil
	}
	if err == io.EOF {
		return false, nil
	}
	return false, err
}

// Counter returns the number of whole bytes pulled from the underlying
// reader since construction or the last ResetCounter.
func (s *Stream) Counter() int64 {
	return s.counter
}

// ResetCounter sets the byte counter to zero and discards any pending bit
// buffer. It does not affect the underlying reader's position.
func (s *Stream) ResetCounter() {
	s.counter = 0
	s.bitsLeft = 0
}
