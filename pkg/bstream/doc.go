// Package bstream provides a bit-accurate reader over a byte source.
//
// # Overview
//
// A Stream tracks a read cursor at bit granularity: it can pull 1-8 bits
// packed into the low bits of a byte, whole multi-byte integers in either
// byte order, arrays of any of the above (including "read until end of
// stream" arrays), and supports byte-alignment and skip operations. The
// bit order used to extract bits from each source byte (LSB-first or
// MSB-first) is fixed at construction and orthogonal to the byte order
// used to combine multiple bytes into wider integers.
//
// # Bit order and byte reconstruction
//
// Reading a full byte (width 8) always reconstructs the original source
// byte value regardless of bit order: under LSB0 the first bit consumed
// (the source byte's bit 0) becomes the result's bit 0; under MSB0 the
// first bit consumed (the source byte's bit 7) becomes the result's
// highest bit. Bit order only becomes visible when reading fewer than 8
// bits at a time, where it decides whether a partial field comes from the
// low or the high end of the source byte.
//
// # Counter
//
// Stream keeps a byte counter of how many source bytes have been pulled
// from the underlying reader. It can be reset independently of the
// underlying reader's position, which callers use to implement
// stream-relative size fields (see the "reset$$" directive in the script
// language built on top of this package).
package bstream
