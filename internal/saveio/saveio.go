// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package saveio implements the primitive reads shared by every layer of
// the savegame decoder: big-endian fixed-width integers, the 1-5 byte
// "gamma" variable-length integer, and gamma-prefixed UTF-8 strings.
//
// All values on the wire are big-endian.  A gamma value carries its own
// width in the leading bits of its first byte:
//
//	0xxxxxxx                                   7 bits, 1 byte
//	10xxxxxx xxxxxxxx                         14 bits, 2 bytes
//	110xxxxx xxxxxxxx xxxxxxxx                21 bits, 3 bytes
//	1110xxxx xxxxxxxx xxxxxxxx xxxxxxxx       28 bits, 4 bytes
//	11110xxx xxxxxxxx (4 more bytes)          35 bits, 5 bytes
//	11111xxx                                  invalid
package saveio

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrTruncated    = errors.New("unexpected end of savegame data")
	ErrInvalidGamma = errors.New("invalid gamma encoding")
	ErrInvalidText  = errors.New("string is not valid UTF-8")
)

// GammaMax is the largest value a 5-byte gamma can encode (35 bits).
const GammaMax = 1<<35 - 1

// ByteSource is a pull-based stream of decompressed savegame bytes.
// Read returns at most max bytes; a short or empty result means the
// stream is exhausted.  It never returns both bytes and an error.
type ByteSource interface {
	Read(max int) ([]byte, error)
}

// SliceSource serves reads from an in-memory buffer.  It is the source
// used for chunk payloads, which are already fully materialized.
type SliceSource struct {
	data []byte
	off  int
}

func NewSliceSource(data []byte) *SliceSource {
	return &SliceSource{data: data}
}

func (s *SliceSource) Read(max int) ([]byte, error) {
	if max < 0 {
		return nil, fmt.Errorf("negative read size %d", max)
	}
	n := len(s.data) - s.off
	if n > max {
		n = max
	}
	b := s.data[s.off : s.off+n]
	s.off += n
	return b, nil
}

// Reader decodes the primitive wire types from a ByteSource.
type Reader struct {
	src ByteSource
}

func NewReader(src ByteSource) *Reader {
	return &Reader{src: src}
}

// Bytes reads exactly n bytes, failing with ErrTruncated on a short read.
func (r *Reader) Bytes(n int) ([]byte, error) {
	b, err := r.src.Read(n)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("wanted %d bytes, stream had %d: %w", n, len(b), ErrTruncated)
	}
	return b, nil
}

func (r *Reader) Uint8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (r *Reader) Uint24() (uint32, error) {
	b, err := r.Bytes(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

// Gamma decodes one gamma value, returning the value and the number of
// bytes its encoding occupied (sparse chunk records need the width).
func (r *Reader) Gamma() (value uint64, width int, err error) {
	b, err := r.Uint8()
	if err != nil {
		return 0, 0, err
	}
	switch {
	case b&0x80 == 0:
		return uint64(b & 0x7f), 1, nil
	case b&0xc0 == 0x80:
		lo, err := r.Uint8()
		if err != nil {
			return 0, 0, err
		}
		return uint64(b&0x3f)<<8 | uint64(lo), 2, nil
	case b&0xe0 == 0xc0:
		lo, err := r.Uint16()
		if err != nil {
			return 0, 0, err
		}
		return uint64(b&0x1f)<<16 | uint64(lo), 3, nil
	case b&0xf0 == 0xe0:
		lo, err := r.Uint24()
		if err != nil {
			return 0, 0, err
		}
		return uint64(b&0x0f)<<24 | uint64(lo), 4, nil
	case b&0xf8 == 0xf0:
		lo, err := r.Uint32()
		if err != nil {
			return 0, 0, err
		}
		return uint64(b&0x07)<<32 | uint64(lo), 5, nil
	default:
		return 0, 0, fmt.Errorf("first byte 0x%02x: %w", b, ErrInvalidGamma)
	}
}

// String reads a gamma length prefix followed by that many bytes of
// UTF-8 text.
func (r *Reader) String() (string, error) {
	size, _, err := r.Gamma()
	if err != nil {
		return "", err
	}
	b, err := r.Bytes(int(size))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%d-byte string: %w", size, ErrInvalidText)
	}
	return string(b), nil
}

// AppendGamma appends the gamma encoding of v to dst.  Values above
// GammaMax are not representable.
func AppendGamma(dst []byte, v uint64) ([]byte, error) {
	switch {
	case v < 1<<7:
		return append(dst, byte(v)), nil
	case v < 1<<14:
		return append(dst, 0x80|byte(v>>8), byte(v)), nil
	case v < 1<<21:
		return append(dst, 0xc0|byte(v>>16), byte(v>>8), byte(v)), nil
	case v < 1<<28:
		return append(dst, 0xe0|byte(v>>24), byte(v>>16), byte(v>>8), byte(v)), nil
	case v <= GammaMax:
		return append(dst, 0xf0|byte(v>>32), byte(v>>24), byte(v>>16), byte(v>>8), byte(v)), nil
	default:
		return dst, fmt.Errorf("value %d exceeds the 35-bit gamma range", v)
	}
}

// GammaLen reports how many bytes AppendGamma would use for v.
func GammaLen(v uint64) int {
	switch {
	case v < 1<<7:
		return 1
	case v < 1<<14:
		return 2
	case v < 1<<21:
		return 3
	case v < 1<<28:
		return 4
	default:
		return 5
	}
}
