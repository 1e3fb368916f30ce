// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package chunk iterates over the tagged chunks of a decompressed
// savegame body.
//
// A chunk starts with a 4-byte tag and one header byte whose low nibble
// selects the layout:
//
//	 0    1    2    3    4    5    6    7
//	+----+----+----+----+----+----+----+----+
//	| tag               |hdr | body...      |
//	+----+----+----+----+----+----+----+----+
//
//	nibble 0 (block):  hdr's high nibble and a uint24 form a 28-bit
//	                   payload size; one record per chunk.
//	nibble 1 (array):  records prefixed by a gamma length (value-1
//	                   bytes); gamma 0 terminates; implicit indices
//	                   0,1,2,...
//	nibble 2 (sparse): like array, but each record carries its own
//	                   index as a second gamma; the index's encoded
//	                   width counts against the record length.
//
// An all-zero tag, or clean end of input, terminates the body.
package chunk

import (
	"errors"
	"fmt"

	"github.com/openttd-tools/savescan/internal/saveio"
)

var (
	ErrMalformedTail    = errors.New("savegame contains garbage at end of file")
	ErrInvalidChunkType = errors.New("invalid chunk type")
	ErrRecordTooLarge   = errors.New("chunk record length exceeds sanity limit")
)

// MaxRecordLen bounds every declared payload length before allocation.
// It equals the largest size a block chunk header can encode; a gamma
// length can claim far more, which only ever means corrupt or hostile
// input.
const MaxRecordLen = 1 << 28

const (
	kindBlock  = 0x0
	kindArray  = 0x1
	kindSparse = 0x2
)

// Tag is a chunk's 4-byte identifier.  Tags are opaque: they are usually
// printable ASCII but nothing validates that.
type Tag [4]byte

func (t Tag) String() string {
	return string(t[:])
}

// MakeTag builds a Tag from a 4-character literal.
func MakeTag(s string) Tag {
	if len(s) != 4 {
		panic(fmt.Sprintf("chunk tag %q must be exactly 4 bytes", s))
	}
	var t Tag
	copy(t[:], s)
	return t
}

// Record is one emitted item: a chunk payload plus where it came from.
// Index is -1 for block chunks, the implicit running index for array
// chunks, and the explicitly encoded index for sparse chunks.
type Record struct {
	Tag   Tag
	Index int
	Data  []byte
}

const (
	stateBoundary = iota
	stateArray
	stateSparse
	stateDone
	stateFailed
)

// Scanner walks a chunk stream record by record.
//
//	sc := chunk.NewScanner(src)
//	for {
//		rec, ok := sc.Next()
//		if !ok {
//			break
//		}
//		...
//	}
//	if err := sc.Err(); err != nil { ... }
type Scanner struct {
	src       saveio.ByteSource
	r         *saveio.Reader
	state     int
	tag       Tag
	nextIndex int
	err       error
}

func NewScanner(src saveio.ByteSource) *Scanner {
	return &Scanner{
		src:   src,
		r:     saveio.NewReader(src),
		state: stateBoundary,
	}
}

// Next returns the next record in stream order.  It returns false at the
// end of the chunk sequence or on the first structural error; Err
// distinguishes the two.
func (s *Scanner) Next() (Record, bool) {
	for {
		var (
			rec Record
			ok  bool
		)
		switch s.state {
		case stateDone, stateFailed:
			return Record{}, false
		case stateBoundary:
			rec, ok = s.readBoundary()
		case stateArray:
			rec, ok = s.readArrayRecord()
		case stateSparse:
			rec, ok = s.readSparseRecord()
		}
		if s.err != nil {
			s.state = stateFailed
			return Record{}, false
		}
		if ok {
			return rec, true
		}
		// state transition without an emitted record: entered or left
		// an array/sparse body, or hit the terminator
	}
}

// Err returns the error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) fail(err error) {
	s.err = err
	s.state = stateFailed
}

func (s *Scanner) readBoundary() (Record, bool) {
	// the tag read is the one place a short read is not automatically
	// truncation: zero bytes is a clean end of stream
	b, err := s.src.Read(4)
	if err != nil {
		s.fail(err)
		return Record{}, false
	}
	if len(b) == 0 {
		s.state = stateDone
		return Record{}, false
	}
	if len(b) != 4 {
		s.fail(fmt.Errorf("%d stray bytes where a chunk tag was expected: %w", len(b), ErrMalformedTail))
		return Record{}, false
	}
	var tag Tag
	copy(tag[:], b)
	if tag == (Tag{}) {
		s.state = stateDone
		return Record{}, false
	}

	hdr, err := s.r.Uint8()
	if err != nil {
		s.fail(fmt.Errorf("chunk %q header: %w", tag, err))
		return Record{}, false
	}
	switch hdr & 0x0f {
	case kindBlock:
		lo, err := s.r.Uint24()
		if err != nil {
			s.fail(fmt.Errorf("chunk %q size: %w", tag, err))
			return Record{}, false
		}
		size := uint32(hdr>>4)<<24 | lo
		data, err := s.r.Bytes(int(size))
		if err != nil {
			s.fail(fmt.Errorf("chunk %q payload: %w", tag, err))
			return Record{}, false
		}
		return Record{Tag: tag, Index: -1, Data: data}, true
	case kindArray:
		s.state = stateArray
		s.tag = tag
		s.nextIndex = 0
		return Record{}, false
	case kindSparse:
		s.state = stateSparse
		s.tag = tag
		return Record{}, false
	default:
		s.fail(fmt.Errorf("%w 0x%x in chunk %q", ErrInvalidChunkType, hdr&0x0f, tag))
		return Record{}, false
	}
}

func (s *Scanner) readArrayRecord() (Record, bool) {
	size, _, err := s.r.Gamma()
	if err != nil {
		s.fail(fmt.Errorf("chunk %q record length: %w", s.tag, err))
		return Record{}, false
	}
	if size == 0 {
		s.state = stateBoundary
		return Record{}, false
	}
	n := size - 1
	if n > MaxRecordLen {
		s.fail(fmt.Errorf("chunk %q record of %d bytes: %w", s.tag, n, ErrRecordTooLarge))
		return Record{}, false
	}
	data, err := s.r.Bytes(int(n))
	if err != nil {
		s.fail(fmt.Errorf("chunk %q record %d: %w", s.tag, s.nextIndex, err))
		return Record{}, false
	}
	rec := Record{Tag: s.tag, Index: s.nextIndex, Data: data}
	s.nextIndex++
	return rec, true
}

func (s *Scanner) readSparseRecord() (Record, bool) {
	size, _, err := s.r.Gamma()
	if err != nil {
		s.fail(fmt.Errorf("chunk %q record length: %w", s.tag, err))
		return Record{}, false
	}
	if size == 0 {
		s.state = stateBoundary
		return Record{}, false
	}
	index, indexWidth, err := s.r.Gamma()
	if err != nil {
		s.fail(fmt.Errorf("chunk %q record index: %w", s.tag, err))
		return Record{}, false
	}
	n := int64(size) - 1 - int64(indexWidth)
	if n < 0 {
		s.fail(fmt.Errorf("chunk %q record %d: declared length %d smaller than its index encoding", s.tag, index, size-1))
		return Record{}, false
	}
	if n > MaxRecordLen {
		s.fail(fmt.Errorf("chunk %q record of %d bytes: %w", s.tag, n, ErrRecordTooLarge))
		return Record{}, false
	}
	data, err := s.r.Bytes(int(n))
	if err != nil {
		s.fail(fmt.Errorf("chunk %q record %d: %w", s.tag, index, err))
		return Record{}, false
	}
	return Record{Tag: s.tag, Index: int(index), Data: data}, true
}
