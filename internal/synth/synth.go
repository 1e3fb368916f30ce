// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package synth assembles synthetic savegames for tests and for the
// gen-savegame tool.  It is deliberately not part of the public API:
// writing savegames is out of scope for the library, but the decoder's
// tests need bit-exact fixtures in every layout and envelope.
package synth

import (
	"bytes"
	"compress/zlib"
	"fmt"

	"github.com/ulikunitz/xz"

	"github.com/openttd-tools/savescan/internal/saveio"
)

// SparseRecord is one record of a sparse-array chunk.
type SparseRecord struct {
	Index uint64
	Data  []byte
}

// Builder accumulates a savegame body chunk by chunk.  The first
// encoding error sticks and is reported by Body.
type Builder struct {
	buf bytes.Buffer
	err error
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) tag(tag string, kind byte) {
	if len(tag) != 4 {
		b.setErr(fmt.Errorf("tag %q must be exactly 4 bytes", tag))
		return
	}
	b.buf.WriteString(tag)
	b.buf.WriteByte(kind)
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) gamma(v uint64) {
	enc, err := saveio.AppendGamma(nil, v)
	if err != nil {
		b.setErr(err)
		return
	}
	b.buf.Write(enc)
}

// Block appends a block chunk (layout kind 0) with the given payload.
func (b *Builder) Block(tag string, payload []byte) *Builder {
	if b.err != nil {
		return b
	}
	size := len(payload)
	if size >= 1<<28 {
		b.setErr(fmt.Errorf("block payload of %d bytes exceeds the 28-bit size field", size))
		return b
	}
	if len(tag) != 4 {
		b.setErr(fmt.Errorf("tag %q must be exactly 4 bytes", tag))
		return b
	}
	b.buf.WriteString(tag)
	// header byte: high nibble of the size, low nibble 0
	b.buf.WriteByte(byte(size>>24) << 4)
	b.buf.WriteByte(byte(size >> 16))
	b.buf.WriteByte(byte(size >> 8))
	b.buf.WriteByte(byte(size))
	b.buf.Write(payload)
	return b
}

// Array appends an array chunk (layout kind 1) holding records in order.
func (b *Builder) Array(tag string, records ...[]byte) *Builder {
	if b.err != nil {
		return b
	}
	b.tag(tag, 0x01)
	for _, rec := range records {
		b.gamma(uint64(len(rec)) + 1)
		b.buf.Write(rec)
	}
	b.gamma(0)
	return b
}

// Sparse appends a sparse-array chunk (layout kind 2); each record's
// length prefix covers the record bytes plus its index encoding.
func (b *Builder) Sparse(tag string, records ...SparseRecord) *Builder {
	if b.err != nil {
		return b
	}
	b.tag(tag, 0x02)
	for _, rec := range records {
		b.gamma(uint64(len(rec.Data)+saveio.GammaLen(rec.Index)) + 1)
		b.gamma(rec.Index)
		b.buf.Write(rec.Data)
	}
	b.gamma(0)
	return b
}

// Raw appends bytes verbatim, for building deliberately malformed input.
func (b *Builder) Raw(p []byte) *Builder {
	if b.err != nil {
		return b
	}
	b.buf.Write(p)
	return b
}

// End appends the all-zero terminator tag.
func (b *Builder) End() *Builder {
	return b.Raw([]byte{0, 0, 0, 0})
}

// Body returns the accumulated chunk sequence.
func (b *Builder) Body() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.buf.Bytes(), nil
}

// GammaString encodes a gamma-length-prefixed string, the leading field
// of AI-player and game-script records.
func GammaString(s string) []byte {
	enc, err := saveio.AppendGamma(nil, uint64(len(s)))
	if err != nil {
		panic(err)
	}
	return append(enc, s...)
}

// File wraps a chunk body in a complete savegame: format token, version,
// reserved word, then the body run through the selected envelope.
func File(format string, version uint16, body []byte) ([]byte, error) {
	if len(format) != 4 {
		return nil, fmt.Errorf("format token %q must be exactly 4 bytes", format)
	}
	var out bytes.Buffer
	out.WriteString(format)
	out.WriteByte(byte(version >> 8))
	out.WriteByte(byte(version))
	out.WriteByte(0)
	out.WriteByte(0)

	switch format {
	case "OTTN":
		out.Write(body)
	case "OTTZ":
		zw := zlib.NewWriter(&out)
		if _, err := zw.Write(body); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
	case "OTTX":
		xw, err := xz.NewWriter(&out)
		if err != nil {
			return nil, err
		}
		if _, err := xw.Write(body); err != nil {
			return nil, err
		}
		if err := xw.Close(); err != nil {
			return nil, err
		}
	default:
		// deliberately pass unknown tokens through so tests can build
		// files the decoder must reject
		out.Write(body)
	}
	return out.Bytes(), nil
}
