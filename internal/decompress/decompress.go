// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package decompress unwraps the compression envelope of a savegame.
// The 4-byte format token at the start of a file selects one of three
// supported backends; everything downstream sees only the decompressed
// logical stream through the saveio.ByteSource contract.
package decompress

import (
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/openttd-tools/savescan/internal/saveio"
)

// ErrUnsupportedFormat means the 4-byte format token was not one of the
// supported ones.  The legacy OTTD token is rejected with this too.
var ErrUnsupportedFormat = errors.New("unsupported savegame compression format")

// Format tokens as they appear on the wire.
const (
	FormatNone   = "OTTN"
	FormatZlib   = "OTTZ"
	FormatLZMA   = "OTTX"
	FormatLegacy = "OTTD"
)

// how much decompressed data we pull per iteration when buffering
const pullChunkSize = 8 * 1024

// Open selects a decompression backend by format token.  raw must be
// positioned just past the 8-byte savegame header; no body byte is read
// before the first ByteSource.Read call.
func Open(magic [4]byte, raw io.Reader) (saveio.ByteSource, error) {
	switch string(magic[:]) {
	case FormatNone:
		return &plainSource{r: raw}, nil
	case FormatZlib:
		return &zlibSource{raw: raw}, nil
	case FormatLZMA:
		return &xzSource{raw: raw}, nil
	case FormatLegacy:
		return nil, fmt.Errorf("legacy %s savegames: %w", FormatLegacy, ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("unknown format token %q: %w", magic[:], ErrUnsupportedFormat)
	}
}

// plainSource passes reads straight through to the raw source (OTTN).
type plainSource struct {
	r io.Reader
}

func (s *plainSource) Read(max int) ([]byte, error) {
	return fill(s.r, max)
}

// zlibSource inflates an OTTZ stream.  The inflate reader is created
// lazily on the first Read so that Open itself consumes no body bytes;
// buf holds decompressed bytes not yet handed to the caller.
type zlibSource struct {
	raw io.Reader
	zr  io.ReadCloser
	buf []byte
	eof bool
}

func (s *zlibSource) Read(max int) ([]byte, error) {
	if s.zr == nil && !s.eof {
		zr, err := zlib.NewReader(s.raw)
		if err != nil {
			return nil, mapEOF("zlib header", err)
		}
		s.zr = zr
	}
	for len(s.buf) < max && !s.eof {
		chunk := make([]byte, pullChunkSize)
		n, err := s.zr.Read(chunk)
		s.buf = append(s.buf, chunk[:n]...)
		if err == io.EOF {
			s.eof = true
			break
		}
		if err != nil {
			return nil, mapEOF("inflate", err)
		}
	}
	if max > len(s.buf) {
		max = len(s.buf)
	}
	out := s.buf[:max]
	s.buf = s.buf[max:]
	return out, nil
}

// xzSource decompresses an OTTX stream.  OTTX bodies are xz containers
// (the writer side uses liblzma's easy encoder).
type xzSource struct {
	raw io.Reader
	xr  *xz.Reader
	eof bool
}

func (s *xzSource) Read(max int) ([]byte, error) {
	if s.xr == nil && !s.eof {
		xr, err := xz.NewReader(s.raw)
		if err != nil {
			return nil, mapEOF("xz header", err)
		}
		s.xr = xr
	}
	if s.eof {
		return nil, nil
	}
	b, err := fill(s.xr, max)
	if err != nil {
		return nil, mapEOF("xz", err)
	}
	if len(b) < max {
		s.eof = true
	}
	return b, nil
}

// fill reads up to max bytes from r, returning fewer only at end of
// stream.  io.Reader's short reads are looped over here so that sources
// honor the ByteSource contract.  Only a clean io.EOF ends the stream;
// an unexpected EOF from a decompressor propagates as an error.
func fill(r io.Reader, max int) ([]byte, error) {
	buf := make([]byte, max)
	total := 0
	for total < max {
		n, err := r.Read(buf[total:])
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return buf[:total], nil
}

// mapEOF converts a decompressor's unexpected-EOF into the decoder's
// truncation error so callers see one error kind for cut-off input.
func mapEOF(op string, err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", op, saveio.ErrTruncated)
	}
	return fmt.Errorf("%s: %w", op, err)
}
