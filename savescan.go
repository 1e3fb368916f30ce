// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package savescan decodes OpenTTD savegames into per-file summary
// records.
//
// A savegame is a compressed, chunk-structured container:
//
//	┌────────────────────────┐
//	│ format token (4 bytes) │
//	├────────────────────────┤
//	│ version + reserved     │
//	├────────────────────────┤
//	│ compressed chunk body  │
//	│                        │
//	│   TAG₁ hdr payload     │
//	│   TAG₂ hdr payload     │
//	│   ...                  │
//	│   \0\0\0\0             │
//	└────────────────────────┘
//
// The decoder unwraps the compression envelope, walks every chunk, and
// extracts the handled fields (map size, NewGRF/AI/game-script counts)
// into a Summary.  Chunks it doesn't recognize are skipped, not
// validated.
package savescan

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dgryski/go-farm"
	"go.uber.org/zap"

	"github.com/openttd-tools/savescan/internal/chunk"
	"github.com/openttd-tools/savescan/internal/decompress"
	"github.com/openttd-tools/savescan/internal/mmapfile"
)

const headerSize = 4 + 2 + 2 // format token + version + reserved

// ScanReader decodes one savegame from r and returns its summary.  name
// only labels the summary; it is not touched as a path.
func ScanReader(name string, r io.Reader) (*Summary, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%s: savegame header: %w", name, ErrTruncated)
	}
	var magic [4]byte
	copy(magic[:], hdr[:4])
	version := uint16(hdr[4])<<8 | uint16(hdr[5])
	// hdr[6:8] is reserved and ignored

	src, err := decompress.Open(magic, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	sum := newSummary(name, version, string(magic[:]))

	sc := chunk.NewScanner(src)
	for {
		rec, ok := sc.Next()
		if !ok {
			break
		}
		sum.Fingerprint = farm.Hash64WithSeed(rec.Tag[:], sum.Fingerprint)
		sum.Fingerprint = farm.Hash64WithSeed(rec.Data, sum.Fingerprint)
		if err := extract(rec, sum); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return sum, nil
}

// ScanFile decodes the savegame at path.  Files are mapped into memory
// when the platform allows it, with a plain buffered read as fallback.
func ScanFile(path string) (*Summary, error) {
	name := filepath.Base(path)

	if m, err := mmapfile.Open(path); err == nil {
		defer func() {
			_ = m.Close()
		}()
		return ScanReader(name, bytes.NewReader(m.Data()))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return ScanReader(name, bufio.NewReaderSize(f, 64*1024))
}

// BatchOptions controls ScanAll.
type BatchOptions struct {
	// ContinueOnError skips files that fail to decode (logging a
	// warning) instead of aborting the whole batch.
	ContinueOnError bool
	Logger          *zap.Logger
}

// ScanAll decodes savegames one at a time in the given order.  With
// ContinueOnError set the result holds the summaries of the files that
// decoded cleanly; otherwise the first failure aborts the batch.
func ScanAll(paths []string, opts BatchOptions) ([]*Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	summaries := make([]*Summary, 0, len(paths))
	for _, path := range paths {
		sum, err := ScanFile(path)
		if err != nil {
			if !opts.ContinueOnError {
				return nil, err
			}
			logger.Warn("skipping savegame",
				zap.String("file", path),
				zap.Error(err))
			continue
		}
		logger.Debug("scanned savegame",
			zap.String("file", sum.Filename),
			zap.Uint16("savegame-version", sum.SavegameVersion),
			zap.String("compression", sum.Compression))
		summaries = append(summaries, sum)
	}
	return summaries, nil
}
