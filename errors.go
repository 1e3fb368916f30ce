// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package savescan

import (
	"github.com/openttd-tools/savescan/internal/chunk"
	"github.com/openttd-tools/savescan/internal/decompress"
	"github.com/openttd-tools/savescan/internal/saveio"
)

// The structural failure kinds a decode can end with, re-exported so
// callers can match with errors.Is without reaching into internal
// packages.  All of them are deterministic and unrecoverable for the
// file being decoded.
var (
	ErrUnsupportedFormat = decompress.ErrUnsupportedFormat
	ErrTruncated         = saveio.ErrTruncated
	ErrMalformedTail     = chunk.ErrMalformedTail
	ErrInvalidChunkType  = chunk.ErrInvalidChunkType
	ErrInvalidGamma      = saveio.ErrInvalidGamma
	ErrInvalidText       = saveio.ErrInvalidText
	ErrRecordTooLarge    = chunk.ErrRecordTooLarge
)
