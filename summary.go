// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package savescan

import (
	"fmt"
	"strconv"
)

// Kind discriminates the scalar types a summary field can hold.
type Kind int

const (
	KindInt Kind = iota
	KindText
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a summary field scalar: exactly one of integer, text, or raw
// bytes.
type Value struct {
	Kind  Kind
	Int   int64
	Text  string
	Bytes []byte
}

func IntValue(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

func TextValue(s string) Value {
	return Value{Kind: KindText, Text: s}
}

func BytesValue(b []byte) Value {
	return Value{Kind: KindBytes, Bytes: b}
}

// Display renders the value the way listings show it.
func (v Value) Display() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindText:
		return v.Text
	case KindBytes:
		return fmt.Sprintf("%x", v.Bytes)
	default:
		return ""
	}
}

// Less orders two values of the same kind; used when grouping files by a
// field's value.  Comparing across kinds is the caller's bug.
func (v Value) Less(o Value) bool {
	switch v.Kind {
	case KindInt:
		return v.Int < o.Int
	case KindText:
		return v.Text < o.Text
	case KindBytes:
		return string(v.Bytes) < string(o.Bytes)
	default:
		return false
	}
}

// Summary is the per-file record handed to reporting once a savegame has
// been fully decoded.  Filename, SavegameVersion, Compression, and
// Fingerprint are always set; the extracted fields are only meaningful
// when their Has flag is true.  Extra is the extension slot for fields
// outside the fixed set.
type Summary struct {
	Filename        string
	SavegameVersion uint16
	Compression     string

	// Fingerprint is a farmhash chain over the decompressed chunk
	// stream; byte-identical savegames share it regardless of envelope.
	Fingerprint uint64

	MapSize    string
	HasMapSize bool

	NewGRFCount    int
	HasNewGRFCount bool

	AICount    int
	HasAICount bool

	GSCount    int
	HasGSCount bool

	Extra map[string]Value
}

func newSummary(filename string, version uint16, compression string) *Summary {
	return &Summary{
		Filename:        filename,
		SavegameVersion: version,
		Compression:     compression,
	}
}

// Fields flattens the summary into key/value form for reporting.  The
// map is freshly allocated on each call.
func (s *Summary) Fields() map[string]Value {
	m := map[string]Value{
		"filename":         TextValue(s.Filename),
		"savegame-version": IntValue(int64(s.SavegameVersion)),
		"compression":      TextValue(s.Compression),
		"fingerprint":      TextValue(fmt.Sprintf("%016x", s.Fingerprint)),
	}
	if s.HasMapSize {
		m["map-size"] = TextValue(s.MapSize)
	}
	if s.HasNewGRFCount {
		m["newgrf-count"] = IntValue(int64(s.NewGRFCount))
	}
	if s.HasAICount {
		m["ai-count"] = IntValue(int64(s.AICount))
	}
	if s.HasGSCount {
		m["gs-count"] = IntValue(int64(s.GSCount))
	}
	for k, v := range s.Extra {
		m[k] = v
	}
	return m
}
