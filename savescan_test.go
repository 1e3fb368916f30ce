// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package savescan

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openttd-tools/savescan/internal/synth"
)

func mapChunkPayload(width, height uint32) []byte {
	payload := make([]byte, 8)
	binary.BigEndian.PutUint32(payload[:4], width)
	binary.BigEndian.PutUint32(payload[4:], height)
	return payload
}

func TestScanReader_MapSize(t *testing.T) {
	body, err := synth.NewBuilder().
		Block("MAPS", mapChunkPayload(4, 6)).
		End().
		Body()
	require.NoError(t, err)

	file, err := synth.File("OTTN", 5, body)
	require.NoError(t, err)

	sum, err := ScanReader("tiny.sav", bytes.NewReader(file))
	require.NoError(t, err)

	assert.Equal(t, "tiny.sav", sum.Filename)
	assert.Equal(t, uint16(5), sum.SavegameVersion)
	assert.Equal(t, "OTTN", sum.Compression)
	require.True(t, sum.HasMapSize)
	assert.Equal(t, "4x6", sum.MapSize)
	assert.False(t, sum.HasNewGRFCount)
	assert.False(t, sum.HasAICount)
	assert.False(t, sum.HasGSCount)
}

func TestScanReader_AllFormatsAgree(t *testing.T) {
	body, err := synth.NewBuilder().
		Block("MAPS", mapChunkPayload(256, 1024)).
		Array("NGRF", []byte("grf one"), []byte("grf two")).
		End().
		Body()
	require.NoError(t, err)

	var fingerprints []uint64
	for _, format := range []string{"OTTN", "OTTZ", "OTTX"} {
		file, err := synth.File(format, 295, body)
		require.NoError(t, err)

		sum, err := ScanReader("same.sav", bytes.NewReader(file))
		require.NoError(t, err, format)

		assert.Equal(t, format, sum.Compression)
		assert.Equal(t, uint16(295), sum.SavegameVersion)
		assert.Equal(t, "256x1024", sum.MapSize)
		assert.Equal(t, 2, sum.NewGRFCount)
		fingerprints = append(fingerprints, sum.Fingerprint)
	}

	// the fingerprint covers the decompressed stream, so it must not
	// depend on the envelope
	assert.Equal(t, fingerprints[0], fingerprints[1])
	assert.Equal(t, fingerprints[0], fingerprints[2])
	assert.NotZero(t, fingerprints[0])
}

func TestScanReader_NewGRFCount(t *testing.T) {
	body, err := synth.NewBuilder().
		Array("NGRF", []byte("a"), []byte("b"), []byte("c")).
		End().
		Body()
	require.NoError(t, err)

	file, err := synth.File("OTTN", 100, body)
	require.NoError(t, err)

	sum, err := ScanReader("grfs.sav", bytes.NewReader(file))
	require.NoError(t, err)
	require.True(t, sum.HasNewGRFCount)
	assert.Equal(t, 3, sum.NewGRFCount)
}

func TestScanReader_AIAndGSCounts(t *testing.T) {
	body, err := synth.NewBuilder().
		Sparse("AIPL",
			synth.SparseRecord{Index: 0, Data: synth.GammaString("")},
			synth.SparseRecord{Index: 1, Data: synth.GammaString("trAIns")},
			synth.SparseRecord{Index: 2, Data: synth.GammaString("Admiral AI")},
		).
		Sparse("GSDT",
			synth.SparseRecord{Index: 0, Data: synth.GammaString("City Growth")},
		).
		End().
		Body()
	require.NoError(t, err)

	file, err := synth.File("OTTN", 200, body)
	require.NoError(t, err)

	sum, err := ScanReader("scripted.sav", bytes.NewReader(file))
	require.NoError(t, err)

	// the empty name is a vacant slot and doesn't count
	require.True(t, sum.HasAICount)
	assert.Equal(t, 2, sum.AICount)
	require.True(t, sum.HasGSCount)
	assert.Equal(t, 1, sum.GSCount)
}

func TestScanReader_UnknownChunksSkipped(t *testing.T) {
	body, err := synth.NewBuilder().
		Block("CHTS", []byte{1, 2, 3, 4}).
		Array("VEHS", []byte("not a handled tag")).
		End().
		Body()
	require.NoError(t, err)

	file, err := synth.File("OTTN", 50, body)
	require.NoError(t, err)

	sum, err := ScanReader("plain.sav", bytes.NewReader(file))
	require.NoError(t, err)
	assert.False(t, sum.HasMapSize)
	assert.False(t, sum.HasNewGRFCount)
}

func TestScanReader_LegacyFormatRejected(t *testing.T) {
	file, err := synth.File("OTTD", 3, []byte("whatever"))
	require.NoError(t, err)

	_, err = ScanReader("ancient.sav", bytes.NewReader(file))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestScanReader_TruncatedHeader(t *testing.T) {
	for _, n := range []int{0, 3, 7} {
		_, err := ScanReader("cut.sav", bytes.NewReader(make([]byte, n)))
		assert.ErrorIs(t, err, ErrTruncated, "%d header bytes", n)
	}
}

func TestScanReader_MapChunkTooShort(t *testing.T) {
	body, err := synth.NewBuilder().
		Block("MAPS", []byte{0, 0, 0, 4}).
		End().
		Body()
	require.NoError(t, err)

	file, err := synth.File("OTTN", 5, body)
	require.NoError(t, err)

	_, err = ScanReader("short-maps.sav", bytes.NewReader(file))
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestScanReader_InvalidAIName(t *testing.T) {
	body, err := synth.NewBuilder().
		Sparse("AIPL",
			synth.SparseRecord{Index: 0, Data: []byte{0x02, 0xff, 0xfe}},
		).
		End().
		Body()
	require.NoError(t, err)

	file, err := synth.File("OTTN", 5, body)
	require.NoError(t, err)

	_, err = ScanReader("bad-name.sav", bytes.NewReader(file))
	assert.ErrorIs(t, err, ErrInvalidText)
}

func writeTestSave(t *testing.T, dir, name, format string) string {
	t.Helper()
	body, err := synth.NewBuilder().
		Block("MAPS", mapChunkPayload(64, 64)).
		End().
		Body()
	require.NoError(t, err)

	file, err := synth.File(format, 123, body)
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, file, 0o644))
	return path
}

func TestScanFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTestSave(t, dir, "disk.sav", "OTTZ")

	sum, err := ScanFile(path)
	require.NoError(t, err)
	assert.Equal(t, "disk.sav", sum.Filename)
	assert.Equal(t, "OTTZ", sum.Compression)
	assert.Equal(t, "64x64", sum.MapSize)
}

func TestScanAll_ContinueOnError(t *testing.T) {
	dir := t.TempDir()
	good := writeTestSave(t, dir, "good.sav", "OTTN")
	bad := filepath.Join(dir, "bad.sav")
	require.NoError(t, os.WriteFile(bad, []byte("OTTDgarbage"), 0o644))

	summaries, err := ScanAll([]string{good, bad}, BatchOptions{
		ContinueOnError: true,
		Logger:          zap.NewNop(),
	})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "good.sav", summaries[0].Filename)
}

func TestScanAll_FailFast(t *testing.T) {
	dir := t.TempDir()
	good := writeTestSave(t, dir, "good.sav", "OTTN")
	bad := filepath.Join(dir, "bad.sav")
	require.NoError(t, os.WriteFile(bad, []byte("OTTDgarbage"), 0o644))

	_, err := ScanAll([]string{bad, good}, BatchOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSummary_Fields(t *testing.T) {
	sum := &Summary{
		Filename:        "a.sav",
		SavegameVersion: 7,
		Compression:     "OTTN",
		MapSize:         "4x6",
		HasMapSize:      true,
		NewGRFCount:     2,
		HasNewGRFCount:  true,
		Extra: map[string]Value{
			"note": TextValue("hand-made"),
		},
	}

	fields := sum.Fields()
	assert.Equal(t, TextValue("a.sav"), fields["filename"])
	assert.Equal(t, IntValue(7), fields["savegame-version"])
	assert.Equal(t, TextValue("OTTN"), fields["compression"])
	assert.Equal(t, TextValue("4x6"), fields["map-size"])
	assert.Equal(t, IntValue(2), fields["newgrf-count"])
	assert.Equal(t, TextValue("hand-made"), fields["note"])

	// absent optional fields stay out of the map
	_, ok := fields["ai-count"]
	assert.False(t, ok)
	_, ok = fields["gs-count"]
	assert.False(t, ok)
}

func TestValue_DisplayAndLess(t *testing.T) {
	assert.Equal(t, "42", IntValue(42).Display())
	assert.Equal(t, "64x64", TextValue("64x64").Display())
	assert.Equal(t, "0aff", BytesValue([]byte{0x0a, 0xff}).Display())

	assert.True(t, IntValue(1).Less(IntValue(2)))
	assert.False(t, IntValue(2).Less(IntValue(1)))
	assert.True(t, TextValue("a").Less(TextValue("b")))
	assert.True(t, BytesValue([]byte{1}).Less(BytesValue([]byte{2})))
}
