// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package savescan

import (
	"fmt"

	"github.com/openttd-tools/savescan/internal/chunk"
	"github.com/openttd-tools/savescan/internal/saveio"
)

// The handful of chunk tags that carry fields worth summarizing.  Every
// other tag falls through to a no-op.
var (
	tagMapInfo    = chunk.MakeTag("MAPS")
	tagNewGRF     = chunk.MakeTag("NGRF")
	tagAIPlayer   = chunk.MakeTag("AIPL")
	tagGameScript = chunk.MakeTag("GSDT")
)

type extractor func(rec chunk.Record, sum *Summary) error

var extractors = map[chunk.Tag]extractor{
	tagMapInfo:    extractMapSize,
	tagNewGRF:     countNewGRF,
	tagAIPlayer:   countAIPlayer,
	tagGameScript: countGameScript,
}

// extract folds one chunk record into the summary.
func extract(rec chunk.Record, sum *Summary) error {
	h, ok := extractors[rec.Tag]
	if !ok {
		return nil
	}
	if err := h(rec, sum); err != nil {
		return fmt.Errorf("chunk %q: %w", rec.Tag, err)
	}
	return nil
}

func payloadReader(rec chunk.Record) *saveio.Reader {
	return saveio.NewReader(saveio.NewSliceSource(rec.Data))
}

// extractMapSize reads the leading width and height words of the map
// chunk.  The chunk recurring would overwrite, but it appears once.
func extractMapSize(rec chunk.Record, sum *Summary) error {
	r := payloadReader(rec)
	width, err := r.Uint32()
	if err != nil {
		return err
	}
	height, err := r.Uint32()
	if err != nil {
		return err
	}
	sum.MapSize = fmt.Sprintf("%dx%d", width, height)
	sum.HasMapSize = true
	return nil
}

// countNewGRF counts NewGRF list records; each record is one grf.
func countNewGRF(_ chunk.Record, sum *Summary) error {
	sum.NewGRFCount++
	sum.HasNewGRFCount = true
	return nil
}

// countAIPlayer counts AI company slots that actually have an AI in
// them: the record leads with the AI's name, empty for vacant slots.
func countAIPlayer(rec chunk.Record, sum *Summary) error {
	name, err := payloadReader(rec).String()
	if err != nil {
		return err
	}
	if name != "" {
		sum.AICount++
		sum.HasAICount = true
	}
	return nil
}

// countGameScript works exactly like countAIPlayer for the game-script
// slot.
func countGameScript(rec chunk.Record, sum *Summary) error {
	name, err := payloadReader(rec).String()
	if err != nil {
		return err
	}
	if name != "" {
		sum.GSCount++
		sum.HasGSCount = true
	}
	return nil
}
