// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command gen-savegame writes small synthetic savegames, one per
// supported compression envelope, for exercising the decoder by hand.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openttd-tools/savescan/internal/synth"
)

const version = 295

func main() {
	var (
		outDir  = flag.String("out", ".", "directory to write savegames into")
		width   = flag.Uint("width", 256, "map width")
		height  = flag.Uint("height", 256, "map height")
		formats = flag.String("formats", "OTTN,OTTZ,OTTX", "comma-separated format tokens")
	)
	flag.Parse()

	mapPayload := make([]byte, 8)
	binary.BigEndian.PutUint32(mapPayload[:4], uint32(*width))
	binary.BigEndian.PutUint32(mapPayload[4:], uint32(*height))

	body, err := synth.NewBuilder().
		Block("MAPS", mapPayload).
		Array("NGRF", []byte("synthetic grf a"), []byte("synthetic grf b")).
		Sparse("AIPL",
			synth.SparseRecord{Index: 0, Data: synth.GammaString("")},
			synth.SparseRecord{Index: 1, Data: synth.GammaString("SynthAI")},
		).
		Sparse("GSDT",
			synth.SparseRecord{Index: 0, Data: synth.GammaString("SynthScript")},
		).
		End().
		Body()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for _, format := range strings.Split(*formats, ",") {
		file, err := synth.File(format, version, body)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		path := filepath.Join(*outDir, fmt.Sprintf("synthetic-%s.sav", strings.ToLower(format)))
		if err := os.WriteFile(path, file, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("%s: %d bytes\n", path, len(file))
	}
}
