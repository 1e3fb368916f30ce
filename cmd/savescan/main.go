// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command savescan decodes savegames and writes per-key listings: a
// YAML file per summary key under the metadata directory and a set of
// cross-linked HTML pages under the docs directory.
//
//	savescan [flags] savegame...
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/openttd-tools/savescan"
	"github.com/openttd-tools/savescan/internal/report"
)

func main() {
	var (
		metadataDir = flag.String("metadata", "metadata", "directory for YAML listings")
		docsDir     = flag.String("docs", "docs", "directory for HTML pages")
		baseURL     = flag.String("base-url", "", "URL prefix for savegame links in HTML output")
		title       = flag.String("title", "OpenTTD Savegames", "title of the HTML index page")
		failFast    = flag.Bool("fail-fast", false, "abort the whole run on the first undecodable file")
		verbose     = flag.Bool("v", false, "log every scanned file")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] savegame...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := zap.NewDevelopmentConfig()
	if !*verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(flag.Args(), *metadataDir, *docsDir, *baseURL, *title, *failFast, logger); err != nil {
		logger.Fatal("savescan failed", zap.Error(err))
	}
}

func run(paths []string, metadataDir, docsDir, baseURL, title string, failFast bool, logger *zap.Logger) error {
	summaries, err := savescan.ScanAll(paths, savescan.BatchOptions{
		ContinueOnError: !failFast,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	logger.Info("scanned savegames",
		zap.Int("requested", len(paths)),
		zap.Int("decoded", len(summaries)))
	if len(summaries) == 0 {
		return fmt.Errorf("no savegame decoded successfully")
	}

	for _, dir := range []string{metadataDir, docsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("os.MkdirAll(%s): %w", dir, err)
		}
	}

	keys := report.Keys(summaries)
	for _, key := range keys {
		groups, err := report.GroupByKey(summaries, key)
		if err != nil {
			return err
		}
		if err := report.WriteYAML(metadataDir, key, groups); err != nil {
			return err
		}
		if err := report.WriteHTML(docsDir, key, baseURL, groups); err != nil {
			return err
		}
	}
	if err := report.WriteIndex(docsDir, title, keys); err != nil {
		return err
	}
	logger.Info("wrote listings",
		zap.Int("keys", len(keys)),
		zap.String("metadata", metadataDir),
		zap.String("docs", docsDir))
	return nil
}
