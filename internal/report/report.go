// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package report turns a batch of savegame summaries into per-key
// listings: for every summary key it groups the files by that key's
// value and writes a YAML listing plus a static HTML page, with an index
// page tying the HTML together.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/openttd-tools/savescan"
)

// unknownSlot labels files that lack the key being grouped by.
const unknownSlot = "unknown"

type stringSet map[string]struct{}

func (set stringSet) Add(s string) {
	set[s] = struct{}{}
}

// Group is one value slot under a key and the files that share it.
type Group struct {
	Slot  string
	Files []string
}

// Keys returns every field key present across the summaries except
// filename (grouping files by their own name is meaningless), sorted.
func Keys(summaries []*savescan.Summary) []string {
	set := make(stringSet)
	for _, sum := range summaries {
		for k := range sum.Fields() {
			if k == "filename" {
				continue
			}
			set.Add(k)
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GroupByKey partitions files by the value they hold for key, ordered by
// value.  Files without the key land in a trailing "unknown" slot that
// sorts with the kind's zero value.  All present values must share one
// kind; a mix means extraction produced inconsistent records.
func GroupByKey(summaries []*savescan.Summary, key string) ([]Group, error) {
	kind, ok, err := detectKind(summaries, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	zero := savescan.Value{Kind: kind}

	type entry struct {
		sortVal savescan.Value
		slot    string
		file    string
	}
	entries := make([]entry, 0, len(summaries))
	for _, sum := range summaries {
		fields := sum.Fields()
		e := entry{file: sum.Filename}
		if v, ok := fields[key]; ok {
			e.sortVal = v
			e.slot = v.Display()
		} else {
			e.sortVal = zero
			e.slot = unknownSlot
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].sortVal.Less(entries[j].sortVal)
	})

	var groups []Group
	for _, e := range entries {
		if len(groups) == 0 || groups[len(groups)-1].Slot != e.slot {
			groups = append(groups, Group{Slot: e.slot})
		}
		last := &groups[len(groups)-1]
		last.Files = append(last.Files, e.file)
	}
	return groups, nil
}

// detectKind finds the single value kind used for key across the batch.
func detectKind(summaries []*savescan.Summary, key string) (savescan.Kind, bool, error) {
	var (
		kind  savescan.Kind
		found bool
	)
	for _, sum := range summaries {
		v, ok := sum.Fields()[key]
		if !ok {
			continue
		}
		if found && v.Kind != kind {
			return 0, false, fmt.Errorf("summary key %q holds both %s and %s values", key, kind, v.Kind)
		}
		kind = v.Kind
		found = true
	}
	return kind, found, nil
}

// WriteYAML writes <dir>/<key>.yaml mapping the key to its slots and
// each slot to its file list.  Slot order is preserved, which plain
// map marshalling wouldn't give us, so the document is built from
// yaml.Node.
func WriteYAML(dir, key string, groups []Group) error {
	slots := &yaml.Node{Kind: yaml.MappingNode}
	for _, g := range groups {
		files := &yaml.Node{Kind: yaml.SequenceNode}
		for _, f := range g.Files {
			files.Content = append(files.Content, scalarNode(f))
		}
		slots.Content = append(slots.Content, scalarNode(g.Slot), files)
	}
	doc := &yaml.Node{Kind: yaml.MappingNode}
	doc.Content = append(doc.Content, scalarNode(key), slots)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("yaml.Marshal(%s): %w", key, err)
	}
	path := filepath.Join(dir, key+".yaml")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("os.WriteFile(%s): %w", path, err)
	}
	return nil
}

func scalarNode(s string) *yaml.Node {
	// tagged as a string so numeric-looking slots stay strings
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

var pageTmpl = template.Must(template.New("page").Parse(`<html><body>
<h1>By {{.Key}}</h1>
{{range .Groups}}<h2>{{.Slot}}</h2>
<ul>
{{range .Files}}<li><a href="{{$.BaseURL}}{{.}}">{{.}}</a></li>
{{end}}</ul>
{{end}}</body></html>
`))

var indexTmpl = template.Must(template.New("index").Parse(`<html><body>
<h1>{{.Title}}</h1>
<ul>
{{range .Keys}}<li><a href="{{.}}.html">by {{.}}</a></li>
{{end}}</ul>
</body></html>
`))

// WriteHTML writes <dir>/<key>.html listing each slot's files as links.
// baseURL, if non-empty, prefixes every file link and should end in a
// slash.
func WriteHTML(dir, key, baseURL string, groups []Group) error {
	path := filepath.Join(dir, key+".html")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create(%s): %w", path, err)
	}
	err = pageTmpl.Execute(f, struct {
		Key     string
		BaseURL string
		Groups  []Group
	}{Key: key, BaseURL: baseURL, Groups: groups})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

// WriteIndex writes <dir>/index.html linking every per-key page.
func WriteIndex(dir, title string, keys []string) error {
	path := filepath.Join(dir, "index.html")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create(%s): %w", path, err)
	}
	err = indexTmpl.Execute(f, struct {
		Title string
		Keys  []string
	}{Title: title, Keys: keys})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}
