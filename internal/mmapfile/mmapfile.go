// Copyright 2026 The savescan Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmapfile maps savegames into memory read-only.  Savegames are
// decoded front to back exactly once, so the mapping is advised as
// sequential.
package mmapfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type File struct {
	data []byte
}

func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	stats, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := stats.Size()
	if size == 0 {
		// mmap rejects zero-length mappings
		return &File{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	if err := unix.Madvise(data, unix.MADV_SEQUENTIAL); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("madvise: %w", err)
	}

	return &File{data: data}, nil
}

func (m *File) Data() []byte {
	return m.data
}

func (m *File) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	return unix.Munmap(data)
}
