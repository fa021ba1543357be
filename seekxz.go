// Copyright (c) 2025 Niema Moshiri and The Zaparoo Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of seekxz.
//
// seekxz is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// seekxz is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with seekxz.  If not, see <https://www.gnu.org/licenses/>.

// Package seekxz provides random-access reading and append-only writing
// of XZ container files, without ever holding the whole decompressed
// content in memory. It opens ordinary files (or any
// io.ReadWriteSeeker+Truncate handle) and presents their concatenated,
// decompressed content as a single seekable stream, transparently
// decompressing on read and compressing new blocks on write.
package seekxz

import (
	"fmt"
	"os"

	"golang.org/x/text/encoding"

	"github.com/seekxz/seekxz/archive"
	"github.com/seekxz/seekxz/pkg/fileio"
)

// Re-exported for convenience, so callers depending only on the common
// path need a single import.
type (
	Archive       = archive.Archive
	TextFile      = archive.TextFile
	Options       = archive.Options
	CacheStrategy = archive.CacheStrategy
)

const (
	CacheKeep    = archive.CacheKeep
	CacheRolling = archive.CacheRolling
)

// Re-exported check-kind constants.
const (
	CheckNone   = archive.CheckNone
	CheckCRC32  = archive.CheckCRC32
	CheckCRC64  = archive.CheckCRC64
	CheckSHA256 = archive.CheckSHA256
)

// osFlags returns the os.OpenFile flags implied by an archive open mode's
// base character, ahead of archive.Open's own (stricter) mode validation.
func osFlags(base byte) (int, error) {
	switch base {
	case 'r':
		return os.O_RDWR, nil
	case 'w':
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case 'x':
		return os.O_RDWR | os.O_CREATE | os.O_EXCL, nil
	default:
		return 0, fmt.Errorf("xz: invalid mode %q", string(base))
	}
}

// baseChar returns the first of 'r', 'w', 'x' found in mode, for picking
// os.OpenFile flags before archive.Open's full validation runs.
func baseChar(mode string) (byte, error) {
	for i := 0; i < len(mode); i++ {
		switch mode[i] {
		case 'r', 'w', 'x':
			return mode[i], nil
		}
	}
	return 0, fmt.Errorf("xz: invalid mode %q", mode)
}

// Open opens the XZ archive at path in the given mode ("r", "w", "r+",
// "w+", "x", "x+", each optionally suffixed with "b"). opts is copied and
// defaulted internally. Use OpenText for transcoded text access instead
// of raw decompressed bytes.
func Open(path string, mode string, opts Options) (*Archive, error) {
	base, err := baseChar(mode)
	if err != nil {
		return nil, err
	}
	if base == 'r' {
		if err := fileio.CheckExists(path); err != nil {
			return nil, err
		}
	} else if base == 'x' {
		if err := fileio.CheckNotExists(path); err != nil {
			return nil, err
		}
	}

	flags, err := osFlags(base)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, flags, 0o644) //nolint:gosec // path is caller-controlled, same trust boundary as os.Open
	if err != nil {
		return nil, fmt.Errorf("xz: open %s: %w", path, err)
	}

	a, err := archive.Open(f, mode, opts, f.Close)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return a, nil
}

// OpenText is Open's text-mode counterpart: it opens path as an XZ
// archive and wraps it so Read/Write transcode through enc (nil selects
// UTF-8) instead of exposing raw decompressed bytes.
func OpenText(path string, mode string, opts Options, enc encoding.Encoding) (*TextFile, error) {
	base, err := baseChar(mode)
	if err != nil {
		return nil, err
	}
	if base == 'r' {
		if err := fileio.CheckExists(path); err != nil {
			return nil, err
		}
	} else if base == 'x' {
		if err := fileio.CheckNotExists(path); err != nil {
			return nil, err
		}
	}

	flags, ferr := osFlags(base)
	if ferr != nil {
		return nil, ferr
	}
	f, err := os.OpenFile(path, flags, 0o644) //nolint:gosec // path is caller-controlled, same trust boundary as os.Open
	if err != nil {
		return nil, fmt.Errorf("xz: open %s: %w", path, err)
	}

	t, err := archive.OpenText(f, mode, opts, enc, f.Close)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return t, nil
}
