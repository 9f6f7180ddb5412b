// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectfmt

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// A Files reads inspection documents from a sequence of input files.
//
// A path may name a directory, in which case every document file
// directly inside it is read in lexical order. Files ending in ".gz"
// or ".zst" are decompressed.
type Files struct {
	// Paths is the list of file or directory names to read in.
	Paths []string

	// AllowStdin indicates that the path "-" should be treated as
	// stdin and if the file list is empty, it should be treated
	// as consisting of stdin.
	AllowStdin bool

	// IDKey is passed to each file's Reader. See Reader.IDKey.
	IDKey string

	// inputs is the sequence of remaining inputs, or nil if this
	// Files has not started yet. Note that this distinguishes nil
	// from length 0.
	inputs []string

	reader  Reader
	file    io.ReadCloser
	isStdin bool
	err     error
}

// documentExts are the file name extensions read from directories.
var documentExts = []string{".json", ".ndjson", ".jsonl"}

// IsDocumentFile reports whether name looks like an inspection
// document file, optionally compressed.
func IsDocumentFile(name string) bool {
	name = strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".zst")
	for _, ext := range documentExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// init does first-use initialization of f.
func (f *Files) init() {
	f.inputs = []string{}
	if f.AllowStdin && len(f.Paths) == 0 {
		f.inputs = append(f.inputs, "-")
	}
	for _, path := range f.Paths {
		if f.AllowStdin && path == "-" {
			f.inputs = append(f.inputs, path)
			continue
		}
		fi, err := os.Stat(path)
		if err != nil {
			f.err = err
			return
		}
		if !fi.IsDir() {
			f.inputs = append(f.inputs, path)
			continue
		}
		ents, err := os.ReadDir(path)
		if err != nil {
			f.err = err
			return
		}
		var names []string
		for _, ent := range ents {
			if !ent.IsDir() && IsDocumentFile(ent.Name()) {
				names = append(names, filepath.Join(path, ent.Name()))
			}
		}
		sort.Strings(names)
		f.inputs = append(f.inputs, names...)
	}
}

// Scan advances the reader to the next record in the sequence of
// files and reports whether a record was read. The caller should use
// the Record method to get the record. If Scan reaches the end of the
// file sequence, or if an I/O error occurs, it returns false. In this
// case, the caller should use the Err method to check for errors.
func (f *Files) Scan() bool {
	if f.inputs == nil {
		f.init()
	}
	if f.err != nil {
		return false
	}

	for {
		if f.file == nil {
			// Open the next file.
			if len(f.inputs) == 0 {
				// We're out of inputs.
				return false
			}
			path := f.inputs[0]
			f.inputs = f.inputs[1:]

			if f.AllowStdin && path == "-" {
				f.isStdin, f.file = true, os.Stdin
			} else {
				file, err := os.Open(path)
				if err != nil {
					f.err = err
					return false
				}
				rc, err := Decompress(file, path)
				if err != nil {
					file.Close()
					f.err = err
					return false
				}
				f.isStdin, f.file = false, rc
			}

			f.reader.IDKey = f.IDKey
			f.reader.Reset(f.file, path)
		}

		// Try to get the next record.
		if f.reader.Scan() {
			return true
		}
		err := f.reader.Err()
		if err != nil {
			f.err = err
			break
		}
		// Just an EOF. Close this file and open the next.
		if !f.isStdin {
			f.file.Close()
		}
		f.file = nil
	}
	// We're out of files.
	return false
}

// Record returns the record that was just read by Scan.
// See Reader.Record.
func (f *Files) Record() Record {
	return f.reader.Record()
}

// Err returns the I/O error that stopped Scan, if any.
// If Scan stopped because it read each file to completion,
// or if Scan has not yet returned false, Err returns nil.
func (f *Files) Err() error {
	return f.err
}

// Close closes any file that is still open. It is only necessary if
// the caller stops calling Scan before it returns false.
func (f *Files) Close() error {
	if f.file == nil || f.isStdin {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// Decompress wraps r in a decompressor chosen by the extension of
// name. Closing the result also closes r.
func Decompress(r io.ReadCloser, name string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &stackedCloser{zr, []func() error{zr.Close, r.Close}}, nil
	case strings.HasSuffix(name, ".zst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &stackedCloser{zr, []func() error{func() error { zr.Close(); return nil }, r.Close}}, nil
	}
	return r, nil
}

type stackedCloser struct {
	io.Reader
	closers []func() error
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
