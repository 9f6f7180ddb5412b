// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/thoth-station/inspectperf/inspectfmt"
	"go.uber.org/zap"
)

// A FileSource is a Source of documents read from files. See
// inspectfmt.Files for the accepted paths and formats.
type FileSource struct {
	// Paths is the list of files or directories to read.
	Paths []string

	// AllowStdin treats the path "-", or an empty Paths, as
	// standard input.
	AllowStdin bool

	// IDKey is the top-level key holding each document's ID. See
	// inspectfmt.Reader.IDKey.
	IDKey string

	// Strict makes malformed documents stop iteration with an
	// error. Otherwise they are logged and skipped.
	Strict bool

	// Logger receives skipped documents. If nil, they are not
	// logged.
	Logger *zap.Logger
}

// Iterate returns an Iterator over the documents in s.Paths.
func (s *FileSource) Iterate(ctx context.Context) Iterator {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &fileIter{
		ctx:    ctx,
		files:  &inspectfmt.Files{Paths: s.Paths, AllowStdin: s.AllowStdin, IDKey: s.IDKey},
		strict: s.Strict,
		log:    log,
	}
}

type fileIter struct {
	ctx    context.Context
	files  *inspectfmt.Files
	strict bool
	log    *zap.Logger
	doc    *inspectfmt.Document
	err    error
}

func (it *fileIter) Next() bool {
	it.doc = nil
	if it.err != nil {
		return false
	}
	for it.files.Scan() {
		if it.err = it.ctx.Err(); it.err != nil {
			return false
		}
		switch rec := it.files.Record().(type) {
		case *inspectfmt.SyntaxError:
			if it.strict {
				it.err = rec
				return false
			}
			it.log.Warn("skipping malformed document", zap.Error(rec))
		case *inspectfmt.Document:
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			it.doc = rec
			return true
		}
	}
	it.err = it.files.Err()
	return false
}

func (it *fileIter) Document() *inspectfmt.Document { return it.doc }

func (it *fileIter) Err() error { return it.err }

func (it *fileIter) Close() error { return it.files.Close() }
