// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storage provides sources of inspection documents.
//
// A Source yields documents from files, a SQL database (package
// storage/db), a storage server (Client), or a Cloud Storage bucket
// (package storage/gcs). Collect gathers a Source into the in-memory
// collection that inspectproc normalizes.
package storage

import (
	"context"
	"fmt"

	"github.com/thoth-station/inspectperf/inspectfmt"
)

// A Source is a collection of inspection documents.
type Source interface {
	// Iterate returns an Iterator over the documents of this
	// Source. The order of documents is unspecified.
	Iterate(ctx context.Context) Iterator
}

// An Iterator iterates over the documents of a Source. Its API is
// modeled on bufio.Scanner.
type Iterator interface {
	// Next advances to the next document and reports whether
	// there is one. It returns false at the end of the collection
	// or on error.
	Next() bool

	// Document returns the document most recently read by Next.
	Document() *inspectfmt.Document

	// Err returns the error that stopped Next, if any.
	Err() error

	// Close releases the resources of the Iterator. It must be
	// called if the caller stops calling Next before it returns
	// false, and may be called more than once.
	Close() error
}

// A DuplicateIDError is returned by Collect when two documents of a
// Source have the same ID.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate document ID %q", e.ID)
}

// Collect reads every document of src. It stops at the first error,
// including cancellation of ctx.
func Collect(ctx context.Context, src Source) ([]*inspectfmt.Document, error) {
	it := src.Iterate(ctx)
	defer it.Close()

	var docs []*inspectfmt.Document
	seen := make(map[string]bool)
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := it.Document()
		if seen[doc.ID] {
			return nil, &DuplicateIDError{doc.ID}
		}
		seen[doc.ID] = true
		docs = append(docs, doc)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return docs, it.Close()
}

// Documents is a Source over an in-memory slice of documents.
type Documents []*inspectfmt.Document

// Iterate returns an Iterator over docs, in order.
func (docs Documents) Iterate(ctx context.Context) Iterator {
	return &sliceIter{ctx: ctx, docs: docs, i: -1}
}

type sliceIter struct {
	ctx  context.Context
	docs []*inspectfmt.Document
	i    int
	err  error
}

func (it *sliceIter) Next() bool {
	if it.err != nil || it.i >= len(it.docs) {
		return false
	}
	if it.err = it.ctx.Err(); it.err != nil {
		return false
	}
	it.i++
	return it.i < len(it.docs)
}

func (it *sliceIter) Document() *inspectfmt.Document {
	if it.i < 0 || it.i >= len(it.docs) {
		return nil
	}
	return it.docs[it.i]
}

func (it *sliceIter) Err() error   { return it.err }
func (it *sliceIter) Close() error { return nil }
