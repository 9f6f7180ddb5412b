// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gcs provides a source of inspection documents stored as
// objects in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	gstorage "cloud.google.com/go/storage"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/thoth-station/inspectperf/inspectfmt"
	"github.com/thoth-station/inspectperf/storage"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// DefaultParallelism is the default number of objects a Store reads
// at once.
const DefaultParallelism = 8

// A Store is a collection of inspection documents in the objects of a
// bucket whose names start with a prefix. Each object holds one or
// more documents in any format inspectfmt.Reader accepts, optionally
// compressed with gzip (".gz") or zstd (".zst").
//
// A Store is a storage.Source.
type Store struct {
	// Bucket and Prefix select the objects of this Store.
	Bucket, Prefix string

	// Parallelism limits the number of objects read at once. If
	// 0, DefaultParallelism is used.
	Parallelism int

	// IDKey is the top-level key holding each document's ID. See
	// inspectfmt.Reader.IDKey.
	IDKey string

	// Logger receives skipped objects and documents. If nil, they
	// are not logged.
	Logger *zap.Logger

	client *gstorage.Client
}

// Open returns a Store over the objects in bucket whose names start
// with prefix. If opts is empty, it authenticates with Google's
// application default credentials.
func Open(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Store, error) {
	if len(opts) == 0 && os.Getenv("STORAGE_EMULATOR_HOST") == "" {
		ts, err := google.DefaultTokenSource(ctx, gstorage.ScopeReadWrite)
		if err != nil {
			return nil, fmt.Errorf("finding credentials: %w", err)
		}
		opts = append(opts, option.WithTokenSource(ts))
	}
	client, err := gstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Store{Bucket: bucket, Prefix: prefix, client: client}, nil
}

// Close closes the connection to Cloud Storage.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Objects returns the names of the document objects of s, in lexical
// order.
func (s *Store) Objects(ctx context.Context) ([]string, error) {
	q := &gstorage.Query{Prefix: s.Prefix}
	if err := q.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, err
	}
	it := s.client.Bucket(s.Bucket).Objects(ctx, q)
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing gs://%s/%s: %w", s.Bucket, s.Prefix, err)
		}
		if !inspectfmt.IsDocumentFile(attrs.Name) {
			s.logger().Debug("skipping object", zap.String("name", attrs.Name))
			continue
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// read returns the documents of the named object.
func (s *Store) read(ctx context.Context, name string) ([]*inspectfmt.Document, error) {
	or, err := s.client.Bucket(s.Bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	rc, err := inspectfmt.Decompress(or, name)
	if err != nil {
		or.Close()
		return nil, err
	}
	defer rc.Close()

	var docs []*inspectfmt.Document
	r := inspectfmt.NewReader(rc, "gs://"+s.Bucket+"/"+name)
	r.IDKey = s.IDKey
	for r.Scan() {
		switch rec := r.Record().(type) {
		case *inspectfmt.SyntaxError:
			s.logger().Warn("skipping malformed document", zap.Error(rec))
		case *inspectfmt.Document:
			docs = append(docs, rec)
		}
	}
	return docs, r.Err()
}

// Iterate returns an Iterator over the documents of s. Objects are
// read concurrently, and documents are returned in object order.
func (s *Store) Iterate(ctx context.Context) storage.Iterator {
	names, err := s.Objects(ctx)
	if err != nil {
		return &docIter{err: err}
	}

	n := s.Parallelism
	if n <= 0 {
		n = DefaultParallelism
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	perObject := make([][]*inspectfmt.Document, len(names))
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			docs, err := s.read(gctx, name)
			if err != nil {
				return fmt.Errorf("reading gs://%s/%s: %w", s.Bucket, name, err)
			}
			perObject[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &docIter{err: err}
	}
	var docs []*inspectfmt.Document
	for _, d := range perObject {
		docs = append(docs, d...)
	}
	return &docIter{docs: docs, i: -1}
}

type docIter struct {
	docs []*inspectfmt.Document
	i    int
	err  error
}

func (it *docIter) Next() bool {
	if it.err != nil || it.i >= len(it.docs) {
		return false
	}
	it.i++
	return it.i < len(it.docs)
}

func (it *docIter) Document() *inspectfmt.Document {
	if it.i < 0 || it.i >= len(it.docs) {
		return nil
	}
	return it.docs[it.i]
}

func (it *docIter) Err() error   { return it.err }
func (it *docIter) Close() error { return nil }

// Put writes docs as newline-delimited JSON to the object named
// s.Prefix+name, compressed according to the extension of name.
func (s *Store) Put(ctx context.Context, name string, docs []*inspectfmt.Document) (err error) {
	if !inspectfmt.IsDocumentFile(name) {
		return fmt.Errorf("object name %q does not have a document extension", name)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ow := s.client.Bucket(s.Bucket).Object(s.Prefix + name).NewWriter(ctx)
	ow.ContentType = "application/x-ndjson"

	// Cancelling ctx before Close discards the object.
	defer func() {
		if err != nil {
			cancel()
			ow.Close()
			return
		}
		err = ow.Close()
	}()

	w, closeW, err := compressor(ow, name)
	if err != nil {
		return err
	}
	dw := inspectfmt.NewWriter(w)
	for _, doc := range docs {
		if err := dw.Write(doc); err != nil {
			return err
		}
	}
	return closeW()
}

// compressor wraps w in the compressor chosen by the extension of
// name. The returned close function flushes the compressor but does
// not close w.
func compressor(w io.Writer, name string) (io.Writer, func() error, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		zw := gzip.NewWriter(w)
		return zw, zw.Close, nil
	case strings.HasSuffix(name, ".zst"):
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, err
		}
		return zw, zw.Close, nil
	}
	return w, func() error { return nil }, nil
}
