// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/thoth-station/inspectperf/inspectfmt"
)

// A Client issues queries to an inspection storage server, such as
// one run by "inspectq serve".
type Client struct {
	// BaseURL is the base URL of the storage server.
	BaseURL string
	// HTTPClient is the HTTP client for sending requests. If nil,
	// http.DefaultClient will be used.
	HTTPClient *http.Client
}

// httpClient returns the http.Client to use for requests.
func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Keys of the envelope a storage server wraps each document in, so
// that documents keep their IDs in transit.
const (
	EnvelopeID       = "id"
	EnvelopeDocument = "document"
)

// Envelope returns the object a storage server sends for doc.
func Envelope(doc *inspectfmt.Document) inspectfmt.Object {
	return inspectfmt.Object{
		{Key: EnvelopeID, Value: doc.ID},
		{Key: EnvelopeDocument, Value: doc.Root},
	}
}

// Unwrap returns the document in an envelope object read as env.
func Unwrap(env *inspectfmt.Document) (*inspectfmt.Document, error) {
	id, _ := env.Root.Get(EnvelopeID)
	root, _ := env.Root.Get(EnvelopeDocument)
	obj, ok := root.(inspectfmt.Object)
	sid, ok2 := id.(string)
	if !ok || !ok2 {
		return nil, fmt.Errorf("%s: malformed document envelope", env.ID)
	}
	return &inspectfmt.Document{ID: sid, Root: obj}, nil
}

// Query searches for documents matching q. See db.DB.Query for the
// syntax of q.
func (c *Client) Query(ctx context.Context, q string) Iterator {
	hc := c.httpClient()

	it := &clientIter{}
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/search?"+url.Values{"q": []string{q}}.Encode(), nil)
	if err != nil {
		it.err = err
		return it
	}
	resp, err := hc.Do(req)
	if err != nil {
		it.err = err
		return it
	}
	if resp.StatusCode != 200 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		it.err = fmt.Errorf("%s: %s", resp.Status, body)
		return it
	}
	it.body = resp.Body
	it.r = inspectfmt.NewReader(resp.Body, c.BaseURL)
	return it
}

// Iterate returns an Iterator over every document on the server.
func (c *Client) Iterate(ctx context.Context) Iterator {
	return c.Query(ctx, "")
}

// Search returns a Source over the documents on the server matching q.
func (c *Client) Search(q string) Source {
	return clientSearch{c, q}
}

type clientSearch struct {
	c *Client
	q string
}

func (s clientSearch) Iterate(ctx context.Context) Iterator {
	return s.c.Query(ctx, s.q)
}

type clientIter struct {
	body io.ReadCloser
	r    *inspectfmt.Reader
	doc  *inspectfmt.Document
	err  error
}

func (it *clientIter) Next() bool {
	it.doc = nil
	if it.err != nil || it.r == nil {
		return false
	}
	if !it.r.Scan() {
		it.err = it.r.Err()
		return false
	}
	switch rec := it.r.Record().(type) {
	case *inspectfmt.SyntaxError:
		it.err = rec
		return false
	case *inspectfmt.Document:
		it.doc, it.err = Unwrap(rec)
		return it.err == nil
	}
	return true
}

func (it *clientIter) Document() *inspectfmt.Document { return it.doc }

func (it *clientIter) Err() error { return it.err }

func (it *clientIter) Close() error {
	if it.body == nil {
		return nil
	}
	err := it.body.Close()
	it.body = nil
	return err
}

// UploadStatus is the response to an upload.
type UploadStatus struct {
	// UploadID is the upload ID assigned to the upload.
	UploadID string `json:"uploadid"`
	// DocumentIDs are the IDs of the stored documents, in order.
	DocumentIDs []string `json:"documentids"`
}

// Upload stores docs on the server in a single upload.
func (c *Client) Upload(ctx context.Context, docs []*inspectfmt.Document) (*UploadStatus, error) {
	pr, pw := io.Pipe()
	mpw := multipart.NewWriter(pw)

	go func() {
		err := writeUpload(mpw, docs)
		if err == nil {
			err = mpw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/upload", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("upload failed: %s: %s", resp.Status, body)
	}
	status := new(UploadStatus)
	if err := json.NewDecoder(resp.Body).Decode(status); err != nil {
		return nil, fmt.Errorf("cannot parse upload response: %w", err)
	}
	return status, nil
}

// writeUpload writes docs in envelopes as a single NDJSON file part,
// followed by a commit field.
func writeUpload(mpw *multipart.Writer, docs []*inspectfmt.Document) error {
	w, err := mpw.CreateFormFile("envelopes", "documents.ndjson")
	if err != nil {
		return err
	}
	dw := inspectfmt.NewWriter(w)
	for _, doc := range docs {
		if err := dw.Write(&inspectfmt.Document{ID: doc.ID, Root: Envelope(doc)}); err != nil {
			mpw.WriteField("abort", "1")
			return err
		}
	}
	return mpw.WriteField("commit", "1")
}
