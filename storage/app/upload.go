// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/thoth-station/inspectperf/inspectfmt"
	"github.com/thoth-station/inspectperf/storage"
	"github.com/thoth-station/inspectperf/storage/db"
	"go.uber.org/zap"
)

// upload is the handler for the /upload endpoint. It processes files
// of inspection documents in a multipart/form-data POST request.
//
// Each "file" part holds plain documents, identified by their
// inspection_id. Each "envelopes" part holds documents wrapped as by
// storage.Envelope. An "abort" field discards the upload; otherwise it
// is committed when the request ends.
func (a *App) upload(w http.ResponseWriter, r *http.Request) {
	if a.Auth != nil {
		if _, err := a.Auth(w, r); err != nil {
			if err != ErrResponseWritten {
				a.fail(w, r, http.StatusForbidden, err)
			}
			return
		}
	}
	if r.Method != http.MethodPost {
		http.Error(w, "/upload must be called as a POST request", http.StatusMethodNotAllowed)
		return
	}

	// We use r.MultipartReader instead of r.ParseForm to avoid
	// storing uploaded data in memory.
	mr, err := r.MultipartReader()
	if err != nil {
		a.fail(w, r, http.StatusBadRequest, err)
		return
	}

	result, err := a.processUpload(r.Context(), mr)
	if err != nil {
		status := http.StatusInternalServerError
		var se *inspectfmt.SyntaxError
		if errors.As(err, &se) || errors.Is(err, errAborted) {
			status = http.StatusBadRequest
		}
		a.fail(w, r, status, err)
		return
	}

	a.logger().Info("stored upload",
		zap.String("uploadid", result.UploadID), zap.Int("documents", len(result.DocumentIDs)))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		a.logger().Error("writing upload response", zap.Error(err))
	}
}

var errAborted = errors.New("upload aborted by client")

// processUpload reads documents from every file in mr and stores them
// in a single upload.
func (a *App) processUpload(ctx context.Context, mr *multipart.Reader) (status *storage.UploadStatus, err error) {
	var upload *db.Upload
	defer func() {
		if err != nil && upload != nil {
			upload.Abort()
		}
	}()

	status = new(storage.UploadStatus)
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		name := p.FormName()
		switch name {
		case "commit":
			continue
		case "abort":
			return nil, errAborted
		case "file", "envelopes":
		default:
			return nil, fmt.Errorf("unexpected field %q", name)
		}

		if upload == nil {
			if upload, err = a.DB.NewUpload(ctx); err != nil {
				return nil, err
			}
			status.UploadID = upload.ID
		}
		ids, err := insertPart(upload, p, name == "envelopes")
		if err != nil {
			return nil, err
		}
		status.DocumentIDs = append(status.DocumentIDs, ids...)
	}
	if upload == nil {
		return nil, errors.New("no files in upload")
	}
	if err := upload.Commit(); err != nil {
		return nil, err
	}
	return status, nil
}

// insertPart stores the documents of one file and returns their IDs.
func insertPart(u *db.Upload, p *multipart.Part, envelopes bool) ([]string, error) {
	rc, err := inspectfmt.Decompress(io.NopCloser(p), p.FileName())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var ids []string
	r := inspectfmt.NewReader(rc, p.FileName())
	for r.Scan() {
		switch rec := r.Record().(type) {
		case *inspectfmt.SyntaxError:
			return nil, rec
		case *inspectfmt.Document:
			doc := rec
			if envelopes {
				if doc, err = storage.Unwrap(rec); err != nil {
					return nil, err
				}
			}
			if doc.ID == "" {
				d := *doc
				d.ID = uuid.NewString()
				doc = &d
			}
			if err := u.InsertDocument(doc); err != nil {
				return nil, err
			}
			ids = append(ids, doc.ID)
		}
	}
	return ids, r.Err()
}
