// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"net/http"

	"github.com/thoth-station/inspectperf/inspectfmt"
	"github.com/thoth-station/inspectperf/storage"
	"go.uber.org/zap"
)

// search is the handler for the /search endpoint. It writes the
// documents matching the q parameter as newline-delimited JSON, each
// wrapped as by storage.Envelope. An empty q matches every document.
func (a *App) search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.fail(w, r, http.StatusBadRequest, err)
		return
	}

	q := r.Form.Get("q")
	query := a.DB.Query(r.Context(), q)
	defer query.Close()

	// Report a bad query before writing any documents.
	if !query.Next() {
		if err := query.Err(); err != nil {
			a.fail(w, r, http.StatusBadRequest, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	dw := inspectfmt.NewWriter(w)
	n := 0
	for doc := query.Document(); doc != nil; doc = query.Document() {
		if err := dw.Write(&inspectfmt.Document{ID: doc.ID, Root: storage.Envelope(doc)}); err != nil {
			a.logger().Error("writing search results", zap.Error(err))
			return
		}
		n++
		query.Next()
	}
	if err := query.Err(); err != nil {
		// The status has already been sent.
		a.logger().Error("search failed", zap.String("q", q), zap.Error(err))
		return
	}
	a.logger().Debug("search", zap.String("q", q), zap.Int("documents", n))
}
