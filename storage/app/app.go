// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package app implements the inspection storage server. Combine an
// App with a database to get an HTTP server.
package app

import (
	"errors"
	"net/http"

	"github.com/thoth-station/inspectperf/storage/db"
	"go.uber.org/zap"
)

// App manages the storage server logic. Construct an App instance
// using a literal with a DB and call RegisterOnMux to connect it with
// an HTTP server.
type App struct {
	DB *db.DB

	// Logger receives request errors. If nil, they are not logged.
	Logger *zap.Logger

	// Auth obtains the username for the request.
	// If necessary, it can write its own response (e.g. a
	// redirect) and return ErrResponseWritten.
	Auth func(http.ResponseWriter, *http.Request) (string, error)
}

// ErrResponseWritten can be returned by App.Auth to abort the normal /upload handling.
var ErrResponseWritten = errors.New("response written")

// RegisterOnMux registers the app's URLs on mux.
func (a *App) RegisterOnMux(mux *http.ServeMux) {
	mux.HandleFunc("/upload", a.upload)
	mux.HandleFunc("/search", a.search)
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// fail logs err and writes it as the response with the given status.
func (a *App) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	a.logger().Error("request failed",
		zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	http.Error(w, err.Error(), status)
}
