// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/thoth-station/inspectperf/storage/app"
	"go.uber.org/zap"
)

// ServeCmd runs an inspection storage server backed by the configured
// database. For a Cloud SQL instance, use the mysql driver with a DSN
// of the form "user:password@cloudsql(project:region:instance)/db".
type ServeCmd struct {
	Listen string `help:"Serve HTTP on ADDRESS (default from settings)." placeholder:"ADDRESS"`
}

func (c *ServeCmd) Run(g *Globals) error {
	addr := c.Listen
	if addr == "" {
		addr = g.Config.Server.Listen
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(g.Ctx, os.Interrupt)
	defer stop()
	return g.serve(ctx, ln)
}

// serve serves the storage app on ln until ctx is done.
func (g *Globals) serve(ctx context.Context, ln net.Listener) error {
	d, err := g.openDB()
	if err != nil {
		ln.Close()
		return err
	}
	defer d.Close()

	mux := http.NewServeMux()
	a := &app.App{DB: d, Logger: g.Log}
	a.RegisterOnMux(mux)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	g.Log.Info("listening", zap.String("addr", ln.Addr().String()), zap.String("driver", g.Config.DB.Driver))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
