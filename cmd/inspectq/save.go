// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/thoth-station/inspectperf/storage"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// SaveCmd stores documents read from files.
type SaveCmd struct {
	Paths  []string `arg:"" optional:"" help:"Document files or directories; - is standard input."`
	Strict bool     `help:"Stop at malformed documents instead of skipping them."`

	To     string `default:"server" enum:"db,server,gcs" help:"Destination: db, server, or gcs."`
	Object string `help:"Name of the object to write under the bucket prefix (gcs; default is the current time)." placeholder:"NAME"`
	Auth   bool   `default:"true" negatable:"" help:"Authenticate to the storage server with Google application default credentials."`
}

func (c *SaveCmd) Run(g *Globals) error {
	docs, err := g.documents(&SourceFlags{Source: "files", Strict: c.Strict, Paths: c.Paths})
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents to save")
	}

	start := time.Now()
	switch c.To {
	case "db":
		d, err := g.openDB()
		if err != nil {
			return err
		}
		defer d.Close()
		id, err := d.Insert(g.Ctx, docs...)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.Stdout, "upload %s: %d documents\n", id, len(docs))

	case "server":
		if g.Config.Server.URL == "" {
			return fmt.Errorf("no storage server URL; set --server or server.url")
		}
		client := &storage.Client{BaseURL: g.Config.Server.URL}
		if c.Auth {
			hc, err := authClient(g.Ctx)
			if err != nil {
				return err
			}
			client.HTTPClient = hc
		}
		status, err := client.Upload(g.Ctx, docs)
		if err != nil {
			return err
		}
		fmt.Fprintf(g.Stdout, "upload %s: %d documents\n", status.UploadID, len(status.DocumentIDs))

	case "gcs":
		s, err := g.openGCS(g.Ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		name := c.Object
		if name == "" {
			name = time.Now().UTC().Format("20060102T150405Z") + ".ndjson.gz"
		}
		if err := s.Put(g.Ctx, name, docs); err != nil {
			return err
		}
		fmt.Fprintf(g.Stdout, "gs://%s/%s%s: %d documents\n", s.Bucket, s.Prefix, name, len(docs))
	}

	g.Log.Debug("saved documents",
		zap.String("to", c.To), zap.Int("count", len(docs)), zap.Duration("elapsed", time.Since(start)))
	return nil
}

// authClient returns an HTTP client that sends Google credentials.
func authClient(ctx context.Context) (*http.Client, error) {
	ts, err := google.DefaultTokenSource(ctx, "https://www.googleapis.com/auth/userinfo.email")
	if err != nil {
		return nil, fmt.Errorf("finding credentials (use --no-auth for an open server): %w", err)
	}
	return oauth2.NewClient(ctx, ts), nil
}
