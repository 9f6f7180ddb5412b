// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dbtest opens scratch inspection databases for tests of
// packages that use storage/db.
//
// By default each database is an in-memory SQLite database. With
// -mysql, each test instead gets its own database on a MySQL server,
// which may be a Cloud SQL instance:
//
//	go test ./storage/... -mysql 'root:@cloudsql(project:region:instance)/'
package dbtest

import (
	"database/sql"
	"flag"
	"fmt"
	"strings"
	"testing"

	_ "github.com/GoogleCloudPlatform/cloudsql-proxy/proxy/dialers/mysql"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/thoth-station/inspectperf/storage/db"
	_ "github.com/thoth-station/inspectperf/storage/db/sqlite3"
)

var mysqlServer = flag.String("mysql", "", "run storage tests on a scratch database of the MySQL server at `DSN` instead of in-memory SQLite")

// scratchMySQL creates an empty database on the server at serverDSN
// and returns its DSN. The database is dropped when t completes.
func scratchMySQL(t *testing.T, serverDSN string) string {
	cfg, err := mysql.ParseDSN(serverDSN)
	if err != nil {
		t.Fatalf("-mysql: %v", err)
	}
	cfg.DBName = ""
	server, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		t.Fatal(err)
	}

	name := "inspectq_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := server.Exec(fmt.Sprintf("CREATE DATABASE `%s`", name)); err != nil {
		server.Close()
		t.Fatal(err)
	}
	t.Logf("scratch database %s on %s", name, cfg.Addr)
	t.Cleanup(func() {
		if _, err := server.Exec(fmt.Sprintf("DROP DATABASE `%s`", name)); err != nil {
			t.Errorf("dropping scratch database: %v", err)
		}
		server.Close()
	})

	cfg.DBName = name
	return cfg.FormatDSN()
}

// NewDB returns an empty inspection database for t, closed when the
// test and all its subtests complete.
func NewDB(t *testing.T) *db.DB {
	t.Helper()
	driver, dsn := "sqlite3", ":memory:"
	if *mysqlServer != "" {
		driver, dsn = "mysql", scratchMySQL(t, *mysqlServer)
	}
	d, err := db.OpenSQL(driver, dsn)
	if err != nil {
		t.Fatalf("open %s database: %v", driver, err)
	}
	// Registered after scratchMySQL's cleanup, so it runs first.
	t.Cleanup(func() { d.Close() })

	if n, err := d.CountUploads(); err != nil {
		t.Fatal(err)
	} else if n != 0 {
		t.Fatalf("new database has %d uploads, want 0", n)
	}
	return d
}
