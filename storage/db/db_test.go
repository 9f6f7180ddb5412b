// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db_test

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/thoth-station/inspectperf/inspectfmt"
	"github.com/thoth-station/inspectperf/storage"
	. "github.com/thoth-station/inspectperf/storage/db"
	"github.com/thoth-station/inspectperf/storage/db/dbtest"
)

func TestSplitQueryWords(t *testing.T) {
	for _, test := range []struct {
		q    string
		want []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"hello\\ world", []string{"hello world"}},
		{`"key:value two" and\ more`, []string{"key:value two", "and more"}},
		{`one" two"\ three four`, []string{"one two three", "four"}},
		{`"4'7\""`, []string{`4'7"`}},
	} {
		have := SplitQueryWords(test.q)
		if !reflect.DeepEqual(have, test.want) {
			t.Errorf("splitQueryWords(%q) = %+v, want %+v", test.q, have, test.want)
		}
	}
}

// inspection returns a small inspection document.
func inspection(t *testing.T, id, platform string, ncpus float64) *inspectfmt.Document {
	t.Helper()
	doc, err := inspectfmt.NewDocument(id, inspectfmt.Object{
		{Key: "inspection_id", Value: id},
		{Key: "build_log", Value: strings.Repeat("x", 9000)},
		{Key: "job_log", Value: inspectfmt.Object{
			{Key: "hwinfo", Value: inspectfmt.Object{{Key: "platform", Value: platform}}},
			{Key: "packages", Value: []any{"numpy", "tensorflow"}},
		}},
		{Key: "specification", Value: inspectfmt.Object{{Key: "ncpus", Value: ncpus}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

// TestUploadIDs verifies that NewUpload generates the correct sequence of upload IDs.
func TestUploadIDs(t *testing.T) {
	ctx := context.Background()

	db := dbtest.NewDB(t)

	defer SetNow(time.Time{})

	tests := []struct {
		sec int64
		id  string
	}{
		{0, "19700101.1"},
		{0, "19700101.2"},
		{86400, "19700102.1"},
		{86400, "19700102.2"},
		{86400, "19700102.3"},
		{86400, "19700102.4"},
		{86400, "19700102.5"},
		{86400, "19700102.6"},
		{86400, "19700102.7"},
		{86400, "19700102.8"},
		{86400, "19700102.9"},
		{86400, "19700102.10"},
		{86400, "19700102.11"},
	}
	for _, test := range tests {
		SetNow(time.Unix(test.sec, 0))
		u, err := db.NewUpload(ctx)
		if err != nil {
			t.Fatalf("NewUpload: %v", err)
		}
		if err := u.Commit(); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		if u.ID != test.id {
			t.Fatalf("u.ID = %q, want %q", u.ID, test.id)
		}
	}
}

// TestInsertDocument verifies that InsertDocument wrote the correct rows to the database.
func TestInsertDocument(t *testing.T) {
	SetNow(time.Unix(0, 0))
	defer SetNow(time.Time{})
	db := dbtest.NewDB(t)

	id, err := db.Insert(context.Background(), inspection(t, "inspection-a", "x86_64", 32))
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id != "19700101.1" {
		t.Errorf("upload ID = %q, want %q", id, "19700101.1")
	}

	rows, err := DBSQL(db).Query("SELECT UploadID, RecordID, Name, Value FROM DocumentLabels")
	if err != nil {
		t.Fatalf("sql.Query: %v", err)
	}
	defer rows.Close()

	// Sequences and long values are not labeled.
	want := map[string]string{
		"inspection_id":             "inspection-a",
		"job_log__hwinfo__platform": "x86_64",
		"specification__ncpus":      "32",
	}
	got := map[string]string{}
	for rows.Next() {
		var uploadid string
		var recordid int64
		var name, value string

		if err := rows.Scan(&uploadid, &recordid, &name, &value); err != nil {
			t.Fatalf("rows.Scan: %v", err)
		}
		if uploadid != "19700101.1" {
			t.Errorf("uploadid = %q, want %q", uploadid, "19700101.1")
		}
		if recordid != 0 {
			t.Errorf("recordid = %d, want 0", recordid)
		}
		got[name] = value
	}
	if err := rows.Err(); err != nil {
		t.Errorf("rows.Err: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("labels: (-want +got)\n%s", diff)
	}
}

func TestIterate(t *testing.T) {
	db := dbtest.NewDB(t)
	ctx := context.Background()

	in := []*inspectfmt.Document{
		inspection(t, "a", "x86_64", 32),
		inspection(t, "b", "ppc64le", 16),
	}
	if _, err := db.Insert(ctx, in...); err != nil {
		t.Fatal(err)
	}
	anon := inspection(t, "", "x86_64", 8)
	anon.ID = ""
	if _, err := db.Insert(ctx, anon); err != nil {
		t.Fatal(err)
	}

	docs, err := storage.Collect(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d documents, want 3", len(docs))
	}
	for i, doc := range in {
		if docs[i].ID != doc.ID {
			t.Errorf("document %d: ID %q, want %q", i, docs[i].ID, doc.ID)
		}
		if diff := cmp.Diff(doc.Root, docs[i].Root); diff != "" {
			t.Errorf("document %d: (-want +got)\n%s", i, diff)
		}
	}
	if docs[2].ID == "" {
		t.Errorf("document without an ID was not assigned one")
	}
}

func TestQuery(t *testing.T) {
	db := dbtest.NewDB(t)
	ctx := context.Background()

	u, err := db.NewUpload(ctx)
	if err != nil {
		t.Fatalf("NewUpload: %v", err)
	}
	platforms := []string{"x86_64", "ppc64le"}
	for i := 0; i < 16; i++ {
		doc := inspection(t, fmt.Sprint(i), platforms[i%2], float64(int(4)<<(i/4)))
		if err := u.InsertDocument(doc); err != nil {
			t.Fatalf("InsertDocument: %v", err)
		}
	}
	if err := u.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	tests := []struct {
		q    string
		want []int // nil means we want an error
	}{
		{"inspection_id:5", []int{5}},
		{"specification__ncpus:8", []int{4, 5, 6, 7}},
		{"job_log__hwinfo__platform:ppc64le specification__ncpus:32", []int{13, 15}},
		{"inspection_id:0 inspection_id:5", []int{}},
		{"", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
		{"bogus query", nil},
	}
	for _, test := range tests {
		t.Run("query="+test.q, func(t *testing.T) {
			q := db.Query(ctx, test.q)
			if test.want == nil {
				if q.Next() {
					t.Fatal("Next() = true, want false")
				}
				if err := q.Err(); err == nil {
					t.Fatal("Err() = nil, want error")
				}
				return
			}
			defer func() {
				if err := q.Close(); err != nil {
					t.Errorf("Close: %v", err)
				}
			}()
			var got []int
			for q.Next() {
				var n int
				fmt.Sscan(q.Document().ID, &n)
				got = append(got, n)
			}
			if err := q.Err(); err != nil {
				t.Errorf("Err() = %v, want nil", err)
			}
			if len(got) == 0 && len(test.want) == 0 {
				return
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("results: (-want +got)\n%s", diff)
			}
		})
	}

	docs, err := storage.Collect(ctx, db.Search("job_log__hwinfo__platform:x86_64"))
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 8 {
		t.Errorf("Search returned %d documents, want 8", len(docs))
	}
}

func TestAbort(t *testing.T) {
	db := dbtest.NewDB(t)
	ctx := context.Background()

	u, err := db.NewUpload(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := u.InsertDocument(inspection(t, "a", "x86_64", 32)); err != nil {
		t.Fatal(err)
	}
	if err := u.Abort(); err != nil {
		t.Fatal(err)
	}
	if n, err := db.CountUploads(); err != nil || n != 0 {
		t.Errorf("CountUploads = %d, %v, want 0", n, err)
	}
	docs, err := storage.Collect(ctx, db)
	if err != nil || len(docs) != 0 {
		t.Errorf("got %d documents, %v after Abort", len(docs), err)
	}
}

func TestDuplicateDocument(t *testing.T) {
	db := dbtest.NewDB(t)
	ctx := context.Background()

	if _, err := db.Insert(ctx, inspection(t, "a", "x86_64", 32)); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Insert(ctx, inspection(t, "a", "ppc64le", 16)); err == nil {
		t.Fatal("inserting a duplicate document succeeded")
	}
	if n, err := db.CountUploads(); err != nil || n != 1 {
		t.Errorf("CountUploads = %d, %v, want 1", n, err)
	}
}
