// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db provides a SQL store of inspection documents.
//
// Documents are stored whole, together with a label for every scalar
// leaf of the document tree, so that queries can select documents by
// hardware and software configuration without decoding them.
package db

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/thoth-station/inspectperf/inspectfmt"
	"github.com/thoth-station/inspectperf/storage"
)

// DB is a high-level interface to a database of inspection documents.
// It's safe for concurrent use by multiple goroutines.
//
// DB is a storage.Source over all of its documents.
type DB struct {
	sql    *sql.DB // underlying database connection
	driver string
	// prepared statements
	lastUpload     *sql.Stmt
	insertUpload   *sql.Stmt
	insertDocument *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			return nil, err
		}
	}
	d := &DB{sql: db, driver: driverName}
	if err := d.createTables(driverName); err != nil {
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to register a ConnectHook.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Uploads (
	UploadID VARCHAR(20) PRIMARY KEY,
	Day VARCHAR(8),
	Seq BIGINT UNSIGNED,
	UNIQUE (Day, Seq)
);
CREATE TABLE IF NOT EXISTS Documents (
	UploadID VARCHAR(20),
	RecordID BIGINT UNSIGNED,
	DocumentID VARCHAR(255) UNIQUE,
	Content {{if .sqlite3}}BLOB{{else}}LONGBLOB{{end}},
	PRIMARY KEY (UploadID, RecordID),
	FOREIGN KEY (UploadID) REFERENCES Uploads(UploadID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS DocumentLabels (
	UploadID VARCHAR(20),
	RecordID BIGINT UNSIGNED,
	Name VARCHAR(255),
	Value VARCHAR(8192),
{{if not .sqlite3}}
	Index (Name(100), Value(100)),
{{end}}
	FOREIGN KEY (UploadID, RecordID) REFERENCES Documents(UploadID, RecordID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE INDEX IF NOT EXISTS DocumentLabelsNameValue ON DocumentLabels(Name, Value);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.lastUpload, err = db.sql.Prepare("SELECT MAX(Seq) FROM Uploads WHERE Day = ?")
	if err != nil {
		return err
	}
	db.insertUpload, err = db.sql.Prepare("INSERT INTO Uploads(UploadID, Day, Seq) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertDocument, err = db.sql.Prepare("INSERT INTO Documents(UploadID, RecordID, DocumentID, Content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// now is a hook for testing.
var now = time.Now

// An Upload is a collection of documents that share an upload ID.
// Its documents become visible when it is committed.
type Upload struct {
	// ID is the upload ID, of the form YYYYMMDD.N.
	ID string

	// recordid is the index of the next document to insert.
	recordid int64
	// db is the underlying database that this upload is going to.
	db *DB
	// tx is the transaction used by the upload.
	tx *sql.Tx
	// w encodes documents for storage.
	w *inspectfmt.Writer
}

// NewUpload returns an upload for storing new documents. Upload IDs
// count up from 1 within each UTC day.
func (db *DB) NewUpload(ctx context.Context) (*Upload, error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	day := now().UTC().Format("20060102")
	var last sql.NullInt64
	if err := tx.Stmt(db.lastUpload).QueryRow(day).Scan(&last); err != nil {
		tx.Rollback()
		return nil, err
	}
	seq := last.Int64 + 1
	id := fmt.Sprintf("%s.%d", day, seq)
	if _, err := tx.Stmt(db.insertUpload).Exec(id, day, seq); err != nil {
		tx.Rollback()
		return nil, err
	}
	return &Upload{ID: id, db: db, tx: tx, w: inspectfmt.NewWriter(nil)}, nil
}

// Limits of DocumentLabels. Longer names and values are not
// labeled; such leaves are typically logs.
const (
	maxLabelName  = 255
	maxLabelValue = 8192
)

// InsertDocument inserts a single document in an existing upload. A
// document without an ID is assigned a random one.
func (u *Upload) InsertDocument(doc *inspectfmt.Document) error {
	if doc.ID == "" {
		d := *doc
		d.ID = uuid.NewString()
		doc = &d
	}
	content, err := u.w.Marshal(doc.Root)
	if err != nil {
		return fmt.Errorf("document %s: %w", doc.ID, err)
	}
	if _, err := u.tx.Stmt(u.db.insertDocument).Exec(u.ID, u.recordid, doc.ID, content); err != nil {
		return fmt.Errorf("document %s: %w", doc.ID, err)
	}
	var args []interface{}
	for _, leaf := range inspectfmt.Flatten(doc.Root) {
		name := leaf.Path.String()
		value, ok := labelValue(leaf.Value)
		if !ok || len(name) > maxLabelName || utf8.RuneCountInString(value) > maxLabelValue {
			continue
		}
		args = append(args, u.ID, u.recordid, name, value)
	}
	if len(args) > 0 {
		query := "INSERT INTO DocumentLabels VALUES " + strings.Repeat("(?, ?, ?, ?), ", len(args)/4)
		query = strings.TrimSuffix(query, ", ")
		if _, err := u.tx.Exec(query, args...); err != nil {
			return fmt.Errorf("document %s labels: %w", doc.ID, err)
		}
	}
	u.recordid++
	return nil
}

// labelValue returns the label form of a scalar document value.
func labelValue(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case time.Time:
		return v.Format(time.RFC3339Nano), true
	case time.Duration:
		return strconv.FormatFloat(v.Seconds(), 'g', -1, 64), true
	}
	return "", false
}

// Commit attempts to commit the upload.
func (u *Upload) Commit() error {
	return u.tx.Commit()
}

// Abort cleans up resources associated with the upload. It does not
// attempt to clean up partial database state.
func (u *Upload) Abort() error {
	return u.tx.Rollback()
}

// Insert stores docs in a new upload and returns its ID.
func (db *DB) Insert(ctx context.Context, docs ...*inspectfmt.Document) (string, error) {
	u, err := db.NewUpload(ctx)
	if err != nil {
		return "", err
	}
	for _, doc := range docs {
		if err := u.InsertDocument(doc); err != nil {
			u.Abort()
			return "", err
		}
	}
	if err := u.Commit(); err != nil {
		return "", err
	}
	return u.ID, nil
}

// CountUploads returns the number of uploads in the database.
func (db *DB) CountUploads() (int, error) {
	var uploads int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Uploads").Scan(&uploads)
	return uploads, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	for _, stmt := range []*sql.Stmt{db.lastUpload, db.insertUpload, db.insertDocument} {
		if err := stmt.Close(); err != nil {
			return err
		}
	}
	return db.sql.Close()
}

// Iterate returns an Iterator over every committed document in db.
func (db *DB) Iterate(ctx context.Context) storage.Iterator {
	return db.Query(ctx, "")
}

// Search returns a storage.Source over the documents matching q. See
// Query for the syntax of q.
func (db *DB) Search(q string) storage.Source {
	return search{db, q}
}

type search struct {
	db *DB
	q  string
}

func (s search) Iterate(ctx context.Context) storage.Iterator {
	return s.db.Query(ctx, s.q)
}

// A Query is an iterator over the documents matching a query. It
// implements storage.Iterator.
type Query struct {
	ctx  context.Context
	sql  string
	args []interface{}

	err  error
	rows *sql.Rows
	r    inspectfmt.Reader
	doc  *inspectfmt.Document
}

var errBadQuery = errors.New("bad query")

// Query searches for documents matching q.
//
// q is a sequence of space-separated words of the form name:value,
// where name is a flattened leaf path such as
// job_log__hwinfo__platform. A document matches if it has every
// given leaf with exactly the given value. Numbers are written as
// Go's strconv.FormatFloat(v, 'g', -1, 64) formats them. Words may
// be quoted, and backslash escapes the following character. An empty
// q matches every document.
//
// Documents are returned in the order they were inserted.
func (db *DB) Query(ctx context.Context, q string) *Query {
	query := &Query{ctx: ctx}
	var where []string
	for _, word := range splitQueryWords(q) {
		name, value, ok := strings.Cut(word, ":")
		if !ok || name == "" {
			query.err = fmt.Errorf("%w: %q is not of the form name:value", errBadQuery, word)
			return query
		}
		where = append(where, "(d.UploadID, d.RecordID) IN (SELECT UploadID, RecordID FROM DocumentLabels WHERE Name = ? AND Value = ?)")
		query.args = append(query.args, name, value)
	}
	var buf strings.Builder
	buf.WriteString("SELECT d.DocumentID, d.Content FROM Documents d JOIN Uploads u ON d.UploadID = u.UploadID")
	if len(where) > 0 {
		buf.WriteString(" WHERE ")
		buf.WriteString(strings.Join(where, " AND "))
	}
	buf.WriteString(" ORDER BY u.Day, u.Seq, d.RecordID")
	query.sql = buf.String()
	query.rows, query.err = db.sql.QueryContext(ctx, query.sql, query.args...)
	return query
}

// Next prepares the next document for reading. It returns false when
// there are no more documents or an error occurs.
func (q *Query) Next() bool {
	q.doc = nil
	if q.err != nil || q.rows == nil {
		return false
	}
	if !q.rows.Next() {
		q.err = q.rows.Err()
		return false
	}
	var id string
	var content []byte
	if q.err = q.rows.Scan(&id, &content); q.err != nil {
		return false
	}
	q.r.Reset(bytes.NewReader(content), id)
	if !q.r.Scan() {
		q.err = fmt.Errorf("document %s: %v", id, q.r.Err())
		return false
	}
	switch rec := q.r.Record().(type) {
	case *inspectfmt.SyntaxError:
		q.err = rec
		return false
	case *inspectfmt.Document:
		rec.ID = id
		q.doc = rec
	}
	return true
}

// Document returns the most recently read document.
func (q *Query) Document() *inspectfmt.Document {
	return q.doc
}

// Err returns the error state of the query.
func (q *Query) Err() error {
	return q.err
}

// Close frees resources associated with the query.
func (q *Query) Close() error {
	if q.rows != nil {
		return q.rows.Close()
	}
	return nil
}

// splitQueryWords splits q into words using shell syntax (whitespace
// can be escaped with double quotes or with a backslash).
func splitQueryWords(q string) []string {
	var words []string
	word := make([]byte, len(q))
	w := 0
	quoting := false
	for r := 0; r < len(q); r++ {
		switch c := q[r]; {
		case c == '"' && quoting:
			quoting = false
		case quoting:
			if c == '\\' {
				r++
			}
			if r < len(q) {
				word[w] = q[r]
				w++
			}
		case c == '"':
			quoting = true
		case c == ' ', c == '\t':
			if w > 0 {
				words = append(words, string(word[:w]))
			}
			w = 0
		case c == '\\':
			r++
			fallthrough
		default:
			if r < len(q) {
				word[w] = q[r]
				w++
			}
		}
	}
	if w > 0 {
		words = append(words, string(word[:w]))
	}
	return words
}
