// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectfmt

import (
	"fmt"
	"io"

	"github.com/valyala/fastjson"
)

// DefaultIDKey is the top-level key holding a document's identifier.
const DefaultIDKey = "inspection_id"

// A Reader reads inspection documents from a stream of JSON values.
//
// The input may be a single JSON object, a sequence of whitespace- or
// newline-separated JSON objects, or JSON arrays of objects (each
// element is one document). Key order is preserved.
//
// Its API is modeled on bufio.Scanner.
type Reader struct {
	r        io.Reader
	fileName string
	err      error

	// IDKey is the top-level key used to populate Document.ID.
	// If a document lacks this key, its ID is the file name and
	// document index. It defaults to DefaultIDKey.
	IDKey string

	started bool
	sc      fastjson.Scanner

	// q is the queue of documents from a top-level array.
	q    []*fastjson.Value
	qPos int

	index int
	rec   Record
}

// A Record is a single record read from an inspection stream. It is
// either a *Document or a *SyntaxError.
type Record interface {
	isRecord()
}

func (*Document) isRecord()    {}
func (*SyntaxError) isRecord() {}

// A SyntaxError represents a malformed value in an inspection stream.
type SyntaxError struct {
	FileName string
	Index    int
	Msg      string
}

func (s *SyntaxError) Error() string {
	return fmt.Sprintf("%s#%d: %s", s.FileName, s.Index, s.Msg)
}

var noRecord = &SyntaxError{"", 0, "Reader.Scan has not been called"}

// NewReader constructs a reader to parse inspection documents from r.
// fileName is used in error messages and generated IDs.
func NewReader(r io.Reader, fileName string) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName)
	return reader
}

// Reset resets the reader to begin reading from a new input.
func (r *Reader) Reset(ior io.Reader, fileName string) {
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.r = ior
	r.fileName = fileName
	r.err = nil
	r.started = false
	r.q = r.q[:0]
	r.qPos = 0
	r.index = 0
	r.rec = noRecord
	if r.IDKey == "" {
		r.IDKey = DefaultIDKey
	}
}

// Scan advances the reader to the next record and reports whether a
// record was read. The caller should use the Record method to get
// the record. If Scan reaches EOF or an error occurs, it returns
// false, in which case the caller should use the Err method to check
// for errors.
//
// A value that is not a JSON object produces a *SyntaxError record
// and reading continues. Malformed JSON stops the reader, since the
// stream cannot be resynchronized.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	if !r.started {
		r.started = true
		data, err := io.ReadAll(r.r)
		if err != nil {
			r.err = err
			return false
		}
		r.sc.InitBytes(data)
	}

	for {
		if r.qPos < len(r.q) {
			v := r.q[r.qPos]
			r.qPos++
			r.rec = r.decode(v)
			return true
		}
		r.q, r.qPos = r.q[:0], 0

		if !r.sc.Next() {
			if err := r.sc.Error(); err != nil {
				r.err = &SyntaxError{r.fileName, r.index, err.Error()}
			}
			r.rec = noRecord
			return false
		}
		v := r.sc.Value()
		if v.Type() == fastjson.TypeArray {
			// The scanner reuses v, so take the elements
			// now. They remain valid until the next call
			// to Next.
			r.q = append(r.q, v.GetArray()...)
			continue
		}
		r.rec = r.decode(v)
		return true
	}
}

func (r *Reader) decode(v *fastjson.Value) Record {
	idx := r.index
	r.index++
	if v.Type() != fastjson.TypeObject {
		return &SyntaxError{r.fileName, idx, fmt.Sprintf("expected JSON object, got %s", v.Type())}
	}
	root := convertValue(v).(Object)
	doc := &Document{Root: root, fileName: r.fileName, index: idx}
	if id, ok := root.Get(r.IDKey); ok && id != nil {
		doc.ID = fmt.Sprint(id)
	} else {
		doc.ID = fmt.Sprintf("%s#%d", r.fileName, idx)
	}
	return doc
}

// Record returns the record most recently read by Scan. The returned
// record is owned by the caller.
func (r *Reader) Record() Record {
	return r.rec
}

// Err returns the first error encountered by the Reader.
func (r *Reader) Err() error {
	return r.err
}

// convertValue converts a fastjson value into a Document value.
func convertValue(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		obj := make(Object, 0, o.Len())
		o.Visit(func(key []byte, v *fastjson.Value) {
			// Later duplicate keys replace earlier ones.
			obj.Set(string(key), convertValue(v))
		})
		return obj
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]any, len(arr))
		for i, x := range arr {
			out[i] = convertValue(x)
		}
		return out
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeNumber:
		f, _ := v.Float64()
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	}
	return nil
}
