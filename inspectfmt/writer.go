// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inspectfmt

import (
	"fmt"
	"io"
	"time"

	"github.com/valyala/fastjson"
)

// A Writer writes inspection documents as newline-delimited JSON,
// preserving key order.
type Writer struct {
	w   io.Writer
	buf []byte
	a   fastjson.Arena
}

// NewWriter returns a writer that writes documents to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes doc's root object followed by a newline. time.Time
// values are written in RFC 3339 format with nanoseconds and
// time.Duration values as seconds.
func (w *Writer) Write(doc *Document) error {
	b, err := w.Marshal(doc.Root)
	if err != nil {
		return fmt.Errorf("document %s: %w", doc.ID, err)
	}
	b = append(b, '\n')
	_, err = w.w.Write(b)
	return err
}

// Marshal returns the JSON encoding of obj. The returned slice is
// only valid until the next call to Marshal or Write.
func (w *Writer) Marshal(obj Object) ([]byte, error) {
	w.a.Reset()
	v, err := w.value(obj)
	if err != nil {
		return nil, err
	}
	w.buf = v.MarshalTo(w.buf[:0])
	return w.buf, nil
}

func (w *Writer) value(x any) (*fastjson.Value, error) {
	a := &w.a
	switch x := x.(type) {
	case nil:
		return a.NewNull(), nil
	case bool:
		if x {
			return a.NewTrue(), nil
		}
		return a.NewFalse(), nil
	case float64:
		return a.NewNumberFloat64(x), nil
	case string:
		return a.NewString(x), nil
	case time.Time:
		return a.NewString(x.Format(time.RFC3339Nano)), nil
	case time.Duration:
		return a.NewNumberFloat64(x.Seconds()), nil
	case []any:
		arr := a.NewArray()
		for i, elt := range x {
			v, err := w.value(elt)
			if err != nil {
				return nil, err
			}
			arr.SetArrayItem(i, v)
		}
		return arr, nil
	case Object:
		obj := a.NewObject()
		for _, f := range x {
			v, err := w.value(f.Value)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Key, err)
			}
			obj.Set(f.Key, v)
		}
		return obj, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", x)
}
