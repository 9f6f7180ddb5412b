// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parse implements parsers for the row predicate and derived
// column expression languages of inspectproc.
//
// Both languages share a lexical syntax. Identifiers are bare words of
// letters, digits, and underscores, or arbitrary text in backquotes.
// A backquoted identifier is marked Exact.
// Strings may be single- or double-quoted. Regular expressions are
// delimited by slashes and may only follow the "=~" operator.
package parse
