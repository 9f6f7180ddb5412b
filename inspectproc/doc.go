// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package inspectproc provides tools for normalizing, profiling,
// querying, and grouping inspection results.
//
// This package supports a pipeline processing model based around a
// columnar Frame with one row per inspection document and one column
// per leaf path in the documents.
//
// The typical steps for processing a set of inspection results are:
//
// 1. Read the documents from one or more input sources. Command-line
// tools will often do this using inspectfmt.Files or a storage.Source.
//
// 2. Convert the documents into a Frame using a Normalizer, or Process,
// which additionally prunes low-information columns using Prune and
// derives the job and build durations using Derive. Oversized keys such
// as build logs should be excluded at this step.
//
// 3. Query the Frame: Select rows with a predicate such as
// "ncpus == 32 and platform =~ /x86/", Group the rows by columns
// matching some patterns, FilterColumns to the columns of interest, and
// SortIndex to order the groups. Query runs these stages in that
// order.
//
// 4. Optionally compute per-group duration statistics using
// DurationFrame and present or plot the result.
//
// Column names in predicates may be abbreviated to any substring of
// the full column name that no other column name contains. A
// backquoted name must match a full column name exactly.
package inspectproc
