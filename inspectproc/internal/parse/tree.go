// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// A Pred is a node in a boolean row predicate. It is a *PredOp,
// *PredCompare, *PredMatch, or *PredTerm.
type Pred interface {
	isPred()
	String() string
}

// A PredOp is a boolean operator in the Pred tree. OpNot must have
// exactly one child node. OpAnd and OpOr have two or more.
type PredOp struct {
	Op    Op
	Exprs []Pred
}

func (q *PredOp) isPred() {}
func (q *PredOp) String() string {
	var op string
	switch q.Op {
	case OpNot:
		return fmt.Sprintf("not %s", q.Exprs[0])
	case OpAnd:
		op = " and "
	case OpOr:
		op = " or "
	}
	var buf strings.Builder
	buf.WriteByte('(')
	for i, e := range q.Exprs {
		if i > 0 {
			buf.WriteString(op)
		}
		buf.WriteString(e.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// Op specifies a type of boolean operator.
type Op int

const (
	OpAnd Op = 1 + iota
	OpOr
	OpNot
)

// A PredCompare compares two terms.
type PredCompare struct {
	Left, Right *Term
	Cmp         Cmp
	Off         int // Byte offset of the operator
}

func (q *PredCompare) isPred() {}
func (q *PredCompare) String() string {
	return fmt.Sprintf("%s %s %s", q.Left, q.Cmp, q.Right)
}

// Cmp is a comparison operator.
type Cmp int

const (
	CmpEq Cmp = 1 + iota
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe
)

func (c Cmp) String() string {
	switch c {
	case CmpEq:
		return "=="
	case CmpNe:
		return "!="
	case CmpLt:
		return "<"
	case CmpLe:
		return "<="
	case CmpGt:
		return ">"
	case CmpGe:
		return ">="
	}
	return "Cmp(" + strconv.Itoa(int(c)) + ")"
}

// A PredMatch tests the string form of a term against a regexp.
type PredMatch struct {
	Term   *Term
	Regexp *regexp.Regexp
	Off    int // Byte offset of the operator
}

func (q *PredMatch) isPred() {}
func (q *PredMatch) String() string {
	return fmt.Sprintf("%s =~ /%s/", q.Term, q.Regexp)
}

// A PredTerm tests the truth of a single term. A term is true if it
// is a true bool or a non-zero number.
type PredTerm struct {
	Term *Term
}

func (q *PredTerm) isPred() {}
func (q *PredTerm) String() string {
	return q.Term.String()
}

// TermKind specifies the type of a Term.
type TermKind int

const (
	TermIdent TermKind = 1 + iota
	TermNumber
	TermString
	TermBool
	TermNull
)

// A Term is an operand: a column identifier, optionally with an
// aggregate, or a literal.
type Term struct {
	Kind TermKind

	// Name is the column identifier for TermIdent. Resolvers may
	// rewrite it in place.
	Name string
	// Exact is set for a backquoted identifier, which names a
	// column in full rather than by a substring.
	Exact bool
	// Agg is the aggregate applied to column Name, such as "mean",
	// or "" for none. Aggregates are only accepted by ParseAssign.
	Agg string

	Num  float64
	Str  string
	Bool bool

	// Off is the byte offset of the term in the original query,
	// for error reporting.
	Off int
}

// String returns t as a valid term expression.
func (t *Term) String() string {
	switch t.Kind {
	case TermIdent:
		name := quoteIdent(t.Name)
		if t.Exact {
			name = "`" + t.Name + "`"
		}
		if t.Agg != "" {
			return name + "." + t.Agg + "()"
		}
		return name
	case TermNumber:
		return strconv.FormatFloat(t.Num, 'g', -1, 64)
	case TermString:
		return strconv.Quote(t.Str)
	case TermBool:
		return strconv.FormatBool(t.Bool)
	case TermNull:
		return "null"
	}
	return "?"
}

// Terms calls fn for each Term in p in left-to-right order.
func Terms(p Pred, fn func(*Term)) {
	switch p := p.(type) {
	case *PredOp:
		for _, e := range p.Exprs {
			Terms(e, fn)
		}
	case *PredCompare:
		fn(p.Left)
		fn(p.Right)
	case *PredMatch:
		fn(p.Term)
	case *PredTerm:
		fn(p.Term)
	}
}

// An Assign is a parsed derived-column expression of the form
//
//	name = term [op term]
type Assign struct {
	Name  string
	Left  *Term
	Op    byte // One of "+-*/", or 0 if there is no right term
	Right *Term
}

// String returns a as a valid assignment expression.
func (a *Assign) String() string {
	if a.Op == 0 {
		return fmt.Sprintf("%s = %s", quoteIdent(a.Name), a.Left)
	}
	return fmt.Sprintf("%s = %s %c %s", quoteIdent(a.Name), a.Left, a.Op, a.Right)
}
