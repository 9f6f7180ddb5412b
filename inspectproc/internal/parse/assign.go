// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

// Aggregates lists the aggregate functions accepted in derived-column
// expressions.
var Aggregates = []string{"mean", "std", "min", "max", "median", "sum", "count"}

// IsAggregate reports whether name is one of Aggregates.
func IsAggregate(name string) bool {
	for _, a := range Aggregates {
		if a == name {
			return true
		}
	}
	return false
}

// ParseAssign parses a derived-column expression of the form
//
//	name = term [("+" | "-" | "*" | "/") term]
//
// where a term is a column identifier, a column aggregate such as
// "x.mean()", or a literal.
func ParseAssign(q string) (*Assign, error) {
	toks := newTokenizer(q)
	p := parser{allowAgg: true}
	a, toks := p.assign(toks)
	toks = toks.end()
	if toks.errt.err != nil {
		return nil, toks.errt.err
	}
	return a, nil
}

func (p *parser) assign(toks tokenizer) (*Assign, tokenizer) {
	name, rest := toks.peek()
	if name.Kind != kIdent {
		return nil, p.error(toks, "expected column name")
	}
	eq, rest2 := rest.peek()
	if eq.Kind != '=' {
		return nil, p.error(rest, "expected \"=\"")
	}
	left, rest3 := p.term(rest2)
	if left == nil {
		return nil, rest3
	}
	a := &Assign{Name: name.Tok, Left: left}
	op, rest4 := rest3.peek()
	switch op.Kind {
	case '+', '-', '*', '/':
	default:
		return a, rest3
	}
	right, rest5 := p.term(rest4)
	if right == nil {
		return nil, rest5
	}
	a.Op, a.Right = op.Kind, right
	return a, rest5
}
