// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import "strconv"

// ParsePredicate parses a row predicate expression into a Pred tree.
//
// The grammar is
//
//	expr    = and {("or" | "|") and}
//	and     = unary {("and" | "&") unary}
//	unary   = ("not" | "~") unary | "(" expr ")" | compare
//	compare = term [cmp term | "=~" /regexp/]
//	cmp     = "==" | "!=" | "<" | "<=" | ">" | ">="
//	term    = ident | ["-"] number | string | "true" | "false" | "null"
func ParsePredicate(q string) (Pred, error) {
	toks := newTokenizer(q)
	p := parser{}
	pred, toks := p.expr(toks)
	toks = toks.end()
	if toks.errt.err != nil {
		return nil, toks.errt.err
	}
	return pred, nil
}

type parser struct {
	// allowAgg permits "ident.agg()" terms.
	allowAgg bool
}

func (p *parser) error(toks tokenizer, msg string) tokenizer {
	_, toks = toks.error(msg)
	return toks
}

func (p *parser) expr(toks tokenizer) (Pred, tokenizer) {
	var terms []Pred
	for {
		var q Pred
		q, toks = p.andExpr(toks)
		terms = append(terms, q)
		op, toks2 := toks.peek()
		if op.Kind != kOr {
			break
		}
		toks = toks2
	}
	if len(terms) == 1 {
		return terms[0], toks
	}
	return &PredOp{OpOr, terms}, toks
}

func (p *parser) andExpr(toks tokenizer) (Pred, tokenizer) {
	var terms []Pred
	for {
		var q Pred
		q, toks = p.unary(toks)
		terms = append(terms, q)
		op, toks2 := toks.peek()
		if op.Kind != kAnd {
			break
		}
		toks = toks2
	}
	if len(terms) == 1 {
		return terms[0], toks
	}
	return &PredOp{OpAnd, terms}, toks
}

func (p *parser) unary(start tokenizer) (Pred, tokenizer) {
	tok, rest := start.peek()
	switch tok.Kind {
	case kNot:
		q, rest := p.unary(rest)
		return &PredOp{OpNot, []Pred{q}}, rest
	case '(':
		q, rest := p.expr(rest)
		op, toks2 := rest.peek()
		if op.Kind != ')' {
			return nil, p.error(rest, "missing \")\"")
		}
		return q, toks2
	}
	return p.compare(start)
}

var cmpOps = map[byte]Cmp{
	kEq: CmpEq,
	kNe: CmpNe,
	'<': CmpLt,
	kLe: CmpLe,
	'>': CmpGt,
	kGe: CmpGe,
}

func (p *parser) compare(start tokenizer) (Pred, tokenizer) {
	left, rest := p.term(start)
	if left == nil {
		return nil, rest
	}
	op, toks2 := rest.peek()
	if cmp, ok := cmpOps[op.Kind]; ok {
		right, rest := p.term(toks2)
		if right == nil {
			return nil, rest
		}
		return &PredCompare{left, right, cmp, op.Off}, rest
	}
	if op.Kind == kMatch {
		re, rest := toks2.next(true)
		if re.Kind != kRegexp {
			return nil, p.error(toks2, "expected /regexp/ after \"=~\"")
		}
		return &PredMatch{left, re.Regexp, op.Off}, rest
	}
	return &PredTerm{left}, rest
}

// term parses a single operand. It returns a nil *Term if there is a
// syntax error.
func (p *parser) term(start tokenizer) (*Term, tokenizer) {
	tok, rest := start.peek()
	switch tok.Kind {
	case kIdent:
		t := &Term{Kind: TermIdent, Name: tok.Tok, Exact: tok.Quoted, Off: tok.Off}
		dot, rest2 := rest.peek()
		if dot.Kind != '.' {
			return t, rest
		}
		if !p.allowAgg {
			return nil, p.error(rest, "aggregates are not allowed here")
		}
		agg, rest3 := rest2.peek()
		if agg.Kind != kIdent || !IsAggregate(agg.Tok) {
			return nil, p.error(rest2, "expected aggregate (one of mean, std, min, max, median, sum, count)")
		}
		open, rest4 := rest3.peek()
		if open.Kind != '(' {
			return nil, p.error(rest3, "expected \"(\"")
		}
		cl, rest5 := rest4.peek()
		if cl.Kind != ')' {
			return nil, p.error(rest4, "expected \")\"")
		}
		t.Agg = agg.Tok
		return t, rest5
	case '-':
		num, rest2 := rest.peek()
		if num.Kind != kNumber {
			return nil, p.error(rest, "expected number after \"-\"")
		}
		return &Term{Kind: TermNumber, Num: -num.Num, Off: tok.Off}, rest2
	case kNumber:
		return &Term{Kind: TermNumber, Num: tok.Num, Off: tok.Off}, rest
	case kString:
		return &Term{Kind: TermString, Str: tok.Tok, Off: tok.Off}, rest
	case kTrue, kFalse:
		return &Term{Kind: TermBool, Bool: tok.Kind == kTrue, Off: tok.Off}, rest
	case kNull:
		return &Term{Kind: TermNull, Off: tok.Off}, rest
	case kEOF:
		return nil, p.error(start, "expected operand")
	}
	return nil, p.error(start, "unexpected "+strconv.Quote(tok.Tok))
}
