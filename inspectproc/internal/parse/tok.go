// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A SyntaxError is an error produced by parsing a malformed expression.
type SyntaxError struct {
	Query string // The original query string
	Off   int    // Byte offset of the error in Query
	Msg   string // Error message
}

func (e *SyntaxError) Error() string {
	// Translate byte offset to a rune offset.
	pos := 0
	for i, r := range e.Query {
		if i >= e.Off {
			break
		}
		if unicode.IsGraphic(r) {
			pos++
		}
	}
	return fmt.Sprintf("syntax error: %s\n\t%s\n\t%*s^", e.Msg, e.Query, pos, "")
}

type errorTracker struct {
	qOrig string
	err   *SyntaxError
}

func (t *errorTracker) error(q string, msg string) {
	off := len(t.qOrig) - len(q)
	if t.err == nil {
		t.err = &SyntaxError{t.qOrig, off, msg}
	}
}

// Token kinds other than single-character operators.
const (
	kEOF    = 0
	kIdent  = 'w' // Bare or backquoted identifier
	kNumber = 'n'
	kString = 'q'
	kRegexp = 'r'
	kTrue   = 'T'
	kFalse  = 'F'
	kNull   = 'Z'
	kAnd    = 'A' // "and" or "&"
	kOr     = 'O' // "or" or "|"
	kNot    = '!' // "not" or "~"
	kEq     = 'E' // ==
	kNe     = 'N' // !=
	kLe     = 'L' // <=
	kGe     = 'G' // >=
	kMatch  = 'M' // =~
)

// A tok is a single token in the expression lexical syntax.
type tok struct {
	// Kind specifies the category of this token. It is one of the
	// k constants or a single operator character: one of
	// "()<>=+-*/.,".
	Kind   byte
	Off    int    // Byte offset of the beginning of this token
	Tok    string // Literal token contents; quoted words are unescaped
	Quoted bool   // Identifier was backquoted
	Num    float64
	Regexp *regexp.Regexp
}

type tokenizer struct {
	q    string
	errt *errorTracker
}

func newTokenizer(q string) tokenizer {
	return tokenizer{q, &errorTracker{q, nil}}
}

func isOp(ch byte) bool {
	return strings.IndexByte("()<>=!+-*/.,&|~", ch) >= 0
}

func isSpace(q string) int {
	if q[0] == ' ' {
		return 1
	}
	r, size := utf8.DecodeRuneInString(q)
	if unicode.IsSpace(r) {
		return size
	}
	return 0
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// next returns the next token. A "/" is read as the start of a regexp
// if allowRegexp is set and as division otherwise.
func (t *tokenizer) next(allowRegexp bool) (tok, tokenizer) {
	for len(t.q) > 0 {
		c := t.q[0]
		switch {
		case isSpace(t.q) > 0:
			t.q = t.q[isSpace(t.q):]
			continue
		case allowRegexp && c == '/':
			return t.regexp()
		case c == '"' || c == '\'':
			return t.quoted()
		case c == '`':
			return t.backquoted()
		case c >= '0' && c <= '9', c == '.' && len(t.q) > 1 && t.q[1] >= '0' && t.q[1] <= '9':
			return t.number()
		case isOp(c):
			return t.op()
		}
		if r, _ := utf8.DecodeRuneInString(t.q); isIdentStart(r) {
			return t.word()
		}
		return t.error(fmt.Sprintf("unexpected %q", t.q[:1]))
	}
	// Add an EOF token. This eliminates the need for lots of
	// bounds checks in the parser and gives the EOF a position.
	return t.tok(kEOF, "", "")
}

// peek returns the next token without a regexp.
func (t *tokenizer) peek() (tok, tokenizer) {
	return t.next(false)
}

// end asserts that t has reached the end of the token stream. If it
// has not, it returns a tokenizer the reports an error.
func (t *tokenizer) end() tokenizer {
	if tok, _ := t.peek(); tok.Kind != kEOF {
		_, t2 := t.error("unexpected " + strconv.Quote(tok.Tok))
		return t2
	}
	return *t
}

func (t *tokenizer) tok(kind byte, token string, rest string) (tok, tokenizer) {
	off := len(t.errt.qOrig) - len(t.q)
	return tok{Kind: kind, Off: off, Tok: token}, tokenizer{rest, t.errt}
}

func (t *tokenizer) error(msg string) (tok, tokenizer) {
	t.errt.error(t.q, msg)
	// Move to the end.
	return t.tok(kEOF, "", "")
}

var twoCharOps = map[string]byte{
	"==": kEq,
	"!=": kNe,
	"<=": kLe,
	">=": kGe,
	"=~": kMatch,
}

func (t *tokenizer) op() (tok, tokenizer) {
	if len(t.q) >= 2 {
		if kind, ok := twoCharOps[t.q[:2]]; ok {
			return t.tok(kind, t.q[:2], t.q[2:])
		}
	}
	switch c := t.q[0]; c {
	case '&':
		return t.tok(kAnd, t.q[:1], t.q[1:])
	case '|':
		return t.tok(kOr, t.q[:1], t.q[1:])
	case '~':
		return t.tok(kNot, t.q[:1], t.q[1:])
	case '!':
		return t.error(`unexpected "!" (use "not" or "!=")`)
	default:
		return t.tok(c, t.q[:1], t.q[1:])
	}
}

var keywords = map[string]byte{
	"and":   kAnd,
	"or":    kOr,
	"not":   kNot,
	"true":  kTrue,
	"false": kFalse,
	"null":  kNull,
	"none":  kNull,
}

func (t *tokenizer) word() (tok, tokenizer) {
	end := len(t.q)
	for i, r := range t.q {
		if !isIdentRune(r) {
			end = i
			break
		}
	}
	word := t.q[:end]
	if kind, ok := keywords[strings.ToLower(word)]; ok {
		return t.tok(kind, word, t.q[end:])
	}
	return t.tok(kIdent, word, t.q[end:])
}

func (t *tokenizer) backquoted() (tok, tokenizer) {
	end := strings.IndexByte(t.q[1:], '`')
	if end < 0 {
		return t.error("missing end quote")
	}
	word := t.q[1 : 1+end]
	if word == "" {
		return t.error("empty identifier")
	}
	tk, rest := t.tok(kIdent, word, t.q[end+2:])
	tk.Quoted = true
	return tk, rest
}

func (t *tokenizer) quoted() (tok, tokenizer) {
	quote := t.q[0]
	pos := 1 // Skip initial quote
	for pos < len(t.q) && (t.q[pos] != quote || t.q[pos-1] == '\\') {
		pos++
	}
	if pos == len(t.q) {
		return t.error("missing end quote")
	}
	lit := t.q[:pos+1]
	if quote == '\'' {
		// Rewrite as a double-quoted Go string.
		inner := strings.ReplaceAll(lit[1:len(lit)-1], `\'`, `'`)
		inner = strings.ReplaceAll(inner, `"`, `\"`)
		lit = `"` + inner + `"`
	}
	word, err := strconv.Unquote(lit)
	if err != nil {
		return t.error("bad escape sequence")
	}
	return t.tok(kString, word, t.q[pos+1:])
}

func (t *tokenizer) number() (tok, tokenizer) {
	end := 0
	for end < len(t.q) {
		c := t.q[end]
		if c >= '0' && c <= '9' || c == '.' {
			end++
		} else if (c == 'e' || c == 'E') && end+1 < len(t.q) {
			end++
			if t.q[end] == '+' || t.q[end] == '-' {
				end++
			}
		} else {
			break
		}
	}
	if end < len(t.q) {
		if r, _ := utf8.DecodeRuneInString(t.q[end:]); isIdentRune(r) {
			return t.error("bad number")
		}
	}
	num, err := strconv.ParseFloat(t.q[:end], 64)
	if err != nil {
		return t.error("bad number")
	}
	tk, next := t.tok(kNumber, t.q[:end], t.q[end:])
	tk.Num = num
	return tk, next
}

func (t *tokenizer) regexp() (tok, tokenizer) {
	expr, rest, err := regexpParseUntil(t.q[1:], "/")
	if err == errNoDelim {
		return t.error("missing close \"/\"")
	} else if err != nil {
		return t.error(err.Error())
	}

	r, err := regexp.Compile(expr)
	if err != nil {
		return t.error(err.Error())
	}

	// To avoid confusion when "/" appears in the regexp itself,
	// we require space or an operator after the close "/".
	q2 := rest[1:]
	if !(q2 == "" || unicode.IsSpace(rune(q2[0])) || isOp(q2[0])) {
		t.q = q2
		return t.error("regexp must be followed by space or an operator (unescaped \"/\"?)")
	}

	tok, next := t.tok(kRegexp, expr, q2)
	tok.Regexp = r
	return tok, next
}

var errNoDelim = errors.New("unterminated regexp")

// regexpParseUntil parses a regular expression from the beginning of str
// until the string delim appears at the top level of the expression.
// It returns the regular expression prefix of str and the remainder of str.
// If successful, rest will always begin with delim.
// If delim does not appear at the top level of str, it returns str, "", errNoDelim.
func regexpParseUntil(str, delim string) (expr, rest string, err error) {
	cs := 0
	cp := 0
	for i := 0; i < len(str); {
		if cs == 0 && cp == 0 && strings.HasPrefix(str[i:], delim) {
			return str[:i], str[i:], nil
		}
		switch str[i] {
		case '[':
			cs++
		case ']':
			if cs--; cs < 0 { // An unmatched ']' is legal.
				cs = 0
			}
		case '(':
			if cs == 0 {
				cp++
			}
		case ')':
			if cs == 0 {
				cp--
			}
		case '\\':
			i++
		}
		i++
	}
	return str, "", errNoDelim
}

// quoteIdent returns a string that tokenizes as the identifier s.
func quoteIdent(s string) string {
	if s == "" {
		return "``"
	}
	for i, r := range s {
		if !isIdentRune(r) || (i == 0 && !isIdentStart(r)) {
			return "`" + s + "`"
		}
	}
	if _, ok := keywords[strings.ToLower(s)]; ok {
		return "`" + s + "`"
	}
	return s
}
