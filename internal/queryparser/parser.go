// Package queryparser implements the hand-written recursive-descent parser
// for the query surface syntax described in spec §4.2. No parser-combinator
// or grammar-generator library is used: none of the retrieval pack's example
// repos import one (participle, goyacc, antlr and similar were searched for
// and found nowhere in the corpus), and the grammar is small enough that a
// straightforward lexer plus descent parser is the idiomatic choice, the
// same way the original Rust implementation hand-rolled its own combinators.
package queryparser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/alpaylan/ruggle/internal/model"
)

// ParseError describes a failing parse at a byte offset into the input.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

func newErr(offset int, format string, args ...any) *ParseError {
	return &ParseError{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// looksLikeGeneric applies the disambiguation convention from spec §4.2: a
// bare identifier is a Generic when it starts with an upper-case letter and
// continues with letters, digits or '_' (the [A-Z][A-Za-z0-9_]* convention,
// checked with Unicode letter/digit classes).
func looksLikeGeneric(name string) bool {
	if name == "" {
		return false
	}
	r := []rune(name)
	if !unicode.IsUpper(r[0]) {
		return false
	}
	for _, c := range r[1:] {
		if !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_') {
			return false
		}
	}
	return true
}

// token kinds emitted by the lexer.
type tokKind int

const (
	tokIdent tokKind = iota
	tokLParen
	tokRParen
	tokLAngle
	tokRAngle
	tokComma
	tokColon
	tokColonColon
	tokArrow
	tokUnderscore
	tokAmp
	tokEOF
)

type token struct {
	kind   tokKind
	text   string
	offset int
}

// lexer is a simple hand-written scanner; whitespace is insignificant
// outside identifiers, per spec §6.1.
type lexer struct {
	src []rune
	pos int
}

func newLexer(s string) *lexer { return &lexer{src: []rune(s)} }

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.src[l.pos]) {
		l.pos++
	}
}

func isIdentStart(c rune) bool { return unicode.IsLetter(c) || c == '_' }
func isIdentCont(c rune) bool  { return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' }

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, offset: start}, nil
	}
	c := l.src[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLParen, offset: start, text: "("}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen, offset: start, text: ")"}, nil
	case c == '<':
		l.pos++
		return token{kind: tokLAngle, offset: start, text: "<"}, nil
	case c == '>':
		l.pos++
		return token{kind: tokRAngle, offset: start, text: ">"}, nil
	case c == ',':
		l.pos++
		return token{kind: tokComma, offset: start, text: ","}, nil
	case c == '&':
		l.pos++
		return token{kind: tokAmp, offset: start, text: "&"}, nil
	case c == ':':
		l.pos++
		if l.pos < len(l.src) && l.src[l.pos] == ':' {
			l.pos++
			return token{kind: tokColonColon, offset: start, text: "::"}, nil
		}
		return token{kind: tokColon, offset: start, text: ":"}, nil
	case c == '-':
		l.pos++
		if l.pos < len(l.src) && l.src[l.pos] == '>' {
			l.pos++
			return token{kind: tokArrow, offset: start, text: "->"}, nil
		}
		return token{}, newErr(start, "unexpected '-' (did you mean '->'?)")
	case c == '_' && (l.pos+1 >= len(l.src) || !isIdentCont(l.src[l.pos+1])):
		l.pos++
		return token{kind: tokUnderscore, offset: start, text: "_"}, nil
	case c == '!':
		l.pos++
		return token{kind: tokIdent, offset: start, text: "!"}, nil
	case isIdentStart(c):
		for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, offset: start, text: string(l.src[start:l.pos])}, nil
	default:
		return token{}, newErr(start, "unexpected character %q", c)
	}
}

// Parser holds one-token lookahead over the lexer.
type Parser struct {
	lex *lexer
	cur token
}

// Parse parses a query string into a model.Query, or returns a *ParseError.
func Parse(input string) (model.Query, error) {
	if strings.TrimSpace(input) == "" {
		return model.Query{}, newErr(0, "empty query")
	}
	p := &Parser{lex: newLexer(input)}
	if err := p.advance(); err != nil {
		return model.Query{}, err
	}
	q, err := p.parseQuery()
	if err != nil {
		return model.Query{}, err
	}
	if p.cur.kind != tokEOF {
		return model.Query{}, newErr(p.cur.offset, "unexpected trailing input %q", p.cur.text)
	}
	return q, nil
}

func (p *Parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *Parser) expect(k tokKind, what string) (token, error) {
	if p.cur.kind != k {
		return token{}, newErr(p.cur.offset, "expected %s", what)
	}
	t := p.cur
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return t, nil
}

// parseQuery implements:
//
//	Query := [ "fn" ] [ Name ] "(" [ Args ] ")" [ "->" Type ]
//	       | [ "fn" ] [ Name ] Type "->" Type
func (p *Parser) parseQuery() (model.Query, error) {
	if p.cur.kind == tokIdent && p.cur.text == "fn" {
		if err := p.advance(); err != nil {
			return model.Query{}, err
		}
	}

	var name *string
	if p.cur.kind == tokIdent && !isPrimitiveToken(p.cur.text) {
		// A leading identifier is the function name only if it is not
		// immediately followed by generic args or "::" (which would make it
		// a Type, taking the second Query alternative), and only when a
		// "(" follows — otherwise it's the start of a bare-Type query.
		save := *p.lex
		saveCur := p.cur
		n := p.cur.text
		if err := p.advance(); err != nil {
			return model.Query{}, err
		}
		if p.cur.kind == tokLParen {
			name = &n
		} else {
			// Not a name: rewind and treat it as the start of a Type.
			*p.lex = save
			p.cur = saveCur
		}
	}

	if p.cur.kind == tokLParen {
		if err := p.advance(); err != nil {
			return model.Query{}, err
		}
		var args []model.Argument
		if p.cur.kind != tokRParen {
			a, err := p.parseArgs()
			if err != nil {
				return model.Query{}, err
			}
			args = a
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return model.Query{}, err
		}
		output := model.Unknown()
		if p.cur.kind == tokArrow {
			if err := p.advance(); err != nil {
				return model.Query{}, err
			}
			t, err := p.parseType()
			if err != nil {
				return model.Query{}, err
			}
			output = t
		}
		return model.Query{Name: name, Signature: model.FunctionSignature{Inputs: args, Output: output}}, nil
	}

	// Second alternative: a single bare Type, then "->", then a Type. This
	// covers forms like "Option<T> -> T" without a name or parens.
	in, err := p.parseType()
	if err != nil {
		return model.Query{}, err
	}
	if _, err := p.expect(tokArrow, "'->'"); err != nil {
		return model.Query{}, err
	}
	out, err := p.parseType()
	if err != nil {
		return model.Query{}, err
	}
	return model.Query{Name: name, Signature: model.FunctionSignature{
		Inputs: []model.Argument{{Type: in}},
		Output: out,
	}}, nil
}

func (p *Parser) parseArgs() ([]model.Argument, error) {
	var args []model.Argument
	for {
		a, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.cur.kind != tokComma {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.cur.kind == tokRParen {
			break // trailing comma
		}
	}
	return args, nil
}

// parseArg implements: Arg := [ Name ":" ] Type, plus the lossy extension
// for "self" / "&self" / "&mut self" and any other leading "&..." form,
// which are accepted as convenience copy-pasted from Rust method
// signatures (see spec §6.1) and parsed as an Unknown argument.
func (p *Parser) parseArg() (model.Argument, error) {
	if p.cur.kind == tokAmp {
		return p.parseLossyReference()
	}
	if p.cur.kind == tokIdent && p.cur.text == "self" {
		n := "self"
		if err := p.advance(); err != nil {
			return model.Argument{}, err
		}
		return model.Argument{Name: &n, Type: model.Unknown()}, nil
	}

	// Try "Name ':' Type"; if no colon follows the identifier, it was the
	// start of a Type, not a name.
	if p.cur.kind == tokIdent {
		save := *p.lex
		saveCur := p.cur
		n := p.cur.text
		if err := p.advance(); err != nil {
			return model.Argument{}, err
		}
		if p.cur.kind == tokColon {
			if err := p.advance(); err != nil {
				return model.Argument{}, err
			}
			t, err := p.parseType()
			if err != nil {
				return model.Argument{}, err
			}
			return model.Argument{Name: &n, Type: t}, nil
		}
		*p.lex = save
		p.cur = saveCur
	}

	t, err := p.parseType()
	if err != nil {
		return model.Argument{}, err
	}
	return model.Argument{Type: t}, nil
}

// parseLossyReference consumes a leading '&' (optionally "mut") and
// whatever follows up to the next ',' or ')', discarding it in favour of
// Unknown — references are never reconstructed structurally (spec §6.1).
func (p *Parser) parseLossyReference() (model.Argument, error) {
	if err := p.advance(); err != nil { // consume '&'
		return model.Argument{}, err
	}
	if p.cur.kind == tokIdent && p.cur.text == "mut" {
		if err := p.advance(); err != nil {
			return model.Argument{}, err
		}
	}
	depth := 0
	for {
		switch p.cur.kind {
		case tokLAngle, tokLParen:
			depth++
		case tokRAngle:
			depth--
		case tokRParen:
			if depth == 0 {
				return model.Argument{Type: model.Unknown()}, nil
			}
			depth--
		case tokComma:
			if depth == 0 {
				return model.Argument{Type: model.Unknown()}, nil
			}
		case tokEOF:
			return model.Argument{}, newErr(p.cur.offset, "unterminated reference argument")
		}
		if err := p.advance(); err != nil {
			return model.Argument{}, err
		}
	}
}

// parseType implements:
//
//	Type := PrimName | "_" | Ident | Path [ "<" Type { "," Type } ">" ]
func (p *Parser) parseType() (model.Type, error) {
	switch p.cur.kind {
	case tokUnderscore:
		if err := p.advance(); err != nil {
			return model.Type{}, err
		}
		return model.Unknown(), nil
	case tokLParen:
		// "()" unit shorthand.
		if err := p.advance(); err != nil {
			return model.Type{}, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return model.Type{}, err
		}
		return model.NewPrimitive(model.PrimUnit), nil
	case tokIdent:
		return p.parsePathOrLeaf()
	}
	return model.Type{}, newErr(p.cur.offset, "expected a type")
}

func (p *Parser) parsePathOrLeaf() (model.Type, error) {
	first := p.cur.text
	offset := p.cur.offset
	if err := p.advance(); err != nil {
		return model.Type{}, err
	}

	var segments []string
	segments = append(segments, first)
	for p.cur.kind == tokColonColon {
		if err := p.advance(); err != nil {
			return model.Type{}, err
		}
		if p.cur.kind != tokIdent {
			return model.Type{}, newErr(p.cur.offset, "expected identifier after '::'")
		}
		segments = append(segments, p.cur.text)
		if err := p.advance(); err != nil {
			return model.Type{}, err
		}
	}

	var genArgs []model.Type
	if p.cur.kind == tokLAngle {
		if err := p.advance(); err != nil {
			return model.Type{}, err
		}
		for {
			t, err := p.parseType()
			if err != nil {
				return model.Type{}, err
			}
			genArgs = append(genArgs, t)
			if p.cur.kind == tokComma {
				if err := p.advance(); err != nil {
					return model.Type{}, err
				}
				continue
			}
			break
		}
		if _, err := p.expect(tokRAngle, "'>'"); err != nil {
			return model.Type{}, err
		}
	}

	// Single-segment, no generics: disambiguate primitive / generic / path.
	if len(segments) == 1 && len(genArgs) == 0 {
		if prim, ok := model.LookupPrimitive(segments[0]); ok {
			return model.NewPrimitive(prim), nil
		}
		if looksLikeGeneric(segments[0]) {
			return model.NewGeneric(segments[0]), nil
		}
	}
	if looksLikeGeneric(segments[0]) && len(segments) > 1 {
		// A capitalised leading segment followed by "::" is still a path,
		// never a generic — generics never carry a "::".
	}
	if _, ok := model.LookupPrimitive(segments[0]); ok && len(segments) == 1 && len(genArgs) > 0 {
		return model.Type{}, newErr(offset, "primitive type %q cannot take generic arguments", segments[0])
	}

	pathSegs := make([]model.PathSegment, len(segments))
	for i, s := range segments {
		pathSegs[i] = model.PathSegment{Name: s}
	}
	pathSegs[len(pathSegs)-1].Args = genArgs
	return model.NewResolved(pathSegs), nil
}

func isPrimitiveToken(s string) bool {
	_, ok := model.LookupPrimitive(s)
	return ok
}
