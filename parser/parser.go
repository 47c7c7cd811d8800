// Package parser provides a recursive descent parser for the query
// language: a select list, optional FROM, optional LATERAL VIEW,
// optional WHERE, optional GROUP BY, built from expressions parsed by
// precedence climbing (spec.md §4.1).
package parser

import (
	"fmt"
	"sync"

	"github.com/retl-io/retl/ast"
	"github.com/retl-io/retl/lexer"
	"github.com/retl-io/retl/token"
)

// Parser is a recursive descent parser.
type Parser struct {
	lexer  *lexer.Lexer
	errors []ParseError
	cur    token.Item
}

// ParseError carries the byte offset (via Pos) and a message; spec.md
// §4.1 requires parse failures to carry position and expected-
// production info.
type ParseError struct {
	Pos     token.Pos
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// New creates a new parser for the given input.
func New(input string) *Parser {
	p := &Parser{lexer: lexer.New(input)}
	p.advance()
	return p
}

var parserPool = sync.Pool{
	New: func() any { return &Parser{} },
}

// Get returns a pooled parser for input. Call Put when done.
func Get(input string) *Parser {
	p := parserPool.Get().(*Parser)
	p.lexer = lexer.Get(input)
	p.errors = p.errors[:0]
	p.cur = token.Item{}
	p.advance()
	return p
}

// Put returns the parser and its lexer to their pools.
func Put(p *Parser) {
	if p.lexer != nil {
		lexer.Put(p.lexer)
		p.lexer = nil
	}
	parserPool.Put(p)
}

// ParseQuery parses a single query (the "sql" field of a query or
// task_aggregate transform).
func (p *Parser) ParseQuery() (*ast.Query, error) {
	q := p.parseQuery()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	for p.curIs(token.SEMICOLON) {
		p.advance()
	}
	if !p.curIs(token.EOF) {
		p.errorf("unexpected token %s after query", p.cur.Type)
		return nil, p.errors[0]
	}
	return q, nil
}

// ParseQuery parses sql against an ad-hoc parser; exported for callers
// that don't need to reuse a pooled Parser.
func ParseQuery(sql string) (*ast.Query, error) {
	p := Get(sql)
	defer Put(p)
	return p.ParseQuery()
}

// Errors returns every error accumulated while parsing.
func (p *Parser) Errors() []ParseError { return p.errors }

func (p *Parser) advance() {
	p.cur = p.lexer.Next()
	for p.cur.Type == token.COMMENT {
		p.cur = p.lexer.Next()
	}
}

func (p *Parser) curIs(t token.Token) bool { return p.cur.Type == t }

func (p *Parser) curIsIdent() bool {
	return p.cur.Type == token.IDENT || p.cur.Type.IsKeyword()
}

func (p *Parser) peek() token.Item {
	it := p.lexer.Peek()
	for it.Type == token.COMMENT {
		p.lexer.Next()
		it = p.lexer.Peek()
	}
	return it
}

func (p *Parser) peekIs(t token.Token) bool { return p.peek().Type == t }

func (p *Parser) expect(t token.Token) bool {
	if p.curIs(t) {
		p.advance()
		return true
	}
	p.errorf("expected %s, got %s", t, p.cur.Type)
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, ParseError{Pos: p.cur.Pos, Message: fmt.Sprintf(format, args...)})
}

// parseIdent consumes an identifier (IDENT or backtick-quoted identifier,
// both of which the lexer reduces to token.IDENT; a bare keyword used in
// identifier position is also accepted per spec.md §4.1).
func (p *Parser) parseIdent() (string, bool) {
	if !p.curIsIdent() {
		p.errorf("expected identifier, got %s", p.cur.Type)
		return "", false
	}
	v := p.cur.Value
	p.advance()
	return v, true
}
