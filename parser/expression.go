package parser

import (
	"github.com/retl-io/retl/ast"
	"github.com/retl-io/retl/token"
)

// Expression precedence, loosest to tightest (spec.md §4.1):
//
//	OR
//	AND
//	NOT (prefix)
//	predicate: BETWEEN, LIKE/ILIKE, RLIKE/REGEXP, IN, IS [NOT] NULL, comparison
//	|
//	^ (bitwise)
//	&
//	<< >> >>>
//	+ - ||
//	* / %
//	unary - + ~
//	postfix [index] .field
//	atomic

func (p *Parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *Parser) parseOr() ast.Expr {
	return p.parseOrSeeded(p.parseAnd())
}

func (p *Parser) parseOrSeeded(left ast.Expr) ast.Expr {
	for p.curIs(token.OR) {
		p.advance()
		right := p.parseAnd()
		left = p.binary(token.OR, left, right)
	}
	return left
}

func (p *Parser) parseAnd() ast.Expr {
	return p.parseAndSeeded(p.parseNot())
}

func (p *Parser) parseAndSeeded(left ast.Expr) ast.Expr {
	for p.curIs(token.AND) {
		p.advance()
		right := p.parseNot()
		left = p.binary(token.AND, left, right)
	}
	return left
}

func (p *Parser) parseNot() ast.Expr {
	if p.curIs(token.NOT) {
		pos := p.cur.Pos
		p.advance()
		operand := p.parseNot()
		return &ast.UnaryExpr{StartPos: pos, EndPos: p.cur.Pos, Op: token.NOT, Operand: operand}
	}
	return p.parsePredicate()
}

func (p *Parser) parsePredicate() ast.Expr {
	return p.parsePredicateSeeded(p.parseComparison())
}

func (p *Parser) parsePredicateSeeded(left ast.Expr) ast.Expr {
	pos := left.Pos()
	neg := false
	if p.curIs(token.NOT) {
		switch p.peek().Type {
		case token.BETWEEN, token.LIKE, token.ILIKE, token.IN, token.RLIKE, token.REGEXP:
			neg = true
			p.advance()
		}
	}

	switch p.cur.Type {
	case token.BETWEEN:
		p.advance()
		low := p.parseBitOr()
		p.expect(token.AND)
		high := p.parseBitOr()
		return &ast.BetweenExpr{StartPos: pos, EndPos: p.cur.Pos, Expr: left, Not: neg, Low: low, High: high}
	case token.LIKE, token.ILIKE:
		p.advance()
		pattern := p.parseBitOr()
		return &ast.LikeExpr{StartPos: pos, EndPos: p.cur.Pos, Expr: left, Pattern: pattern, Not: neg}
	case token.RLIKE, token.REGEXP:
		p.advance()
		pattern := p.parseBitOr()
		return &ast.RegexpExpr{StartPos: pos, EndPos: p.cur.Pos, Expr: left, Pattern: pattern, Not: neg}
	case token.IN:
		p.advance()
		p.expect(token.LPAREN)
		var list []ast.Expr
		if !p.curIs(token.RPAREN) {
			list = p.parseExprList()
		}
		p.expect(token.RPAREN)
		return &ast.InExpr{StartPos: pos, EndPos: p.cur.Pos, Expr: left, Not: neg, List: list}
	case token.IS:
		p.advance()
		not := false
		if p.curIs(token.NOT) {
			not = true
			p.advance()
		}
		p.expect(token.NULL)
		return &ast.IsNullExpr{StartPos: pos, EndPos: p.cur.Pos, Expr: left, Not: not}
	}

	if neg {
		// "NOT" was consumed speculatively but no predicate keyword
		// followed; this only happens on malformed input.
		p.errorf("expected predicate after NOT, got %s", p.cur.Type)
	}
	return left
}

func (p *Parser) parseComparison() ast.Expr {
	return p.parseComparisonSeeded(p.parseBitOr())
}

func (p *Parser) parseComparisonSeeded(left ast.Expr) ast.Expr {
	for {
		switch p.cur.Type {
		case token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE, token.NULLSAFE:
			op := p.cur.Type
			p.advance()
			right := p.parseBitOr()
			left = p.binary(op, left, right)
			continue
		}
		break
	}
	return left
}

func (p *Parser) parseBitOr() ast.Expr {
	return p.parseBitOrSeeded(p.parseBitXor())
}

func (p *Parser) parseBitOrSeeded(left ast.Expr) ast.Expr {
	for p.curIs(token.BITOR) {
		p.advance()
		right := p.parseBitXor()
		left = p.binary(token.BITOR, left, right)
	}
	return left
}

func (p *Parser) parseBitXor() ast.Expr {
	return p.parseBitXorSeeded(p.parseBitAnd())
}

func (p *Parser) parseBitXorSeeded(left ast.Expr) ast.Expr {
	for p.curIs(token.BITXOR) {
		p.advance()
		right := p.parseBitAnd()
		left = p.binary(token.BITXOR, left, right)
	}
	return left
}

func (p *Parser) parseBitAnd() ast.Expr {
	return p.parseBitAndSeeded(p.parseShift())
}

func (p *Parser) parseBitAndSeeded(left ast.Expr) ast.Expr {
	for p.curIs(token.BITAND) {
		p.advance()
		right := p.parseShift()
		left = p.binary(token.BITAND, left, right)
	}
	return left
}

func (p *Parser) parseShift() ast.Expr {
	return p.parseShiftSeeded(p.parseAdditive())
}

func (p *Parser) parseShiftSeeded(left ast.Expr) ast.Expr {
	for {
		switch p.cur.Type {
		case token.LSHIFT, token.RSHIFT, token.URSHIFT:
			op := p.cur.Type
			p.advance()
			right := p.parseAdditive()
			left = p.binary(op, left, right)
			continue
		}
		break
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	return p.parseAdditiveSeeded(p.parseMultiplicative())
}

func (p *Parser) parseAdditiveSeeded(left ast.Expr) ast.Expr {
	for {
		switch p.cur.Type {
		case token.PLUS, token.MINUS, token.CONCAT:
			op := p.cur.Type
			p.advance()
			right := p.parseMultiplicative()
			left = p.binary(op, left, right)
			continue
		}
		break
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	return p.parseMultiplicativeSeeded(p.parseUnary())
}

func (p *Parser) parseMultiplicativeSeeded(left ast.Expr) ast.Expr {
	for {
		switch p.cur.Type {
		case token.ASTERISK, token.SLASH, token.PERCENT:
			op := p.cur.Type
			p.advance()
			right := p.parseUnary()
			left = p.binary(op, left, right)
			continue
		}
		break
	}
	return left
}

func (p *Parser) binary(op token.Token, left, right ast.Expr) ast.Expr {
	return &ast.BinaryExpr{StartPos: left.Pos(), EndPos: right.End(), Op: op, Left: left, Right: right}
}

func (p *Parser) parseUnary() ast.Expr {
	switch p.cur.Type {
	case token.MINUS, token.PLUS, token.BITNOT:
		pos := p.cur.Pos
		op := p.cur.Type
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryExpr{StartPos: pos, EndPos: operand.End(), Op: op, Operand: operand}
	}
	return p.parsePostfix(p.parseAtomic())
}

// parsePostfix applies trailing [index] subscripts and .field
// dereferences (or, for a ColumnRef base, folds further dotted parts
// into ColumnRef.Parts).
func (p *Parser) parsePostfix(base ast.Expr) ast.Expr {
	for {
		switch {
		case p.curIs(token.LBRACKET):
			pos := base.Pos()
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACKET)
			base = &ast.SubscriptExpr{StartPos: pos, EndPos: p.cur.Pos, Expr: base, Index: idx}
		case p.curIs(token.DOT):
			pos := base.Pos()
			p.advance()
			field, ok := p.parseIdent()
			if !ok {
				return base
			}
			if col, isCol := base.(*ast.ColumnRef); isCol {
				col.Parts = append(col.Parts, field)
				col.EndPos = p.cur.Pos
				continue
			}
			base = &ast.FieldAccessExpr{StartPos: pos, EndPos: p.cur.Pos, Expr: base, Field: field}
		default:
			return base
		}
	}
}

// continueColumnRef is used by the select list's qualifier.* lookahead:
// the caller has already consumed one ident and a DOT and determined
// the token after the dot is not *, so that token starts the second
// part of the column reference.
func (p *Parser) continueColumnRef(col *ast.ColumnRef) ast.Expr {
	if part, ok := p.parseIdent(); ok {
		col.Parts = append(col.Parts, part)
	}
	for p.curIs(token.DOT) {
		p.advance()
		part, ok := p.parseIdent()
		if !ok {
			break
		}
		col.Parts = append(col.Parts, part)
	}
	col.EndPos = p.cur.Pos
	return col
}

// parseExprContinuation resumes the full precedence ladder from an
// already-built primary expression (used after continueColumnRef).
func (p *Parser) parseExprContinuation(expr ast.Expr) ast.Expr {
	expr = p.parsePostfix(expr)
	expr = p.parseMultiplicativeSeeded(expr)
	expr = p.parseAdditiveSeeded(expr)
	expr = p.parseShiftSeeded(expr)
	expr = p.parseBitAndSeeded(expr)
	expr = p.parseBitXorSeeded(expr)
	expr = p.parseBitOrSeeded(expr)
	expr = p.parseComparisonSeeded(expr)
	expr = p.parsePredicateSeeded(expr)
	expr = p.parseAndSeeded(expr)
	expr = p.parseOrSeeded(expr)
	return expr
}

func (p *Parser) parseAtomic() ast.Expr {
	pos := p.cur.Pos

	switch p.cur.Type {
	case token.LPAREN:
		p.advance()
		inner := p.parseExpr()
		p.expect(token.RPAREN)
		return &ast.ParenExpr{StartPos: pos, EndPos: p.cur.Pos, Expr: inner}
	case token.CASE:
		return p.parseCase()
	case token.CAST:
		return p.parseCastExpr()
	case token.NULL, token.TRUE, token.FALSE, token.STRING, token.INT, token.FLOAT:
		return p.parseLiteral()
	case token.ASTERISK:
		p.advance()
		return &ast.StarExpr{StartPos: pos, EndPos: p.cur.Pos}
	}

	if p.curIsIdent() && !p.curIsReservedAfterExpr() {
		return p.parseIdentOrCall()
	}

	p.errorf("unexpected token %s in expression", p.cur.Type)
	p.advance()
	return &ast.Literal{StartPos: pos, EndPos: pos, Kind: ast.LiteralNull}
}

func (p *Parser) parseIdentOrCall() ast.Expr {
	pos := p.cur.Pos
	name, ok := p.parseIdent()
	if !ok {
		return &ast.Literal{StartPos: pos, EndPos: pos, Kind: ast.LiteralNull}
	}

	if p.curIs(token.LPAREN) {
		call := &ast.FuncCall{StartPos: pos, Name: name}
		p.advance()
		if p.curIs(token.ASTERISK) && p.peekIs(token.RPAREN) {
			call.Star = true
			p.advance()
		} else if !p.curIs(token.RPAREN) {
			call.Args = p.parseExprList()
		}
		p.expect(token.RPAREN)
		call.EndPos = p.cur.Pos
		return call
	}

	col := &ast.ColumnRef{StartPos: pos, EndPos: p.cur.Pos, Parts: []string{name}}
	for p.curIs(token.DOT) {
		p.advance()
		part, ok := p.parseIdent()
		if !ok {
			break
		}
		col.Parts = append(col.Parts, part)
	}
	col.EndPos = p.cur.Pos
	return col
}

func (p *Parser) parseExprList() []ast.Expr {
	var list []ast.Expr
	for {
		list = append(list, p.parseExpr())
		if !p.curIs(token.COMMA) {
			break
		}
		p.advance()
	}
	return list
}

func (p *Parser) parseLiteral() ast.Expr {
	pos := p.cur.Pos
	switch p.cur.Type {
	case token.NULL:
		p.advance()
		return &ast.Literal{StartPos: pos, EndPos: p.cur.Pos, Kind: ast.LiteralNull}
	case token.TRUE, token.FALSE:
		text := p.cur.Value
		p.advance()
		return &ast.Literal{StartPos: pos, EndPos: p.cur.Pos, Kind: ast.LiteralBool, Text: text}
	case token.STRING:
		text := p.cur.Value
		p.advance()
		return &ast.Literal{StartPos: pos, EndPos: p.cur.Pos, Kind: ast.LiteralString, Text: text}
	case token.INT:
		text := p.cur.Value
		kind := ast.LiteralInt32
		if n := len(text); n > 0 {
			switch text[n-1] {
			case 'L', 'l':
				kind = ast.LiteralInt64
				text = text[:n-1]
			}
		}
		p.advance()
		return &ast.Literal{StartPos: pos, EndPos: p.cur.Pos, Kind: kind, Text: text}
	case token.FLOAT:
		text := p.cur.Value
		kind := ast.LiteralFloat64
		if n := len(text); n > 0 {
			switch text[n-1] {
			case 'F', 'f':
				kind = ast.LiteralFloat32
				text = text[:n-1]
			case 'D', 'd':
				text = text[:n-1]
			}
		}
		p.advance()
		return &ast.Literal{StartPos: pos, EndPos: p.cur.Pos, Kind: kind, Text: text}
	}
	p.errorf("expected literal, got %s", p.cur.Type)
	p.advance()
	return &ast.Literal{StartPos: pos, EndPos: pos, Kind: ast.LiteralNull}
}

// parseCase parses both CASE forms:
//
//	CASE expr WHEN v THEN r ... [ELSE r] END   (simple)
//	CASE WHEN cond THEN r ... [ELSE r] END     (searched)
func (p *Parser) parseCase() ast.Expr {
	pos := p.cur.Pos
	p.advance() // CASE

	c := &ast.CaseExpr{StartPos: pos}
	if !p.curIs(token.WHEN) {
		c.Operand = p.parseExpr()
	}

	for p.curIs(token.WHEN) {
		p.advance()
		cond := p.parseExpr()
		p.expect(token.THEN)
		result := p.parseExpr()
		c.Whens = append(c.Whens, &ast.When{Cond: cond, Result: result})
	}

	if p.curIs(token.ELSE) {
		p.advance()
		c.Else = p.parseExpr()
	}

	p.expect(token.END)
	c.EndPos = p.cur.Pos
	return c
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() ast.Expr {
	pos := p.cur.Pos
	p.advance() // CAST
	p.expect(token.LPAREN)
	inner := p.parseExpr()
	p.expect(token.AS)
	dt := p.parseDataType()
	p.expect(token.RPAREN)
	return &ast.CastExpr{StartPos: pos, EndPos: p.cur.Pos, Expr: inner, Type: dt}
}
