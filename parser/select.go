package parser

import (
	"github.com/retl-io/retl/ast"
	"github.com/retl-io/retl/token"
)

// parseQuery implements queryPrimary = selectClause fromClause?
// lateralView? whereClause? aggregationClause? (spec.md §4.1).
func (p *Parser) parseQuery() *ast.Query {
	pos := p.cur.Pos
	if !p.expect(token.SELECT) {
		return nil
	}

	q := &ast.Query{StartPos: pos}

	if p.curIs(token.DISTINCT) || p.curIs(token.ALL) {
		// Accepted and ignored: grouping/dedup beyond plain projection is
		// out of this engine's scope, but tolerating the keyword avoids
		// rejecting otherwise-valid queries written against a fuller SQL
		// dialect.
		p.advance()
	}

	q.Select = p.parseSelectItems()

	if p.curIs(token.FROM) {
		p.advance()
		q.From = p.parseTableExpr()
	}

	if p.curIs(token.LATERAL) {
		q.Lateral = p.parseLateralView()
	}

	if p.curIs(token.WHERE) {
		p.advance()
		q.Where = p.parseExpr()
	}

	if p.curIs(token.GROUP) {
		p.advance()
		if !p.expect(token.BY) {
			return q
		}
		q.GroupBy = p.parseExprList()
	}

	q.EndPos = p.cur.Pos
	return q
}

func (p *Parser) parseSelectItems() []*ast.SelectItem {
	var items []*ast.SelectItem
	for {
		items = append(items, p.parseSelectItem())
		if !p.curIs(token.COMMA) {
			break
		}
		p.advance()
	}
	return items
}

func (p *Parser) parseSelectItem() *ast.SelectItem {
	pos := p.cur.Pos

	if p.curIs(token.ASTERISK) {
		star := &ast.StarExpr{StartPos: pos}
		p.advance()
		star.EndPos = p.cur.Pos
		return &ast.SelectItem{StartPos: pos, EndPos: star.EndPos, Expr: star}
	}

	// qualifier.* lookahead: IDENT DOT ASTERISK
	if p.curIsIdent() && p.peekIs(token.DOT) {
		save := p.cur
		qualifier := p.cur.Value
		p.advance() // ident
		p.advance() // dot
		if p.curIs(token.ASTERISK) {
			star := &ast.StarExpr{StartPos: pos, Qualifier: qualifier}
			p.advance()
			star.EndPos = p.cur.Pos
			return &ast.SelectItem{StartPos: pos, EndPos: star.EndPos, Expr: star}
		}
		// Not qualifier.*: re-parse as a normal expression from the saved
		// identifier. There is no cheap backtrack in this lexer, so we
		// rebuild the column-ref manually instead of re-lexing.
		col := &ast.ColumnRef{StartPos: pos, Parts: []string{save.Value}}
		expr := p.continueColumnRef(col)
		return p.finishSelectItem(pos, p.parseExprContinuation(expr))
	}

	expr := p.parseExpr()
	return p.finishSelectItem(pos, expr)
}

func (p *Parser) finishSelectItem(pos token.Pos, expr ast.Expr) *ast.SelectItem {
	item := &ast.SelectItem{StartPos: pos, Expr: expr}
	if p.curIs(token.AS) {
		p.advance()
		if alias, ok := p.parseIdent(); ok {
			item.Alias = alias
		}
	} else if p.curIsIdent() && !p.curIsReservedAfterExpr() {
		if alias, ok := p.parseIdent(); ok {
			item.Alias = alias
		}
	}
	item.EndPos = p.cur.Pos
	return item
}

// curIsReservedAfterExpr reports whether the current identifier-shaped
// token is actually a clause keyword that must not be swallowed as an
// implicit alias (e.g. "... FROM tbl" must not treat FROM as an alias
// of the preceding expression).
func (p *Parser) curIsReservedAfterExpr() bool {
	switch p.cur.Type {
	case token.FROM, token.WHERE, token.GROUP, token.HAVING, token.LATERAL,
		token.ORDER, token.LIMIT, token.UNION, token.INTERSECT, token.EXCEPT:
		return true
	}
	return false
}

func (p *Parser) parseTableExpr() ast.TableExpr {
	pos := p.cur.Pos
	if p.curIs(token.LPAREN) {
		p.advance()
		sub := p.parseQuery()
		p.expect(token.RPAREN)
		ref := &ast.SubqueryRef{StartPos: pos, Query: sub}
		if p.curIs(token.AS) {
			p.advance()
		}
		if p.curIsIdent() && !p.curIsReservedAfterExpr() && !p.curIs(token.LATERAL) {
			if alias, ok := p.parseIdent(); ok {
				ref.Alias = alias
			}
		}
		ref.EndPos = p.cur.Pos
		return ref
	}

	name, ok := p.parseIdent()
	if !ok {
		return nil
	}
	ref := &ast.TableRef{StartPos: pos, Name: name, EndPos: p.cur.Pos}
	if p.curIs(token.AS) {
		p.advance()
	}
	if p.curIsIdent() && !p.curIsReservedAfterExpr() && !p.curIs(token.LATERAL) {
		if alias, ok := p.parseIdent(); ok {
			ref.Alias = alias
		}
	}
	ref.EndPos = p.cur.Pos
	return ref
}

// parseLateralView parses "LATERAL VIEW [OUTER] generator(args) alias
// AS col1 [, col2 ...]" (spec.md §4.1).
func (p *Parser) parseLateralView() *ast.LateralView {
	pos := p.cur.Pos
	p.advance() // LATERAL
	if !p.expect(token.VIEW) {
		return nil
	}

	lv := &ast.LateralView{StartPos: pos}
	if p.curIs(token.OUTER) {
		lv.Outer = true
		p.advance()
	}

	genPos := p.cur.Pos
	name, ok := p.parseIdent()
	if !ok {
		return lv
	}
	call := &ast.FuncCall{StartPos: genPos, Name: name}
	p.expect(token.LPAREN)
	if !p.curIs(token.RPAREN) {
		call.Args = p.parseExprList()
	}
	p.expect(token.RPAREN)
	call.EndPos = p.cur.Pos
	lv.Generator = call

	if alias, ok := p.parseIdent(); ok {
		lv.ViewAlias = alias
	}
	if p.curIs(token.AS) {
		p.advance()
	}
	for {
		col, ok := p.parseIdent()
		if !ok {
			break
		}
		lv.Columns = append(lv.Columns, col)
		if !p.curIs(token.COMMA) {
			break
		}
		p.advance()
	}
	lv.EndPos = p.cur.Pos
	return lv
}
