package parser

import (
	"strconv"
	"strings"

	"github.com/retl-io/retl/ast"
	"github.com/retl-io/retl/token"
)

// ParseDataType parses the data-type production used by CAST and by
// struct/array element types: "array<T> | struct<name:T, ...> |
// primitive" (spec.md §6).
func ParseDataType(s string) (*ast.DataTypeNode, error) {
	p := Get(s)
	defer Put(p)
	dt := p.parseDataType()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if !p.curIs(token.EOF) {
		p.errorf("unexpected trailing input after data type")
		return nil, p.errors[0]
	}
	return dt, nil
}

// ParseSchemaString parses either schema-string form (spec.md §6):
// "struct<field:type, ...>" or the bare "name Type [NOT NULL], ..."
// column list. Both produce a struct-kind DataTypeNode.
func ParseSchemaString(s string) (*ast.DataTypeNode, error) {
	p := Get(s)
	defer Put(p)

	var dt *ast.DataTypeNode
	if p.curIsIdent() && strings.EqualFold(p.cur.Value, "struct") && p.peekIs(token.LT) {
		dt = p.parseDataType()
	} else {
		dt = &ast.DataTypeNode{Kind: ast.TypeStruct, Fields: p.parseFieldList()}
	}

	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if !p.curIs(token.EOF) {
		p.errorf("unexpected trailing input after schema string")
		return nil, p.errors[0]
	}
	return dt, nil
}

// ParseClickHouseType parses the distinct ClickHouse column-type
// grammar: "Array(T) | LowCardinality(T) | Nullable(T) |
// Ident[(int[,int])]" (spec.md §6).
func ParseClickHouseType(s string) (*ast.DataTypeNode, error) {
	p := Get(s)
	defer Put(p)
	dt := p.parseClickHouseType()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	if !p.curIs(token.EOF) {
		p.errorf("unexpected trailing input after ClickHouse type")
		return nil, p.errors[0]
	}
	return dt, nil
}

// parseFieldList parses "name Type [NOT NULL] (, name Type [NOT NULL])*".
// Backtick-quoted field names are accepted transparently since the
// lexer reduces them to plain IDENT tokens.
func (p *Parser) parseFieldList() []ast.StructField {
	var fields []ast.StructField
	for {
		fields = append(fields, p.parseField())
		if !p.curIs(token.COMMA) {
			break
		}
		p.advance()
	}
	return fields
}

func (p *Parser) parseField() ast.StructField {
	name, _ := p.parseIdent()
	// "struct<field:type, ...>" separates name and type with a colon;
	// the bare "name Type [NOT NULL], ..." column list does not.
	if p.curIs(token.COLON) {
		p.advance()
	} else if p.curIs(token.PARAM) && strings.HasPrefix(p.cur.Value, ":") {
		// Without a space the lexer reads ":type" as a named parameter;
		// re-read the text after the colon as the type name.
		v := p.cur.Value[1:]
		pos := p.cur.Pos
		pos.Offset++
		pos.Column++
		p.cur = token.Item{Type: token.LookupIdent(v), Value: v, Pos: pos}
	}
	typ := p.parseDataType()
	if p.curIs(token.NOT) {
		p.advance()
		p.expect(token.NULL)
		typ.Nullable = false
	}
	return ast.StructField{Name: name, Type: typ}
}

// parseDataType implements the struct-field-type grammar used by both
// CAST and schema strings: "bigint | int | smallint | tinyint | float
// | double | decimal(p,s) | string | bytes | boolean | timestamp |
// array<T> | struct<...>" (spec.md §6).
func (p *Parser) parseDataType() *ast.DataTypeNode {
	dt := &ast.DataTypeNode{Nullable: true}

	switch p.cur.Type {
	case token.BIGINT:
		dt.Kind = ast.TypeInt64
		p.advance()
	case token.INT_TYPE:
		dt.Kind = ast.TypeInt32
		p.advance()
	case token.SMALLINT, token.TINYINT:
		dt.Kind = ast.TypeInt32
		p.advance()
	case token.FLOAT_TYPE:
		dt.Kind = ast.TypeFloat32
		p.advance()
	case token.DOUBLE:
		dt.Kind = ast.TypeFloat64
		p.advance()
	case token.DECIMAL:
		dt.Kind = ast.TypeDecimal
		p.advance()
		if p.curIs(token.LPAREN) {
			p.advance()
			dt.Precision = p.parseIntValue()
			p.expect(token.COMMA)
			dt.Scale = p.parseIntValue()
			p.expect(token.RPAREN)
		}
	case token.TIMESTAMP:
		dt.Kind = ast.TypeTimestamp
		dt.Unit = "micro"
		p.advance()
	case token.BOOLEAN, token.BOOL:
		dt.Kind = ast.TypeBoolean
		p.advance()
	case token.ARRAY:
		p.advance()
		p.expect(token.LT)
		dt.Kind = ast.TypeArray
		dt.Elem = p.parseDataType()
		p.expect(token.GT)
	default:
		if p.curIsIdent() {
			switch strings.ToLower(p.cur.Value) {
			case "string":
				dt.Kind = ast.TypeString
				p.advance()
			case "bytes":
				dt.Kind = ast.TypeBytes
				p.advance()
			case "struct":
				p.advance()
				p.expect(token.LT)
				dt.Kind = ast.TypeStruct
				dt.Fields = p.parseFieldList()
				p.expect(token.GT)
			default:
				p.errorf("unknown data type %q", p.cur.Value)
				p.advance()
			}
		} else {
			p.errorf("expected data type, got %s", p.cur.Type)
			p.advance()
		}
	}
	return dt
}

// parseClickHouseType implements ClickHouse's column-type grammar,
// kept separate from parseDataType per spec.md §6: "Array(T) |
// LowCardinality(T) | Nullable(T) | Ident[(int[,int])]".
func (p *Parser) parseClickHouseType() *ast.DataTypeNode {
	dt := &ast.DataTypeNode{}
	if !p.curIsIdent() {
		p.errorf("expected ClickHouse type name, got %s", p.cur.Type)
		return dt
	}

	name := strings.ToLower(p.cur.Value)
	p.advance()

	switch name {
	case "array":
		p.expect(token.LPAREN)
		dt.Kind = ast.TypeArray
		dt.Elem = p.parseClickHouseType()
		p.expect(token.RPAREN)
		return dt
	case "lowcardinality":
		// LowCardinality(T) is a storage hint over T; the core only
		// tracks T's logical type.
		p.expect(token.LPAREN)
		inner := p.parseClickHouseType()
		p.expect(token.RPAREN)
		return inner
	case "nullable":
		p.expect(token.LPAREN)
		inner := p.parseClickHouseType()
		p.expect(token.RPAREN)
		inner.Nullable = true
		return inner
	}

	dt.Kind = clickHouseIdentKind(name)
	if p.curIs(token.LPAREN) {
		p.advance()
		dt.Precision = p.parseIntValue()
		if p.curIs(token.COMMA) {
			p.advance()
			dt.Scale = p.parseIntValue()
		}
		p.expect(token.RPAREN)
	}
	return dt
}

func clickHouseIdentKind(name string) ast.DataTypeKind {
	switch {
	case strings.HasPrefix(name, "int8"), strings.HasPrefix(name, "int16"),
		strings.HasPrefix(name, "int32"), strings.HasPrefix(name, "uint8"),
		strings.HasPrefix(name, "uint16"), strings.HasPrefix(name, "uint32"):
		return ast.TypeInt32
	case strings.HasPrefix(name, "int64"), strings.HasPrefix(name, "uint64"):
		return ast.TypeInt64
	case strings.HasPrefix(name, "float32"):
		return ast.TypeFloat32
	case strings.HasPrefix(name, "float64"):
		return ast.TypeFloat64
	case strings.HasPrefix(name, "decimal"):
		return ast.TypeDecimal
	case name == "string", strings.HasPrefix(name, "fixedstring"):
		return ast.TypeString
	case strings.HasPrefix(name, "datetime"), name == "date":
		return ast.TypeTimestamp
	case name == "bool", name == "boolean":
		return ast.TypeBoolean
	default:
		return ast.TypeString
	}
}

func (p *Parser) parseIntValue() int {
	if !p.curIs(token.INT) {
		p.errorf("expected integer, got %s", p.cur.Type)
		return 0
	}
	v, _ := strconv.Atoi(strings.TrimRight(p.cur.Value, "Ll"))
	p.advance()
	return v
}
