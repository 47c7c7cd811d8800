package binder

import (
	"strings"

	"github.com/retl-io/retl/internal/sqltypes"
)

// scopeColumn is one addressable column: its position in the row
// being built, its type, and the relation labels it can be qualified
// by (the FROM alias/table name, or a LATERAL VIEW alias).
type scopeColumn struct {
	Name       string
	Type       sqltypes.DataType
	Index      int
	Qualifiers []string
}

// scope is the set of columns visible to an expression at one point
// in the bound plan (spec.md §4.2 "identifier resolution against the
// relation(s) currently in scope").
type scope struct {
	cols []scopeColumn
}

func newScope() *scope { return &scope{} }

func (s *scope) add(name string, typ sqltypes.DataType, qualifiers ...string) {
	s.cols = append(s.cols, scopeColumn{Name: name, Type: typ, Index: len(s.cols), Qualifiers: qualifiers})
}

func (s *scope) addFromSchema(sch sqltypes.Schema, qualifiers ...string) {
	for _, c := range sch.Columns {
		s.add(c.Name, c.Type, qualifiers...)
	}
}

func hasQualifier(c scopeColumn, q string) bool {
	for _, qq := range c.Qualifiers {
		if strings.EqualFold(qq, q) {
			return true
		}
	}
	return false
}

// byName returns every column matching name exactly, case-sensitively
// first, falling back to a case-insensitive match if none do.
func (s *scope) byName(name string) []scopeColumn {
	var exact []scopeColumn
	for _, c := range s.cols {
		if c.Name == name {
			exact = append(exact, c)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	var ci []scopeColumn
	for _, c := range s.cols {
		if strings.EqualFold(c.Name, name) {
			ci = append(ci, c)
		}
	}
	return ci
}

// byQualifiedName returns columns matching (qualifier, name).
func (s *scope) byQualifiedName(qualifier, name string) []scopeColumn {
	var out []scopeColumn
	for _, c := range s.cols {
		if hasQualifier(c, qualifier) && strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
	}
	return out
}

// expandStar returns every column in scope order, optionally
// restricted to one relation qualifier (spec.md §4.1 "* / qualifier.*").
func (s *scope) expandStar(qualifier string) []scopeColumn {
	if qualifier == "" {
		return append([]scopeColumn(nil), s.cols...)
	}
	var out []scopeColumn
	for _, c := range s.cols {
		if hasQualifier(c, qualifier) {
			out = append(out, c)
		}
	}
	return out
}
