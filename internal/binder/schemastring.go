package binder

import (
	"github.com/retl-io/retl/internal/errs"
	"github.com/retl-io/retl/internal/sqltypes"
	"github.com/retl-io/retl/parser"
)

// ResolveSchema parses a spec.md §6 schema string ("struct<...>" or a
// bare "name Type [NOT NULL], ..." column list) into a Schema, the
// form connectors use to type an external source or sink. It is the
// one entry point into the binder's type machinery that doesn't
// require a query to bind.
func ResolveSchema(schemaString string) (sqltypes.Schema, error) {
	dt, err := ResolveSchemaType(schemaString)
	if err != nil {
		return sqltypes.Schema{}, err
	}
	cols := make([]sqltypes.Column, len(dt.Fields))
	for i, f := range dt.Fields {
		cols[i] = sqltypes.Column{Name: f.Name, Type: f.Type}
	}
	schema, err := sqltypes.NewSchema(cols...)
	if err != nil {
		return sqltypes.Schema{}, errs.NewBindError(errs.InvalidSchemaString, "%v", err)
	}
	return schema, nil
}

// ResolveSchemaType parses a spec.md §6 schema string into its
// Struct-kind DataType, without the Schema/Column wrapping ResolveSchema
// adds. from_json's bind-time return-type resolution uses this
// directly: it needs the DataType, not a connector Schema.
func ResolveSchemaType(schemaString string) (sqltypes.DataType, error) {
	node, err := parser.ParseSchemaString(schemaString)
	if err != nil {
		return sqltypes.DataType{}, errs.NewBindError(errs.InvalidSchemaString, "%v", err)
	}
	return dataTypeFromAST(node)
}
