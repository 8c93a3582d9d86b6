package rdbms

import (
	"github.com/dmaitland/salespipe/helper"
)

// SchemaTable holds a [schema.]table reference for warehouse DDL and DML.
type SchemaTable struct {
	SchemaTable string `errorTxt:"[<schema>.]<object>" mandatory:"yes"`
}

func NewSchemaTable(schema string, table string) SchemaTable {
	if schema == "" {
		return SchemaTable{table}
	}
	return SchemaTable{schema + "." + table}
}

func (st *SchemaTable) String() string {
	return st.SchemaTable
}

// GetTable returns the object name after the last dot so fully qualified
// db.schema.table references resolve to the table.
func (st *SchemaTable) GetTable() string {
	left, right := helper.SplitRight(st.SchemaTable, ".")
	if right == "" { // if we have just a table...
		return left
	}
	return right
}

// GetSchema returns the qualifier before the first dot.
func (st *SchemaTable) GetSchema() string {
	left, right := helper.Split(st.SchemaTable, ".")
	if right == "" { // if we have just a table...
		return ""
	}
	return left
}
