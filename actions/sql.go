package actions

import (
	"fmt"

	"github.com/dmaitland/salespipe/rdbms"
)

// getSqlCreateOrdersTable generates DDL for the raw orders table matching the
// CSV column layout.
func getSqlCreateOrdersTable(table rdbms.SchemaTable) string {
	return fmt.Sprintf(
		"create table if not exists %v ("+
			"order_id integer, "+
			"customer_name varchar, "+
			"order_amount float, "+
			"order_date date, "+
			"product varchar)",
		table.SchemaTable)
}

// getSqlCreateInsertOrderProcedure generates DDL for a stored procedure that
// inserts a single order into the raw orders table.
func getSqlCreateInsertOrderProcedure(procedureName string, table rdbms.SchemaTable) string {
	return fmt.Sprintf(
		"create or replace procedure %v("+
			"order_id integer, "+
			"customer_name varchar, "+
			"order_amount float, "+
			"order_date date, "+
			"product varchar) "+
			"returns integer "+
			"language sql "+
			"as begin "+
			"insert into %v (order_id, customer_name, order_amount, order_date, product) "+
			"values (:order_id, :customer_name, :order_amount, :order_date, :product); "+
			"return 1; "+
			"end",
		procedureName, table.SchemaTable)
}

// getSqlCallInsertOrderProcedure generates the CALL statement that exercises
// the insert procedure with one known order.
func getSqlCallInsertOrderProcedure(procedureName string) string {
	return fmt.Sprintf("call %v(234, 'Rick Grimes', 150.00, '2024-11-18', 'Widget A')", procedureName)
}

// getSqlCategoryTransform generates SQL that rebuilds the category table from
// the raw orders, bucketing each order by amount and stamping the load time.
func getSqlCategoryTransform(target rdbms.SchemaTable, source rdbms.SchemaTable) string {
	return fmt.Sprintf(
		"create or replace table %v as "+
			"select "+
			"order_id, "+
			"customer_name, "+
			"order_amount, "+
			"case "+
			"when order_amount < 100 then 'Small' "+
			"when order_amount between 100 and 500 then 'Medium' "+
			"else 'Large' "+
			"end as order_category, "+
			"order_date, "+
			"product, "+
			"current_timestamp() as load_timestamp "+
			"from %v",
		target.SchemaTable, source.SchemaTable)
}

// getSqlCustomerTotalsTransform generates SQL that rebuilds the per-customer
// totals table from the raw orders.
func getSqlCustomerTotalsTransform(target rdbms.SchemaTable, source rdbms.SchemaTable) string {
	return fmt.Sprintf(
		"create or replace table %v as "+
			"select "+
			"customer_name, "+
			"count(order_id) as number_of_orders, "+
			"sum(order_amount) as total_spent "+
			"from %v "+
			"group by customer_name "+
			"order by customer_name",
		target.SchemaTable, source.SchemaTable)
}
