package actions

import (
	"strings"
	"testing"

	"github.com/dmaitland/salespipe/rdbms"
)

func TestSqlCreateOrdersTable(t *testing.T) {
	got := getSqlCreateOrdersTable(rdbms.SchemaTable{SchemaTable: "demo.sales_orders"})
	expected := "create table if not exists demo.sales_orders (" +
		"order_id integer, customer_name varchar, order_amount float, order_date date, product varchar)"
	if got != expected {
		t.Fatal("Expected ", expected, "; got ", got)
	}
}

func TestSqlCreateInsertOrderProcedure(t *testing.T) {
	got := getSqlCreateInsertOrderProcedure("insert_order", rdbms.SchemaTable{SchemaTable: "sales_orders"})
	if !strings.HasPrefix(got, "create or replace procedure insert_order(") {
		t.Fatal("Unexpected procedure DDL prefix: ", got)
	}
	if !strings.Contains(got, "insert into sales_orders (order_id, customer_name, order_amount, order_date, product)") {
		t.Fatal("Expected procedure DDL to insert into sales_orders; got ", got)
	}
	if !strings.Contains(got, "values (:order_id, :customer_name, :order_amount, :order_date, :product)") {
		t.Fatal("Expected procedure DDL to bind the procedure arguments; got ", got)
	}
}

func TestSqlCallInsertOrderProcedure(t *testing.T) {
	got := getSqlCallInsertOrderProcedure("insert_order")
	expected := "call insert_order(234, 'Rick Grimes', 150.00, '2024-11-18', 'Widget A')"
	if got != expected {
		t.Fatal("Expected ", expected, "; got ", got)
	}
}

func TestSqlCategoryTransform(t *testing.T) {
	got := getSqlCategoryTransform(
		rdbms.SchemaTable{SchemaTable: "sales_orders_categorised"},
		rdbms.SchemaTable{SchemaTable: "sales_orders"})
	if !strings.HasPrefix(got, "create or replace table sales_orders_categorised as select ") {
		t.Fatal("Unexpected category transform prefix: ", got)
	}
	// Bucket boundaries: < 100 Small, 100-500 inclusive Medium, else Large.
	if !strings.Contains(got, "when order_amount < 100 then 'Small'") {
		t.Fatal("Expected Small bucket in category transform; got ", got)
	}
	if !strings.Contains(got, "when order_amount between 100 and 500 then 'Medium'") {
		t.Fatal("Expected Medium bucket in category transform; got ", got)
	}
	if !strings.Contains(got, "else 'Large'") {
		t.Fatal("Expected Large bucket in category transform; got ", got)
	}
	if !strings.Contains(got, "current_timestamp() as load_timestamp") {
		t.Fatal("Expected load_timestamp column in category transform; got ", got)
	}
	if !strings.HasSuffix(got, "from sales_orders") {
		t.Fatal("Expected category transform to read from sales_orders; got ", got)
	}
}

func TestSqlCustomerTotalsTransform(t *testing.T) {
	got := getSqlCustomerTotalsTransform(
		rdbms.SchemaTable{SchemaTable: "customer_totals"},
		rdbms.SchemaTable{SchemaTable: "sales_orders"})
	expected := "create or replace table customer_totals as " +
		"select customer_name, count(order_id) as number_of_orders, sum(order_amount) as total_spent " +
		"from sales_orders group by customer_name order by customer_name"
	if got != expected {
		t.Fatal("Expected ", expected, "; got ", got)
	}
}
