package generate

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestOrdersSequenceAndRanges(t *testing.T) {
	g := NewSeededGenerator(42)
	numOrders := 500
	orders := g.Orders(numOrders)
	if len(orders) != numOrders {
		t.Fatal("Expected ", numOrders, " orders; got ", len(orders))
	}
	today := truncateToDate(time.Now())
	oldest := today.AddDate(0, 0, -30)
	for idx, o := range orders { // for each generated order...
		if o.OrderId != idx+1 {
			t.Fatal("Expected order_id ", idx+1, "; got ", o.OrderId)
		}
		if o.OrderAmount < 10.0 || o.OrderAmount > 1000.0 {
			t.Fatal("order_amount out of range: ", o.OrderAmount)
		}
		// Max 2 decimal digits.
		cents := o.OrderAmount * 100
		if math.Abs(cents-math.Round(cents)) > 1e-6 {
			t.Fatal("order_amount has more than 2 decimal digits: ", o.OrderAmount)
		}
		if o.OrderDate.Before(oldest) || o.OrderDate.After(today) {
			t.Fatal("order_date outside the 30 day window: ", o.OrderDate)
		}
		if o.CustomerName == "" {
			t.Fatal("expected a customer name for order ", o.OrderId)
		}
		if o.Product == "" || strings.Contains(o.Product, " ") {
			t.Fatal("expected a single word product token; got ", o.Product)
		}
	}
}

func TestWriteCSVHeaderOnlyForZeroOrders(t *testing.T) {
	g := NewSeededGenerator(1)
	b := &bytes.Buffer{}
	if err := WriteCSV(b, g.Orders(0)); err != nil {
		t.Fatal("unexpected error writing CSV: ", err)
	}
	expected := "order_id,customer_name,order_amount,order_date,product\n"
	if b.String() != expected {
		t.Fatal("Expected header only; got ", b.String())
	}
}

func TestWriteCSVThreeOrders(t *testing.T) {
	g := NewSeededGenerator(1)
	b := &bytes.Buffer{}
	if err := WriteCSV(b, g.Orders(3)); err != nil {
		t.Fatal("unexpected error writing CSV: ", err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatal("Expected 4 lines; got ", len(lines))
	}
	if got := strings.Split(lines[1], ",")[0]; got != "1" {
		t.Fatal("Expected first data row order_id 1; got ", got)
	}
	if got := strings.Split(lines[3], ",")[0]; got != "3" {
		t.Fatal("Expected last data row order_id 3; got ", got)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	g := NewSeededGenerator(99)
	b := &bytes.Buffer{}
	if err := WriteCSV(b, g.Orders(50)); err != nil {
		t.Fatal("unexpected error writing CSV: ", err)
	}
	records, err := csv.NewReader(b).ReadAll()
	if err != nil {
		t.Fatal("unable to parse generated CSV: ", err)
	}
	if len(records) != 51 {
		t.Fatal("Expected 51 CSV records; got ", len(records))
	}
	header := "order_id,customer_name,order_amount,order_date,product"
	if strings.Join(records[0], ",") != header {
		t.Fatal("bad header: ", records[0])
	}
	today := truncateToDate(time.Now())
	for idx, rec := range records[1:] { // for each data row...
		if len(rec) != 5 {
			t.Fatal("Expected 5 fields; got ", len(rec))
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil || id != idx+1 {
			t.Fatal("bad order_id: ", rec[0])
		}
		amount, err := strconv.ParseFloat(rec[2], 64)
		if err != nil || amount < 10.0 || amount > 1000.0 {
			t.Fatal("bad order_amount: ", rec[2])
		}
		if parts := strings.Split(rec[2], "."); len(parts) != 2 || len(parts[1]) != 2 {
			t.Fatal("Expected exactly 2 decimal places; got ", rec[2])
		}
		date, err := time.ParseInLocation("2006-01-02", rec[3], time.Local)
		if err != nil {
			t.Fatal("bad order_date: ", rec[3])
		}
		if date.Before(today.AddDate(0, 0, -30)) || date.After(today) {
			t.Fatal("order_date outside the 30 day window: ", rec[3])
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := map[float64]string{
		10.0:   "10.00",
		999.99: "999.99",
		150.5:  "150.50",
	}
	for in, expected := range tests {
		if got := FormatAmount(in); got != expected {
			t.Fatal("Expected ", expected, "; got ", got)
		}
	}
}
