package helper

import (
	"reflect"
	"testing"
	"time"

	"github.com/dmaitland/salespipe/logger"
)

func TestCsvToStringSliceTrimSpaces(t *testing.T) {
	got := CsvToStringSliceTrimSpaces("order_id, customer_name ,product")
	expected := []string{"order_id", "customer_name", "product"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v; got %v", expected, got)
	}
}

func TestGetStringFromInterface(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	tests := []struct {
		input    interface{}
		expected string
	}{
		{42, "42"},
		{int64(42), "42"},
		{"Widget A", "Widget A"},
		{float64(150.5), "150.5"},
		{float32(2.5), "2.5"},
		{time.Date(2024, 11, 18, 9, 0, 0, 0, time.UTC), "2024-11-18"},
		{[]uint8("bytes"), "bytes"},
		{true, "true"},
		{nil, ""},
	}
	for _, tc := range tests {
		if got := GetStringFromInterface(log, tc.input); got != tc.expected {
			t.Fatalf("expected %q; got %q for input %v", tc.expected, got, tc.input)
		}
	}
}

func TestSplitRight(t *testing.T) {
	l, r := SplitRight("schema.table", ".")
	if l != "schema" || r != "table" {
		t.Fatalf("expected schema/table; got %q/%q", l, r)
	}
	l, r = SplitRight("table", ".")
	if l != "table" || r != "" {
		t.Fatalf("expected table and empty string; got %q/%q", l, r)
	}
}

func TestAtomBool(t *testing.T) {
	b := AtomBool{}
	if b.Get() {
		t.Fatal("expected new AtomBool to be false")
	}
	b.Set(true)
	if !b.Get() {
		t.Fatal("expected AtomBool to be true after Set(true)")
	}
	b.Set(false)
	if b.Get() {
		t.Fatal("expected AtomBool to be false after Set(false)")
	}
}

func TestValidateStructIsPopulated(t *testing.T) {
	type cfg struct {
		TableName string `errorTxt:"[<schema>.]<table>" mandatory:"yes"`
		Optional  string `errorTxt:"optional thing"`
	}
	if err := ValidateStructIsPopulated(&cfg{TableName: "sales_orders"}); err != nil {
		t.Fatal("expected populated struct to validate; got ", err)
	}
	err := ValidateStructIsPopulated(&cfg{})
	if err == nil {
		t.Fatal("expected an error for unset mandatory field")
	}
}
