package stream

import (
	"reflect"
	"testing"
	"time"

	"github.com/dmaitland/salespipe/logger"
)

func TestRecord_RecordIsNil(t *testing.T) {
	r1 := NewRecord()
	if r1.RecordIsNil() {
		t.Fatal("TestRecord_RecordIsNil: expected a new record (not nil)")
	}
	r2 := Record{}
	if !r2.RecordIsNil() {
		t.Fatal("TestRecord_RecordIsNil: expected zero struct and nil record")
	}
}

func TestRecord_GetDataAsString(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	r1 := NewRecord()
	r1.SetData("orderId", 42)
	r1.SetData("customerName", "Rick Grimes")
	r1.SetData("orderAmount", 150.5)
	r1.SetData("orderDate", time.Date(2024, 11, 18, 10, 30, 0, 0, time.UTC))
	if got := r1.GetDataAsString(log, "orderId"); got != "42" {
		t.Fatalf("expected %q; got %q", "42", got)
	}
	if got := r1.GetDataAsString(log, "customerName"); got != "Rick Grimes" {
		t.Fatalf("expected %q; got %q", "Rick Grimes", got)
	}
	if got := r1.GetDataAsString(log, "orderAmount"); got != "150.5" {
		t.Fatalf("expected %q; got %q", "150.5", got)
	}
	// time.Time values render as calendar dates for CSV output.
	if got := r1.GetDataAsString(log, "orderDate"); got != "2024-11-18" {
		t.Fatalf("expected %q; got %q", "2024-11-18", got)
	}
}

func TestRecord_GetDataKeysAsSlice(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	r1 := NewRecord()
	r1.SetData("keyA", "valueA")
	r1.SetData("keyC", "valueC")
	r1.SetData("keyB", "valueB")
	got := r1.GetDataKeysAsSlice(log, []string{"keyB", "keyA"})
	expected := []string{"valueB", "valueA"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("TestRecord_GetDataKeysAsSlice failed: expected = %v; got = %v", expected, got)
	}
}

func TestRecord_CopyTo(t *testing.T) {
	r1 := NewRecord()
	r1.SetData("keyA", "valueA")
	r2 := NewRecord()
	r1.CopyTo(r2)
	if got := r2.GetData("keyA"); got != "valueA" {
		t.Fatalf("TestRecord_CopyTo failed: expected %q; got %v", "valueA", got)
	}
}
