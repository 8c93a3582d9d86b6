package stream

import (
	"fmt"

	h "github.com/dmaitland/salespipe/helper"
	"github.com/dmaitland/salespipe/logger"
)

// Record is used to communicate data between pipeline components.
type Record struct {
	data map[string]interface{} // raw data values, which can represent null database values as nil interfaces.
}

// NewRecord creates a new Record and returns it by value as we expect these
// records to go over channels by value too.
func NewRecord() Record {
	return Record{
		data: make(map[string]interface{}),
	}
}

func NewNilRecord() Record {
	return Record{}
}

func (sr Record) RecordIsNil() bool {
	return len(sr.data) == 0 && sr.data == nil
}

func (sr Record) SetData(name string, value interface{}) {
	sr.data[name] = value
}

func (sr Record) GetData(name string) interface{} {
	val, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("Invalid key name %q supplied while trying to fetch value from record: %v", name, sr.data))
	}
	return val
}

func (sr Record) GetDataMap() map[string]interface{} {
	return sr.data
}

func (sr Record) GetDataLen() int {
	return len(sr.data)
}

// GetDataAsString will convert the named interface{} value to a string.
func (sr Record) GetDataAsString(log logger.Logger, name string) (retval string) {
	v, ok := sr.data[name]
	if !ok {
		panic(fmt.Sprintf("unexpected field %q does not exist in the input stream (bad pipe definition?)", name))
	}
	return h.GetStringFromInterface(log, v)
}

// GetDataKeysAsSlice builds a slice of strings containing the values found in sr.data for each of the supplied
// keys in slice keys.
func (sr Record) GetDataKeysAsSlice(log logger.Logger, keys []string) []string {
	retval := make([]string, 0) // no max capacity so this allows the caller to reuse keys multiple times.
	for _, k := range keys {
		retval = append(retval, sr.GetDataAsString(log, k))
	}
	return retval
}

func (sr Record) CopyTo(t Record) {
	for k, v := range sr.data {
		t.SetData(k, v)
	}
}
