package file

import (
	"compress/gzip"
	"encoding/csv"
	"os"
	"regexp"
	"testing"

	"github.com/dmaitland/salespipe/logger"
)

var header = []string{"order_id", "customer_name"}

var data = [][]string{
	{"1", "Rick Grimes"},
	{"2", "Maggie Greene"},
	{"3", "Glenn Rhee"},
	{"4", "Carol Peletier"}}

func TestCSVFileOutputRotation(t *testing.T) {
	log := logger.NewLogger("csv test", "error", true)

	// Test 1 - rotate after 3 rows.
	out := NewCSVFileOutput(log, "", "orders", "csv", 3, false)
	out.SetHeader(header)
	fileNames := make([]string, 0)
	for _, value := range data {
		if fileName := out.MustWriteToCSV(value); fileName != "" {
			fileNames = append(fileNames, fileName)
		}
	}
	out.Cleanup()
	if len(fileNames) != 2 {
		t.Fatal("Expected 2 CSV files; got ", len(fileNames))
	}

	// Read back file 1: header plus first 3 data rows.
	f1, err := os.Open(fileNames[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f1.Close()
	r1, _ := csv.NewReader(f1).ReadAll()
	if len(r1) != 4 {
		t.Fatal("Expected 4 records in file 1; got ", len(r1))
	}
	if r1[0][0] != header[0] || r1[0][1] != header[1] {
		t.Fatal("read bad header ", r1[0])
	}
	for idx := 0; idx < 3; idx++ { // for each data row in file 1...
		if r1[idx+1][0] != data[idx][0] || r1[idx+1][1] != data[idx][1] {
			t.Fatal("read bad record ", r1[idx+1])
		}
	}

	// Read back file 2: header plus the final row.
	f2, err := os.Open(fileNames[1])
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()
	r2, _ := csv.NewReader(f2).ReadAll()
	if len(r2) != 2 {
		t.Fatal("Expected 2 records in file 2; got ", len(r2))
	}
	if r2[1][0] != data[3][0] || r2[1][1] != data[3][1] {
		t.Fatal("read bad record ", r2[1])
	}
}

func TestCSVFileOutputGzip(t *testing.T) {
	log := logger.NewLogger("csv test", "error", true)
	out := NewCSVFileOutput(log, "", "orders", "csv", 0, true)
	out.SetHeader(header)
	fileNames := make([]string, 0)
	for _, value := range data {
		if fileName := out.MustWriteToCSV(value); fileName != "" {
			if ok, _ := regexp.MatchString(`.*\.gz`, fileName); !ok {
				t.Fatal("csv file is missing .gz extension: ", fileName)
			}
			fileNames = append(fileNames, fileName)
		}
	}
	out.Cleanup()
	if len(fileNames) != 1 {
		t.Fatal("Expected 1 CSV file; got ", len(fileNames))
	}
	f, err := os.Open(fileNames[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatal("unable to open gzip reader: ", err)
	}
	records, _ := csv.NewReader(gz).ReadAll()
	if len(records) != 5 {
		t.Fatal("Expected 5 records; got ", len(records))
	}
	if records[0][0] != header[0] || records[0][1] != header[1] {
		t.Fatal("read bad header from gzipped csv: ", records[0])
	}
}
