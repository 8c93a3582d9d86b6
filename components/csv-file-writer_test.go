package components_test

import (
	"io/ioutil"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/dmaitland/salespipe/components"
	c "github.com/dmaitland/salespipe/constants"
	"github.com/dmaitland/salespipe/logger"
	"github.com/dmaitland/salespipe/stream"
)

func TestCsvFileWriter(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	tmpDir, err := ioutil.TempDir("", "csv-file-writer-test")
	if err != nil {
		t.Fatal("Unable to create temp dir: ", err)
	}
	defer os.RemoveAll(tmpDir)

	// Setup orders on the inputChan - 4 rows with max 3 per file forces a rotation.
	inputChan := make(chan stream.Record, c.ChanSize)
	orders := [][]interface{}{
		{1, "Rick Grimes", "150.00", "2024-11-18", "Widget A"},
		{2, "Maggie Greene", "75.50", "2024-11-19", "Widget B"},
		{3, "Daryl Dixon", "620.10", "2024-11-20", "Widget C"},
		{4, "Carol Peletier", "12.34", "2024-11-21", "Widget D"},
	}
	for _, o := range orders {
		rec := stream.NewRecord()
		rec.SetData(c.OrderFieldId, o[0])
		rec.SetData(c.OrderFieldCustomerName, o[1])
		rec.SetData(c.OrderFieldAmount, o[2])
		rec.SetData(c.OrderFieldDate, o[3])
		rec.SetData(c.OrderFieldProduct, o[4])
		inputChan <- rec
	}
	close(inputChan)

	cfg := &components.CsvFileWriterConfig{
		Log:               log,
		Name:              "Test CsvFileWriter",
		InputChan:         inputChan,
		OutputDir:         tmpDir,
		FileNamePrefix:    "orders",
		FileNameExtension: "csv",
		MaxFileRows:       3,
		HeaderFields:      c.OrderCsvHeader,
	}
	outputChan, _ := components.NewCsvFileWriter(cfg)

	// Collect the file names produced.
	fileNames := make([]string, 0)
	for rec := range outputChan {
		fileNames = append(fileNames, rec.GetDataAsString(log, components.Defaults.ChanField4CSVFileName))
	}
	if len(fileNames) != 2 {
		t.Fatal("Expected 2 CSV files; got ", len(fileNames))
	}

	// Check file contents: header plus data rows in input order.
	expectedHeader := strings.Join(c.OrderCsvHeader, ",")
	b, err := ioutil.ReadFile(fileNames[0])
	if err != nil {
		t.Fatal("Unable to read first CSV file: ", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatal("Expected 4 lines in first CSV file; got ", len(lines))
	}
	if lines[0] != expectedHeader {
		t.Fatal("Expected header ", expectedHeader, "; got ", lines[0])
	}
	if lines[1] != "1,Rick Grimes,150.00,2024-11-18,Widget A" {
		t.Fatal("Unexpected first data row: ", lines[1])
	}
	b, err = ioutil.ReadFile(fileNames[1])
	if err != nil {
		t.Fatal("Unable to read second CSV file: ", err)
	}
	lines = strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatal("Expected 2 lines in second CSV file; got ", len(lines))
	}
	if lines[1] != "4,Carol Peletier,12.34,2024-11-21,Widget D" {
		t.Fatal("Unexpected data row in second file: ", lines[1])
	}
}

// File names carry a creation time stamp when requested so staged uploads
// don't collide across runs.
func TestCsvFileWriterTimestampSuffix(t *testing.T) {
	log := logger.NewLogger("salespipe", "error", true)
	tmpDir, err := ioutil.TempDir("", "csv-file-writer-stamp-test")
	if err != nil {
		t.Fatal("Unable to create temp dir: ", err)
	}
	defer os.RemoveAll(tmpDir)
	inputChan := make(chan stream.Record, 1)
	rec := stream.NewRecord()
	rec.SetData(c.OrderFieldId, 1)
	rec.SetData(c.OrderFieldCustomerName, "Rick Grimes")
	rec.SetData(c.OrderFieldAmount, "150.00")
	rec.SetData(c.OrderFieldDate, "2024-11-18")
	rec.SetData(c.OrderFieldProduct, "Widget A")
	inputChan <- rec
	close(inputChan)
	cfg := &components.CsvFileWriterConfig{
		Log:                               log,
		Name:                              "Test CsvFileWriter stamp",
		InputChan:                         inputChan,
		OutputDir:                         tmpDir,
		FileNamePrefix:                    "orders",
		FileNameSuffixAppendCreationStamp: true,
		FileNameExtension:                 "csv",
		HeaderFields:                      c.OrderCsvHeader,
	}
	outputChan, _ := components.NewCsvFileWriter(cfg)
	fileNames := make([]string, 0)
	for rec := range outputChan {
		fileNames = append(fileNames, rec.GetDataAsString(log, components.Defaults.ChanField4CSVFileName))
	}
	if len(fileNames) != 1 {
		t.Fatal("Expected 1 CSV file; got ", len(fileNames))
	}
	re := regexp.MustCompile("orders-" + c.TimeFormatYearSecondsRegex + `_[0-9]{6}\.csv$`)
	if !re.MatchString(fileNames[0]) {
		t.Fatal("Expected a time stamped file name; got ", fileNames[0])
	}
}

func TestCsvFileWriterNoInputRows(t *testing.T) {
	log := logger.NewLogger("salespipe", "error", true)
	inputChan := make(chan stream.Record)
	close(inputChan)
	cfg := &components.CsvFileWriterConfig{
		Log:               log,
		Name:              "Test CsvFileWriter empty",
		InputChan:         inputChan,
		FileNamePrefix:    "orders",
		FileNameExtension: "csv",
		HeaderFields:      c.OrderCsvHeader,
	}
	outputChan, _ := components.NewCsvFileWriter(cfg)
	fileCount := 0
	for range outputChan {
		fileCount++
	}
	if fileCount != 0 {
		t.Fatal("Expected no CSV files for empty input; got ", fileCount)
	}
}
