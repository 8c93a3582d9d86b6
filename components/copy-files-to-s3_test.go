package components_test

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmaitland/salespipe/aws/s3"
	"github.com/dmaitland/salespipe/components"
	c "github.com/dmaitland/salespipe/constants"
	"github.com/dmaitland/salespipe/logger"
	"github.com/dmaitland/salespipe/stream"
)

// fakeS3Client records BufferPut and List calls so tests can assert uploads
// and their verification without AWS.
type fakeS3Client struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	listCalls    int
}

func newFakeS3Client() *fakeS3Client {
	return &fakeS3Client{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
}

func (f *fakeS3Client) List(key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	keys := make([]string, 0)
	for k := range f.objects {
		if strings.HasPrefix(k, key) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeS3Client) BufferPut(key string, buf io.ReadSeeker, contentType string) error {
	data, err := ioutil.ReadAll(buf)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.contentTypes[key] = contentType
	return nil
}

func TestCopyFilesToS3(t *testing.T) {
	log := logger.NewLogger("salespipe", "info", true)
	tmpDir, err := ioutil.TempDir("", "copy-files-to-s3-test")
	if err != nil {
		t.Fatal("Unable to create temp dir: ", err)
	}
	defer os.RemoveAll(tmpDir)
	fileName := "orders_000001.csv"
	filePath := filepath.Join(tmpDir, fileName)
	csvBody := "order_id,customer_name,order_amount,order_date,product\n1,Rick Grimes,150.00,2024-11-18,Widget A\n"
	if err := ioutil.WriteFile(filePath, []byte(csvBody), 0644); err != nil {
		t.Fatal("Unable to write test CSV file: ", err)
	}

	inputChan := make(chan stream.Record, c.ChanSize)
	rec := stream.NewRecord()
	rec.SetData(components.Defaults.ChanField4CSVFileName, filePath)
	inputChan <- rec
	close(inputChan)

	fake := newFakeS3Client()
	cfg := &components.CopyFilesToS3Config{
		Log:               log,
		Name:              "Test CopyFilesToS3",
		InputChan:         inputChan,
		FileNameChanField: components.Defaults.ChanField4CSVFileName,
		BucketName:        "s3://test-bucket",
		BucketPrefix:      "raw/orders",
		Region:            "eu-west-1",
		ContentType:       "text/csv",
		RemoveInputFiles:  true,
		ClientFactory: func(bucketName, region, bucketPrefix string) s3.BasicClient {
			if bucketName != "test-bucket" {
				t.Fatal("Expected bucket name test-bucket without the s3:// prefix; got ", bucketName)
			}
			return fake
		},
	}
	outputChan, _ := components.NewCopyFilesToS3(cfg)

	// Assert that the input row was forwarded downstream.
	rowCount := 0
	for rec := range outputChan {
		rowCount++
		if got := rec.GetDataAsString(log, components.Defaults.ChanField4CSVFileName); got != filePath {
			t.Fatal("Expected file path ", filePath, " on output channel; got ", got)
		}
	}
	if rowCount != 1 {
		t.Fatal("Expected 1 output row; got ", rowCount)
	}
	// Assert the upload happened with the file base name as the key.
	data, ok := fake.objects[fileName]
	if !ok {
		t.Fatal("Expected object ", fileName, " in fake bucket")
	}
	if string(data) != csvBody {
		t.Fatal("Unexpected object body: ", string(data))
	}
	if got := fake.contentTypes[fileName]; got != "text/csv" {
		t.Fatal("Expected content type text/csv; got ", got)
	}
	// Assert the upload was verified against the bucket listing.
	if fake.listCalls != 1 {
		t.Fatal("Expected 1 List call to verify the upload; got ", fake.listCalls)
	}
	// Assert the local file was removed after the move.
	if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		t.Fatal("Expected local file to be removed after upload")
	}
}
