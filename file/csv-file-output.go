package file

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"regexp"

	"github.com/dmaitland/salespipe/logger"
)

// CSVFileOutput writes CSV records to OS files that rotate after a configured
// number of data rows. Each new file is written with the stored header row.
type CSVFileOutput struct {
	log               logger.Logger
	directory         string // empty string means a system generated directory in OS temp space.
	prefix            string
	extension         string
	headerRecord      []string
	maxFileRows       int
	useGzip           bool
	csvWriter         *csv.Writer
	file              *os.File
	gzWriter          *gzip.Writer
	bufWriter         *bufio.Writer
	currentSuffixID   int
	currentName       string
	currentRowCount   int
	totalRowCount     int
	needNewFile       bool
	needFileCleanup   bool
	ListOfOutputFiles []string
}

// NewCSVFileOutput creates a new CSV file writer. Supply a valid directory or
// empty string to use a temp directory.
// Set maxFileRows to the number of data rows per file (excluding the header),
// or 0 to write everything to a single file.
// Setting useGzip compresses output and forces a '.gz' file extension.
func NewCSVFileOutput(log logger.Logger, outputDirectory string, fileNamePrefix string, fileNameExtension string, maxFileRows int, useGzip bool) CSVFileOutput {
	f := CSVFileOutput{
		log:         log,
		prefix:      fileNamePrefix,
		extension:   fileNameExtension,
		maxFileRows: maxFileRows,
		useGzip:     useGzip,
		needNewFile: true,
	}
	if outputDirectory == "" {
		var err error
		f.directory, err = ioutil.TempDir("", "csv-output-")
		if err != nil {
			log.Panic("Error creating temp directory for CSV files.")
		}
	} else {
		f.directory = outputDirectory
	}
	if useGzip { // if we should use gzip...
		r := regexp.MustCompile(`^(.*?)(\.*)(?i)(gzip|gz){0,}$`) // remove leading '.' and trailing "gz|gzip"
		f.extension = r.ReplaceAllString(f.extension, "$1.gz")
	}
	log.Debug("CSVFileOutput file prefix=", f.prefix, "; extension=", f.extension, "; maxFileRows=", f.maxFileRows, "; useGzip=", f.useGzip)
	return f
}

// SetHeader will store the supplied record for output at the top of each created CSV file.
func (f *CSVFileOutput) SetHeader(record []string) {
	f.headerRecord = record
}

// MustWriteToCSV writes record to the current CSV file, rotating first if needed.
// Return fileName if a new file is created else empty string "".
func (f *CSVFileOutput) MustWriteToCSV(record []string) (fileName string) {
	if f.needNewFile {
		f.Cleanup() // close any prior file.
		f.createNewCSVWriter()
		fileName = f.currentName
		if f.headerRecord != nil {
			if err := f.csvWriter.Write(f.headerRecord); err != nil {
				f.log.Panic("Unable to write header to CSV file: ", err)
			}
		}
	}
	if err := f.csvWriter.Write(record); err != nil {
		f.log.Panic("Unable to write to CSV file: ", err)
	}
	f.currentRowCount++
	f.totalRowCount++
	if f.maxFileRows > 0 && f.currentRowCount >= f.maxFileRows { // if we should rotate the output file...
		f.needNewFile = true
	}
	return
}

// Cleanup can be deferred by the caller to flush the CSV writer and close the OS file.
// It is safe to call repeatedly.
func (f *CSVFileOutput) Cleanup() {
	if f.needFileCleanup {
		f.csvWriter.Flush()
		if err := f.csvWriter.Error(); err != nil {
			f.log.Panic("unable to flush CSV file ", f.currentName, ": ", err)
		}
		if f.useGzip {
			if err := f.bufWriter.Flush(); err != nil {
				f.log.Panic(err)
			}
			if err := f.gzWriter.Close(); err != nil {
				f.log.Panic(err)
			}
		}
		if err := f.file.Close(); err != nil {
			f.log.Panic("unable to close OS file ", f.currentName, ": ", err)
		}
		f.needFileCleanup = false
	}
	f.needNewFile = true
	f.currentRowCount = 0
}

func (f *CSVFileOutput) createNewCSVWriter() {
	f.currentSuffixID++
	f.currentName = path.Join(f.directory, fmt.Sprintf("%v_%06d.%v", f.prefix, f.currentSuffixID, f.extension))
	f.ListOfOutputFiles = append(f.ListOfOutputFiles, f.currentName)
	f.log.Info("Creating new CSV file '", f.currentName, "'")
	var err error
	f.file, err = os.Create(f.currentName)
	if err != nil {
		f.log.Panic("Unable to create OS file with name: ", f.currentName)
	}
	if f.useGzip { // if we should compress...
		f.gzWriter = gzip.NewWriter(f.file)
		f.bufWriter = bufio.NewWriter(f.gzWriter)
		f.csvWriter = csv.NewWriter(f.bufWriter)
	} else {
		f.csvWriter = csv.NewWriter(f.file)
	}
	f.needFileCleanup = true
	f.needNewFile = false
}
