package components

import (
	"fmt"
	"sync/atomic"
	"time"

	c "github.com/dmaitland/salespipe/constants"
	f "github.com/dmaitland/salespipe/file"
	"github.com/dmaitland/salespipe/logger"
	s "github.com/dmaitland/salespipe/stats"
	"github.com/dmaitland/salespipe/stream"
)

type CsvFileWriterConfig struct {
	Log                               logger.Logger
	Name                              string
	InputChan                         chan stream.Record // the input channel of rows to write to an output CSV file.
	OutputDir                         string             // set to empty string to use a system generated sub directory in OS temp space.
	FileNamePrefix                    string
	FileNameSuffixAppendCreationStamp bool
	FileNameSuffixDateFormat          string
	FileNameExtension                 string
	UseGzip                           bool
	MaxFileRows                       int
	HeaderFields                      []string // the slice of key names found in InputChan used as the CSV header, in order.
	OutputChanField4FilePath          string   // the field on outputChan that will contain the file name.
	StepWatcher                       *s.StepWatcher
	WaitCounter                       ComponentWaiter
	PanicHandlerFn                    PanicHandlerFunc
}

// NewCsvFileWriter dumps cfg.InputChan to CSV files per cfg.
// The CSV header must be specified so this func can pull the map values from
// input records in the correct column order.
// outputChan contains one record per CSV file produced, holding the file path;
// input records themselves are not forwarded.
func NewCsvFileWriter(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CsvFileWriterConfig)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing input channel.")
	}
	if len(cfg.HeaderFields) == 0 {
		cfg.Log.Panic(cfg.Name, " error - missing CSV header fields.")
	}
	if cfg.OutputChanField4FilePath == "" {
		cfg.OutputChanField4FilePath = Defaults.ChanField4CSVFileName
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		cfg.Log.Info(cfg.Name, " is running")
		var filePrefix string
		if cfg.FileNameSuffixAppendCreationStamp { // if we should append the creation time stamp to the file name...
			if cfg.FileNameSuffixDateFormat == "" {
				cfg.FileNameSuffixDateFormat = c.TimeFormatYearSeconds
			}
			filePrefix = fmt.Sprintf("%v-%v", cfg.FileNamePrefix, time.Now().Format(cfg.FileNameSuffixDateFormat))
		} else {
			filePrefix = cfg.FileNamePrefix
		}
		cfg.Log.Debug(cfg.Name, " starting NewCSVFileOutput with config: outputDir=", cfg.OutputDir, "; filePrefix=", filePrefix, "; extension=", cfg.FileNameExtension, "; maxFileRows=", cfg.MaxFileRows)
		// CSV files are created lazily upon first write.
		fo := f.NewCSVFileOutput(cfg.Log, cfg.OutputDir, filePrefix, cfg.FileNameExtension, cfg.MaxFileRows, cfg.UseGzip)
		defer fo.Cleanup()
		fo.SetHeader(cfg.HeaderFields)
		rowCount := int64(0)
		if cfg.StepWatcher != nil { // if we have been given a StepWatcher that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		var prevFileName, curFileName, fileName string
		var controlAction ControlAction
		sendFileName := func(fileName string, doCleanup bool) (rowSentOK bool) {
			if doCleanup {
				fo.Cleanup() // force closure of the last CSV file.
			}
			row := stream.NewRecord()
			row.SetData(cfg.OutputChanField4FilePath, fileName)
			cfg.Log.Debug(cfg.Name, " producing filename as a row onto the output channel: ", row)
			return safeSend(row, outputChan, controlChan, sendNilControlResponse)
		}
		for { // for each row of input...
			select {
			case rec, ok := <-cfg.InputChan:
				if !ok { // if the input channel was closed...
					cfg.InputChan = nil // disable this case.
				} else {
					atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
					fileName = fo.MustWriteToCSV(rec.GetDataKeysAsSlice(cfg.Log, cfg.HeaderFields))
					if fileName != "" { // if writing caused a new file to open...
						// The prior file (if any) is now complete so emit its name downstream.
						prevFileName = curFileName
						curFileName = fileName
						if prevFileName != "" {
							if rowSentOK := sendFileName(prevFileName, false); !rowSentOK {
								cfg.Log.Info(cfg.Name, " shutdown")
								return
							}
						}
					}
				}
			case controlAction = <-controlChan:
				controlChan = nil
			}
			if controlChan == nil || cfg.InputChan == nil { // if we should quit due to a shutdown request or the end of input...
				break
			}
		}
		if controlAction.Action == Shutdown { // if we were asked to shutdown...
			controlAction.ResponseChan <- nil // respond that we're done with a nil error.
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		// Produce the final file name onto the output channel.
		if curFileName != "" {
			if rowSentOK := sendFileName(curFileName, true); !rowSentOK {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
