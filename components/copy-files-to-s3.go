package components

import (
	"os"
	"path"
	"strings"
	"sync/atomic"

	"github.com/dmaitland/salespipe/aws/s3"
	c "github.com/dmaitland/salespipe/constants"
	"github.com/dmaitland/salespipe/logger"
	"github.com/dmaitland/salespipe/stats"
	"github.com/dmaitland/salespipe/stream"
)

// S3ClientFactory returns a client for the target bucket. Tests supply a fake.
type S3ClientFactory func(bucketName, region, bucketPrefix string) s3.BasicClient

type CopyFilesToS3Config struct {
	Log               logger.Logger
	Name              string
	InputChan         chan stream.Record // the input channel of rows containing files (with full paths) to copy/move to S3.
	FileNameChanField string             // name of the field in InputChan that contains the files to move.
	BucketName        string             // target bucket, with or without the s3:// prefix.
	BucketPrefix      string
	Region            string
	ContentType       string // optional Content-Type set on uploaded objects e.g. "text/csv".
	RemoveInputFiles  bool   // true to delete the input files after successful copy to S3.
	ClientFactory     S3ClientFactory
	StepWatcher       *stats.StepWatcher
	WaitCounter       ComponentWaiter
	PanicHandlerFn    PanicHandlerFunc
}

// NewCopyFilesToS3 copies OS files named on the input channel to S3.
// Input rows are forwarded to outputChan after a successful upload.
func NewCopyFilesToS3(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*CopyFilesToS3Config)
	if cfg.PanicHandlerFn != nil {
		defer cfg.PanicHandlerFn()
	}
	if cfg.InputChan == nil {
		cfg.Log.Panic(cfg.Name, " error - missing chan input in call to NewCopyFilesToS3.")
	}
	if cfg.FileNameChanField == "" {
		cfg.Log.Panic(cfg.Name, " error - missing the field name used to find files on the input channel.")
	}
	if cfg.BucketName == "" {
		cfg.Log.Panic(cfg.Name, " error - missing target bucket name.")
	}
	cfg.BucketName = strings.TrimPrefix(cfg.BucketName, c.ConnectionTypeS3+"://")
	if cfg.Region == "" {
		cfg.Log.Panic(cfg.Name, " error - missing AWS region.")
	}
	if cfg.ClientFactory == nil {
		cfg.ClientFactory = func(bucketName, region, bucketPrefix string) s3.BasicClient {
			return s3.NewBasicClient(bucketName, region, bucketPrefix)
		}
	}
	cfg.Log.Debug(cfg.Name, ": RemoveInputFiles = ", cfg.RemoveInputFiles)
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	go func() {
		if cfg.PanicHandlerFn != nil {
			defer cfg.PanicHandlerFn()
		}
		cfg.Log.Info(cfg.Name, " is running")
		if cfg.WaitCounter != nil {
			cfg.WaitCounter.Add()
			defer cfg.WaitCounter.Done()
		}
		rowCount := int64(0)
		if cfg.StepWatcher != nil { // if we have been given a StepWatcher that can watch our rowCount and output channel length...
			cfg.StepWatcher.StartWatching(&rowCount, &outputChan)
			defer cfg.StepWatcher.StopWatching()
		}
		client := cfg.ClientFactory(cfg.BucketName, cfg.Region, cfg.BucketPrefix)
		for {
			select {
			case rec, ok := <-cfg.InputChan: // for each row of input...
				if !ok { // if the input channel was closed...
					cfg.InputChan = nil // disable this case.
				} else {
					atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
					fileFullPathName := rec.GetDataAsString(cfg.Log, cfg.FileNameChanField)
					if fileFullPathName != "" {
						_, fileName := path.Split(fileFullPathName)
						uploadFileToS3(cfg, client, fileFullPathName, fileName)
						if cfg.RemoveInputFiles { // if we are requested to move the file instead of just copy...
							if err := os.Remove(fileFullPathName); err != nil {
								cfg.Log.Panic(cfg.Name, " unable to remove OS file, ", fileFullPathName)
							}
							cfg.Log.Debug(cfg.Name, " removed file '", fileFullPathName, "'")
						}
						// Pass the input row on to the output channel.
						cfg.Log.Debug(cfg.Name, " producing filename as a row onto the output channel: ", rec.GetDataMap())
						if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
							cfg.Log.Info(cfg.Name, " shutdown")
							return
						}
					} else {
						cfg.Log.Debug(cfg.Name, " no file found in input channel - skipping.")
					}
				}
			case controlAction := <-controlChan: // if we received a shutdown request...
				controlAction.ResponseChan <- nil // respond that we're done with a nil error.
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil { // if all input rows were consumed...
				break
			}
		}
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}

func uploadFileToS3(cfg *CopyFilesToS3Config, client s3.BasicClient, fileFullPathName, fileName string) {
	f, err := os.Open(fileFullPathName) // File implements io.ReadSeeker.
	if err != nil {
		cfg.Log.Panic(cfg.Name, " error - unable to open file, ", fileFullPathName)
	}
	defer func() {
		if err := f.Close(); err != nil {
			cfg.Log.Panic(cfg.Name, " unable to close file ", fileName)
		}
	}()
	action := "copying"
	if cfg.RemoveInputFiles {
		action = "moving"
	}
	cfg.Log.Info(cfg.Name, " ", action, " file '", fileFullPathName, "' to S3 bucket '", path.Join(cfg.BucketName, cfg.BucketPrefix), "'")
	if err := client.BufferPut(fileName, f, cfg.ContentType); err != nil {
		cfg.Log.Panic(cfg.Name, " error uploading file '", fileName, "' to S3: ", err)
	}
	// Confirm the object landed before the local copy can be removed.
	keys, err := client.List(fileName)
	if err != nil {
		cfg.Log.Panic(cfg.Name, " error verifying upload of '", fileName, "': ", err)
	}
	if len(keys) == 0 {
		cfg.Log.Panic(cfg.Name, " uploaded file '", fileName, "' was not found in the bucket")
	}
}
