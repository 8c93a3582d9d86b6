package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/dmaitland/salespipe/components"
	c "github.com/dmaitland/salespipe/constants"
	"github.com/dmaitland/salespipe/generate"
	"github.com/dmaitland/salespipe/helper"
	"github.com/dmaitland/salespipe/logger"
	"github.com/dmaitland/salespipe/rdbms"
	"github.com/dmaitland/salespipe/stats"
	"github.com/dmaitland/salespipe/stream"
)

const (
	stepNameGenerate      = "generate-orders"
	stepNameCsvWriter     = "csv-file-writer"
	stepNameCopyToS3      = "copy-files-to-s3"
	stepNameLoader        = "warehouse-loader"
	stepNameSqlTransforms = "sql-transforms"
)

type EltConfig struct {
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
	ExportConfigType          string // set to yaml|json to write the job definition to STDOUT instead of executing.
	// Synthetic data
	NumOrders int   // number of synthetic orders; 0 is valid and produces a header-only CSV.
	Seed      int64 // optional seed for repeatable synthetic data; 0 means random.
	// CSV staging
	OutputDir         string // empty means use a system generated sub directory in OS temp space.
	CsvFileNamePrefix string `errorTxt:"CSV file name prefix" mandatory:"yes"`
	CsvMaxFileRows    int    // 0 means one CSV file regardless of row count.
	CsvGzip           bool   // true to gzip staged CSV files (the warehouse auto-detects compression).
	KeepLocalFiles    bool   // true to keep local CSV files after upload to S3.
	// S3
	BucketName   string `errorTxt:"s3 bucket" mandatory:"yes"`
	BucketPrefix string `errorTxt:"s3 prefix"`
	BucketRegion string `errorTxt:"s3 region" mandatory:"yes"`
	// Warehouse
	TargetDsn           string `errorTxt:"target warehouse DSN" mandatory:"yes"`
	StageName           string `errorTxt:"warehouse stage" mandatory:"yes"`
	OrdersTable         string `errorTxt:"orders [schema.]table" mandatory:"yes"`
	CategoryTable       string `errorTxt:"order category [schema.]table" mandatory:"yes"`
	CustomerTotalsTable string `errorTxt:"customer totals [schema.]table" mandatory:"yes"`
	ProcedureName       string `errorTxt:"insert procedure name" mandatory:"yes"`
	AppendTarget        bool // true appends to the orders table; false deletes existing rows first.
	ExecuteDDL          bool // true creates the orders table if it does not exist.
}

// RunSalesOrdersElt executes the full sales orders ELT job:
// generate synthetic orders, stage them as CSV, upload to S3, COPY INTO the
// warehouse orders table and run the SQL transforms against it.
func RunSalesOrdersElt(cfg *EltConfig) error {
	if cfg.ExportConfigType != "" { // if the user wants the job definition on STDOUT...
		cfg.LogLevel = "error"
	}
	log := logger.NewLogger("salespipe", cfg.LogLevel, cfg.StackDumpOnPanic)
	if err := validateEltConfig(cfg); err != nil {
		return err
	}
	if cfg.ExportConfigType != "" {
		return outputJobDefinition(log, cfg, os.Stdout)
	}
	statsMgr := stats.NewJobStats(log, stats.SetStatsDumpFrequency(cfg.StatsDumpFrequencySeconds))
	return RunSalesOrdersEltWithStats(log, cfg, statsMgr, xid.New().String())
}

// RunSalesOrdersEltWithStats executes the job using the supplied stats manager
// and job id so callers can expose progress while the job runs.
func RunSalesOrdersEltWithStats(log logger.Logger, cfg *EltConfig, statsMgr *stats.JobStatsManager, jobId string) error {
	log.Info("starting sales orders ELT job ", jobId)
	db, err := rdbms.NewConnectionWithDsn(log, cfg.TargetDsn)
	if err != nil {
		return errors.Wrap(err, "unable to connect to the target warehouse")
	}
	defer db.Close()
	ordersTable := rdbms.SchemaTable{SchemaTable: cfg.OrdersTable}
	if cfg.ExecuteDDL {
		if _, err := db.Exec(getSqlCreateOrdersTable(ordersTable)); err != nil {
			return errors.Wrap(err, "unable to create the orders table")
		}
	}
	errChan := make(chan error, 10)
	panicHandler := getPanicHandlerFunc(errChan)
	gw := newGroupWaiter()
	controlChans := make(map[string]chan components.ControlAction) // step name to control channel, used to stop steps after a failure.
	statsMgr.StartDumping()
	defer statsMgr.StopDumping()

	var generator *generate.Generator
	if cfg.Seed != 0 { // if the user wants repeatable synthetic data...
		generator = generate.NewSeededGenerator(cfg.Seed)
	}
	genChan, genControlChan := components.NewGenerateOrderRows(&components.GenerateOrderRowsConfig{
		Log:            log,
		Name:           stepNameGenerate,
		NumOrders:      cfg.NumOrders,
		Generator:      generator,
		StepWatcher:    statsMgr.AddStepWatcher(stepNameGenerate),
		WaitCounter:    gw.newStepComponentWaiter(stepNameGenerate),
		PanicHandlerFn: panicHandler,
	})
	controlChans[stepNameGenerate] = genControlChan
	csvChan, csvControlChan := components.NewCsvFileWriter(&components.CsvFileWriterConfig{
		Log:                               log,
		Name:                              stepNameCsvWriter,
		InputChan:                         genChan,
		OutputDir:                         cfg.OutputDir,
		FileNamePrefix:                    cfg.CsvFileNamePrefix,
		FileNameSuffixAppendCreationStamp: true,
		FileNameExtension:                 "csv",
		MaxFileRows:                       cfg.CsvMaxFileRows,
		UseGzip:                           cfg.CsvGzip,
		HeaderFields:                      c.OrderCsvHeader,
		StepWatcher:                       statsMgr.AddStepWatcher(stepNameCsvWriter),
		WaitCounter:                       gw.newStepComponentWaiter(stepNameCsvWriter),
		PanicHandlerFn:                    panicHandler,
	})
	controlChans[stepNameCsvWriter] = csvControlChan
	s3Chan, s3ControlChan := components.NewCopyFilesToS3(&components.CopyFilesToS3Config{
		Log:               log,
		Name:              stepNameCopyToS3,
		InputChan:         csvChan,
		FileNameChanField: components.Defaults.ChanField4CSVFileName,
		BucketName:        cfg.BucketName,
		BucketPrefix:      cfg.BucketPrefix,
		Region:            cfg.BucketRegion,
		ContentType:       "text/csv",
		RemoveInputFiles:  !cfg.KeepLocalFiles,
		StepWatcher:       statsMgr.AddStepWatcher(stepNameCopyToS3),
		WaitCounter:       gw.newStepComponentWaiter(stepNameCopyToS3),
		PanicHandlerFn:    panicHandler,
	})
	controlChans[stepNameCopyToS3] = s3ControlChan
	loadChan, loadControlChan := components.NewWarehouseLoader(&components.WarehouseLoaderConfig{
		Log:                     log,
		Name:                    stepNameLoader,
		InputChan:               s3Chan,
		Db:                      db,
		InputChanField4FileName: components.Defaults.ChanField4CSVFileName,
		StageName:               cfg.StageName,
		TargetSchemaTableName:   ordersTable,
		DeleteAll:               !cfg.AppendTarget,
		FnGetSqlSlice:           components.GetSqlSliceSnowflakeCopyInto,
		StepWatcher:             statsMgr.AddStepWatcher(stepNameLoader),
		WaitCounter:             gw.newStepComponentWaiter(stepNameLoader),
		PanicHandlerFn:          panicHandler,
	})
	controlChans[stepNameLoader] = loadControlChan
	drainChannel(log, gw, stepNameLoader+" consumer", loadChan, controlChans)
	if err := waitOrShutdown(log, gw, errChan, controlChans); err != nil {
		return errors.Wrap(err, "sales orders load failed")
	}
	log.Info("load complete for job ", jobId, " - running SQL transforms")

	// Feed the transform statements to a SQL exec step in dependency order.
	sqlChan := make(chan stream.Record, c.ChanSize)
	for _, q := range getEltTransformSql(cfg) {
		rec := stream.NewRecord()
		rec.SetData(components.Defaults.ChanField4SqlQuery, q)
		sqlChan <- rec
	}
	close(sqlChan)
	execChan, execControlChan := components.NewSqlExec(&components.SqlExecConfig{
		Log:               log,
		Name:              stepNameSqlTransforms,
		InputChan:         sqlChan,
		SqlQueryFieldName: components.Defaults.ChanField4SqlQuery,
		OutputDb:          db,
		StepWatcher:       statsMgr.AddStepWatcher(stepNameSqlTransforms),
		WaitCounter:       gw.newStepComponentWaiter(stepNameSqlTransforms),
		PanicHandlerFn:    panicHandler,
	})
	controlChans[stepNameSqlTransforms] = execControlChan
	drainChannel(log, gw, stepNameSqlTransforms+" consumer", execChan, controlChans)
	if err := waitOrShutdown(log, gw, errChan, controlChans); err != nil {
		return errors.Wrap(err, "sales orders SQL transforms failed")
	}
	log.Info("sales orders ELT job ", jobId, " complete")
	return nil
}

// getEltTransformSql returns the post-load SQL statements in execution order.
func getEltTransformSql(cfg *EltConfig) []string {
	ordersTable := rdbms.SchemaTable{SchemaTable: cfg.OrdersTable}
	return []string{
		getSqlCreateInsertOrderProcedure(cfg.ProcedureName, ordersTable),
		getSqlCallInsertOrderProcedure(cfg.ProcedureName),
		getSqlCategoryTransform(rdbms.SchemaTable{SchemaTable: cfg.CategoryTable}, ordersTable),
		getSqlCustomerTotalsTransform(rdbms.SchemaTable{SchemaTable: cfg.CustomerTotalsTable}, ordersTable),
	}
}

// drainChannel consumes an unused component output so the pipeline can finish.
// The consumer registers a control channel of its own so it can be stopped when
// the step feeding it has failed and will never close its output.
func drainChannel(log logger.Logger, gw *groupWaiter, name string, ch chan stream.Record, controlChans map[string]chan components.ControlAction) {
	controlChan := make(chan components.ControlAction, 1)
	controlChans[name] = controlChan
	w := gw.newStepComponentWaiter(name)
	w.Add()
	go func() {
		defer w.Done()
		for {
			select {
			case _, ok := <-ch:
				if !ok { // if there were no more rows...
					return
				}
			case controlAction := <-controlChan: // if we have been asked to shutdown...
				controlAction.ResponseChan <- nil // respond that we're done with a nil error.
				log.Debug("consumer of unused output for step ", name, " was shutdown")
				return
			}
		}
	}()
}

// waitOrShutdown waits for the step group to complete. If a step reports an
// error first, the remaining steps are shut down so the group can finish and
// the error is returned instead of the job hanging on a step that will never
// close its output channel.
func waitOrShutdown(log logger.Logger, gw *groupWaiter, errChan chan error, controlChans map[string]chan components.ControlAction) error {
	chanDone := make(chan struct{})
	go func() {
		gw.Wait()
		close(chanDone)
	}()
	select {
	case <-chanDone: // if all steps completed...
		return firstError(errChan)
	case err := <-errChan: // if a step failed...
		shutdownSteps(log, gw, controlChans)
		<-chanDone
		return err
	}
}

// shutdownSteps asks each step that has not already finished to stop.
func shutdownSteps(log logger.Logger, gw *groupWaiter, controlChans map[string]chan components.ControlAction) {
	for name, controlChan := range controlChans {
		if s, ok := gw.LoadStatus(name); ok && s == StepStatusDone { // if the step already finished (or failed and was cleaned up)...
			log.Debug("shutdown skipped for complete step ", name)
			continue
		}
		a := components.ControlAction{Action: components.Shutdown, ResponseChan: make(chan error, 1)}
		controlChan <- a // the control channel is buffered so we are not blocked here.
		select {
		case <-a.ResponseChan: // wait for a response (discard the error)...
			log.Debug("step ", name, " was shutdown")
		case <-time.After(time.Duration(3) * time.Second): // or abandon the step as it must have ended between the status check and now...
			log.Debug("step ", name, " did not respond to shutdown")
		}
	}
}

// firstError performs a non-blocking read of the error channel.
func firstError(errChan chan error) error {
	select {
	case err := <-errChan:
		return err
	default:
		return nil
	}
}

// getPanicHandlerFunc creates a func that can be deferred in component
// goroutines to recover panics and forward them as errors.
func getPanicHandlerFunc(errChan chan error) components.PanicHandlerFunc {
	once := sync.Once{}
	return func() {
		if r := recover(); r != nil { // if there was a panic...
			var msg string
			x, ok := r.(*logrus.Entry)
			if ok { // if we can cast to *logrus.Entry...
				msg = x.Message
			} else if s, ok := r.(string); ok {
				msg = s
			} else {
				msg = fmt.Sprint(r)
			}
			once.Do(func() { errChan <- errors.New(msg) }) // report the first panic only.
		}
	}
}

func validateEltConfig(cfg *EltConfig) (err error) {
	errs := make([]string, 0)
	helper.GetStructErrorTxt4UnsetFields(cfg, &errs)
	if len(errs) > 0 {
		return fmt.Errorf("please supply values for %v", strings.Join(errs, ", "))
	}
	if cfg.NumOrders < 0 { // zero orders is valid and produces a header-only CSV.
		return fmt.Errorf("the number of orders must be 0 or greater, got %v", cfg.NumOrders)
	}
	return
}

// JobDefinition describes the ELT job steps for export via the --output flag.
type JobDefinition struct {
	JobName string            `json:"jobName"`
	Steps   []JobStepDefinition `json:"steps"`
}

type JobStepDefinition struct {
	Name string            `json:"name"`
	Type string            `json:"type"`
	Data map[string]string `json:"data,omitempty"`
}

func buildJobDefinition(cfg *EltConfig) *JobDefinition {
	sqlData := make(map[string]string)
	for i, q := range getEltTransformSql(cfg) {
		sqlData[fmt.Sprintf("sql%v", i+1)] = q
	}
	return &JobDefinition{
		JobName: "sales-orders-elt",
		Steps: []JobStepDefinition{
			{Name: stepNameGenerate, Type: "GenerateOrderRows", Data: map[string]string{
				"numOrders": fmt.Sprint(cfg.NumOrders)}},
			{Name: stepNameCsvWriter, Type: "CsvFileWriter", Data: map[string]string{
				"fileNamePrefix": cfg.CsvFileNamePrefix,
				"outputDir":      cfg.OutputDir}},
			{Name: stepNameCopyToS3, Type: "CopyFilesToS3", Data: map[string]string{
				"bucketName":   cfg.BucketName,
				"bucketPrefix": cfg.BucketPrefix,
				"bucketRegion": cfg.BucketRegion}},
			{Name: stepNameLoader, Type: "WarehouseLoader", Data: map[string]string{
				"stageName":   cfg.StageName,
				"ordersTable": cfg.OrdersTable,
				"deleteAll":   fmt.Sprint(!cfg.AppendTarget)}},
			{Name: stepNameSqlTransforms, Type: "SqlExec", Data: sqlData},
		},
	}
}

// outputJobDefinition writes the job definition to w in YAML or JSON,
// similar to how kubectl renders resources on STDOUT.
func outputJobDefinition(log logger.Logger, cfg *EltConfig, w io.Writer) error {
	d := buildJobDefinition(cfg)
	var data []byte
	var err error
	switch cfg.ExportConfigType {
	case "yaml":
		data, err = yaml.Marshal(d)
	case "json":
		data, err = json.MarshalIndent(d, "", "  ")
	default:
		return fmt.Errorf("unsupported output format %q", cfg.ExportConfigType)
	}
	if err != nil {
		log.Panic("unable to marshal the job definition: ", err)
	}
	if _, err = w.Write(data); err != nil {
		log.Panic(err)
	}
	return nil
}
