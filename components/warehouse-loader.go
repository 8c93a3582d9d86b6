package components

import (
	"fmt"
	"path"
	"sync/atomic"

	c "github.com/dmaitland/salespipe/constants"
	"github.com/dmaitland/salespipe/logger"
	"github.com/dmaitland/salespipe/rdbms"
	"github.com/dmaitland/salespipe/stats"
	"github.com/dmaitland/salespipe/stream"
	"golang.org/x/net/context"
)

// WarehouseSqlBuilderFunc should return a slice of SQL statements for NewWarehouseLoader to execute per staged file.
type WarehouseSqlBuilderFunc func(tableName rdbms.SchemaTable, stageName string, fileName string, force bool) []string

type WarehouseLoaderConfig struct {
	Log                     logger.Logger
	Name                    string
	InputChan               chan stream.Record
	Db                      rdbms.Connector         // connection to the target warehouse abstracted via interface.
	InputChanField4FileName string                  // the field name found on InputChan that contains the file name to load.
	StageName               string                  // the external stage that can access the files to load.
	TargetSchemaTableName   rdbms.SchemaTable       // the [schema.]table to load into.
	DeleteAll               bool                    // set to true to SQL DELETE all table rows before loading begins.
	FnGetSqlSlice           WarehouseSqlBuilderFunc // builds the slice of SQL statements to execute per input row.
	StepWatcher             *stats.StepWatcher
	WaitCounter             ComponentWaiter
	PanicHandlerFn          PanicHandlerFunc
}

// NewWarehouseLoader reads the input channel of records expecting each to name
// a data file that exists in the warehouse stage, then generates and executes
// COPY INTO statements to load the staged files into the target table.
// All loading happens in one transaction with autocommit off; the transaction
// commits once InputChan closes and rolls back on shutdown or error.
// InputChan rows are copied to the outputChan.
func NewWarehouseLoader(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*WarehouseLoaderConfig)
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	var rollbackRequired bool
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
		tx, err := cfg.Db.Begin()
		if err != nil {
			cfg.Log.Panic(cfg.Name, " received error starting warehouse transaction: ", err)
		}
		rollbackRequired = true
		defer warehouseRollback(cfg.Log, cfg.Name, tx, &rollbackRequired)
		query := "alter session set autocommit = false"
		res, err, shutdown := safeWarehouseExec(tx, controlChan, query)
		if shutdown {
			cfg.Log.Info(cfg.Name, " shutdown")
			return
		}
		assertExec(cfg.Log, &cfg.Name, tx, &rollbackRequired, &query, res, err)
		cfg.Log.Debug(cfg.Name, " set autocommit false")
		var controlAction ControlAction
		var force bool
		if cfg.DeleteAll { // if we are reloading data...
			query = fmt.Sprintf("delete from %v", cfg.TargetSchemaTableName.SchemaTable) // delete all rows!
			res, err, shutdown := safeWarehouseExec(tx, controlChan, query)
			if shutdown {
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			assertExec(cfg.Log, &cfg.Name, tx, &rollbackRequired, &query, res, err)
			force = true // enable force load due to the DML DELETE above.
		}
		// Read the input channel and execute SQL COPY INTO per staged file.
		for { // loop until break...
			select {
			case rec, ok := <-cfg.InputChan:
				if ok { // if we have data to process...
					fileName := rec.GetDataAsString(cfg.Log, cfg.InputChanField4FileName)
					cfg.Log.Info(cfg.Name, " loading into table '", cfg.TargetSchemaTableName.SchemaTable, "' from stage '", cfg.StageName, "' file name '", fileName, "'")
					queries := cfg.FnGetSqlSlice(cfg.TargetSchemaTableName, cfg.StageName, fileName, force)
					rollbackRequired = true
					for _, stmt := range queries { // for each SQL that we should execute...
						cfg.Log.Debug(cfg.Name, " executing query: ", stmt)
						res, err, shutdown := safeWarehouseExec(tx, controlChan, stmt)
						if shutdown {
							cfg.Log.Info(cfg.Name, " shutdown")
							return
						}
						assertExec(cfg.Log, &cfg.Name, tx, &rollbackRequired, &stmt, res, err)
					}
					// Pass the input record to the output channel.
					if recSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !recSentOK {
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
					atomic.AddInt64(&rowCount, 1)
				} else { // else there is no more input data...
					cfg.InputChan = nil // disable this case.
					controlChan = nil
				}
			case controlAction = <-controlChan: // if we are told to shutdown...
				if controlAction.Action == Shutdown {
					cfg.InputChan = nil
					controlChan = nil
					// Rollback is deferred.
					controlAction.ResponseChan <- nil // signal that shutdown completed without error.
					cfg.Log.Info(cfg.Name, " shutdown")
					return
				}
			}
			if cfg.InputChan == nil {
				cfg.Log.Debug(cfg.Name, " breaking out of loop")
				break
			}
		}
		// Commit changes. If we don't get here the deferred func will rollback.
		if err := tx.Commit(); err != nil {
			cfg.Log.Panic(cfg.Name, " received error while executing commit: ", err)
		}
		rollbackRequired = false
		cfg.Log.Debug(cfg.Name, " commit complete")
		close(outputChan) // we're done so close the channel we created.
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return outputChan, controlChan
}

func assertExec(log logger.Logger, name *string, tx rdbms.Transacter, rollbackRequired *bool, query *string, res rdbms.Result, err error) {
	if res != nil {
		i, e := res.RowsAffected()
		if e == nil { // if we have the number of rows affected...
			log.Info(*name, " rows affected: ", i)
		} // else ignore - rows affected can be unavailable for DDL.
	}
	if err != nil {
		warehouseRollback(log, *name, tx, rollbackRequired)
		log.Panic(*name, " error received while executing SQL: '", *query, "': ", err)
	}
}

// safeWarehouseExec runs the query in a goroutine so a shutdown request can
// cancel it mid flight via the statement context.
func safeWarehouseExec(tx rdbms.Transacter, controlChan chan ControlAction, query string) (res rdbms.Result, err error, shutdown bool) {
	doneChan := make(chan struct{}, 1)
	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()
	go func() {
		res, err = tx.ExecContext(ctx, query)
		doneChan <- struct{}{} // signal success.
	}()
	select {
	case controlAction := <-controlChan: // if we were shutdown...
		cancelFunc()
		// Rollback is deferred in the caller.
		controlAction.ResponseChan <- nil // signal that shutdown completed with a nil error.
		return nil, err, true
	case <-doneChan: // all OK, continue...
	}
	return res, err, false
}

func warehouseRollback(log logger.Logger, stepName string, tx rdbms.Transacter, rollbackRequired *bool) {
	log.Debug(stepName, " deferred rollback: required = ", *rollbackRequired)
	if *rollbackRequired {
		err := tx.Rollback()
		*rollbackRequired = false
		if err != nil {
			log.Panic(stepName, " received error while executing rollback: ", err)
		}
		log.Info(stepName, " rollback complete")
	}
}

// GetSqlSliceSnowflakeCopyInto generates SQL to copy CSV data from the supplied
// stage/fileName into the given table. The CSV files carry a header row so the
// file format skips the first line.
func GetSqlSliceSnowflakeCopyInto(schemaTableName rdbms.SchemaTable, stageName string, fileName string, force bool) []string {
	stagedFile := path.Join(stageName, fileName)
	forceSql := ""
	if force { // if we should force load the data files...
		forceSql = " force=true"
	}
	return []string{fmt.Sprintf(
		"copy into %v from '@%v' file_format = (type = csv skip_header = 1)%v",
		schemaTableName.SchemaTable, stagedFile, forceSql)}
}
