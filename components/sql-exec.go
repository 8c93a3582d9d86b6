package components

import (
	"fmt"
	"sync/atomic"

	c "github.com/dmaitland/salespipe/constants"
	"github.com/dmaitland/salespipe/logger"
	"github.com/dmaitland/salespipe/rdbms"
	s "github.com/dmaitland/salespipe/stats"
	"github.com/dmaitland/salespipe/stream"
	"golang.org/x/net/context"
)

type SqlExecConfig struct {
	Log                      logger.Logger
	Name                     string
	InputChan                chan stream.Record
	SqlQueryFieldName        string // the field on InputChan containing the SQL text to execute.
	SqlRowsAffectedFieldName string // optional field added to output records with the rows affected count.
	OutputDb                 rdbms.Connector
	StepWatcher              *s.StepWatcher
	WaitCounter              ComponentWaiter
	PanicHandlerFn           PanicHandlerFunc
}

// NewSqlExec executes the SQL statement found on each input record against
// OutputDb and forwards the record downstream.
func NewSqlExec(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*SqlExecConfig)
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
		var controlAction ControlAction
		for {
			select {
			case rec, ok := <-cfg.InputChan: // per input row SQL exec...
				if !ok { // if we have run out of rows...
					cfg.InputChan = nil // disable this case
				} else { // process the row...
					query := rec.GetDataAsString(cfg.Log, cfg.SqlQueryFieldName)
					cfg.Log.Debug(cfg.Name, " executing SQL: ", query)
					res, err := cfg.OutputDb.ExecContext(context.Background(), query)
					if err != nil {
						cfg.Log.Panic(fmt.Sprintf("error executing SQL '%v': %v", query, err))
					}
					if cfg.SqlRowsAffectedFieldName != "" { // if the user supplied a field name to output the number of rows affected...
						rowsAffected, err := res.RowsAffected()
						if err != nil { // if we couldn't get the num rows affected...
							cfg.Log.Panic(fmt.Sprintf("error checking number of rows affected after SQL '%v': %v", query, err))
						}
						rec.SetData(cfg.SqlRowsAffectedFieldName, rowsAffected)
					}
					if rowSentOK := safeSend(rec, outputChan, controlChan, sendNilControlResponse); !rowSentOK { // if we couldn't output the row due to shutdown...
						cfg.Log.Info(cfg.Name, " shutdown")
						return
					}
					atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
				}
			case controlAction = <-controlChan: // if we have been asked to shutdown...
				controlAction.ResponseChan <- nil // respond that we're done with a nil error.
				cfg.Log.Info(cfg.Name, " shutdown")
				return
			}
			if cfg.InputChan == nil { // if we should exit gracefully...
				break
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return outputChan, controlChan
}
