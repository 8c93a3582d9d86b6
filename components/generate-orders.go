package components

import (
	"sync/atomic"

	c "github.com/dmaitland/salespipe/constants"
	"github.com/dmaitland/salespipe/generate"
	"github.com/dmaitland/salespipe/logger"
	"github.com/dmaitland/salespipe/stats"
	"github.com/dmaitland/salespipe/stream"
)

type GenerateOrderRowsConfig struct {
	Log            logger.Logger
	Name           string
	NumOrders      int                 // number of synthetic orders to generate on outputChan.
	Generator      *generate.Generator // optional generator override; a fresh one is created when nil.
	StepWatcher    *stats.StepWatcher
	WaitCounter    ComponentWaiter
	PanicHandlerFn PanicHandlerFunc
}

// NewGenerateOrderRows emits NumOrders synthetic sales orders onto the output channel,
// one record per order with order_id forming the exact sequence 1..NumOrders.
// Amounts and dates are pre-rendered so downstream CSV output matches the
// warehouse load format.
func NewGenerateOrderRows(i interface{}) (outputChan chan stream.Record, controlChan chan ControlAction) {
	cfg := i.(*GenerateOrderRowsConfig)
	if cfg.NumOrders < 0 {
		cfg.Log.Panic(cfg.Name, " received bad config - the number of orders must not be negative")
	}
	g := cfg.Generator
	if g == nil {
		g = generate.NewGenerator()
	}
	outputChan = make(chan stream.Record, c.ChanSize)
	controlChan = make(chan ControlAction, 1)
	fnShutdown := func(ca ControlAction) {
		ca.ResponseChan <- nil // respond that we're done with a nil error.
		cfg.Log.Info(cfg.Name, " shutdown")
	}
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
		for _, o := range g.Orders(cfg.NumOrders) { // for each synthetic order...
			rec := stream.NewRecord()
			rec.SetData(c.OrderFieldId, o.OrderId)
			rec.SetData(c.OrderFieldCustomerName, o.CustomerName)
			rec.SetData(c.OrderFieldAmount, generate.FormatAmount(o.OrderAmount))
			rec.SetData(c.OrderFieldDate, o.OrderDate.Format(c.TimeFormatCalendarDate))
			rec.SetData(c.OrderFieldProduct, o.Product)
			atomic.AddInt64(&rowCount, 1) // increment the row count bearing in mind someone else is reporting on its values.
			select {
			case outputChan <- rec: // send the generated order...
			case controlAction := <-controlChan: // or if we have been asked to shutdown...
				fnShutdown(controlAction)
				return
			}
		}
		close(outputChan)
		cfg.Log.Info(cfg.Name, " complete")
	}()
	return
}
