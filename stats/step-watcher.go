package stats

import (
	"fmt"
	"sync/atomic"
	"time"

	c "github.com/dmaitland/salespipe/constants"
	h "github.com/dmaitland/salespipe/helper"
	"github.com/dmaitland/salespipe/logger"
	"github.com/dmaitland/salespipe/stream"
)

// StepWatcher samples the row count and output channel depth of a single
// pipeline step. The step calls StartWatching() when it begins work and
// StopWatching() when it is done.
type StepWatcher struct {
	log             logger.Logger
	stepName        string
	rowCountPtr     *int64 // ptr to the rowCount owned by the step we are watching.
	chanPtr         *chan stream.Record
	chanLen         int64
	startTime       time.Time
	rowsPerSecDelta int64
	rowsPerSecAvg   int64
	totalRows       int64
	priorRowCount   int64     // enables delta rows per sec between ticker timeouts.
	priorTime       time.Time // enables delta rows per sec between ticker timeouts.
	ticker          *time.Ticker
	tickerDone      chan struct{}
	isRunning       h.AtomBool
}

type Stats struct {
	StepName           string `json:"stepName"`
	StatusText         string `json:"statusText"`
	ElapsedTimeSec     int    `json:"elapsedTimeSec"`
	TotalRowsProcessed int    `json:"totalRowsProcessed"`
	RowsPerSecondAvg   int    `json:"rowsPerSecondAvg"`
	RowsPerSecondDelta int    `json:"rowsPerSecondDelta"`
	OutputBufferLen    int    `json:"outputBufferLen"`
}

func NewStepWatcher(log logger.Logger, stepName string) *StepWatcher {
	return &StepWatcher{log: log, stepName: stepName, tickerDone: make(chan struct{})}
}

func (w *StepWatcher) StartWatching(rowCountPtr *int64, chanPtr *chan stream.Record) {
	w.rowCountPtr = rowCountPtr
	w.chanPtr = chanPtr // saved so we can do len() operations.
	w.startTime = time.Now()
	w.priorTime = w.startTime
	w.isRunning.Set(true)
	w.totalRows = 0 // reset in case a step repeatedly calls StartWatching.
	w.CalculateStats()
	w.ticker = time.NewTicker(time.Second * c.StatsCaptureFrequencySeconds)
	go func() {
		for {
			select {
			case <-w.ticker.C:
				w.CalculateStats()
			case <-w.tickerDone:
				return
			}
		}
	}()
}

func (w *StepWatcher) StopWatching() {
	w.ticker.Stop()
	w.tickerDone <- struct{}{} // stop the goroutine that calculates stats.
	w.CalculateStats()         // force a final stats calculation.
	w.isRunning.Set(false)
	atomic.StoreInt64(&w.chanLen, 0)
}

func (w *StepWatcher) CalculateStats() {
	deltaTime := int64(time.Since(w.priorTime).Seconds())
	if deltaTime < 1 { // avoid divide by zero below.
		deltaTime = 1
	}
	rowCount := atomic.AddInt64(w.rowCountPtr, 0)
	deltaRowCount := rowCount - w.priorRowCount
	atomic.StoreInt64(&w.rowsPerSecDelta, deltaRowCount/deltaTime)
	atomic.StoreInt64(&w.chanLen, int64(len(*w.chanPtr))) // the chan may already be closed by the owning step.
	w.log.Debug("STATS: ", w.stepName, " processing ", w.rowsPerSecDelta, " rows per sec. Output channel length ", atomic.AddInt64(&w.chanLen, 0))
	atomic.StoreInt64(&w.priorRowCount, rowCount)
	w.priorTime = time.Now()
	// Totals accumulate via deltas since a step may reset its own row count.
	atomic.AddInt64(&w.totalRows, deltaRowCount)
	atomic.StoreInt64(&w.rowsPerSecAvg,
		atomic.AddInt64(&w.totalRows, 0)/secondsSinceOrOne(w.startTime))
}

// RenderStats returns a snapshot of the stats at the time it is called.
func (w *StepWatcher) RenderStats() Stats {
	statusText := "complete"
	if w.isRunning.Get() {
		statusText = "running"
	}
	return Stats{
		StepName:           w.stepName,
		StatusText:         statusText,
		ElapsedTimeSec:     int(time.Since(w.startTime).Seconds()),
		TotalRowsProcessed: int(atomic.AddInt64(&w.totalRows, 0)),
		RowsPerSecondAvg:   int(atomic.AddInt64(&w.rowsPerSecAvg, 0)),
		RowsPerSecondDelta: int(atomic.AddInt64(&w.rowsPerSecDelta, 0)),
		OutputBufferLen:    int(atomic.AddInt64(&w.chanLen, 0)),
	}
}

// String formats the stats for general logging.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats for %v %v "+
			"elapsedTimeSec=%v "+
			"totalRowsProcessed=%v "+
			"rowsPerSecondAvg=%v "+
			"rowsPerSecondDelta=%v "+
			"outputBufferLen=%v",
		s.StepName, s.StatusText,
		s.ElapsedTimeSec,
		s.TotalRowsProcessed,
		s.RowsPerSecondAvg,
		s.RowsPerSecondDelta,
		s.OutputBufferLen,
	)
}

func secondsSinceOrOne(t time.Time) (seconds int64) {
	seconds = int64(time.Since(t).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return
}
