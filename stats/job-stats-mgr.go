package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmaitland/salespipe/logger"

	"github.com/cevaris/ordered_map"
)

type StatsFetcher interface {
	GetStats() []Stats
}

var DefaultStatsDumpFrequencySeconds = 5

// JobStatsManager collects stats from each pipeline step registered via
// AddStepWatcher and periodically dumps them to the log. Steps are kept in
// registration order so the dump reads in pipeline order.
type JobStatsManager struct {
	ticker              *time.Ticker
	tickerDone          chan struct{}
	tickerIsRunningFlag int32
	tickerFrequency     int
	mu                  sync.Mutex
	log                 logger.Logger
	mapStepStats        *ordered_map.OrderedMap // StepWatcher per registered step.
}

// SetStatsDumpFrequency returns a function that can be supplied as an option to NewJobStats().
// A frequency of 0 disables dumping.
func SetStatsDumpFrequency(seconds int) func(j *JobStatsManager) {
	return func(j *JobStatsManager) {
		j.tickerFrequency = seconds
	}
}

func NewJobStats(log logger.Logger, options ...func(j *JobStatsManager)) *JobStatsManager {
	j := &JobStatsManager{log: log, tickerFrequency: DefaultStatsDumpFrequencySeconds}
	for _, option := range options {
		option(j)
	}
	j.tickerDone = make(chan struct{})
	j.mapStepStats = ordered_map.NewOrderedMap()
	return j
}

// AddStepWatcher creates a StepWatcher for the named step and registers it
// with this manager. To be called once per pipeline step.
func (j *JobStatsManager) AddStepWatcher(stepName string) *StepWatcher {
	sw := NewStepWatcher(j.log, stepName)
	j.mapStepStats.Set(stepName, sw)
	return sw
}

func (j *JobStatsManager) StartDumping() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if atomic.AddInt32(&j.tickerIsRunningFlag, 0) == 0 { // if we're not already dumping stats...
		if j.tickerFrequency > 0 { // if stats dumping is enabled...
			j.ticker = time.NewTicker(time.Second * time.Duration(j.tickerFrequency))
			atomic.StoreInt32(&j.tickerIsRunningFlag, 1)
			go func() {
				j.log.Debug("stats dumper ticker started")
				for {
					select {
					case <-j.tickerDone:
						j.log.Debug("stats dumper ticker stopped")
						return
					case <-j.ticker.C:
						j.logStats()
					}
				}
			}()
		} else {
			j.log.Debug("stats dumper disabled")
		}
	} else {
		j.log.Debug("stats dumper ticker already running")
	}
}

// StopDumping stops the ticker and dumps the final stats,
// only if the ticker was started via StartDumping().
func (j *JobStatsManager) StopDumping() {
	j.mu.Lock()
	if atomic.AddInt32(&j.tickerIsRunningFlag, 0) > 0 { // if we started to dump stats...
		atomic.StoreInt32(&j.tickerIsRunningFlag, 0)
		j.ticker.Stop()
		j.tickerDone <- struct{}{} // cause the goroutine to exit (we can't close ticker.C)
		iter := j.mapStepStats.IterFunc()
		for kv, ok := iter(); ok; kv, ok = iter() {
			kv.Value.(*StepWatcher).CalculateStats() // calculate stats for the last time per step.
		}
		j.logStats()
	}
	j.mu.Unlock()
}

func (j *JobStatsManager) logStats() {
	iter := j.mapStepStats.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		j.log.Info(kv.Value.(*StepWatcher).RenderStats().String())
	}
}

// GetStats implements interface StatsFetcher{}.
func (j *JobStatsManager) GetStats() []Stats {
	iter := j.mapStepStats.IterFunc()
	statsList := make([]Stats, 0)
	for kv, ok := iter(); ok; kv, ok = iter() {
		statsList = append(statsList, kv.Value.(*StepWatcher).RenderStats())
	}
	return statsList
}
