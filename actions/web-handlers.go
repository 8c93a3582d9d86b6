package actions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/rs/xid"

	"github.com/dmaitland/salespipe/logger"
	"github.com/dmaitland/salespipe/stats"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		return nil, fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
	}
	return json.Marshal(retval)
}

type JobStatus string

const (
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
)

// JobInfo holds runtime details of one launched ELT job.
type JobInfo struct {
	JobId        string
	Description  string
	StatsManager *stats.JobStatsManager
	mu           sync.RWMutex
	status       JobStatus
	errorText    string
}

func (j *JobInfo) setStatus(status JobStatus, errorText string) {
	j.mu.Lock()
	j.status = status
	j.errorText = errorText
	j.mu.Unlock()
}

func (j *JobInfo) getStatus() (JobStatus, string) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status, j.errorText
}

// SafeMapJobInfo holds all launched jobs keyed by job id.
type SafeMapJobInfo struct {
	sync.RWMutex
	internal map[string]*JobInfo
}

func NewSafeMapJobInfo() *SafeMapJobInfo {
	return &SafeMapJobInfo{internal: make(map[string]*JobInfo)}
}

func (m *SafeMapJobInfo) Store(jobId string, info *JobInfo) {
	m.Lock()
	m.internal[jobId] = info
	m.Unlock()
}

func (m *SafeMapJobInfo) Load(jobId string) (info *JobInfo, ok bool) {
	m.RLock()
	info, ok = m.internal[jobId]
	m.RUnlock()
	return
}

func (m *SafeMapJobInfo) List() []*JobInfo {
	m.RLock()
	defer m.RUnlock()
	jobs := make([]*JobInfo, 0, len(m.internal))
	for _, j := range m.internal {
		jobs = append(jobs, j)
	}
	return jobs
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

type ResponseJobList struct {
	Status WebServerResponse `json:"status"`
	Jobs   []JobListItem     `json:"jobs"`
}

type JobListItem struct {
	JobId          string    `json:"jobId"`
	JobDescription string    `json:"jobDescription"`
	JobStatus      JobStatus `json:"jobStatus"`
}

type ResponseJobStats struct {
	Status   WebServerResponse `json:"status"`
	Message  string            `json:"message"`
	JobStats interface{}       `json:"jobStats"`
}

type ResponseJobStatus struct {
	Status    WebServerResponse `json:"status"`
	Message   string            `json:"message"`
	JobStatus JobStatus         `json:"jobStatus"`
}

type ResponseJobLaunch struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	JobId   string            `json:"jobId"`
}

func GetHandlerHealth(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(log, w, http.StatusOK, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, chanStopServer chan string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("stop requested via web server")
		respond(log, w, http.StatusOK, ResponseSimple{ServerStatus: Okay})
		chanStopServer <- "stop"
	}
}

func GetHandlerJobList(log logger.Logger, allJobs *SafeMapJobInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		jobList := make([]JobListItem, 0)
		for _, j := range allJobs.List() {
			status, _ := j.getStatus()
			jobList = append(jobList, JobListItem{
				JobId:          j.JobId,
				JobDescription: j.Description,
				JobStatus:      status,
			})
		}
		respond(log, w, http.StatusOK, ResponseJobList{Status: Okay, Jobs: jobList})
	}
}

func GetHandlerJobStats(log logger.Logger, allJobs *SafeMapJobInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		jobId := vars["jobId"]
		job, ok := allJobs.Load(jobId)
		if !ok {
			respond(log, w, http.StatusNotFound, ResponseJobStats{Status: Error, Message: fmt.Sprintf("job %v not found", jobId)})
			return
		}
		respond(log, w, http.StatusOK, ResponseJobStats{Status: Okay, JobStats: job.StatsManager.GetStats()})
	}
}

func GetHandlerJobStatus(log logger.Logger, allJobs *SafeMapJobInfo) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		jobId := vars["jobId"]
		job, ok := allJobs.Load(jobId)
		if !ok {
			respond(log, w, http.StatusNotFound, ResponseJobStatus{Status: Error, Message: fmt.Sprintf("job %v not found", jobId)})
			return
		}
		status, errorText := job.getStatus()
		respond(log, w, http.StatusOK, ResponseJobStatus{Status: Okay, Message: errorText, JobStatus: status})
	}
}

// GetHandlerJobLaunch starts the configured ELT job in the background and
// returns its job id so the caller can poll for stats and status.
func GetHandlerJobLaunch(log logger.Logger, allJobs *SafeMapJobInfo, cfg *EltConfig) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		jobId := xid.New().String()
		statsMgr := stats.NewJobStats(log, stats.SetStatsDumpFrequency(cfg.StatsDumpFrequencySeconds))
		job := &JobInfo{
			JobId:        jobId,
			Description:  "sales-orders-elt",
			StatsManager: statsMgr,
			status:       JobStatusRunning,
		}
		allJobs.Store(jobId, job)
		go func() {
			if err := RunSalesOrdersEltWithStats(log, cfg, statsMgr, jobId); err != nil {
				log.Error("job ", jobId, " failed: ", err)
				job.setStatus(JobStatusFailed, err.Error())
				return
			}
			job.setStatus(JobStatusComplete, "")
		}()
		respond(log, w, http.StatusOK, ResponseJobLaunch{Status: Okay, Message: "job launched", JobId: jobId})
	}
}

// respond sets the content type before the status line is written, else the
// header would be silently dropped.
func respond(log logger.Logger, w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("unable to encode web server response: ", err)
	}
}
