package actions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/dmaitland/salespipe/logger"
)

func TestHandlerHealth(t *testing.T) {
	log := logger.NewLogger("salespipe", "error", true)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	GetHandlerHealth(log)(w, req)
	if w.Code != http.StatusOK {
		t.Fatal("Expected status 200; got ", w.Code)
	}
	// The content type must be set before the status line is written.
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Fatal("Expected Content-Type application/json; got ", got)
	}
	body := map[string]interface{}{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal("Expected a JSON body; got error: ", err)
	}
	if body["status"] != "ok" {
		t.Fatal("Expected server status ok; got ", body["status"])
	}
}

func TestHandlerJobStatusNotFound(t *testing.T) {
	log := logger.NewLogger("salespipe", "error", true)
	allJobs := NewSafeMapJobInfo()
	r := mux.NewRouter()
	r.Path("/jobs/{jobId}/status").HandlerFunc(GetHandlerJobStatus(log, allJobs))
	req := httptest.NewRequest(http.MethodGet, "/jobs/nosuchjob/status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatal("Expected status 404 for an unknown job; got ", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Fatal("Expected Content-Type application/json; got ", got)
	}
	body := map[string]interface{}{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal("Expected a JSON body; got error: ", err)
	}
	if body["status"] != "error" {
		t.Fatal("Expected status error for an unknown job; got ", body["status"])
	}
}

func TestHandlerJobListEmpty(t *testing.T) {
	log := logger.NewLogger("salespipe", "error", true)
	allJobs := NewSafeMapJobInfo()
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	w := httptest.NewRecorder()
	GetHandlerJobList(log, allJobs)(w, req)
	if w.Code != http.StatusOK {
		t.Fatal("Expected status 200; got ", w.Code)
	}
	body := map[string]interface{}{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal("Expected a JSON body; got error: ", err)
	}
	jobs, ok := body["jobs"].([]interface{})
	if !ok {
		t.Fatal("Expected a jobs array in the response; got ", body)
	}
	if len(jobs) != 0 {
		t.Fatal("Expected an empty job list; got ", jobs)
	}
}
