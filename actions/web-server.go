package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/dmaitland/salespipe/helper"
	"github.com/dmaitland/salespipe/logger"
)

type WebServerConfig struct {
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	Scheme                    string `errorTxt:"scheme" mandatory:"no"`
	Addr                      net.IP `errorTxt:"address" mandatory:"no"`
	Port                      int    `errorTxt:"port" mandatory:"no"`
	EltConfig                 *EltConfig
	StatsDumpFrequencySeconds int
	StackDumpOnPanic          bool
}

// RunWebServer serves the ELT job over HTTP so jobs can be launched and
// monitored remotely. It blocks until stopped via /stop or SIGINT.
func RunWebServer(web *WebServerConfig) error {
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	log := logger.NewLogger("salespipe", web.LogLevel, web.StackDumpOnPanic)
	if err := helper.ValidateStructIsPopulated(web); err != nil {
		return err
	}
	srv, chanStopServer := runServer(log, web)
	return waitForServer(log, srv, chanStopServer)
}

// runServer starts a web server and returns the server plus a channel that can
// be used to stop it.
func runServer(log logger.Logger, web *WebServerConfig) (*http.Server, chan string) {
	chanStopServer := make(chan string, 1)
	allJobs := NewSafeMapJobInfo()
	r := mux.NewRouter()
	r.HandleFunc("/stop", GetHandlerStopServer(log, chanStopServer))
	r.Path("/health").HandlerFunc(GetHandlerHealth(log))
	r.Path("/jobs").Methods(http.MethodGet).HandlerFunc(GetHandlerJobList(log, allJobs))
	r.Path("/jobs").Methods(http.MethodPost).HandlerFunc(GetHandlerJobLaunch(log, allJobs, web.EltConfig))
	r.Path("/jobs/{jobId}/stats").HandlerFunc(GetHandlerJobStats(log, allJobs))
	r.Path("/jobs/{jobId}/status").HandlerFunc(GetHandlerJobStatus(log, allJobs))
	srv := &http.Server{ // good practice to set timeouts to avoid Slowloris attacks.
		Addr:         fmt.Sprintf("%v:%v", web.Addr, web.Port),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r, // supply our instance of gorilla/mux.
	}
	// Run HTTP server non-blocking.
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				log.Info(err)
			} else {
				log.Panic(err)
			}
		}
	}()
	log.Info(fmt.Sprintf("Listening on %v://%v:%v", strings.ToLower(web.Scheme), web.Addr, web.Port))
	return srv, chanStopServer
}

func waitForServer(log logger.Logger, srv *http.Server, chanStopServer chan string) error {
	// Block & wait for shutdown signals.
	// Graceful shutdown applies to SIGINT (Ctrl+C) only.
	chanOS := make(chan os.Signal, 1)
	signal.Notify(chanOS, os.Interrupt)
	select {
	case <-chanStopServer:
	case <-chanOS:
	}
	fmt.Println() // print new line char for clean looking CLI.
	log.Info("Shutting down web server...")
	wait := time.Second * 15
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	return srv.Shutdown(ctx) // waits for open connections until the deadline.
}
