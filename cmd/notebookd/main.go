// Command notebookd serves reactive notebook sessions: an HTTP host
// process exposing one websocket endpoint per notebook, each backed by a
// dedicated re-exec'd kernel process (spec §4.3 "exactly two OS processes
// per session").
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/smilemakc/cellgraph/internal/config"
	"github.com/smilemakc/cellgraph/internal/logging"
	"github.com/smilemakc/cellgraph/internal/persistence"
)

func main() {
	var (
		kernelMode  = flag.Bool("kernel", false, "run as the kernel subprocess (internal use only)")
		listen      = flag.String("listen", "", "HTTP listen address (overrides config)")
		storageRoot = flag.String("storage-root", "", "notebook structure storage directory (overrides config)")
		pythonBin   = flag.String("python-bin", "", "python3 interpreter used by the kernel (overrides config)")
		pretty      = flag.Bool("pretty", false, "write human-readable log lines instead of JSON")
	)
	flag.Parse()

	cfg := config.Load()
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *storageRoot != "" {
		cfg.StorageRoot = *storageRoot
	}
	if *pythonBin != "" {
		cfg.PythonBinary = *pythonBin
	}

	log := logging.Setup(cfg.LogLevel, *pretty)

	if *kernelMode {
		// stdout carries the framed notification stream in kernel mode, so
		// the kernel logs to stderr instead.
		os.Exit(runKernelMode(cfg.PythonBinary, log.Output(os.Stderr)))
	}

	store, err := persistence.NewYAMLStore(cfg.StorageRoot)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize notebook store")
	}

	self, err := os.Executable()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve own executable path")
	}

	sessions := newSessionManager(self, cfg.PythonBinary, store, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/", func(w http.ResponseWriter, r *http.Request) {
		notebookID := strings.TrimPrefix(r.URL.Path, "/ws/")
		if notebookID == "" {
			http.Error(w, "missing notebook id", http.StatusBadRequest)
			return
		}
		coord, err := sessions.Get(notebookID)
		if err != nil {
			log.Error().Err(err).Str("notebook_id", notebookID).Msg("failed to open session")
			http.Error(w, "failed to open session", http.StatusInternalServerError)
			return
		}
		newWSHandler(coord, log).ServeHTTP(w, r)
	})

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.ListenAddr).Msg("notebookd listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	sessions.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}
	log.Info().Msg("notebookd exited gracefully")
}
