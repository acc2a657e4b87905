// Package control wires configuration, logging, metrics and the exhaustion journal into the
// process runtime.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vietddude/resilience/internal/core/config"
	"github.com/vietddude/resilience/internal/core/journal"
	"github.com/vietddude/resilience/internal/core/logging"
	"github.com/vietddude/resilience/internal/core/retry"
	"github.com/vietddude/resilience/internal/core/worker"
	"github.com/vietddude/resilience/internal/health"
	"github.com/vietddude/resilience/internal/infra/storage"
	"github.com/vietddude/resilience/internal/metrics"
)

// Runtime owns the process-wide state every retried operation shares.
type Runtime struct {
	cfg          *config.AppConfig
	logState     *logging.State
	log          *slog.Logger
	registry     *prometheus.Registry
	metrics      *metrics.RetryMetrics
	journal      storage.FailedExecutionRepository
	recorder     *journal.Recorder
	observer     retry.Observer
	healthMon    *health.Monitor
	healthServer *health.Server
	pruner       *worker.Pruner

	stopRecorder context.CancelFunc
	recorderDone chan struct{}
}

// Options configures New.
type Options struct {
	Debug bool
	// Journal overrides the configured backend when set.
	Journal storage.FailedExecutionRepository
}

// New builds a runtime from cfg. The logger in logState is initialized if it is not already.
func New(ctx context.Context, cfg *config.AppConfig, logState *logging.State, opts Options) (*Runtime, error) {
	if logState == nil {
		logState = logging.NewState()
	}
	log := logState.Init(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Debug:  opts.Debug,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rm := metrics.NewRetryMetrics(registry)

	repo := opts.Journal
	if repo == nil {
		var err error
		repo, err = OpenJournal(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
	}

	r := &Runtime{
		cfg:      cfg,
		logState: logState,
		log:      log,
		registry: registry,
		metrics:  rm,
		journal:  repo,
	}

	journals := map[string]storage.FailedExecutionRepository{}
	observers := []retry.Observer{retry.NewLogObserver(log), rm}
	if repo != nil {
		r.recorder = journal.NewRecorder(repo, cfg.Journal.WriteTimeout, cfg.Journal.Buffer, log)
		r.startRecorder()
		observers = append(observers, r.recorder)
		journals[cfg.Journal.Backend] = repo
		if cfg.Journal.Retention > 0 {
			r.pruner = worker.NewPruner(cfg.Journal.Retention, repo, log)
		}
	}
	r.observer = retry.Observers(observers...)

	r.healthMon = health.NewMonitor(journals, cfg.PolicyNames())
	r.healthServer = health.NewServer(r.healthMon, registry, cfg.Server.Port)

	log.Info("Runtime initialized",
		"journal", cfg.Journal.Backend,
		"policies", len(cfg.Policies),
	)
	return r, nil
}

// startRecorder runs the journal writer until Stop. It is independent of Start so that
// short-lived runtimes still persist their records.
func (r *Runtime) startRecorder() {
	ctx, cancel := context.WithCancel(context.Background())
	r.stopRecorder = cancel
	r.recorderDone = make(chan struct{})
	go func() {
		defer close(r.recorderDone)
		r.recorder.Run(ctx)
	}()
}

// Logger returns the process logger.
func (r *Runtime) Logger() *slog.Logger { return r.log }

// Registry returns the metrics registry served on /metrics.
func (r *Runtime) Registry() *prometheus.Registry { return r.registry }

// Metrics returns the retry metrics observer.
func (r *Runtime) Metrics() *metrics.RetryMetrics { return r.metrics }

// Journal returns the exhaustion journal, nil when disabled.
func (r *Runtime) Journal() storage.FailedExecutionRepository { return r.journal }

// Observer returns the observer chain attached to every execution built from this runtime.
func (r *Runtime) Observer() retry.Observer { return r.observer }

// Health returns the health monitor.
func (r *Runtime) Health() *health.Monitor { return r.healthMon }

// Recorder returns the journal recorder, nil when the journal is disabled.
func (r *Runtime) Recorder() *journal.Recorder { return r.recorder }

// Pruner returns the journal pruner, nil when retention is unset or the journal is disabled.
func (r *Runtime) Pruner() *worker.Pruner { return r.pruner }

// Options returns executor options for the named call site: its configured policy and
// retryable set, the runtime observer chain and the name itself.
func (r *Runtime) Options(name string) ([]retry.Option, error) {
	opts, err := r.cfg.PolicyFor(name).Options()
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", name, err)
	}
	return append(opts, retry.WithObserver(r.observer), retry.WithName(name)), nil
}

// Start runs the health server and the journal pruner in the background.
func (r *Runtime) Start(ctx context.Context) error {
	go func() {
		if err := r.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.Error("Health server failed", "error", err)
		}
	}()

	if r.pruner != nil {
		r.log.Info("Starting journal pruner", "interval", r.pruner.Interval())
		go r.pruner.Start(ctx)
	}
	return nil
}

// Stop shuts down the health server, writes queued journal records and closes the journal.
// It is safe to call more than once.
func (r *Runtime) Stop(ctx context.Context) error {
	r.log.Info("Stopping runtime...")

	err := r.healthServer.Stop(ctx)
	if r.stopRecorder != nil {
		r.stopRecorder()
		select {
		case <-r.recorderDone:
		case <-ctx.Done():
			r.log.Warn("Journal writer did not drain before shutdown", "error", ctx.Err())
			err = errors.Join(err, ctx.Err())
		}
	}
	if r.journal != nil {
		if cerr := r.journal.Close(); cerr != nil {
			r.log.Warn("Failed to close journal", "error", cerr)
			err = errors.Join(err, cerr)
		}
	}
	return err
}
