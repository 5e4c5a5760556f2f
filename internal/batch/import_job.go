package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/monitoring"
)

var ErrImportInProgress = errors.New("import already in progress")

type importer interface {
	ImportAll(ctx context.Context, customerPath, loanPath string) (*ImportSummary, error)
}

// ImportJob runs the pipeline with at most one run in flight per process.
type ImportJob struct {
	pipeline     importer
	publisher    event.Publisher
	customerFile string
	loanFile     string
	timeout      time.Duration
	logger       *slog.Logger

	running sync.Mutex
	wg      sync.WaitGroup
}

func NewImportJob(pipeline importer, publisher event.Publisher, customerFile, loanFile string, timeout time.Duration, logger *slog.Logger) *ImportJob {
	if pipeline == nil || logger == nil {
		panic("ImportJob dependencies cannot be nil")
	}
	if publisher == nil {
		publisher = event.NoopPublisher{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &ImportJob{
		pipeline:     pipeline,
		publisher:    publisher,
		customerFile: customerFile,
		loanFile:     loanFile,
		timeout:      timeout,
		logger:       logger.With("job", "ImportAll"),
	}
}

// Run executes one import synchronously. It returns ErrImportInProgress if another run holds the job.
func (j *ImportJob) Run(ctx context.Context) (*ImportSummary, error) {
	if !j.running.TryLock() {
		j.logger.WarnContext(ctx, "Import skipped, previous run still in progress")
		monitoring.RecordIngestionRun("skipped")
		return nil, ErrImportInProgress
	}
	defer j.running.Unlock()
	return j.run(ctx)
}

// Trigger starts an import in the background and returns immediately.
func (j *ImportJob) Trigger(ctx context.Context) error {
	if !j.running.TryLock() {
		monitoring.RecordIngestionRun("skipped")
		return ErrImportInProgress
	}

	runCtx := context.WithoutCancel(ctx)
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		defer j.running.Unlock()
		if _, err := j.run(runCtx); err != nil {
			j.logger.Error("Background import failed", slog.Any("error", err))
		}
	}()
	return nil
}

// Wait blocks until background runs started by Trigger have finished.
func (j *ImportJob) Wait() {
	j.wg.Wait()
}

func (j *ImportJob) run(ctx context.Context) (*ImportSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.InfoContext(ctx, "Import run started", slog.String("customerFile", j.customerFile), slog.String("loanFile", j.loanFile))

	summary, err := j.pipeline.ImportAll(ctx, j.customerFile, j.loanFile)
	duration := time.Since(start)

	evt := event.IngestionCompletedEvent{
		Status:    "success",
		Duration:  duration.String(),
		Timestamp: time.Now().UTC(),
	}
	if summary != nil {
		evt.Customers = summary.Customers
		evt.Loans = summary.Loans
		evt.Debts = summary.Debts
	}

	if err != nil {
		evt.Status = "failed"
		evt.Error = err.Error()
		monitoring.RecordIngestionRun("failed")
		j.logger.ErrorContext(ctx, "Import run failed", slog.Any("error", err), slog.Duration("duration", duration))
	} else {
		monitoring.RecordIngestionRun("success")
		j.logger.InfoContext(ctx, "Import run finished", slog.Duration("duration", duration))
	}

	if pubErr := j.publisher.PublishIngestionCompleted(context.WithoutCancel(ctx), evt); pubErr != nil {
		j.logger.WarnContext(ctx, "Failed to publish ingestion completed event", slog.Any("error", pubErr))
	}
	return summary, err
}
