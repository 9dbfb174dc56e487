package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexhaven/reminder-gateway/internal/model"
	"github.com/lexhaven/reminder-gateway/internal/template"
	"github.com/lexhaven/reminder-gateway/pkg/logger"
	"github.com/lexhaven/reminder-gateway/pkg/prom"
)

const scheduledDateFormat = "Monday, 2 January 2006 at 15:04"

// Store is the queue-table surface the worker needs. LockRow and GetStatus
// must be called inside WithinTransaction; the advisory lock is released when
// that transaction ends.
type Store interface {
	ListDue(ctx context.Context, limit int) ([]*model.Reminder, error)
	LockRow(ctx context.Context, id int64) error
	GetStatus(ctx context.Context, id int64) (model.ReminderStatus, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Mailer is the external transactional-email transport.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type WorkerConfig struct {
	Enabled   bool
	DryRun    bool
	BatchSize int
}

// BatchResult is what one ProcessBatch invocation reports. It is
// observability output only; the worker has no synchronous caller that
// acts on it.
type BatchResult struct {
	Sent      int  `json:"sent"`
	Failed    int  `json:"failed"`
	Skipped   int  `json:"skipped"`
	BatchSize int  `json:"batch_size"`
	DryRun    bool `json:"dry_run"`
	Disabled  bool `json:"disabled"`
}

type rowOutcome int

const (
	outcomeSent rowOutcome = iota
	outcomeFailed
	outcomeSkipped
)

// Worker drains due reminders from the store and delivers them through the
// mailer. Safe to run from multiple processes against the same database: the
// per-row advisory lock plus the status re-check guarantee at most one send
// per reminder.
type Worker struct {
	store    Store
	registry *template.Registry
	mailer   Mailer
	config   WorkerConfig
	metrics  *WorkerMetrics
}

func NewWorker(store Store, registry *template.Registry, mailer Mailer, config WorkerConfig) *Worker {
	if config.BatchSize <= 0 {
		config.BatchSize = 25
	}
	return &Worker{
		store:    store,
		registry: registry,
		mailer:   mailer,
		config:   config,
		metrics:  NewWorkerMetrics(),
	}
}

func (w *Worker) Metrics() *WorkerMetrics { return w.metrics }

// ProcessBatch runs one dispatch pass. It never returns an error: every
// failure is logged, isolated to its candidate and reflected in the counts.
func (w *Worker) ProcessBatch(ctx context.Context) BatchResult {
	result := BatchResult{BatchSize: w.config.BatchSize, DryRun: w.config.DryRun}

	if !w.config.Enabled {
		result.Disabled = true
		return result
	}

	candidates, err := w.store.ListDue(ctx, w.config.BatchSize)
	if err != nil {
		logger.Error("failed to list due reminders", "error", err)
		return result
	}
	if len(candidates) == 0 {
		return result
	}

	batchID := uuid.New().String()
	start := time.Now()
	logger.Info("processing reminder batch", "batch_id", batchID, "candidates", len(candidates), "dry_run", w.config.DryRun)

	// One transaction per candidate, strictly in order. This bounds lock
	// contention and keeps a bad row from taking the batch down with it.
	for _, rem := range candidates {
		outcome := w.processOne(ctx, batchID, rem)
		switch outcome {
		case outcomeSent:
			result.Sent++
		case outcomeFailed:
			result.Failed++
		case outcomeSkipped:
			result.Skipped++
		}
	}

	duration := time.Since(start)
	w.metrics.RecordBatch(result, duration)
	prom.AddDispatchBatchDuration(duration.Seconds())
	prom.AddReminderOutcomes(result.Sent, result.Failed, result.Skipped)

	logger.Info("reminder batch complete",
		"batch_id", batchID,
		"sent", result.Sent,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"duration", duration.String())

	return result
}

// processOne takes a reminder through lock, status re-check, render and send.
// The advisory lock is held from before the re-check until the status
// transition commits, so a concurrent worker either blocks here or observes a
// non-PENDING row.
func (w *Worker) processOne(ctx context.Context, batchID string, rem *model.Reminder) rowOutcome {
	outcome := outcomeFailed

	err := w.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := w.store.LockRow(ctx, rem.ID); err != nil {
			return fmt.Errorf("lock row: %w", err)
		}

		status, err := w.store.GetStatus(ctx, rem.ID)
		if err != nil {
			return fmt.Errorf("read status: %w", err)
		}
		if status != model.ReminderStatusPending {
			logger.Info("reminder already handled, skipping",
				"batch_id", batchID, "reminder_id", rem.ID, "status", string(status))
			outcome = outcomeSkipped
			return nil
		}

		subject, body := w.render(rem)

		if w.config.DryRun {
			if err := w.store.MarkSent(ctx, rem.ID); err != nil {
				return fmt.Errorf("mark sent: %w", err)
			}
			logger.Info("dry-run: reminder marked sent without delivery",
				"batch_id", batchID, "reminder_id", rem.ID, "to", rem.RecipientEmail)
			outcome = outcomeSent
			return nil
		}

		if sendErr := w.mailer.Send(ctx, rem.RecipientEmail, subject, body); sendErr != nil {
			logger.Warn("reminder delivery failed",
				"batch_id", batchID, "reminder_id", rem.ID, "to", rem.RecipientEmail, "error", sendErr)
			if err := w.store.MarkFailed(ctx, rem.ID, sendErr.Error()); err != nil {
				return fmt.Errorf("mark failed: %w", err)
			}
			outcome = outcomeFailed
			return nil
		}

		if err := w.store.MarkSent(ctx, rem.ID); err != nil {
			return fmt.Errorf("mark sent: %w", err)
		}
		logger.Info("reminder sent",
			"batch_id", batchID, "reminder_id", rem.ID, "to", rem.RecipientEmail, "template", rem.TemplateKey)
		outcome = outcomeSent
		return nil
	})

	if err != nil {
		// The transaction rolled back. Best-effort FAILED marking outside the
		// transaction so the row does not sit PENDING forever; the status
		// guard makes this safe if another worker got there first.
		logger.Error("reminder processing aborted",
			"batch_id", batchID, "reminder_id", rem.ID, "error", err)
		if markErr := w.store.MarkFailed(ctx, rem.ID, model.TruncateError(err.Error())); markErr != nil {
			logger.Error("failed to mark aborted reminder",
				"batch_id", batchID, "reminder_id", rem.ID, "error", markErr)
		}
		return outcomeFailed
	}

	return outcome
}

// render resolves the template and produces the final subject and enveloped
// body for one reminder.
func (w *Worker) render(rem *model.Reminder) (subject, body string) {
	tpl, known := w.registry.Resolve(rem.TemplateKey)
	if !known {
		logger.Warn("unknown template key, using default",
			"reminder_id", rem.ID, "template_key", rem.TemplateKey)
	}

	fields := map[string]string{
		"recipient_name": rem.RecipientName,
		"scheduled_date": rem.ScheduledFor.Format(scheduledDateFormat),
		"org_name":       w.registry.OrgName(),
	}
	// The per-message bag carries the most specific intent, so it wins on
	// key collisions.
	for k, v := range rem.TemplateData {
		fields[k] = v
	}

	subject = template.Render(tpl.Subject, fields)
	if rem.Subject != nil && *rem.Subject != "" {
		subject = *rem.Subject
	}
	body = w.registry.WrapEnvelope(template.Render(tpl.Body, fields))
	return subject, body
}
