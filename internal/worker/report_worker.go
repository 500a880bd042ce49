// Package worker consumes ledger events, mirrors new entries to an external
// spreadsheet, and produces the periodic weekly digest for users who opted in.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/sheets"
	"cashflow/internal/storage"
)

// ReportWorker reacts to ledger mutations and runs the weekly digest.
type ReportWorker struct {
	storage   storage.Repository
	exporter  sheets.TransactionAppender // nil disables mirroring
	batchSize int
	now       func() time.Time
}

func NewReportWorker(storage storage.Repository, exporter sheets.TransactionAppender, batchSize int) *ReportWorker {
	return &ReportWorker{
		storage:   storage,
		exporter:  exporter,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// HandleLedgerEvent processes a single ledger event. It reloads the owner's
// ledger, re-evaluates the derived alerts, and mirrors newly created entries
// to the spreadsheet when an exporter is configured.
func (w *ReportWorker) HandleLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"user", event.UserEmail,
		"action", event.Action,
		"transaction_id", event.TransactionID)

	user, err := w.storage.GetUser(ctx, event.UserEmail)
	if err != nil {
		return fmt.Errorf("get user %s: %w", event.UserEmail, err)
	}

	txs, err := w.storage.LoadLedger(ctx, event.UserEmail)
	if err != nil {
		return fmt.Errorf("load ledger for %s: %w", event.UserEmail, err)
	}

	for _, n := range core.Notifications(txs, user.Settings, w.now()) {
		if n.Kind != core.KindWarning {
			continue
		}
		slog.WarnContext(ctx, "Limit alert raised",
			"user", event.UserEmail,
			"title", n.Title,
			"message", n.Message)
	}

	if event.Action == amqp.ActionCreated && event.TransactionID != "" {
		if err := w.mirrorTransaction(ctx, event.UserEmail, event.TransactionID); err != nil {
			return err
		}
	}

	return nil
}

func (w *ReportWorker) mirrorTransaction(ctx context.Context, owner, id string) error {
	if w.exporter == nil {
		slog.WarnContext(ctx, "No exporter configured, skipping spreadsheet mirror",
			"user", owner,
			"transaction_id", id)
		return nil
	}

	tx, err := w.storage.GetTransaction(ctx, owner, id)
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}

	ref, err := w.exporter.Append(ctx, owner, tx)
	if err != nil {
		return fmt.Errorf("mirror transaction %s: %w", id, err)
	}

	slog.InfoContext(ctx, "Mirrored transaction to spreadsheet",
		"user", owner,
		"transaction_id", id,
		"sheet_ref", ref,
		"amount_cents", tx.Amount.Cents)

	return nil
}

// WeeklyDigest summarizes one user's previous calendar week.
type WeeklyDigest struct {
	UserEmail     string
	WeekStart     time.Time
	Savings       core.Money
	TopCategories []core.CategoryAmount
	GoalProgress  float64
}

// RunWeeklyDigest computes the previous-week digest for every user who has
// weekly reports enabled. Failures on one user are logged and do not stop the
// others.
func (w *ReportWorker) RunWeeklyDigest(ctx context.Context) ([]WeeklyDigest, error) {
	users, err := w.storage.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	now := w.now()
	weekStart := core.WeekStart(now)
	prevStart := weekStart.AddDate(0, 0, -7)
	prevEnd := weekStart.Add(-time.Nanosecond)

	var digests []WeeklyDigest
	for _, u := range users {
		if !u.Settings.WeeklyReport {
			continue
		}
		if w.batchSize > 0 && len(digests) >= w.batchSize {
			slog.WarnContext(ctx, "Digest batch limit reached, remaining users deferred to next run",
				"batch_size", w.batchSize)
			break
		}

		txs, err := w.storage.LoadLedger(ctx, u.Email)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load ledger for digest",
				"user", u.Email,
				"error", err)
			continue
		}

		digest := WeeklyDigest{
			UserEmail:     u.Email,
			WeekStart:     prevStart,
			Savings:       core.SavingsBetween(txs, prevStart, prevEnd),
			TopCategories: core.TopCategories(core.OutflowByCategory(txs, prevStart, prevEnd), 3),
			GoalProgress:  core.GoalProgress(txs, u.Settings.SavingsGoal, now),
		}
		digests = append(digests, digest)

		slog.InfoContext(ctx, "Weekly digest computed",
			"user", u.Email,
			"week_start", prevStart.Format("2006-01-02"),
			"savings_cents", digest.Savings.Cents,
			"top_categories", len(digest.TopCategories),
			"goal_progress", digest.GoalProgress)
	}

	slog.InfoContext(ctx, "Weekly digest run completed",
		"users", len(users),
		"digests", len(digests))

	return digests, nil
}

// Run consumes ledger events and triggers the digest on every interval tick,
// until the context is cancelled or either loop fails.
func (w *ReportWorker) Run(ctx context.Context, client *amqp.Client, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.ConsumeLedgerEvents(ctx, func(event *amqp.LedgerEvent) error {
			return w.HandleLedgerEvent(ctx, event)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := w.RunWeeklyDigest(ctx); err != nil {
					slog.ErrorContext(ctx, "Weekly digest run failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}
