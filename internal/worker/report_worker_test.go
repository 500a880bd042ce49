package worker

import (
	"context"
	"testing"
	"time"

	"cashflow/internal/amqp"
	"cashflow/internal/core"
	"cashflow/internal/storage"
)

type fakeExporter struct {
	appended []core.Transaction
	owners   []string
	err      error
}

func (f *fakeExporter) Append(_ context.Context, owner string, tx core.Transaction) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.owners = append(f.owners, owner)
	f.appended = append(f.appended, tx)
	return "Ledger!A2:H2", nil
}

func seedUser(t *testing.T, repo storage.Repository, email string, settings core.Settings) {
	t.Helper()
	u := core.User{Email: email, Name: "Maria", PINHash: "x", Settings: settings}
	if err := repo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
}

func seedTransaction(t *testing.T, repo storage.Repository, owner, id string, typ core.TxType, cents int64, at time.Time, category string) core.Transaction {
	t.Helper()
	tx := core.Transaction{
		ID:        id,
		Type:      typ,
		Amount:    core.Money{Cents: cents},
		Note:      "seeded",
		Category:  category,
		Date:      at.Format("01/02/06"),
		Time:      at.Format("15:04:05"),
		CreatedBy: owner,
		CreatedAt: core.NewTimestamp(at),
	}
	if err := repo.AppendTransaction(context.Background(), owner, tx); err != nil {
		t.Fatalf("AppendTransaction: %v", err)
	}
	return tx
}

func TestHandleLedgerEventMirrorsCreatedTransaction(t *testing.T) {
	repo := storage.NewMemoryRepository()
	seedUser(t, repo, "maria@example.com", core.Settings{})
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	tx := seedTransaction(t, repo, "maria@example.com", "tx_1", core.Outflow, 5000, now, "Food")

	exporter := &fakeExporter{}
	w := NewReportWorker(repo, exporter, 50)
	w.now = func() time.Time { return now }

	event := amqp.NewLedgerEvent("maria@example.com", "tx_1", amqp.ActionCreated)
	if err := w.HandleLedgerEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	if len(exporter.appended) != 1 {
		t.Fatalf("appended %d rows, want 1", len(exporter.appended))
	}
	if exporter.owners[0] != "maria@example.com" {
		t.Errorf("owner = %q", exporter.owners[0])
	}
	if exporter.appended[0].ID != tx.ID {
		t.Errorf("mirrored transaction %q, want %q", exporter.appended[0].ID, tx.ID)
	}
}

func TestHandleLedgerEventSkipsMirrorWithoutExporter(t *testing.T) {
	repo := storage.NewMemoryRepository()
	seedUser(t, repo, "maria@example.com", core.Settings{})
	seedTransaction(t, repo, "maria@example.com", "tx_1", core.Outflow, 5000, time.Now(), "")

	w := NewReportWorker(repo, nil, 50)
	event := amqp.NewLedgerEvent("maria@example.com", "tx_1", amqp.ActionCreated)
	if err := w.HandleLedgerEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleLedgerEvent without exporter: %v", err)
	}
}

func TestHandleLedgerEventDoesNotMirrorDeletes(t *testing.T) {
	repo := storage.NewMemoryRepository()
	seedUser(t, repo, "maria@example.com", core.Settings{})

	exporter := &fakeExporter{}
	w := NewReportWorker(repo, exporter, 50)

	event := amqp.NewLedgerEvent("maria@example.com", "tx_gone", amqp.ActionDeleted)
	if err := w.HandleLedgerEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}
	if len(exporter.appended) != 0 {
		t.Errorf("appended %d rows, want 0", len(exporter.appended))
	}
}

func TestHandleLedgerEventUnknownUser(t *testing.T) {
	repo := storage.NewMemoryRepository()
	w := NewReportWorker(repo, nil, 50)

	event := amqp.NewLedgerEvent("ghost@example.com", "", amqp.ActionUpdated)
	if err := w.HandleLedgerEvent(context.Background(), event); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestRunWeeklyDigest(t *testing.T) {
	repo := storage.NewMemoryRepository()
	seedUser(t, repo, "maria@example.com", core.Settings{
		WeeklyReport: true,
		SavingsGoal:  core.Money{Cents: 100000},
	})
	seedUser(t, repo, "optout@example.com", core.Settings{WeeklyReport: false})

	// Wednesday; previous week is Sun Mar 2 through Sat Mar 8.
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	prevWeek := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	seedTransaction(t, repo, "maria@example.com", "tx_1", core.Inflow, 50000, prevWeek, "")
	seedTransaction(t, repo, "maria@example.com", "tx_2", core.Outflow, 12000, prevWeek, "Food")
	seedTransaction(t, repo, "maria@example.com", "tx_3", core.Outflow, 3000, prevWeek, "Transport")
	// Current-week entry must not count toward the digest window.
	seedTransaction(t, repo, "maria@example.com", "tx_4", core.Outflow, 99900, now.Add(-time.Hour), "Food")

	w := NewReportWorker(repo, nil, 50)
	w.now = func() time.Time { return now }

	digests, err := w.RunWeeklyDigest(context.Background())
	if err != nil {
		t.Fatalf("RunWeeklyDigest: %v", err)
	}
	if len(digests) != 1 {
		t.Fatalf("got %d digests, want 1", len(digests))
	}

	d := digests[0]
	if d.UserEmail != "maria@example.com" {
		t.Errorf("digest user = %q", d.UserEmail)
	}
	if want := int64(35000); d.Savings.Cents != want {
		t.Errorf("previous-week savings = %d cents, want %d", d.Savings.Cents, want)
	}
	if len(d.TopCategories) != 2 {
		t.Fatalf("got %d top categories, want 2", len(d.TopCategories))
	}
	if d.TopCategories[0].Name != "Food" || d.TopCategories[0].Amount.Cents != 12000 {
		t.Errorf("top category = %+v", d.TopCategories[0])
	}
	if wantStart := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC); !d.WeekStart.Equal(wantStart) {
		t.Errorf("week start = %v, want %v", d.WeekStart, wantStart)
	}
}

func TestRunWeeklyDigestBatchLimit(t *testing.T) {
	repo := storage.NewMemoryRepository()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		seedUser(t, repo, email, core.Settings{WeeklyReport: true})
	}

	w := NewReportWorker(repo, nil, 2)
	digests, err := w.RunWeeklyDigest(context.Background())
	if err != nil {
		t.Fatalf("RunWeeklyDigest: %v", err)
	}
	if len(digests) != 2 {
		t.Errorf("got %d digests, want batch limit of 2", len(digests))
	}
}
