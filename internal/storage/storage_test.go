package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"cashflow/internal/core"
)

func testUser() core.User {
	return core.User{
		Email:   "maria@example.com",
		Name:    "Maria",
		PINHash: "$2a$10$abcdefghijklmnopqrstuv",
		Settings: core.Settings{
			SavingsGoal:         core.Money{Cents: 500000},
			DailySpendingLimit:  core.Money{Cents: 50000},
			WeeklySpendingLimit: core.Money{Cents: 200000},
			DailyReminder:       true,
		},
	}
}

func testTransaction(id string, at time.Time) core.Transaction {
	ts := core.NewTimestamp(at)
	return core.Transaction{
		ID:        id,
		Type:      core.Outflow,
		Amount:    core.Money{Cents: 1250},
		Note:      "lunch",
		Category:  "Food",
		Date:      ts.Date,
		Time:      ts.Time,
		CreatedBy: "maria@example.com",
		CreatedAt: ts,
	}
}

// exerciseRepository runs the shared contract against any implementation.
func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	owner := "maria@example.com"

	// Users.
	if _, err := repo.GetUser(ctx, owner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: got %v, want ErrNotFound", err)
	}
	u := testUser()
	if err := repo.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	got, err := repo.GetUser(ctx, owner)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !reflect.DeepEqual(got, u) {
		t.Errorf("user round-trip: got %+v, want %+v", got, u)
	}

	u.Name = "Maria Santos"
	u.Settings.WeeklyReport = true
	if err := repo.UpdateUser(ctx, u); err != nil {
		t.Fatalf("update user: %v", err)
	}
	got, err = repo.GetUser(ctx, owner)
	if err != nil {
		t.Fatalf("get updated user: %v", err)
	}
	if got.Name != "Maria Santos" || !got.Settings.WeeklyReport {
		t.Errorf("update not persisted: %+v", got)
	}

	users, err := repo.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Errorf("got %d users, want 1", len(users))
	}

	// Ledger.
	base := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	tx1 := testTransaction("tx_1", base)
	tx2 := testTransaction("tx_2", base.Add(time.Hour))
	tx2.Type = core.Inflow
	tx2.Category = ""
	for _, tx := range []core.Transaction{tx1, tx2} {
		if err := repo.AppendTransaction(ctx, owner, tx); err != nil {
			t.Fatalf("append %s: %v", tx.ID, err)
		}
	}

	ledger, err := repo.LoadLedger(ctx, owner)
	if err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(ledger) != 2 {
		t.Fatalf("got %d records, want 2", len(ledger))
	}
	// Insertion order preserved.
	if ledger[0].ID != "tx_1" || ledger[1].ID != "tx_2" {
		t.Errorf("order not preserved: %s, %s", ledger[0].ID, ledger[1].ID)
	}
	if !ledger[0].CreatedAt.Instant().Equal(base) {
		t.Errorf("created_at round-trip: got %v, want %v", ledger[0].CreatedAt.Instant(), base)
	}

	// Update with edit audit fields.
	editedAt := core.NewTimestamp(base.Add(2 * time.Hour))
	tx1.Note = "lunch with team"
	tx1.EditedBy = owner
	tx1.EditedAt = &editedAt
	if err := repo.UpdateTransaction(ctx, owner, tx1); err != nil {
		t.Fatalf("update transaction: %v", err)
	}
	gotTx, err := repo.GetTransaction(ctx, owner, "tx_1")
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if gotTx.Note != "lunch with team" || gotTx.EditedAt == nil {
		t.Errorf("edit not persisted: %+v", gotTx)
	}

	if err := repo.UpdateTransaction(ctx, owner, testTransaction("tx_missing", base)); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: got %v, want ErrNotFound", err)
	}

	// Per-owner partitioning: another user sees nothing.
	other, err := repo.LoadLedger(ctx, "other@example.com")
	if err != nil {
		t.Fatalf("load other ledger: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("cross-user leak: %d records", len(other))
	}

	// Replace (import) then delete.
	if err := repo.ReplaceLedger(ctx, owner, []core.Transaction{tx2}); err != nil {
		t.Fatalf("replace ledger: %v", err)
	}
	ledger, err = repo.LoadLedger(ctx, owner)
	if err != nil {
		t.Fatalf("load replaced ledger: %v", err)
	}
	if len(ledger) != 1 || ledger[0].ID != "tx_2" {
		t.Fatalf("replace result: %+v", ledger)
	}
	if err := repo.DeleteTransaction(ctx, owner, "tx_2"); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, owner, "tx_2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}

	// Reflections.
	ref := core.Reflection{ID: "ref_1", CreatedAt: core.NewTimestamp(base), Text: "saved more this week"}
	if err := repo.AppendReflection(ctx, owner, ref); err != nil {
		t.Fatalf("append reflection: %v", err)
	}
	refs, err := repo.ListReflections(ctx, owner)
	if err != nil {
		t.Fatalf("list reflections: %v", err)
	}
	if len(refs) != 1 || refs[0].Text != ref.Text {
		t.Fatalf("reflections: %+v", refs)
	}
	if err := repo.DeleteReflection(ctx, owner, "ref_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing reflection: got %v, want ErrNotFound", err)
	}
	if err := repo.DeleteAllReflections(ctx, owner); err != nil {
		t.Fatalf("delete all reflections: %v", err)
	}
	refs, err = repo.ListReflections(ctx, owner)
	if err != nil {
		t.Fatalf("list after delete all: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("reflections remain after delete all: %+v", refs)
	}
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "cashflow.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	exerciseRepository(t, repo)
}

func TestMemoryRepositoryDuplicateEmail(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	if err := repo.CreateUser(ctx, testUser()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateUser(ctx, testUser()); !errors.Is(err, core.ErrDuplicateEmail) {
		t.Errorf("got %v, want ErrDuplicateEmail", err)
	}
}
