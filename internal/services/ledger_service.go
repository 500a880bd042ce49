// Package services orchestrates storage, auth and event publishing behind
// the HTTP layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cashflow/internal/amqp"
	"cashflow/internal/auth"
	"cashflow/internal/core"
	"cashflow/internal/storage"
)

// EventPublisher announces ledger mutations. A nil publisher disables
// events; publish failures never fail the triggering request.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

type LedgerService struct {
	repo      storage.Repository
	publisher EventPublisher
	now       func() time.Time
}

func NewLedgerService(repo storage.Repository, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

type (
	// TransactionInput carries the user-editable fields of a ledger entry.
	TransactionInput struct {
		Type     core.TxType
		Amount   core.Money
		Note     string
		Category string
	}

	// ListFilter narrows ListTransactions. Type empty means both kinds;
	// Search matches note substrings case-insensitively, or the formatted
	// amount.
	ListFilter struct {
		Period core.Period
		Type   core.TxType
		Search string
	}

	// SummaryReport is the dashboard payload for one period.
	SummaryReport struct {
		Totals       core.Totals           `json:"totals"`
		Days         []core.DaySummary     `json:"days"`
		Categories   []core.CategoryAmount `json:"categories"`
		GoalProgress float64               `json:"goalProgress"`
	}
)

// Register creates a user after validating email shape, PIN shape and email
// uniqueness. The PIN is stored only as a bcrypt hash.
func (s *LedgerService) Register(ctx context.Context, email, name, pin string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !core.ValidEmail(email) {
		return core.User{}, core.ErrInvalidEmail
	}
	if strings.TrimSpace(name) == "" {
		return core.User{}, core.ErrEmptyName
	}
	if !core.ValidPIN(pin) {
		return core.User{}, core.ErrInvalidPIN
	}

	if _, err := s.repo.GetUser(ctx, email); err == nil {
		return core.User{}, core.ErrDuplicateEmail
	} else if !errors.Is(err, storage.ErrNotFound) {
		return core.User{}, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := auth.HashPIN(pin)
	if err != nil {
		return core.User{}, fmt.Errorf("hash pin: %w", err)
	}

	u := core.User{Email: email, Name: strings.TrimSpace(name), PINHash: hash}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "email", email)
	return u, nil
}

var ErrBadCredentials = errors.New("wrong email or pin")

// Login verifies the credentials and returns the user. Token issuance is the
// transport's concern.
func (s *LedgerService) Login(ctx context.Context, email, pin string) (core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetUser(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrBadCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	if !auth.CheckPIN(u.PINHash, pin) {
		return core.User{}, ErrBadCredentials
	}
	return u, nil
}

// ResetPIN replaces a user's PIN. The identity check is the email itself:
// this mirrors a recovery flow where the reset link owner controls the
// mailbox.
func (s *LedgerService) ResetPIN(ctx context.Context, email, newPIN string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if !core.ValidPIN(newPIN) {
		return core.ErrInvalidPIN
	}
	u, err := s.repo.GetUser(ctx, email)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	hash, err := auth.HashPIN(newPIN)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	u.PINHash = hash
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	slog.InfoContext(ctx, "PIN reset", "email", email)
	return nil
}

// UpdateProfile changes the display name and, when newPIN is non-empty, the
// PIN.
func (s *LedgerService) UpdateProfile(ctx context.Context, email, name, newPIN string) (core.User, error) {
	if strings.TrimSpace(name) == "" {
		return core.User{}, core.ErrEmptyName
	}
	u, err := s.repo.GetUser(ctx, email)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Name = strings.TrimSpace(name)
	if newPIN != "" {
		if !core.ValidPIN(newPIN) {
			return core.User{}, core.ErrInvalidPIN
		}
		hash, err := auth.HashPIN(newPIN)
		if err != nil {
			return core.User{}, fmt.Errorf("hash pin: %w", err)
		}
		u.PINHash = hash
	}
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (s *LedgerService) SaveSettings(ctx context.Context, email string, settings core.Settings) (core.User, error) {
	u, err := s.repo.GetUser(ctx, email)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.Settings = settings
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (s *LedgerService) GetUser(ctx context.Context, email string) (core.User, error) {
	u, err := s.repo.GetUser(ctx, email)
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CreateTransaction records a new ledger entry. The server assigns the ID
// and the timestamps; CreatedBy is the session owner.
func (s *LedgerService) CreateTransaction(ctx context.Context, owner string, in TransactionInput) (core.Transaction, error) {
	now := s.now()
	ts := core.NewTimestamp(now)
	tx := core.Transaction{
		ID:        "tx_" + uuid.NewString(),
		Type:      in.Type,
		Amount:    in.Amount,
		Note:      strings.TrimSpace(in.Note),
		Category:  strings.TrimSpace(in.Category),
		Date:      ts.Date,
		Time:      ts.Time,
		CreatedBy: owner,
		CreatedAt: ts,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.repo.AppendTransaction(ctx, owner, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"user", owner,
		"transaction_id", tx.ID,
		"transaction_type", string(tx.Type),
		"amount_cents", tx.Amount.Cents)

	s.publish(ctx, owner, tx.ID, amqp.ActionCreated)
	return tx, nil
}

// UpdateTransaction edits type, amount, note and category in place and
// stamps the edit audit fields. A missing ID surfaces as ErrNotFound.
func (s *LedgerService) UpdateTransaction(ctx context.Context, owner, id string, in TransactionInput) (core.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, err
	}

	tx.Type = in.Type
	tx.Amount = in.Amount
	tx.Note = strings.TrimSpace(in.Note)
	tx.Category = strings.TrimSpace(in.Category)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	editedAt := core.NewTimestamp(s.now())
	tx.EditedBy = owner
	tx.EditedAt = &editedAt

	if err := s.repo.UpdateTransaction(ctx, owner, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, owner, tx.ID, amqp.ActionUpdated)
	return tx, nil
}

// DeleteTransaction removes an entry. Deleting an ID that is already gone is
// a no-op after a log line, not an error.
func (s *LedgerService) DeleteTransaction(ctx context.Context, owner, id string) error {
	err := s.repo.DeleteTransaction(ctx, owner, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Delete of missing transaction ignored", "user", owner, "transaction_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, owner, id, amqp.ActionDeleted)
	return nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, owner string, f ListFilter) ([]core.Transaction, error) {
	ledger, err := s.repo.LoadLedger(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	txs := core.FilterPeriod(ledger, f.Period)
	if f.Type == "" && f.Search == "" {
		return txs, nil
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := txs[:0]
	for _, tx := range txs {
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Note), search) &&
			!strings.Contains(tx.Amount.String(), search) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// Summary computes the dashboard numbers for a period: totals, per-day flows
// with the running balance, category totals and savings-goal progress.
func (s *LedgerService) Summary(ctx context.Context, owner string, p core.Period) (SummaryReport, error) {
	ledger, err := s.repo.LoadLedger(ctx, owner)
	if err != nil {
		return SummaryReport{}, fmt.Errorf("load ledger: %w", err)
	}
	u, err := s.repo.GetUser(ctx, owner)
	if err != nil {
		return SummaryReport{}, fmt.Errorf("get user: %w", err)
	}

	txs := core.FilterPeriod(ledger, p)
	report := SummaryReport{
		Totals:       core.Aggregate(txs),
		Days:         core.DailySummaries(txs),
		Categories:   core.TopCategories(core.CategoryTotals(txs), 0),
		GoalProgress: core.GoalProgress(ledger, u.Settings.SavingsGoal, s.now()),
	}
	return report, nil
}

func (s *LedgerService) Insights(ctx context.Context, owner string) (core.Insights, error) {
	ledger, err := s.repo.LoadLedger(ctx, owner)
	if err != nil {
		return core.Insights{}, fmt.Errorf("load ledger: %w", err)
	}
	return core.ComputeInsights(ledger, s.now()), nil
}

func (s *LedgerService) Notifications(ctx context.Context, owner string) ([]core.Notification, error) {
	ledger, err := s.repo.LoadLedger(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	u, err := s.repo.GetUser(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return core.Notifications(ledger, u.Settings, s.now()), nil
}

func (s *LedgerService) MonthlySavings(ctx context.Context, owner string, year int) ([12]core.Money, error) {
	ledger, err := s.repo.LoadLedger(ctx, owner)
	if err != nil {
		return [12]core.Money{}, fmt.Errorf("load ledger: %w", err)
	}
	return core.MonthlySavings(ledger, year), nil
}

func (s *LedgerService) AddReflection(ctx context.Context, owner, text string) (core.Reflection, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return core.Reflection{}, core.ErrEmptyText
	}
	ref := core.Reflection{
		ID:        "ref_" + uuid.NewString(),
		CreatedAt: core.NewTimestamp(s.now()),
		Text:      text,
	}
	if err := s.repo.AppendReflection(ctx, owner, ref); err != nil {
		return core.Reflection{}, fmt.Errorf("append reflection: %w", err)
	}
	return ref, nil
}

// ListReflections returns the journal newest first.
func (s *LedgerService) ListReflections(ctx context.Context, owner string) ([]core.Reflection, error) {
	refs, err := s.repo.ListReflections(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	for i, j := 0, len(refs)-1; i < j; i, j = i+1, j-1 {
		refs[i], refs[j] = refs[j], refs[i]
	}
	return refs, nil
}

// DeleteReflection removes one entry; a missing ID is already deleted.
func (s *LedgerService) DeleteReflection(ctx context.Context, owner, id string) error {
	err := s.repo.DeleteReflection(ctx, owner, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Delete of missing reflection ignored", "user", owner, "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete reflection: %w", err)
	}
	return nil
}

func (s *LedgerService) DeleteAllReflections(ctx context.Context, owner string) error {
	if err := s.repo.DeleteAllReflections(ctx, owner); err != nil {
		return fmt.Errorf("delete all reflections: %w", err)
	}
	return nil
}

// Export packages the ledger with the owner's profile for download. The
// transactions array round-trips losslessly through Import.
func (s *LedgerService) Export(ctx context.Context, owner string) (core.Export, error) {
	ledger, err := s.repo.LoadLedger(ctx, owner)
	if err != nil {
		return core.Export{}, fmt.Errorf("load ledger: %w", err)
	}
	u, err := s.repo.GetUser(ctx, owner)
	if err != nil {
		return core.Export{}, fmt.Errorf("get user: %w", err)
	}
	return core.Export{
		ExportedAt:   core.NewTimestamp(s.now()),
		User:         &core.ExportUser{Email: u.Email, Name: u.Name, Settings: u.Settings},
		Transactions: ledger,
	}, nil
}

// Import replaces the ledger with a previously exported transactions array.
// Every record is validated before anything is written.
func (s *LedgerService) Import(ctx context.Context, owner string, txs []core.Transaction) error {
	seen := make(map[string]bool, len(txs))
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("invalid transaction %s: %w", tx.ID, err)
		}
		if tx.ID == "" || seen[tx.ID] {
			return fmt.Errorf("duplicate or empty transaction id %q", tx.ID)
		}
		seen[tx.ID] = true
	}

	if err := s.repo.ReplaceLedger(ctx, owner, txs); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}

	slog.InfoContext(ctx, "Ledger imported", "user", owner, "count", len(txs))
	s.publish(ctx, owner, "", amqp.ActionImported)
	return nil
}

func (s *LedgerService) publish(ctx context.Context, owner, txID, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(owner, txID, action)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"error", err,
			"user", owner,
			"action", action)
	}
}
