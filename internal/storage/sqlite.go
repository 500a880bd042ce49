package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cashflow/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const txColumns = `id, type, amount_cents, note, category, display_date, display_time, created_by, created_at, edited_by, edited_at`

func (r *SQLiteRepository) LoadLedger(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE owner_email = ? ORDER BY rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			// A malformed row degrades to absence rather than failing the read.
			slog.WarnContext(ctx, "Skipping unreadable ledger row", "owner", owner, "error", err)
			continue
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE owner_email = ? AND id = ?`, owner, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, owner string, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (owner_email, `+txColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		owner, tx.ID, string(tx.Type), tx.Amount.Cents, tx.Note, tx.Category,
		tx.Date, tx.Time, tx.CreatedBy, formatInstant(tx.CreatedAt),
		tx.EditedBy, formatEdited(tx.EditedAt))
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, owner string, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET type = ?, amount_cents = ?, note = ?, category = ?, edited_by = ?, edited_at = ?
		 WHERE owner_email = ? AND id = ?`,
		string(tx.Type), tx.Amount.Cents, tx.Note, tx.Category,
		tx.EditedBy, formatEdited(tx.EditedAt), owner, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE owner_email = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceLedger swaps the owner's entire ledger in one transaction, used by
// import. Insertion order of the new slice becomes the stored order.
func (r *SQLiteRepository) ReplaceLedger(ctx context.Context, owner string, txs []core.Transaction) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace ledger: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.ExecContext(ctx,
		`DELETE FROM transactions WHERE owner_email = ?`, owner); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	for _, tx := range txs {
		if _, err := dbTx.ExecContext(ctx,
			`INSERT INTO transactions (owner_email, `+txColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			owner, tx.ID, string(tx.Type), tx.Amount.Cents, tx.Note, tx.Category,
			tx.Date, tx.Time, tx.CreatedBy, formatInstant(tx.CreatedAt),
			tx.EditedBy, formatEdited(tx.EditedAt)); err != nil {
			return fmt.Errorf("insert imported transaction %s: %w", tx.ID, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit replace ledger: %w", err)
	}

	slog.InfoContext(ctx, "Ledger replaced", "owner", owner, "count", len(txs))
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, email string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT email, name, pin_hash, savings_goal_cents, daily_limit_cents,
		        weekly_limit_cents, daily_reminder, weekly_report
		 FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, name, pin_hash, savings_goal_cents, daily_limit_cents,
		                    weekly_limit_cents, daily_reminder, weekly_report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.PINHash,
		u.Settings.SavingsGoal.Cents, u.Settings.DailySpendingLimit.Cents,
		u.Settings.WeeklySpendingLimit.Cents,
		boolToInt(u.Settings.DailyReminder), boolToInt(u.Settings.WeeklyReport))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "email", u.Email)
	return nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, pin_hash = ?, savings_goal_cents = ?, daily_limit_cents = ?,
		     weekly_limit_cents = ?, daily_reminder = ?, weekly_report = ?
		 WHERE email = ?`,
		u.Name, u.PINHash,
		u.Settings.SavingsGoal.Cents, u.Settings.DailySpendingLimit.Cents,
		u.Settings.WeeklySpendingLimit.Cents,
		boolToInt(u.Settings.DailyReminder), boolToInt(u.Settings.WeeklyReport),
		u.Email)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT email, name, pin_hash, savings_goal_cents, daily_limit_cents,
		        weekly_limit_cents, daily_reminder, weekly_report
		 FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *SQLiteRepository) ListReflections(ctx context.Context, owner string) ([]core.Reflection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, text FROM reflections WHERE owner_email = ? ORDER BY rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	defer rows.Close()

	var refs []core.Reflection
	for rows.Next() {
		var (
			ref       core.Reflection
			createdAt string
		)
		if err := rows.Scan(&ref.ID, &createdAt, &ref.Text); err != nil {
			return nil, fmt.Errorf("scan reflection: %w", err)
		}
		at, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable reflection row", "owner", owner, "error", err)
			continue
		}
		ref.CreatedAt = core.NewTimestamp(at)
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reflections: %w", err)
	}
	return refs, nil
}

func (r *SQLiteRepository) AppendReflection(ctx context.Context, owner string, ref core.Reflection) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reflections (id, owner_email, created_at, text) VALUES (?, ?, ?, ?)`,
		ref.ID, owner, formatInstant(ref.CreatedAt), ref.Text)
	if err != nil {
		return fmt.Errorf("append reflection: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteReflection(ctx context.Context, owner, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reflections WHERE owner_email = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete reflection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete reflection rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteAllReflections(ctx context.Context, owner string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM reflections WHERE owner_email = ?`, owner); err != nil {
		return fmt.Errorf("delete all reflections: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx        core.Transaction
		typ       string
		cents     int64
		createdAt string
		editedAt  sql.NullString
	)
	if err := row.Scan(&tx.ID, &typ, &cents, &tx.Note, &tx.Category,
		&tx.Date, &tx.Time, &tx.CreatedBy, &createdAt, &tx.EditedBy, &editedAt); err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TxType(typ)
	tx.Amount = core.Money{Cents: cents}

	at, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	tx.CreatedAt = core.NewTimestamp(at)
	// Stored display fields win over re-derived ones.
	if tx.Date == "" {
		tx.Date = tx.CreatedAt.Date
	}
	if tx.Time == "" {
		tx.Time = tx.CreatedAt.Time
	}

	if editedAt.Valid && editedAt.String != "" {
		eat, err := time.Parse(time.RFC3339Nano, editedAt.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse edited_at: %w", err)
		}
		ts := core.NewTimestamp(eat)
		tx.EditedAt = &ts
	}
	return tx, nil
}

func scanUser(row rowScanner) (core.User, error) {
	var (
		u                                 core.User
		goal, daily, weekly               int64
		dailyReminderInt, weeklyReportInt int
	)
	if err := row.Scan(&u.Email, &u.Name, &u.PINHash, &goal, &daily, &weekly,
		&dailyReminderInt, &weeklyReportInt); err != nil {
		return core.User{}, err
	}
	u.Settings = core.Settings{
		SavingsGoal:         core.Money{Cents: goal},
		DailySpendingLimit:  core.Money{Cents: daily},
		WeeklySpendingLimit: core.Money{Cents: weekly},
		DailyReminder:       dailyReminderInt != 0,
		WeeklyReport:        weeklyReportInt != 0,
	}
	return u, nil
}

func formatInstant(ts core.Timestamp) string {
	return ts.Instant().Format(time.RFC3339Nano)
}

func formatEdited(ts *core.Timestamp) any {
	if ts == nil {
		return nil
	}
	return formatInstant(*ts)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
