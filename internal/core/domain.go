package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	Inflow  TxType = "inflow"
	Outflow TxType = "outflow"
)

// DefaultCategory is used when a transaction carries no category.
const DefaultCategory = "Other"

type (
	TxType string

	// Timestamp pairs the display date/time shown in the ledger with the
	// authoritative instant. Date and Time are derived once at creation and
	// never recomputed; ISO drives all ordering and filtering.
	Timestamp struct {
		Date string    `json:"date"` // MM/DD/YY
		Time string    `json:"time"` // HH:MM:SS
		ISO  time.Time `json:"iso"`
	}

	// Transaction is a single ledger entry owned by exactly one user.
	Transaction struct {
		ID        string     `json:"id"`
		Type      TxType     `json:"type"`
		Amount    Money      `json:"amount"`
		Note      string     `json:"note"`
		Category  string     `json:"category,omitempty"`
		Date      string     `json:"date"`
		Time      string     `json:"time"`
		CreatedBy string     `json:"createdBy"`
		CreatedAt Timestamp  `json:"createdAt"`
		EditedBy  string     `json:"editedBy,omitempty"`
		EditedAt  *Timestamp `json:"editedAt,omitempty"`
	}

	// Settings holds the per-user alert configuration. A zero limit or goal
	// disables the corresponding check.
	Settings struct {
		SavingsGoal         Money `json:"savingsGoal"`
		DailySpendingLimit  Money `json:"dailySpendingLimit"`
		WeeklySpendingLimit Money `json:"weeklySpendingLimit"`
		DailyReminder       bool  `json:"dailyReminder"`
		WeeklyReport        bool  `json:"weeklyReport"`
	}

	User struct {
		Email    string   `json:"email"`
		Name     string   `json:"name"`
		PINHash  string   `json:"-"`
		Settings Settings `json:"settings"`
	}

	// Reflection is a free-text journal entry, created and deleted only by
	// explicit user action. There is no edit-in-place.
	Reflection struct {
		ID        string    `json:"id"`
		CreatedAt Timestamp `json:"date"`
		Text      string    `json:"text"`
	}

	// Session is the ephemeral identity carried by a signed token.
	Session struct {
		Email   string    `json:"email"`
		Name    string    `json:"name"`
		LoginAt Timestamp `json:"loginAt"`
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrEmptyNote      = errors.New("empty note")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrInvalidPIN     = errors.New("pin must be 4-12 digits")
	ErrEmptyName      = errors.New("empty name")
	ErrEmptyText      = errors.New("empty reflection text")
	ErrInvalidDate    = errors.New("invalid date")
	ErrDuplicateEmail = errors.New("email already registered")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NewTimestamp derives the display date/time from the given instant.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{
		Date: t.Format("01/02/06"),
		Time: t.Format("15:04:05"),
		ISO:  t,
	}
}

// Instant returns the authoritative instant of the timestamp.
func (ts Timestamp) Instant() time.Time {
	return ts.ISO
}

// ParseDisplayDate parses an MM/DD/YY ledger date. Two-digit years always map
// into the 2000s, matching how the display dates are produced.
func ParseDisplayDate(s string) (time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, ErrInvalidDate
	}
	mm, err1 := atoi(parts[0])
	dd, err2 := atoi(parts[1])
	yy, err3 := atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, ErrInvalidDate
	}
	if mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return time.Time{}, ErrInvalidDate
	}
	return time.Date(2000+yy, time.Month(mm), dd, 0, 0, 0, 0, time.Local), nil
}

func atoi(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, ErrInvalidDate
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidDate
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func (t TxType) Valid() bool {
	return t == Inflow || t == Outflow
}

func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.Note) == "" {
		return ErrEmptyNote
	}
	return nil
}

// CategoryOrDefault returns the transaction category, falling back to the
// literal "Other" when none was recorded.
func (tx Transaction) CategoryOrDefault() string {
	if tx.Category == "" {
		return DefaultCategory
	}
	return tx.Category
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPIN reports whether s is a 4-12 digit PIN.
func ValidPIN(s string) bool {
	if len(s) < 4 || len(s) > 12 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
