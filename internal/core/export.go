package core

type (
	// ExportUser is the profile slice included in an export. The PIN hash
	// never leaves storage.
	ExportUser struct {
		Email    string   `json:"email"`
		Name     string   `json:"name"`
		Settings Settings `json:"settings"`
	}

	// Export is the portable ledger envelope. Importing the Transactions
	// array of a previous export restores the ledger exactly.
	Export struct {
		ExportedAt   Timestamp     `json:"exportedAt"`
		User         *ExportUser   `json:"user,omitempty"`
		Transactions []Transaction `json:"transactions"`
	}
)
