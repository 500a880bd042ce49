package sheets

import (
	"context"

	"cashflow/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionAppender mirrors a ledger entry into an external
	// spreadsheet.
	TransactionAppender interface {
		Append(ctx context.Context, owner string, tx core.Transaction) (rowRef string, err error)
	}
)
