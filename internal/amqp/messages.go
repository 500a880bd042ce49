package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event actions.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
)

// LedgerEvent announces a ledger mutation. It carries only identifiers; the
// worker reloads the ledger from storage when handling it.
type LedgerEvent struct {
	UserEmail     string    `json:"userEmail"`
	TransactionID string    `json:"transactionId,omitempty"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEvent(userEmail, transactionID, action string) *LedgerEvent {
	return &LedgerEvent{
		UserEmail:     userEmail,
		TransactionID: transactionID,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
