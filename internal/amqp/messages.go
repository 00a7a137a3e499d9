package amqp

import (
	"encoding/json"
	"time"
)

// TransactionEvent is the lightweight message published after every
// ledger write. The worker fetches full rows from the database, so the
// event only carries identifiers.
type TransactionEvent struct {
	TransactionID int64     `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	CategoryID    int64     `json:"category_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionEvent(transactionID, userID, categoryID int64) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: transactionID,
		UserID:        userID,
		CategoryID:    categoryID,
		Timestamp:     time.Now(),
	}
}

func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
