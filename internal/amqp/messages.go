package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// TransactionCommitted announces a newly saved transaction. It carries only
// identifiers; consumers load the full record from the store.
type TransactionCommitted struct {
	MessageID     string    `json:"message_id"`
	TransactionID int64     `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionCommitted creates a message with a fresh message id.
func NewTransactionCommitted(transactionID, userID int64) *TransactionCommitted {
	return &TransactionCommitted{
		MessageID:     uuid.NewString(),
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TransactionCommitted) Validate() error {
	if m.TransactionID <= 0 {
		return errors.New("transaction id must be positive")
	}
	if m.UserID == 0 {
		return errors.New("user id is required")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *TransactionCommitted) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionCommittedFromJSON decodes and validates a message.
func TransactionCommittedFromJSON(data []byte) (*TransactionCommitted, error) {
	var msg TransactionCommitted
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
