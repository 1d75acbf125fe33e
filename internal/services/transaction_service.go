package services

import (
	"context"
	"errors"
	"fmt"

	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/store"
)

// Publisher announces committed transactions to other processes.
type Publisher interface {
	PublishTransactionCommitted(ctx context.Context, transactionID, userID int64) error
}

// TransactionService saves transactions and publishes a commit event for each.
type TransactionService struct {
	writer    store.TransactionWriter
	publisher Publisher
	logger    *log.Logger
}

// NewTransactionService wires the writer and an optional publisher; a nil
// publisher disables events.
func NewTransactionService(writer store.TransactionWriter, publisher Publisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		writer:    writer,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentStorage),
	}
}

// Save stores tx first, then publishes the event. A publish failure is logged
// and does not fail the call since the transaction is already saved.
func (s *TransactionService) Save(ctx context.Context, tx core.Transaction) (int64, error) {
	id, err := s.writer.Save(ctx, tx)
	if err != nil {
		if !errors.Is(err, core.ErrPersistence) {
			err = core.NewPersistenceError("save transaction", err)
		}
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Publisher not configured, skipping commit event",
			log.FieldTransactionID, id)
		return id, nil
	}
	if err := s.publisher.PublishTransactionCommitted(ctx, id, tx.UserID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish commit event",
			log.FieldTransactionID, id,
			log.FieldUserID, tx.UserID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
	return id, nil
}
