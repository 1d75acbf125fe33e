package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myfinance/internal/amqp"
	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/store"
)

// TransactionAppender writes a transaction to an external ledger.
type TransactionAppender interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) (ref string, err error)
}

// SyncWorker copies committed transactions from the store to the spreadsheet.
type SyncWorker struct {
	store  store.TransactionGetter
	sheets TransactionAppender
	logger *log.Logger
}

func NewSyncWorker(getter store.TransactionGetter, sheets TransactionAppender, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		store:  getter,
		sheets: sheets,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleTransactionCommitted syncs one transaction. A message for a transaction
// that no longer exists is dropped; any other failure is returned so the
// message is redelivered.
func (w *SyncWorker) HandleTransactionCommitted(ctx context.Context, msg *amqp.TransactionCommitted) error {
	start := time.Now()
	w.logger.InfoContext(ctx, "Processing commit message",
		log.FieldTransactionID, msg.TransactionID,
		log.FieldUserID, msg.UserID,
		"message_id", msg.MessageID)

	tx, err := w.store.Get(ctx, msg.TransactionID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Transaction not found, dropping message",
			log.FieldTransactionID, msg.TransactionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.sheets.AppendTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("sync transaction to sheets: %w", err)
	}

	w.logger.InfoContext(ctx, "Transaction synced",
		log.FieldTransactionID, tx.ID,
		log.FieldOperation, log.OpSync,
		log.FieldSheetsRef, ref,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}
