package log

import "myfinance/internal/core"

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldUserID        = "user_id"
	FieldState         = "state"
	FieldInput         = "input"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldTransactionID = "transaction_id"
	FieldType          = "type"
	FieldCategory      = "category"
	FieldSubcategory   = "subcategory"
	FieldAmount        = "amount"
	FieldCurrency      = "currency"
	FieldDate          = "date"
	FieldWindow        = "window"
	FieldLineItems     = "line_items"
	FieldBackend       = "backend"
	FieldSheetsRef     = "sheets_ref"
	FieldDuration      = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentWizard  = "wizard"
	ComponentSession = "session"
	ComponentStorage = "storage"
	ComponentStats   = "stats"
	ComponentReport  = "report"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentConsole = "console"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpCommit    = "commit"
	OpQuery     = "query"
	OpAggregate = "aggregate"
	OpExport    = "export"
	OpPublish   = "publish"
	OpSync      = "sync"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeIntegration   = "integration_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithUser adds user id field
func (f LogFields) WithUser(userID int64) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(tx core.Transaction) LogFields {
	if tx.ID != 0 {
		f[FieldTransactionID] = tx.ID
	}
	f[FieldUserID] = tx.UserID
	f[FieldType] = string(tx.Type)
	f[FieldCategory] = tx.Category
	if tx.Subcategory != nil {
		f[FieldSubcategory] = *tx.Subcategory
	}
	f[FieldAmount] = tx.Amount.String()
	f[FieldCurrency] = tx.Currency
	f[FieldDate] = tx.Date.String()
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
