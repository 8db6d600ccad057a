package log

// Common field names for structured logging
const (
	FieldComponent       = "component"
	FieldError           = "error"
	FieldOperation       = "operation"
	FieldAccountID       = "account_id"
	FieldTransactionID   = "transaction_id"
	FieldAmountCents     = "amount_cents"
	FieldTransactionType = "transaction_type"
	FieldBudgetCategory  = "budget_category_id"
	FieldSpendingCat     = "spending_category_id"
	FieldFundingEntryID  = "funding_entry_id"
	FieldEventID         = "event_id"
	FieldExportRef       = "export_ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentLedger   = "ledger"
	ComponentBudget   = "budget"
	ComponentTransfer = "transfer"
	ComponentStorage  = "storage"
	ComponentEvents   = "events"
	ComponentWorker   = "worker"
	ComponentExport   = "export"
	ComponentCache    = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpList     = "list"
	OpAppend   = "append"
	OpExport   = "export"
	OpValidate = "validate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
