package domain

// Transaction statuses. pending is the only non-terminal state.
const (
	TransactionPending   = "pending"
	TransactionCompleted = "completed"
	TransactionFailed    = "failed"
)

const (
	PaymentMethodMpesa = "mpesa"
)

const (
	NotificationPaymentCompleted = "PAYMENT_COMPLETED"
	NotificationPaymentFailed    = "PAYMENT_FAILED"
)

const (
	AuditMpesaCompleted      = "mpesa_payment_completed"
	AuditMpesaFailed         = "mpesa_payment_failed"
	AuditMpesaCallbackDenied = "mpesa_callback_denied"
)

