package domain

import "time"

type PaymentRequestStatus string

const (
	PaymentStatusInitiated PaymentRequestStatus = "payment_initiated"
	PaymentStatusPending   PaymentRequestStatus = "payment_pending"
	PaymentStatusCompleted PaymentRequestStatus = "payment_completed"
	PaymentStatusFailed    PaymentRequestStatus = "payment_failed"
)

func (s PaymentRequestStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

func (s PaymentRequestStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether a payment request may move from s to next.
// Pending may loop back to itself on repeated polls; terminal states accept
// nothing further.
func (s PaymentRequestStatus) CanTransitionTo(next PaymentRequestStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case PaymentStatusInitiated:
		return next == PaymentStatusPending || next == PaymentStatusCompleted || next == PaymentStatusFailed
	case PaymentStatusPending:
		return next == PaymentStatusPending || next == PaymentStatusCompleted || next == PaymentStatusFailed
	}
	return false
}

// PaymentRequest records one initiated payment attempt, keyed by the merchant
// order id. Gateway responses are appended as they arrive; only status and
// response fields mutate after creation.
type PaymentRequest struct {
	OrderID     string               `json:"orderId" bson:"_id"`
	UserID      string               `json:"userId" bson:"user_id"`
	Amount      float64              `json:"amount" bson:"amount"`
	AmountPaisa int64                `json:"amountInPaisa" bson:"amount_in_paisa"`
	Status      PaymentRequestStatus `json:"status" bson:"status"`

	InitiateResponse     map[string]any `json:"phonepeResponse,omitempty" bson:"phonepe_response,omitempty"`
	VerificationResponse map[string]any `json:"verificationResponse,omitempty" bson:"verification_response,omitempty"`
	WebhookResponse      map[string]any `json:"webhookResponse,omitempty" bson:"webhook_response,omitempty"`
	FailureReason        string         `json:"failureReason,omitempty" bson:"failure_reason,omitempty"`

	CreatedAt   time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updated_at"`
	VerifiedAt  *time.Time `json:"verifiedAt,omitempty" bson:"verified_at,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completed_at,omitempty"`
	FailedAt    *time.Time `json:"failedAt,omitempty" bson:"failed_at,omitempty"`
}
