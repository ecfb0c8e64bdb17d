package subscription

import (
	"time"
)

type RequestStatus string

const (
	RequestPending        RequestStatus = "pending"
	RequestApproved       RequestStatus = "approved"
	RequestRejected       RequestStatus = "rejected"
	RequestPaymentPending RequestStatus = "payment_pending"
	RequestCompleted      RequestStatus = "completed"
)

// requestTransitions is the full transition table of the upgrade workflow.
// Tenants only ever create pending requests; every transition is admin-triggered.
// payment_pending may fall back to approved when a payment fails, so the
// admin can retry the payment manually.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:        {RequestApproved, RequestRejected},
	RequestApproved:       {RequestPaymentPending},
	RequestPaymentPending: {RequestCompleted, RequestApproved},
}

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return s == RequestRejected || s == RequestCompleted
}

// UpgradeRequest records a tenant's request to move to a higher tier.
// Created by the tenant, mutated only by admins, terminal at completed/rejected.
type UpgradeRequest struct {
	ID            string        `json:"id" db:"id"`
	TenantID      string        `json:"tenant_id" db:"tenant_id"`
	CurrentTier   Tier          `json:"current_tier" db:"current_tier"`
	RequestedTier Tier          `json:"requested_tier" db:"requested_tier"`
	Status        RequestStatus `json:"status" db:"status"`
	AmountIDR     int64         `json:"amount_idr" db:"amount_idr"`
	RequestDate   time.Time     `json:"request_date" db:"request_date"`
	ProcessedAt   *time.Time    `json:"processed_at" db:"processed_at"`
	ProcessedBy   string        `json:"processed_by" db:"processed_by"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentCompleted || s == PaymentFailed || s == PaymentRefunded
}

// Payment tracks the manual transfer settling an approved upgrade request.
type Payment struct {
	ID               string        `json:"id" db:"id"`
	UpgradeRequestID string        `json:"upgrade_request_id" db:"upgrade_request_id"`
	TenantID         string        `json:"tenant_id" db:"tenant_id"`
	AmountIDR        int64         `json:"amount_idr" db:"amount_idr"`
	Method           string        `json:"method" db:"method"`
	Status           PaymentStatus `json:"status" db:"status"`
	Reference        string        `json:"reference" db:"reference"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// RequestFilter narrows upgrade request queries.
type RequestFilter struct {
	TenantID string        `query:"tenant_id"`
	Status   RequestStatus `query:"status"`
}
