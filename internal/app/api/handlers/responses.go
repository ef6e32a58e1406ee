package handlers

import (
	"time"

	"github.com/vic9511/hotmart-subscriptions-sync/pkg/types"
)

// Success bodies mirror the provider-facing contract; field names and the
// action strings are part of the wire format consumed by existing clients.

type PurchaseApprovedResponse struct {
	Success        bool                     `json:"success"`
	Action         string                   `json:"action"`
	BuyerEmail     string                   `json:"buyer_email"`
	SubscriberCode *string                  `json:"subscriber_code"`
	Plan           types.Plan               `json:"plan"`
	Status         types.SubscriptionStatus `json:"status"`
	DateNextCharge *time.Time               `json:"date_next_charge"`
}

type PurchaseInvalidResponse struct {
	Success    bool                     `json:"success"`
	Action     string                   `json:"action"`
	BuyerEmail string                   `json:"buyer_email"`
	EventType  string                   `json:"event_type"`
	Status     types.SubscriptionStatus `json:"status"`
}

type CancellationResponse struct {
	Success        bool       `json:"success"`
	Action         string     `json:"action"`
	SubscriberCode string     `json:"subscriber_code"`
	DateNextCharge *time.Time `json:"date_next_charge"`
}

// CancellationNotFoundResponse answers cancellations whose subscriber code
// resolves to no stored row; the code is echoed back for the caller's logs.
type CancellationNotFoundResponse struct {
	Error          string `json:"error"`
	SubscriberCode string `json:"subscriber_code"`
}

// VerifyResponse is returned when a subscription row exists.
type VerifyResponse struct {
	HasActiveSubscription bool                      `json:"hasActiveSubscription"`
	Plan                  *types.Plan               `json:"plan"`
	Status                *types.SubscriptionStatus `json:"status"`
	DateNextCharge        *time.Time                `json:"date_next_charge"`
	CancelPending         bool                      `json:"cancel_pending"`
	UserID                *string                   `json:"user_id"`
	Message               string                    `json:"message"`
}

// VerifyMissResponse is returned when no subscription record exists; the
// absence of a row is a negative answer, not an error.
type VerifyMissResponse struct {
	HasActiveSubscription bool   `json:"hasActiveSubscription"`
	Message               string `json:"message"`
}
