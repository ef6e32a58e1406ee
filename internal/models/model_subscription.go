package models

import (
	"time"

	"github.com/vic9511/hotmart-subscriptions-sync/pkg/types"
)

// Subscription holds one row per paying buyer, keyed by normalized email.
// Rows are created or enriched by webhook deliveries and never deleted.
type Subscription struct {
	ID         string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	BuyerEmail string `gorm:"column:buyer_email;type:varchar(255);not null;uniqueIndex" json:"buyer_email"`
	// SubscriberCode is the provider-issued identifier. It may be unknown at
	// creation time and is only used to disambiguate cancellation updates,
	// never to create rows.
	SubscriberCode *string                  `gorm:"column:subscriber_code;type:varchar(128);index" json:"subscriber_code"`
	Plan           types.Plan               `gorm:"column:plan;type:varchar(16);not null;default:BASIC" json:"plan"`
	Status         types.SubscriptionStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	DateNextCharge *time.Time               `gorm:"column:date_next_charge;default:null" json:"date_next_charge"`
	// CancelPending is set once a cancellation notice arrives but the
	// subscription has not yet lapsed.
	CancelPending bool `gorm:"column:cancel_pending;not null;default:false" json:"cancel_pending"`
	// UserID references the external identity; lazily backfilled on reads.
	UserID    *string   `gorm:"column:user_id;type:uuid;default:null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// HasAccess derives current entitlement from stored fields: the row must be
// ACTIVE and the next charge either unset or still ahead of now.
func (s *Subscription) HasAccess(now time.Time) bool {
	if s == nil || s.Status != types.SubscriptionStatusActive {
		return false
	}
	return s.DateNextCharge == nil || s.DateNextCharge.After(now)
}
