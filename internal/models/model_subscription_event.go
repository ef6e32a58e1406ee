package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionEvent is the append-only audit trail: one row per accepted
// webhook delivery, written after the parent subscription row is resolved.
// Use case: troubleshooting and forensics; rows are never mutated.
type SubscriptionEvent struct {
	ID             string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID string `gorm:"column:subscription_id;type:uuid;not null;index:idx_subscription_event,priority:1" json:"subscription_id"`
	// EventID is provider-assigned and repeats on redelivery; used for
	// pre-insert deduplication, not enforced unique.
	EventID   *string        `gorm:"column:event_id;type:varchar(128);index:idx_subscription_event,priority:2" json:"event_id"`
	EventType string         `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func (SubscriptionEvent) TableName() string {
	return "subscription_events"
}
