package eventlog

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vic9511/hotmart-subscriptions-sync/internal/models"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/hotmart"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/logctx"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/tool"
)

// Service appends the audit trail. Every write here is best-effort: the
// subscription state change has already committed, so failures are logged
// and swallowed, never propagated to the caller.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Record writes one SubscriptionEvent for a resolved subscription. Redelivered
// provider event ids are detected with a pre-insert existence check and
// skipped, so retries do not pile up duplicate audit rows.
func (s *Service) Record(ctx context.Context, subscriptionID string, ev *hotmart.Event, eventType string) {
	if subscriptionID == "" {
		return
	}
	lg := logctx.FromCtx(ctx, s.log).With("subscription_id", subscriptionID, "event_type", eventType)

	if ev.ID != "" {
		var count int64
		err := s.db.WithContext(ctx).Model(&models.SubscriptionEvent{}).
			Where("subscription_id = ? AND event_id = ?", subscriptionID, ev.ID).
			Count(&count).Error
		if err != nil {
			lg.Warnw("event_dedup_check_failed", "event_id", ev.ID, "err", err)
		} else if count > 0 {
			lg.Infow("event_redelivery_skipped", "event_id", ev.ID)
			return
		}
	}

	row := &models.SubscriptionEvent{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: subscriptionID,
		EventID:        lo.EmptyableToPtr(ev.ID),
		EventType:      eventType,
		Payload:        datatypes.JSON(ev.Data),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		lg.Errorw("event_insert_failed", "event_id", ev.ID, "err", err)
	}
}
