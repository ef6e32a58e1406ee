package access

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/subscription"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/models"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/platform/directory"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/logctx"
)

// Directory resolves external identities by email. Satisfied by
// directory.Client; narrowed to an interface so verification tests can stub it.
type Directory interface {
	Enabled() bool
	UserIDByEmail(ctx context.Context, email string) (string, error)
}

// Service answers entitlement queries. Verification is a pure read apart
// from the opportunistic identity backfill, which is advisory and
// self-healing: its failures degrade to user_id null, never to an error.
type Service struct {
	db  *gorm.DB
	sub *subscription.Service
	dir Directory
	log *zap.SugaredLogger
	now func() time.Time
}

func NewService(db *gorm.DB, sub *subscription.Service, dir *directory.Client, log *zap.SugaredLogger) *Service {
	return &Service{db: db, sub: sub, dir: dir, log: log, now: time.Now}
}

// Result is the computed access view for one email.
type Result struct {
	Subscription *models.Subscription
	HasAccess    bool
}

// VerifyByEmail computes current entitlement. An absent row is not an error:
// it means no subscription record, hence no access. When the row has no
// linked user_id, the directory is consulted and a hit is written back.
func (s *Service) VerifyByEmail(ctx context.Context, email string) (*Result, error) {
	row, err := s.sub.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	if row.UserID == nil {
		s.linkUserID(ctx, row)
	}

	return &Result{Subscription: row, HasAccess: row.HasAccess(s.now())}, nil
}

// linkUserID backfills the external identity reference. Best-effort on both
// sides: lookup and write-back failures are logged and the row keeps a nil
// user_id.
func (s *Service) linkUserID(ctx context.Context, row *models.Subscription) {
	if s.dir == nil || !s.dir.Enabled() {
		return
	}
	lg := logctx.FromCtx(ctx, s.log).With("subscription_id", row.ID)

	userID, err := s.dir.UserIDByEmail(ctx, row.BuyerEmail)
	if err != nil {
		lg.Warnw("identity_lookup_failed", "err", err)
		return
	}
	if userID == "" {
		return
	}

	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", row.ID).Update("user_id", userID).Error; err != nil {
		lg.Errorw("identity_backfill_failed", "user_id", userID, "err", err)
		return
	}
	row.UserID = &userID
	lg.Infow("identity_backfilled", "user_id", userID)
}
