package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vic9511/hotmart-subscriptions-sync/internal/models"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/hotmart"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/logctx"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/tool"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/types"
)

var (
	// ErrMissingEmail means the payload carried no usable buyer email.
	ErrMissingEmail = errors.New("buyer email is required")
	// ErrMissingSubscriberCode means a cancellation payload carried no code.
	ErrMissingSubscriberCode = errors.New("subscriber code is required")
	// ErrSubscriptionNotFound means a cancellation targeted a code with no row.
	ErrSubscriptionNotFound = errors.New("subscription not found for subscriber_code")
	// ErrMalformedData means the data object could not be decoded.
	ErrMalformedData = errors.New("malformed event data")
)

// Service reconciles incoming webhook events into subscription rows. All
// email-keyed writes go through a single idempotent upsert on buyer_email;
// cancellation is an update against a row resolved by subscriber_code.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
	now func() time.Time
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log, now: time.Now}
}

// NormalizeEmail trims and lower-cases the lookup/merge key.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ApplyPurchaseApproved upserts an ACTIVE row with the classified plan and
// next-charge date, creating the row when the buyer is new. A missing
// next-charge falls back to one calendar month from now.
func (s *Service) ApplyPurchaseApproved(ctx context.Context, ev *hotmart.Event) (*models.Subscription, error) {
	d, err := ev.ParseData()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	email := NormalizeEmail(d.Buyer.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	next := d.Purchase.DateNextCharge.Time()
	if next == nil {
		next = lo.ToPtr(hotmart.NextCycleEstimate(s.now()))
	}

	row := &models.Subscription{
		ID:             tool.GenerateUUIDV7(),
		BuyerEmail:     email,
		Plan:           hotmart.ClassifyPlan(d.Product.Name, d.PlanName()),
		Status:         types.SubscriptionStatusActive,
		DateNextCharge: next,
		CancelPending:  false,
	}
	cols := []string{"plan", "status", "date_next_charge", "cancel_pending", "updated_at"}
	if code := d.SubscriberCode(); code != "" {
		row.SubscriberCode = lo.ToPtr(code)
		cols = append(cols, "subscriber_code")
	}

	if err := s.upsertByEmail(ctx, row, cols); err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription_upserted",
		"buyer_email", email, "plan", row.Plan, "status", row.Status)
	return row, nil
}

// ApplyPurchaseInvalid flips the row to INACTIVE, leaving plan and dates
// untouched. The row is created when absent so a protest arriving before its
// purchase still leaves an auditable trace.
func (s *Service) ApplyPurchaseInvalid(ctx context.Context, ev *hotmart.Event) (*models.Subscription, error) {
	d, err := ev.ParseData()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	email := NormalizeEmail(d.Buyer.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	row := &models.Subscription{
		ID:            tool.GenerateUUIDV7(),
		BuyerEmail:    email,
		Status:        types.SubscriptionStatusInactive,
		CancelPending: false,
	}
	if err := s.upsertByEmail(ctx, row, []string{"status", "cancel_pending", "updated_at"}); err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription_set_inactive", "buyer_email", email)
	return row, nil
}

// ApplyCancellation marks an existing row cancel-pending and records the
// provider's final next-charge date, which may be null. Cancellation never
// creates rows: a subscription must exist to be cancelled.
func (s *Service) ApplyCancellation(ctx context.Context, ev *hotmart.Event) (*models.Subscription, error) {
	d, err := ev.ParseData()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	code := d.SubscriberCode()
	if code == "" {
		return nil, ErrMissingSubscriberCode
	}

	var row models.Subscription
	err = s.db.WithContext(ctx).Where("subscriber_code = ?", code).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscriber_code: %w", err)
	}

	next := d.DateNextCharge.Time()
	updates := map[string]interface{}{
		"cancel_pending":   true,
		"date_next_charge": next,
	}
	if err := s.db.WithContext(ctx).Model(&models.Subscription{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}
	row.CancelPending = true
	row.DateNextCharge = next
	logctx.FromCtx(ctx, s.log).Infow("subscription_cancel_pending",
		"subscriber_code", code, "subscription_id", row.ID)
	return &row, nil
}

// FindByEmail loads a row by normalized email; nil without error when absent.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.Subscription, error) {
	var row models.Subscription
	err := s.db.WithContext(ctx).Where("buyer_email = ?", NormalizeEmail(email)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &row, nil
}

// upsertByEmail is the idempotent insert-or-update primitive. Conflict
// resolution happens inside the storage engine, so concurrent deliveries for
// the same email race there under last-write-wins. RETURNING reloads the
// final row, including the existing id on conflict.
func (s *Service) upsertByEmail(ctx context.Context, row *models.Subscription, updateCols []string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "buyer_email"}},
			DoUpdates: clause.AssignmentColumns(updateCols),
		}, clause.Returning{}).
		Create(row).Error
}
