package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/eventlog"
	subsvc "github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/subscription"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/hotmart"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/logctx"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/metrics"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/response"
)

// bindEvent decodes the webhook envelope. A nil return means the request was
// already answered with a 400.
func bindEvent(c *gin.Context, log *zap.SugaredLogger) *hotmart.Event {
	var ev hotmart.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		logctx.FromGin(c, log).Warnw("webhook_bad_json", "err", err)
		c.JSON(http.StatusBadRequest, response.Err("Invalid JSON body"))
		return nil
	}
	return &ev
}

// @Summary      Hotmart purchase approved webhook
// @Description  Upserts an ACTIVE subscription keyed by buyer email.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body hotmart.Event true "Hotmart webhook envelope"
// @Success      200  {object}  handlers.PurchaseApprovedResponse
// @Failure      400  {object}  response.Error
// @Router       /api/v1/hotmart/webhook/purchase-approved [post]
func ApiPurchaseApproved(sub *subsvc.Service, events *eventlog.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	const endpoint = "purchase_approved"
	return func(c *gin.Context) {
		ev := bindEvent(c, log)
		if ev == nil {
			metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
			return
		}
		if !ev.HasData() {
			metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
			c.JSON(http.StatusBadRequest, response.Err("Invalid payload: missing data"))
			return
		}
		if ev.Event != "" && ev.Event != hotmart.EventPurchaseApproved {
			logctx.FromGin(c, log).Infow("webhook_event_ignored", "event_type", ev.Event)
			metrics.ObserveWebhook(endpoint, metrics.OutcomeIgnored)
			c.JSON(http.StatusOK, response.Ignored())
			return
		}

		eventType := ev.TypeOr(hotmart.EventPurchaseApproved)
		lg := logctx.FromGin(c, log).With("event_type", eventType)
		lg.Infow("webhook_received", "event_id", ev.ID)

		row, err := sub.ApplyPurchaseApproved(c.Request.Context(), ev)
		if err != nil {
			if errors.Is(err, subsvc.ErrMissingEmail) {
				metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
				c.JSON(http.StatusBadRequest, response.Err("Email is required"))
				return
			}
			if errors.Is(err, subsvc.ErrMalformedData) {
				metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
				c.JSON(http.StatusBadRequest, response.Err("Invalid payload: missing data"))
				return
			}
			lg.Errorw("webhook_upsert_failed", "err", err)
			metrics.ObserveWebhook(endpoint, metrics.OutcomeError)
			c.JSON(http.StatusInternalServerError, response.ErrWith("Upsert failed", err))
			return
		}

		events.Record(c.Request.Context(), row.ID, ev, eventType)
		metrics.ObserveWebhook(endpoint, metrics.OutcomeApplied)
		c.JSON(http.StatusOK, PurchaseApprovedResponse{
			Success:        true,
			Action:         "upserted",
			BuyerEmail:     row.BuyerEmail,
			SubscriberCode: row.SubscriberCode,
			Plan:           row.Plan,
			Status:         row.Status,
			DateNextCharge: row.DateNextCharge,
		})
	}
}

// @Summary      Hotmart invalid purchase webhook
// @Description  Handles PURCHASE_PROTEST, PURCHASE_CHARGEBACK and PURCHASE_DELAYED by flipping the subscription to INACTIVE.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body hotmart.Event true "Hotmart webhook envelope"
// @Success      200  {object}  handlers.PurchaseInvalidResponse
// @Failure      400  {object}  response.Error
// @Router       /api/v1/hotmart/webhook/purchase-invalid [post]
func ApiPurchaseInvalid(sub *subsvc.Service, events *eventlog.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	const endpoint = "purchase_invalid"
	allowed := map[string]bool{
		hotmart.EventPurchaseProtest:    true,
		hotmart.EventPurchaseChargeback: true,
		hotmart.EventPurchaseDelayed:    true,
	}
	return func(c *gin.Context) {
		ev := bindEvent(c, log)
		if ev == nil {
			metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
			return
		}
		if !ev.HasData() {
			metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
			c.JSON(http.StatusBadRequest, response.Err("Invalid payload: missing data"))
			return
		}
		if ev.Event != "" && !allowed[ev.Event] {
			logctx.FromGin(c, log).Infow("webhook_event_ignored", "event_type", ev.Event)
			metrics.ObserveWebhook(endpoint, metrics.OutcomeIgnored)
			c.JSON(http.StatusOK, response.Ignored())
			return
		}

		// Missing event name defaults to the protest flow.
		eventType := ev.TypeOr(hotmart.EventPurchaseProtest)
		lg := logctx.FromGin(c, log).With("event_type", eventType)
		lg.Infow("webhook_received", "event_id", ev.ID)

		row, err := sub.ApplyPurchaseInvalid(c.Request.Context(), ev)
		if err != nil {
			if errors.Is(err, subsvc.ErrMissingEmail) {
				metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
				c.JSON(http.StatusBadRequest, response.Err("Email is required"))
				return
			}
			if errors.Is(err, subsvc.ErrMalformedData) {
				metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
				c.JSON(http.StatusBadRequest, response.Err("Invalid payload: missing data"))
				return
			}
			lg.Errorw("webhook_upsert_failed", "err", err)
			metrics.ObserveWebhook(endpoint, metrics.OutcomeError)
			c.JSON(http.StatusInternalServerError, response.ErrWith("Upsert failed", err))
			return
		}

		events.Record(c.Request.Context(), row.ID, ev, eventType)
		metrics.ObserveWebhook(endpoint, metrics.OutcomeApplied)
		c.JSON(http.StatusOK, PurchaseInvalidResponse{
			Success:    true,
			Action:     "set_inactive",
			BuyerEmail: row.BuyerEmail,
			EventType:  eventType,
			Status:     row.Status,
		})
	}
}

// @Summary      Hotmart subscription cancellation webhook
// @Description  Marks an existing subscription cancel-pending, resolved by subscriber code.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body hotmart.Event true "Hotmart webhook envelope"
// @Success      200  {object}  handlers.CancellationResponse
// @Failure      404  {object}  handlers.CancellationNotFoundResponse
// @Router       /api/v1/hotmart/webhook/subscription-cancellation [post]
func ApiSubscriptionCancellation(sub *subsvc.Service, events *eventlog.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	const endpoint = "subscription_cancellation"
	return func(c *gin.Context) {
		ev := bindEvent(c, log)
		if ev == nil {
			metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
			return
		}
		if ev.Event != "" && ev.Event != hotmart.EventSubscriptionCancellation {
			logctx.FromGin(c, log).Infow("webhook_event_ignored", "event_type", ev.Event)
			metrics.ObserveWebhook(endpoint, metrics.OutcomeIgnored)
			c.JSON(http.StatusOK, response.Ignored())
			return
		}
		if !ev.HasData() {
			metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
			c.JSON(http.StatusBadRequest, response.Err("Invalid payload: missing data"))
			return
		}

		eventType := ev.TypeOr(hotmart.EventSubscriptionCancellation)
		lg := logctx.FromGin(c, log).With("event_type", eventType)
		lg.Infow("webhook_received", "event_id", ev.ID)

		row, err := sub.ApplyCancellation(c.Request.Context(), ev)
		if err != nil {
			switch {
			case errors.Is(err, subsvc.ErrMissingSubscriberCode):
				metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
				c.JSON(http.StatusBadRequest, response.Err("Missing subscriber.code"))
			case errors.Is(err, subsvc.ErrSubscriptionNotFound):
				var code string
				if d, derr := ev.ParseData(); derr == nil {
					code = d.SubscriberCode()
				}
				lg.Warnw("webhook_subscription_not_found", "subscriber_code", code)
				metrics.ObserveWebhook(endpoint, metrics.OutcomeNotFound)
				c.JSON(http.StatusNotFound, CancellationNotFoundResponse{
					Error:          "Subscription not found for subscriber_code",
					SubscriberCode: code,
				})
			case errors.Is(err, subsvc.ErrMalformedData):
				metrics.ObserveWebhook(endpoint, metrics.OutcomeRejected)
				c.JSON(http.StatusBadRequest, response.Err("Invalid payload: missing data"))
			default:
				lg.Errorw("webhook_update_failed", "err", err)
				metrics.ObserveWebhook(endpoint, metrics.OutcomeError)
				c.JSON(http.StatusInternalServerError, response.ErrWith("Update failed", err))
			}
			return
		}

		events.Record(c.Request.Context(), row.ID, ev, eventType)
		metrics.ObserveWebhook(endpoint, metrics.OutcomeApplied)
		c.JSON(http.StatusOK, CancellationResponse{
			Success:        true,
			Action:         "set_cancel_pending_true",
			SubscriberCode: lo.FromPtr(row.SubscriberCode),
			DateNextCharge: row.DateNextCharge,
		})
	}
}

func RegisterHotmartWebhookRoutes(r gin.IRouter, sub *subsvc.Service, events *eventlog.Service, log *zap.SugaredLogger) {
	r.POST("/webhook/purchase-approved", ApiPurchaseApproved(sub, events, log))
	r.POST("/webhook/purchase-invalid", ApiPurchaseInvalid(sub, events, log))
	r.POST("/webhook/subscription-cancellation", ApiSubscriptionCancellation(sub, events, log))
}
