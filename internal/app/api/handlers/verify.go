package handlers

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/access"
	subsvc "github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/subscription"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/logctx"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/response"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type verifyRequest struct {
	Email string `json:"email"`
}

// @Summary      Verify subscription access
// @Description  Computes current entitlement for an email; opportunistically backfills the external user id.
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Param        payload body handlers.verifyRequest true "Email to verify"
// @Success      200  {object}  handlers.VerifyResponse
// @Failure      400  {object}  response.Error
// @Router       /api/v1/hotmart/verify-subscription [post]
func ApiVerifySubscription(svc *access.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req verifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Err("Invalid JSON body"))
			return
		}
		email := subsvc.NormalizeEmail(req.Email)
		if email == "" || !emailRe.MatchString(email) {
			c.JSON(http.StatusBadRequest, response.Err("Email is required and must be valid"))
			return
		}

		res, err := svc.VerifyByEmail(c.Request.Context(), email)
		if err != nil {
			logctx.FromGin(c, log).Errorw("verify_failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"hasActiveSubscription": false,
				"error":                 "Error checking subscription",
				"details":               err.Error(),
			})
			return
		}
		if res == nil {
			c.JSON(http.StatusOK, VerifyMissResponse{
				HasActiveSubscription: false,
				Message:               "No subscription record",
			})
			return
		}

		sub := res.Subscription
		message := "Inactive subscription"
		if res.HasAccess {
			message = "Active subscription found"
		}
		c.JSON(http.StatusOK, VerifyResponse{
			HasActiveSubscription: res.HasAccess,
			Plan:                  &sub.Plan,
			Status:                &sub.Status,
			DateNextCharge:        sub.DateNextCharge,
			CancelPending:         sub.CancelPending,
			UserID:                sub.UserID,
			Message:               message,
		})
	}
}

func RegisterVerifyRoutes(r gin.IRouter, svc *access.Service, log *zap.SugaredLogger) {
	r.POST("/verify-subscription", ApiVerifySubscription(svc, log))
}
