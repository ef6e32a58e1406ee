package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/access"
	subsvc "github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/subscription"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/platform/directory"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/testutils"
	cfgpkg "github.com/vic9511/hotmart-subscriptions-sync/pkg/config"
)

func newVerifyRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, mock := testutils.SetupTestDB(t)
	log := zap.NewNop().Sugar()
	// Unconfigured directory: identity backfill disabled, verification still works.
	dir := directory.New(&cfgpkg.Config{}, log)
	svc := access.NewService(db, subsvc.NewService(db, log), dir, log)

	r := gin.New()
	g := r.Group("/api/v1/hotmart")
	RegisterVerifyRoutes(g, svc, log)
	return r, mock
}

func TestVerify_InvalidEmailRejected(t *testing.T) {
	r, _ := newVerifyRouter(t)
	for _, body := range []string{`{}`, `{"email":"   "}`, `{"email":"not-an-email"}`} {
		w := postJSON(r, "/api/v1/hotmart/verify-subscription", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "Email is required and must be valid")
	}
}

func TestVerify_NoSubscriptionRecord(t *testing.T) {
	r, mock := newVerifyRouter(t)
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE buyer_email`).
		WillReturnRows(sqlmock.NewRows(testutils.SubscriptionColumns))

	w := postJSON(r, "/api/v1/hotmart/verify-subscription", `{"email":"nobody@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res VerifyMissResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.HasActiveSubscription)
	assert.Equal(t, "No subscription record", res.Message)
}

func TestVerify_ActiveSubscription(t *testing.T) {
	r, mock := newVerifyRouter(t)
	future := time.Now().Add(14 * 24 * time.Hour).UTC()
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE buyer_email`).
		WithArgs("a@x.com", 1).
		WillReturnRows(sqlmock.NewRows(testutils.SubscriptionColumns).
			AddRow("sub-1", "a@x.com", "CODE-1", "VIP", "ACTIVE", future, false, "user-1", time.Now(), time.Now()))

	// Email is normalized before lookup.
	w := postJSON(r, "/api/v1/hotmart/verify-subscription", `{"email":" A@X.com "}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.HasActiveSubscription)
	require.NotNil(t, res.Plan)
	assert.EqualValues(t, "VIP", *res.Plan)
	require.NotNil(t, res.UserID)
	assert.Equal(t, "user-1", *res.UserID)
	assert.Equal(t, "Active subscription found", res.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerify_InactiveSubscription(t *testing.T) {
	r, mock := newVerifyRouter(t)
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE buyer_email`).
		WillReturnRows(sqlmock.NewRows(testutils.SubscriptionColumns).
			AddRow("sub-1", "a@x.com", nil, "BASIC", "INACTIVE", nil, false, "user-1", time.Now(), time.Now()))

	w := postJSON(r, "/api/v1/hotmart/verify-subscription", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var res VerifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.HasActiveSubscription)
	assert.Equal(t, "Inactive subscription", res.Message)
}
