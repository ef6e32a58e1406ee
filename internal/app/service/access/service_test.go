package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vic9511/hotmart-subscriptions-sync/internal/app/service/subscription"
	"github.com/vic9511/hotmart-subscriptions-sync/internal/testutils"
)

type stubDirectory struct {
	enabled bool
	userID  string
	err     error
	calls   int
}

func (d *stubDirectory) Enabled() bool { return d.enabled }

func (d *stubDirectory) UserIDByEmail(ctx context.Context, email string) (string, error) {
	d.calls++
	return d.userID, d.err
}

func newTestService(t *testing.T, dir Directory) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := testutils.SetupTestDB(t)
	log := zap.NewNop().Sugar()
	svc := &Service{
		db:  db,
		sub: subscription.NewService(db, log),
		dir: dir,
		log: log,
		now: func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) },
	}
	return svc, mock
}

func subscriptionRow(mock sqlmock.Sqlmock, status string, next interface{}, userID interface{}) {
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE buyer_email`).
		WillReturnRows(sqlmock.NewRows(testutils.SubscriptionColumns).
			AddRow("sub-1", "a@x.com", "CODE-1", "PRO", status, next, false, userID, time.Now(), time.Now()))
}

func TestVerifyByEmail_NoRow(t *testing.T) {
	svc, mock := newTestService(t, &stubDirectory{})
	mock.ExpectQuery(`SELECT \* FROM "subscriptions" WHERE buyer_email`).
		WillReturnRows(sqlmock.NewRows(testutils.SubscriptionColumns))

	res, err := svc.VerifyByEmail(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestVerifyByEmail_ActiveWithFutureCharge(t *testing.T) {
	dir := &stubDirectory{}
	svc, mock := newTestService(t, dir)
	future := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	subscriptionRow(mock, "ACTIVE", future, "user-1")

	res, err := svc.VerifyByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.HasAccess)
	// Row already linked; the directory must not be consulted.
	assert.Equal(t, 0, dir.calls)
}

func TestVerifyByEmail_LapsedCharge(t *testing.T) {
	svc, mock := newTestService(t, &stubDirectory{})
	past := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	subscriptionRow(mock, "ACTIVE", past, "user-1")

	res, err := svc.VerifyByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, res.HasAccess)
}

func TestVerifyByEmail_BackfillsUserID(t *testing.T) {
	dir := &stubDirectory{enabled: true, userID: "user-42"}
	svc, mock := newTestService(t, dir)
	subscriptionRow(mock, "ACTIVE", nil, nil)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "subscriptions" SET "user_id"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.VerifyByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, res.Subscription.UserID)
	assert.Equal(t, "user-42", *res.Subscription.UserID)
	assert.Equal(t, 1, dir.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyByEmail_LookupFailureDegrades(t *testing.T) {
	dir := &stubDirectory{enabled: true, err: errors.New("directory down")}
	svc, mock := newTestService(t, dir)
	subscriptionRow(mock, "ACTIVE", nil, nil)

	res, err := svc.VerifyByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, res.Subscription.UserID)
	assert.True(t, res.HasAccess)
}

func TestVerifyByEmail_DirectoryDisabled(t *testing.T) {
	dir := &stubDirectory{enabled: false}
	svc, mock := newTestService(t, dir)
	subscriptionRow(mock, "INACTIVE", nil, nil)

	res, err := svc.VerifyByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.False(t, res.HasAccess)
	assert.Equal(t, 0, dir.calls)
}
