package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/vic9511/hotmart-subscriptions-sync/internal/testutils"
	"github.com/vic9511/hotmart-subscriptions-sync/pkg/hotmart"
)

func testEvent(id string) *hotmart.Event {
	return &hotmart.Event{
		ID:    id,
		Event: hotmart.EventPurchaseApproved,
		Data:  json.RawMessage(`{"buyer":{"email":"a@x.com"}}`),
	}
}

func TestRecord_InsertsAuditRow(t *testing.T) {
	db, mock := testutils.SetupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscription_events"`).
		WithArgs("sub-1", "evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "subscription_events"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc.Record(context.Background(), "sub-1", testEvent("evt-1"), hotmart.EventPurchaseApproved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_SkipsRedeliveredEventID(t *testing.T) {
	db, mock := testutils.SetupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	mock.ExpectQuery(`SELECT count\(\*\) FROM "subscription_events"`).
		WithArgs("sub-1", "evt-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	svc.Record(context.Background(), "sub-1", testEvent("evt-1"), hotmart.EventPurchaseApproved)
	// No insert expected after the dedup hit.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_NoEventIDSkipsDedupCheck(t *testing.T) {
	db, mock := testutils.SetupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "subscription_events"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc.Record(context.Background(), "sub-1", testEvent(""), hotmart.EventPurchaseProtest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_SwallowsInsertFailure(t *testing.T) {
	db, mock := testutils.SetupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "subscription_events"`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	// Must not panic or propagate; audit writes are best-effort.
	svc.Record(context.Background(), "sub-1", testEvent(""), hotmart.EventPurchaseApproved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_IgnoresUnresolvedSubscription(t *testing.T) {
	db, mock := testutils.SetupTestDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	svc.Record(context.Background(), "", testEvent("evt-1"), hotmart.EventPurchaseApproved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
