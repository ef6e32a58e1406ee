package testutils

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SubscriptionColumns matches the subscriptions table for RETURNING rows.
var SubscriptionColumns = []string{
	"id", "buyer_email", "subscriber_code", "plan", "status",
	"date_next_charge", "cancel_pending", "user_id", "created_at", "updated_at",
}

// Upsert SQL patterns for sqlmock expectations. They pin the conflict target
// and the exact assignment set, so a write that stops resolving buyer_email
// conflicts in the database, or starts touching extra columns, fails the
// suite instead of silently inserting duplicate rows.
const (
	// UpsertActiveSQL is the purchase-approved write without a subscriber
	// code in the payload.
	UpsertActiveSQL = `INSERT INTO "subscriptions" \("id","buyer_email","subscriber_code","plan","status","date_next_charge","created_at","updated_at"\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,\$8\) ON CONFLICT \("buyer_email"\) DO UPDATE SET "plan"="excluded"\."plan","status"="excluded"\."status","date_next_charge"="excluded"\."date_next_charge","cancel_pending"="excluded"\."cancel_pending","updated_at"="excluded"\."updated_at" RETURNING`

	// UpsertActiveWithCodeSQL additionally carries the subscriber_code
	// assignment appended when the payload names one.
	UpsertActiveWithCodeSQL = `INSERT INTO "subscriptions" \("id","buyer_email","subscriber_code","plan","status","date_next_charge","created_at","updated_at"\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7,\$8\) ON CONFLICT \("buyer_email"\) DO UPDATE SET "plan"="excluded"\."plan","status"="excluded"\."status","date_next_charge"="excluded"\."date_next_charge","cancel_pending"="excluded"\."cancel_pending","updated_at"="excluded"\."updated_at","subscriber_code"="excluded"\."subscriber_code" RETURNING`

	// UpsertInactiveSQL is the purchase-invalid write: on conflict it may
	// touch status, cancel_pending and updated_at, never plan or dates.
	UpsertInactiveSQL = `INSERT INTO "subscriptions" \("id","buyer_email","subscriber_code","status","created_at","updated_at"\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6\) ON CONFLICT \("buyer_email"\) DO UPDATE SET "status"="excluded"\."status","cancel_pending"="excluded"\."cancel_pending","updated_at"="excluded"\."updated_at" RETURNING`
)

// SetupTestDB opens a GORM connection backed by sqlmock.
func SetupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %s", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       sqlDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open gorm connection: %s", err)
	}
	return gormDB, mock
}
