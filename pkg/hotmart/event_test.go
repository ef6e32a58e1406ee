package hotmart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_HasData(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"event":"PURCHASE_APPROVED"}`), &ev))
	assert.False(t, ev.HasData())

	require.NoError(t, json.Unmarshal([]byte(`{"data":null}`), &ev))
	assert.False(t, ev.HasData())

	require.NoError(t, json.Unmarshal([]byte(`{"data":{}}`), &ev))
	assert.True(t, ev.HasData())
}

func TestEvent_TypeOr(t *testing.T) {
	ev := Event{}
	assert.Equal(t, EventPurchaseProtest, ev.TypeOr(EventPurchaseProtest))
	ev.Event = EventPurchaseChargeback
	assert.Equal(t, EventPurchaseChargeback, ev.TypeOr(EventPurchaseProtest))
}

func TestEventData_SubscriberCode(t *testing.T) {
	// Purchase events nest the code under subscription.subscriber.
	var ev Event
	body := `{"data":{"buyer":{"email":"a@x.com"},"subscription":{"subscriber":{"code":"SUB-1"}}}}`
	require.NoError(t, json.Unmarshal([]byte(body), &ev))
	d, err := ev.ParseData()
	require.NoError(t, err)
	assert.Equal(t, "SUB-1", d.SubscriberCode())

	// Cancellation events carry it at the data root.
	body = `{"data":{"subscriber":{"code":"SUB-2"},"date_next_charge":1700000000}}`
	require.NoError(t, json.Unmarshal([]byte(body), &ev))
	d, err = ev.ParseData()
	require.NoError(t, err)
	assert.Equal(t, "SUB-2", d.SubscriberCode())
	require.NotNil(t, d.DateNextCharge.Time())
}
