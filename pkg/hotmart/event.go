package hotmart

import (
	"bytes"
	"encoding/json"
)

// Webhook event names delivered by Hotmart.
const (
	EventPurchaseApproved         = "PURCHASE_APPROVED"
	EventPurchaseProtest          = "PURCHASE_PROTEST"
	EventPurchaseChargeback       = "PURCHASE_CHARGEBACK"
	EventPurchaseDelayed          = "PURCHASE_DELAYED"
	EventSubscriptionCancellation = "SUBSCRIPTION_CANCELLATION"
)

// Event is the webhook envelope. Data is kept raw so the original body can be
// preserved verbatim in the audit trail; use ParseData for the typed view.
type Event struct {
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

var jsonNull = []byte("null")

// HasData reports whether the envelope carries a data object.
func (e *Event) HasData() bool {
	return len(e.Data) > 0 && !bytes.Equal(e.Data, jsonNull)
}

// TypeOr returns the event name, or def when the provider omitted it.
func (e *Event) TypeOr(def string) string {
	if e.Event != "" {
		return e.Event
	}
	return def
}

// ParseData decodes the raw data object into its typed form.
func (e *Event) ParseData() (*EventData, error) {
	var d EventData
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// EventData covers the fields consumed across all webhook categories. The
// provider sends far more; unknown fields are ignored here but survive in the
// raw payload.
type EventData struct {
	Buyer        Buyer             `json:"buyer"`
	Product      Product           `json:"product"`
	Purchase     Purchase          `json:"purchase"`
	Subscription *SubscriptionInfo `json:"subscription"`
	// Subscriber and DateNextCharge sit at the data root on cancellation events.
	Subscriber     *Subscriber `json:"subscriber"`
	DateNextCharge Timestamp   `json:"date_next_charge"`
}

type Buyer struct {
	Email string `json:"email"`
}

type Product struct {
	Name string `json:"name"`
}

type Purchase struct {
	DateNextCharge Timestamp `json:"date_next_charge"`
}

type SubscriptionInfo struct {
	Plan       PlanInfo    `json:"plan"`
	Subscriber *Subscriber `json:"subscriber"`
}

type PlanInfo struct {
	Name string `json:"name"`
}

type Subscriber struct {
	Code string `json:"code"`
}

// PlanName returns the subscription plan name, if present.
func (d *EventData) PlanName() string {
	if d.Subscription == nil {
		return ""
	}
	return d.Subscription.Plan.Name
}

// SubscriberCode returns the subscriber code from either of its two known
// locations: nested under subscription (purchase events) or at the data root
// (cancellation events).
func (d *EventData) SubscriberCode() string {
	if d.Subscription != nil && d.Subscription.Subscriber != nil && d.Subscription.Subscriber.Code != "" {
		return d.Subscription.Subscriber.Code
	}
	if d.Subscriber != nil {
		return d.Subscriber.Code
	}
	return ""
}
