package billing_test

import (
	"encoding/json"
	"testing"

	"github.com/dawitel/paddle-webhook/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completedEventJSON = `{
  "event_id": "ntfevt_01h8441jn5pcwrfhwh78jqt8hk",
  "event_type": "transaction.completed",
  "notification_id": "ntf_01h8441jn9bpdv959lmvx12c7q",
  "occurred_at": "2024-04-12T10:18:47.635628Z",
  "data": {
    "id": "txn_01h84a7hr5f1zfkcmcdmssgt1d",
    "status": "completed",
    "customer_id": "ctm_01h844p3h41s12zs5mn4axja51",
    "address_id": "add_01h848pep46enq8y372x7maj0p",
    "subscription_id": "sub_01h8441k2vqmqhqyq9nsh0f2mj",
    "invoice_id": "inv_01h8441k8v0564phyev9h13crg",
    "invoice_number": "325-10001",
    "currency_code": "USD",
    "origin": "web",
    "collection_mode": "automatic",
    "custom_data": {
      "email": "sam@example.com",
      "name": "Sam Miller",
      "vin": "WDBRF40J43F412345",
      "plan": "Full History Report"
    },
    "items": [
      {
        "quantity": 1,
        "price": {
          "id": "pri_01h8441kfhjy2j6f3t1b9pattq",
          "name": "Full History Report",
          "description": "Single vehicle history report",
          "product_id": "pro_01h8441k2vqmqhqyq9nsh0f2mj",
          "billing_cycle": {
            "interval": "month",
            "frequency": 1
          },
          "unit_price": {
            "amount": "4999",
            "currency_code": "USD"
          }
        }
      }
    ],
    "details": {
      "totals": {
        "subtotal": "4167",
        "discount": "0",
        "tax": "832",
        "total": "4999",
        "grand_total": "4999",
        "fee": "275",
        "earnings": "3892",
        "currency_code": "USD"
      }
    },
    "payments": [
      {
        "payment_attempt_id": "f3bb6d07-9b39-4b18-9e0f-9baf39ba0b67",
        "amount": "4999",
        "status": "captured",
        "created_at": "2024-04-12T10:18:40.635628Z",
        "captured_at": "2024-04-12T10:18:46.635628Z",
        "method_details": {
          "type": "card",
          "card": {
            "type": "visa",
            "last4": "4242",
            "expiry_month": 3,
            "expiry_year": 2028
          }
        }
      }
    ],
    "created_at": "2024-04-12T10:18:38.635628Z",
    "updated_at": "2024-04-12T10:18:47.635628Z",
    "billed_at": "2024-04-12T10:18:40.635628Z"
  }
}`

func TestEvent_DecodeRealisticPayload(t *testing.T) {
	var event billing.Event
	require.NoError(t, json.Unmarshal([]byte(completedEventJSON), &event))

	assert.Equal(t, "ntfevt_01h8441jn5pcwrfhwh78jqt8hk", event.EventID)
	assert.Equal(t, billing.EventTransactionCompleted, event.EventType)
	assert.True(t, event.IsTransaction())

	tx := event.Data
	assert.Equal(t, "txn_01h84a7hr5f1zfkcmcdmssgt1d", tx.ID)
	assert.Equal(t, "completed", tx.Status)
	assert.Equal(t, "ctm_01h844p3h41s12zs5mn4axja51", tx.CustomerID)
	assert.Equal(t, "325-10001", tx.InvoiceNumber)
	assert.Equal(t, "automatic", tx.CollectionMode)

	require.NotNil(t, tx.CustomData)
	assert.Equal(t, "sam@example.com", tx.CustomData.Email)
	assert.Equal(t, "WDBRF40J43F412345", tx.CustomData.VIN)

	require.Len(t, tx.Items, 1)
	item := tx.Items[0]
	assert.Equal(t, 1, item.Quantity)
	require.NotNil(t, item.Price)
	assert.Equal(t, "Full History Report", item.Price.Name)
	require.NotNil(t, item.Price.BillingCycle)
	assert.Equal(t, "month", item.Price.BillingCycle.Interval)
	require.NotNil(t, item.Price.UnitPrice)
	assert.Equal(t, "4999", item.Price.UnitPrice.Amount)

	require.NotNil(t, tx.Details)
	require.NotNil(t, tx.Details.Totals)
	assert.Equal(t, "832", tx.Details.Totals.Tax)
	assert.Equal(t, "49.99 USD", tx.TotalFormatted())

	require.Len(t, tx.Payments, 1)
	payment := tx.Payments[0]
	assert.Equal(t, "captured", payment.Status)
	assert.Empty(t, payment.ErrorCode)
	require.NotNil(t, payment.MethodDetails)
	require.NotNil(t, payment.MethodDetails.Card)
	assert.Equal(t, "4242", payment.MethodDetails.Card.Last4)
	assert.Nil(t, tx.FailedPayment())
}

func TestEvent_IsTransaction(t *testing.T) {
	tests := []struct {
		eventType string
		want      bool
	}{
		{billing.EventTransactionPaid, true},
		{billing.EventTransactionPaymentFailed, true},
		{"transaction.ready", true},
		{"subscription.created", false},
		{"adjustment.updated", false},
		{"", false},
	}

	for _, tt := range tests {
		event := &billing.Event{EventType: tt.eventType}
		assert.Equal(t, tt.want, event.IsTransaction(), "event_type %q", tt.eventType)
	}
}

func TestTransaction_PlanName(t *testing.T) {
	tests := []struct {
		name string
		tx   billing.Transaction
		want string
	}{
		{
			name: "custom data wins",
			tx: billing.Transaction{
				CustomData: &billing.CustomData{Plan: "Premium"},
				Items:      []billing.Item{{Price: &billing.Price{Name: "Basic"}}},
			},
			want: "Premium",
		},
		{
			name: "first price name",
			tx: billing.Transaction{
				Items: []billing.Item{{Price: &billing.Price{Name: "Basic", Description: "Entry plan"}}},
			},
			want: "Basic",
		},
		{
			name: "description fallback",
			tx: billing.Transaction{
				Items: []billing.Item{{Price: &billing.Price{Description: "Entry plan"}}},
			},
			want: "Entry plan",
		},
		{
			name: "skips items without price",
			tx: billing.Transaction{
				Items: []billing.Item{{Price: nil}, {Price: &billing.Price{Name: "Second"}}},
			},
			want: "Second",
		},
		{
			name: "empty when nothing is named",
			tx:   billing.Transaction{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tx.PlanName())
		})
	}
}

func TestTransaction_TotalFormatted(t *testing.T) {
	tx := billing.Transaction{
		CurrencyCode: "EUR",
		Details: &billing.Details{
			Totals: &billing.Totals{GrandTotal: "12050", CurrencyCode: "USD"},
		},
	}
	assert.Equal(t, "120.50 USD", tx.TotalFormatted())

	tx.Details.Totals = &billing.Totals{Total: "900"}
	assert.Equal(t, "9.00 EUR", tx.TotalFormatted(), "falls back to total and transaction currency")

	tx.Details = nil
	assert.Empty(t, tx.TotalFormatted())
}

func TestTransaction_FailedPayment(t *testing.T) {
	tx := billing.Transaction{
		Payments: []billing.Payment{
			{PaymentAttemptID: "pay_1", Status: "error", ErrorCode: "insufficient_funds"},
			{PaymentAttemptID: "pay_2", Status: "captured"},
			{PaymentAttemptID: "pay_3", Status: "error", ErrorCode: "card_declined"},
		},
	}

	failed := tx.FailedPayment()
	require.NotNil(t, failed)
	assert.Equal(t, "pay_3", failed.PaymentAttemptID)
	assert.Equal(t, "card_declined", failed.ErrorCode)

	assert.Nil(t, (&billing.Transaction{}).FailedPayment())
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		minor    string
		currency string
		want     string
	}{
		{"4999", "USD", "49.99 USD"},
		{"100", "eur", "1.00 EUR"},
		{"0", "USD", "0.00 USD"},
		{"-250", "GBP", "-2.50 GBP"},
		{"5000", "JPY", "5000 JPY"},
		{"1234567", "KRW", "1234567 KRW"},
		{"4999", "", "49.99"},
		{" 4999 ", " usd ", "49.99 USD"},
		{"", "USD", ""},
		{"12abc", "USD", "12abc USD"},
		{"12abc", "", "12abc"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, billing.FormatAmount(tt.minor, tt.currency), "FormatAmount(%q, %q)", tt.minor, tt.currency)
	}
}
