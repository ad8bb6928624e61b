package billing

import "strings"

// Transaction event types delivered by Paddle Billing.
const (
	EventTransactionCreated       = "transaction.created"
	EventTransactionUpdated       = "transaction.updated"
	EventTransactionBilled        = "transaction.billed"
	EventTransactionPaid          = "transaction.paid"
	EventTransactionCompleted     = "transaction.completed"
	EventTransactionCanceled      = "transaction.canceled"
	EventTransactionPastDue       = "transaction.past_due"
	EventTransactionPaymentFailed = "transaction.payment_failed"
)

// Event represents a webhook notification from Paddle
type Event struct {
	EventID        string      `json:"event_id"`
	EventType      string      `json:"event_type"`
	NotificationID string      `json:"notification_id,omitempty"`
	OccurredAt     string      `json:"occurred_at"`
	Data           Transaction `json:"data"`
}

// IsTransaction reports whether the event belongs to the transaction
// lifecycle. Other event families are acknowledged without side effects.
func (e *Event) IsTransaction() bool {
	return strings.HasPrefix(e.EventType, "transaction.")
}

// Transaction represents the transaction entity carried in event data
type Transaction struct {
	ID             string      `json:"id"`
	Status         string      `json:"status"`
	CustomerID     string      `json:"customer_id,omitempty"`
	AddressID      string      `json:"address_id,omitempty"`
	BusinessID     string      `json:"business_id,omitempty"`
	SubscriptionID string      `json:"subscription_id,omitempty"`
	InvoiceID      string      `json:"invoice_id,omitempty"`
	InvoiceNumber  string      `json:"invoice_number,omitempty"`
	CurrencyCode   string      `json:"currency_code"`
	Origin         string      `json:"origin,omitempty"`
	CollectionMode string      `json:"collection_mode,omitempty"`
	CustomData     *CustomData `json:"custom_data,omitempty"`
	Items          []Item      `json:"items,omitempty"`
	Details        *Details    `json:"details,omitempty"`
	Payments       []Payment   `json:"payments,omitempty"`
	CreatedAt      string      `json:"created_at,omitempty"`
	UpdatedAt      string      `json:"updated_at,omitempty"`
	BilledAt       string      `json:"billed_at,omitempty"`
}

// CustomData carries the checkout metadata attached by the storefront.
// When the email is present the processor can notify the customer without
// a provider API lookup.
type CustomData struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	VIN   string `json:"vin,omitempty"`
	Plan  string `json:"plan,omitempty"`
}

// Item represents a purchased line item
type Item struct {
	Quantity int    `json:"quantity"`
	Price    *Price `json:"price,omitempty"`
}

// Price represents the price entity of a line item
type Price struct {
	ID           string        `json:"id"`
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	ProductID    string        `json:"product_id,omitempty"`
	BillingCycle *BillingCycle `json:"billing_cycle,omitempty"`
	UnitPrice    *Money        `json:"unit_price,omitempty"`
}

// BillingCycle represents a recurring billing interval
type BillingCycle struct {
	Interval  string `json:"interval"`
	Frequency int    `json:"frequency"`
}

// Money represents an amount in the minor unit of a currency
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

// Details represents the computed totals of a transaction
type Details struct {
	Totals *Totals `json:"totals,omitempty"`
}

// Totals represents transaction totals in the minor unit of the currency
type Totals struct {
	Subtotal     string `json:"subtotal,omitempty"`
	Discount     string `json:"discount,omitempty"`
	Tax          string `json:"tax,omitempty"`
	Total        string `json:"total,omitempty"`
	GrandTotal   string `json:"grand_total,omitempty"`
	Fee          string `json:"fee,omitempty"`
	Earnings     string `json:"earnings,omitempty"`
	CurrencyCode string `json:"currency_code,omitempty"`
}

// Payment represents a payment attempt against a transaction
type Payment struct {
	PaymentAttemptID string         `json:"payment_attempt_id,omitempty"`
	Amount           string         `json:"amount,omitempty"`
	Status           string         `json:"status,omitempty"`
	ErrorCode        string         `json:"error_code,omitempty"`
	CreatedAt        string         `json:"created_at,omitempty"`
	CapturedAt       string         `json:"captured_at,omitempty"`
	MethodDetails    *MethodDetails `json:"method_details,omitempty"`
}

// MethodDetails represents the payment method used for an attempt
type MethodDetails struct {
	Type string `json:"type,omitempty"`
	Card *Card  `json:"card,omitempty"`
}

// Card represents the card used for a payment attempt
type Card struct {
	Type           string `json:"type,omitempty"`
	Last4          string `json:"last4,omitempty"`
	ExpiryMonth    int    `json:"expiry_month,omitempty"`
	ExpiryYear     int    `json:"expiry_year,omitempty"`
	CardholderName string `json:"cardholder_name,omitempty"`
}

// Customer represents a customer profile from the Paddle API
type Customer struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email"`
	Status    string `json:"status,omitempty"`
	Locale    string `json:"locale,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// PlanName returns the best human-readable name for what was purchased,
// preferring checkout custom data over the first line item price.
func (t *Transaction) PlanName() string {
	if t.CustomData != nil && t.CustomData.Plan != "" {
		return t.CustomData.Plan
	}

	for _, item := range t.Items {
		if item.Price == nil {
			continue
		}
		if item.Price.Name != "" {
			return item.Price.Name
		}
		if item.Price.Description != "" {
			return item.Price.Description
		}
	}

	return ""
}

// TotalFormatted returns the charged grand total as a display amount, or an
// empty string when the transaction carries no totals.
func (t *Transaction) TotalFormatted() string {
	if t.Details == nil || t.Details.Totals == nil {
		return ""
	}

	totals := t.Details.Totals
	amount := totals.GrandTotal
	if amount == "" {
		amount = totals.Total
	}

	currency := totals.CurrencyCode
	if currency == "" {
		currency = t.CurrencyCode
	}

	return FormatAmount(amount, currency)
}

// FailedPayment returns the most recent payment attempt carrying an error
// code, or nil when no attempt failed.
func (t *Transaction) FailedPayment() *Payment {
	for i := len(t.Payments) - 1; i >= 0; i-- {
		if t.Payments[i].ErrorCode != "" {
			return &t.Payments[i]
		}
	}
	return nil
}

// ProcessedTransaction represents a processed transaction event ready for
// the user callback
type ProcessedTransaction struct {
	EventID       string
	EventType     string
	TransactionID string
	Status        string
	CustomerID    string
	CustomerEmail string
	CustomerName  string
	Plan          string
	VIN           string
	Total         string
	CurrencyCode  string
	OccurredAt    string
}
