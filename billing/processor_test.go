package billing_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/dawitel/paddle-webhook/billing"
	"github.com/dawitel/paddle-webhook/mail"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	calls    int64
	customer *billing.Customer
	err      error
}

func (s *stubLookup) GetCustomer(ctx context.Context, customerID string) (*billing.Customer, error) {
	atomic.AddInt64(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.customer, nil
}

type sentMessage struct {
	to  []string
	msg mail.TemplateMessage
}

type stubNotifier struct {
	sent []sentMessage
	err  error
}

func (s *stubNotifier) SendRendered(ctx context.Context, to []string, msg mail.TemplateMessage) error {
	s.sent = append(s.sent, sentMessage{to: to, msg: msg})
	return s.err
}

var adminEmails = []string{"ops@example.com"}

func paidEvent() *billing.Event {
	return &billing.Event{
		EventID:    "evt_1",
		EventType:  billing.EventTransactionPaid,
		OccurredAt: "2024-05-01T10:00:00Z",
		Data: billing.Transaction{
			ID:           "txn_1",
			Status:       "paid",
			CustomerID:   "ctm_1",
			CurrencyCode: "USD",
			CustomData: &billing.CustomData{
				Email: "buyer@example.com",
				Name:  "Buyer One",
				VIN:   "1HGCM82633A004352",
				Plan:  "Pro",
			},
			Details: &billing.Details{
				Totals: &billing.Totals{
					GrandTotal:   "4999",
					CurrencyCode: "USD",
				},
			},
		},
	}
}

func TestProcessor_CustomDataSkipsLookup(t *testing.T) {
	lookup := &stubLookup{customer: &billing.Customer{Email: "api@example.com"}}
	notifier := &stubNotifier{}
	processor := billing.NewProcessor(zerolog.Nop(), lookup, notifier, adminEmails, "support@example.com", nil)

	err := processor.ProcessEvent(context.Background(), paidEvent())
	require.NoError(t, err)

	assert.Equal(t, int64(0), atomic.LoadInt64(&lookup.calls))
	require.Len(t, notifier.sent, 2)

	confirmation, ok := notifier.sent[0].msg.(*billing.PaymentConfirmationEmail)
	require.True(t, ok)
	assert.Equal(t, []string{"buyer@example.com"}, notifier.sent[0].to)
	assert.Equal(t, "Buyer One", confirmation.CustomerName)
	assert.Equal(t, "Pro", confirmation.PlanName)
	assert.Equal(t, "1HGCM82633A004352", confirmation.VIN)
	assert.Equal(t, "49.99 USD", confirmation.Total)
	assert.Equal(t, "support@example.com", confirmation.SupportEmail)

	alert, ok := notifier.sent[1].msg.(*billing.AdminSaleAlertEmail)
	require.True(t, ok)
	assert.Equal(t, adminEmails, notifier.sent[1].to)
	assert.Equal(t, "buyer@example.com", alert.CustomerEmail)
	assert.Equal(t, "txn_1", alert.TransactionID)
}

func TestProcessor_LookupFallback(t *testing.T) {
	lookup := &stubLookup{customer: &billing.Customer{
		ID:    "ctm_1",
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	}}
	notifier := &stubNotifier{}
	processor := billing.NewProcessor(zerolog.Nop(), lookup, notifier, nil, "", nil)

	event := paidEvent()
	event.Data.CustomData = nil

	require.NoError(t, processor.ProcessEvent(context.Background(), event))

	assert.Equal(t, int64(1), atomic.LoadInt64(&lookup.calls))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, notifier.sent[0].to)

	confirmation := notifier.sent[0].msg.(*billing.PaymentConfirmationEmail)
	assert.Equal(t, "Ada Lovelace", confirmation.CustomerName)
}

func TestProcessor_CustomNameWinsOverLookupName(t *testing.T) {
	lookup := &stubLookup{customer: &billing.Customer{
		Name:  "Account Holder",
		Email: "holder@example.com",
	}}
	notifier := &stubNotifier{}
	processor := billing.NewProcessor(zerolog.Nop(), lookup, notifier, nil, "", nil)

	event := paidEvent()
	event.Data.CustomData = &billing.CustomData{Name: "Checkout Name"}

	require.NoError(t, processor.ProcessEvent(context.Background(), event))

	require.Len(t, notifier.sent, 1)
	confirmation := notifier.sent[0].msg.(*billing.PaymentConfirmationEmail)
	assert.Equal(t, "Checkout Name", confirmation.CustomerName)
	assert.Equal(t, []string{"holder@example.com"}, notifier.sent[0].to)
}

func TestProcessor_LookupFailureTolerated(t *testing.T) {
	lookup := &stubLookup{err: assert.AnError}
	notifier := &stubNotifier{}
	processor := billing.NewProcessor(zerolog.Nop(), lookup, notifier, adminEmails, "", nil)

	event := paidEvent()
	event.Data.CustomData = nil

	require.NoError(t, processor.ProcessEvent(context.Background(), event))

	require.Len(t, notifier.sent, 1)
	alert, ok := notifier.sent[0].msg.(*billing.AdminSaleAlertEmail)
	require.True(t, ok)
	assert.Empty(t, alert.CustomerEmail)
}

func TestProcessor_NoLookupConfigured(t *testing.T) {
	notifier := &stubNotifier{}
	processor := billing.NewProcessor(zerolog.Nop(), nil, notifier, adminEmails, "", nil)

	event := paidEvent()
	event.Data.CustomData = nil

	require.NoError(t, processor.ProcessEvent(context.Background(), event))

	require.Len(t, notifier.sent, 1)
	_, ok := notifier.sent[0].msg.(*billing.AdminSaleAlertEmail)
	assert.True(t, ok)
}

func TestProcessor_NotifierFailureTolerated(t *testing.T) {
	notifier := &stubNotifier{err: assert.AnError}
	processor := billing.NewProcessor(zerolog.Nop(), nil, notifier, adminEmails, "", nil)

	assert.NoError(t, processor.ProcessEvent(context.Background(), paidEvent()))
	assert.Len(t, notifier.sent, 2)
}

func TestProcessor_NoNotifier(t *testing.T) {
	processor := billing.NewProcessor(zerolog.Nop(), nil, nil, adminEmails, "", nil)

	assert.NoError(t, processor.ProcessEvent(context.Background(), paidEvent()))
}

func TestProcessor_IgnoresNonTransactionEvents(t *testing.T) {
	lookup := &stubLookup{}
	notifier := &stubNotifier{}
	processor := billing.NewProcessor(zerolog.Nop(), lookup, notifier, adminEmails, "", nil)

	event := paidEvent()
	event.EventType = "subscription.created"

	require.NoError(t, processor.ProcessEvent(context.Background(), event))

	assert.Equal(t, int64(0), atomic.LoadInt64(&lookup.calls))
	assert.Empty(t, notifier.sent)
}

func TestProcessor_OtherTransactionEventsAcknowledged(t *testing.T) {
	notifier := &stubNotifier{}
	processor := billing.NewProcessor(zerolog.Nop(), nil, notifier, adminEmails, "", nil)

	for _, eventType := range []string{
		billing.EventTransactionCreated,
		billing.EventTransactionUpdated,
		billing.EventTransactionBilled,
		billing.EventTransactionCanceled,
		billing.EventTransactionPastDue,
	} {
		event := paidEvent()
		event.EventType = eventType
		require.NoError(t, processor.ProcessEvent(context.Background(), event))
	}

	assert.Empty(t, notifier.sent)
}

func TestProcessor_PaymentFailedAlertsAdminsOnly(t *testing.T) {
	notifier := &stubNotifier{}
	processor := billing.NewProcessor(zerolog.Nop(), nil, notifier, adminEmails, "", nil)

	event := paidEvent()
	event.EventType = billing.EventTransactionPaymentFailed
	event.Data.Status = "past_due"
	event.Data.Payments = []billing.Payment{
		{PaymentAttemptID: "pay_1", Status: "error", ErrorCode: "card_declined"},
	}

	require.NoError(t, processor.ProcessEvent(context.Background(), event))

	require.Len(t, notifier.sent, 1)
	alert, ok := notifier.sent[0].msg.(*billing.AdminPaymentFailureEmail)
	require.True(t, ok)
	assert.Equal(t, adminEmails, notifier.sent[0].to)
	assert.Equal(t, "card_declined", alert.ErrorCode)
	assert.Equal(t, "buyer@example.com", alert.CustomerEmail)
}

func TestProcessor_PaymentFailedWithoutAttemptDetails(t *testing.T) {
	notifier := &stubNotifier{}
	processor := billing.NewProcessor(zerolog.Nop(), nil, notifier, adminEmails, "", nil)

	event := paidEvent()
	event.EventType = billing.EventTransactionPaymentFailed
	event.Data.Payments = nil

	require.NoError(t, processor.ProcessEvent(context.Background(), event))

	require.Len(t, notifier.sent, 1)
	alert := notifier.sent[0].msg.(*billing.AdminPaymentFailureEmail)
	assert.Equal(t, "unknown", alert.ErrorCode)
}

func TestProcessor_EventHandlerInvoked(t *testing.T) {
	var handled []billing.ProcessedTransaction
	handler := func(ctx context.Context, tx billing.ProcessedTransaction) error {
		handled = append(handled, tx)
		return nil
	}
	processor := billing.NewProcessor(zerolog.Nop(), nil, nil, nil, "", handler)

	require.NoError(t, processor.ProcessEvent(context.Background(), paidEvent()))

	require.Len(t, handled, 1)
	assert.Equal(t, "evt_1", handled[0].EventID)
	assert.Equal(t, billing.EventTransactionPaid, handled[0].EventType)
	assert.Equal(t, "txn_1", handled[0].TransactionID)
	assert.Equal(t, "buyer@example.com", handled[0].CustomerEmail)
	assert.Equal(t, "Pro", handled[0].Plan)
	assert.Equal(t, "1HGCM82633A004352", handled[0].VIN)
	assert.Equal(t, "49.99 USD", handled[0].Total)
	assert.Equal(t, "USD", handled[0].CurrencyCode)
}

func TestProcessor_EventHandlerErrorSwallowed(t *testing.T) {
	handler := func(ctx context.Context, tx billing.ProcessedTransaction) error {
		return assert.AnError
	}
	processor := billing.NewProcessor(zerolog.Nop(), nil, nil, nil, "", handler)

	assert.NoError(t, processor.ProcessEvent(context.Background(), paidEvent()))
}

func TestProcessor_NilEvent(t *testing.T) {
	processor := billing.NewProcessor(zerolog.Nop(), nil, nil, nil, "", nil)

	assert.Error(t, processor.ProcessEvent(context.Background(), nil))
}

func TestProcessor_ConfirmationLineItems(t *testing.T) {
	notifier := &stubNotifier{}
	processor := billing.NewProcessor(zerolog.Nop(), nil, notifier, nil, "", nil)

	event := paidEvent()
	event.Data.Items = []billing.Item{
		{
			Quantity: 1,
			Price: &billing.Price{
				Name:      "Pro Plan",
				UnitPrice: &billing.Money{Amount: "4999", CurrencyCode: "USD"},
			},
		},
		{
			Quantity: 2,
			Price: &billing.Price{
				Description: "Extra report credits",
				UnitPrice:   &billing.Money{Amount: "500", CurrencyCode: "USD"},
			},
		},
		{Quantity: 1, Price: nil},
	}

	require.NoError(t, processor.ProcessEvent(context.Background(), event))

	require.Len(t, notifier.sent, 1)
	confirmation := notifier.sent[0].msg.(*billing.PaymentConfirmationEmail)
	require.Len(t, confirmation.Items, 2)
	assert.Equal(t, billing.LineItem{Description: "Pro Plan", Quantity: 1, Amount: "49.99 USD"}, confirmation.Items[0])
	assert.Equal(t, billing.LineItem{Description: "Extra report credits", Quantity: 2, Amount: "5.00 USD"}, confirmation.Items[1])
}
