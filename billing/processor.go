package billing

import (
	"context"
	"fmt"

	"github.com/dawitel/paddle-webhook/mail"
	"github.com/rs/zerolog"
)

// CustomerLookup resolves customer profiles from the payment provider.
type CustomerLookup interface {
	GetCustomer(ctx context.Context, customerID string) (*Customer, error)
}

// Notifier dispatches template-backed email messages.
type Notifier interface {
	SendRendered(ctx context.Context, to []string, msg mail.TemplateMessage) error
}

// EventHandler is a callback for processed transaction events
type EventHandler func(ctx context.Context, tx ProcessedTransaction) error

// Processor processes authenticated transaction events. Its collaborators
// are best effort: a failed lookup, email, or callback is logged and never
// turns an authenticated event into a webhook failure.
type Processor struct {
	logger       zerolog.Logger
	customers    CustomerLookup
	notifier     Notifier
	adminEmails  []string
	supportEmail string
	handler      EventHandler
}

// NewProcessor creates a new transaction event processor
func NewProcessor(logger zerolog.Logger, customers CustomerLookup, notifier Notifier, adminEmails []string, supportEmail string, handler EventHandler) *Processor {
	return &Processor{
		logger:       logger,
		customers:    customers,
		notifier:     notifier,
		adminEmails:  adminEmails,
		supportEmail: supportEmail,
		handler:      handler,
	}
}

// ProcessEvent processes a single authenticated webhook event. Only the
// verification step upstream may reject a delivery; by the time an event
// reaches the processor the outcome is always an acknowledgment.
func (p *Processor) ProcessEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}

	if !event.IsTransaction() {
		p.logger.Debug().
			Str("event_id", event.EventID).
			Str("event_type", event.EventType).
			Msg("Ignoring non-transaction event")
		return nil
	}

	switch event.EventType {
	case EventTransactionPaid, EventTransactionCompleted:
		p.processPayment(ctx, event)
	case EventTransactionPaymentFailed:
		p.processPaymentFailure(ctx, event)
	default:
		p.logger.Debug().
			Str("event_id", event.EventID).
			Str("event_type", event.EventType).
			Msg("Transaction event acknowledged without side effects")
	}

	return nil
}

// processPayment sends the customer confirmation and the admin sale alert
// for a successfully paid transaction.
func (p *Processor) processPayment(ctx context.Context, event *Event) {
	tx := &event.Data
	email, name := p.resolveCustomer(ctx, tx)

	p.logger.Info().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("transaction_id", tx.ID).
		Str("status", tx.Status).
		Str("total", tx.TotalFormatted()).
		Msg("Processing paid transaction")

	if p.notifier != nil {
		if email != "" {
			confirmation := &PaymentConfirmationEmail{
				CustomerName:  name,
				PlanName:      tx.PlanName(),
				VIN:           customDataVIN(tx),
				TransactionID: tx.ID,
				InvoiceNumber: tx.InvoiceNumber,
				Total:         tx.TotalFormatted(),
				Items:         confirmationItems(tx),
				SupportEmail:  p.supportEmail,
			}
			if err := p.notifier.SendRendered(ctx, []string{email}, confirmation); err != nil {
				p.logger.Error().
					Err(err).
					Str("transaction_id", tx.ID).
					Msg("Failed to send payment confirmation")
			}
		} else {
			p.logger.Warn().
				Str("transaction_id", tx.ID).
				Str("customer_id", tx.CustomerID).
				Msg("No customer address resolved, skipping confirmation email")
		}

		if len(p.adminEmails) > 0 {
			alert := &AdminSaleAlertEmail{
				CustomerName:  name,
				CustomerEmail: email,
				PlanName:      tx.PlanName(),
				VIN:           customDataVIN(tx),
				TransactionID: tx.ID,
				Total:         tx.TotalFormatted(),
				EventType:     event.EventType,
				OccurredAt:    event.OccurredAt,
			}
			if err := p.notifier.SendRendered(ctx, p.adminEmails, alert); err != nil {
				p.logger.Error().
					Err(err).
					Str("transaction_id", tx.ID).
					Msg("Failed to send admin sale alert")
			}
		}
	}

	p.invokeHandler(ctx, event, email, name)
}

// processPaymentFailure alerts the operators about a failed payment attempt.
// The customer is not emailed; the provider runs its own dunning flow.
func (p *Processor) processPaymentFailure(ctx context.Context, event *Event) {
	tx := &event.Data
	email, name := p.resolveCustomer(ctx, tx)

	errorCode := "unknown"
	if payment := tx.FailedPayment(); payment != nil {
		errorCode = payment.ErrorCode
	}

	p.logger.Info().
		Str("event_id", event.EventID).
		Str("transaction_id", tx.ID).
		Str("error_code", errorCode).
		Msg("Processing failed payment")

	if p.notifier != nil && len(p.adminEmails) > 0 {
		alert := &AdminPaymentFailureEmail{
			CustomerEmail: email,
			TransactionID: tx.ID,
			ErrorCode:     errorCode,
			EventType:     event.EventType,
			OccurredAt:    event.OccurredAt,
		}
		if err := p.notifier.SendRendered(ctx, p.adminEmails, alert); err != nil {
			p.logger.Error().
				Err(err).
				Str("transaction_id", tx.ID).
				Msg("Failed to send admin payment failure alert")
		}
	}

	p.invokeHandler(ctx, event, email, name)
}

// resolveCustomer returns the best known email and name for the transaction.
// Checkout custom data wins because it needs no provider round trip; the
// customer API is the fallback when only a customer ID is present.
func (p *Processor) resolveCustomer(ctx context.Context, tx *Transaction) (email, name string) {
	if tx.CustomData != nil {
		email = tx.CustomData.Email
		name = tx.CustomData.Name
	}

	if email != "" {
		return email, name
	}

	if p.customers == nil || tx.CustomerID == "" {
		return email, name
	}

	customer, err := p.customers.GetCustomer(ctx, tx.CustomerID)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("customer_id", tx.CustomerID).
			Msg("Customer lookup failed")
		return email, name
	}

	email = customer.Email
	if name == "" {
		name = customer.Name
	}

	return email, name
}

// invokeHandler runs the user callback with the distilled transaction.
func (p *Processor) invokeHandler(ctx context.Context, event *Event, email, name string) {
	if p.handler == nil {
		return
	}

	tx := &event.Data
	processed := ProcessedTransaction{
		EventID:       event.EventID,
		EventType:     event.EventType,
		TransactionID: tx.ID,
		Status:        tx.Status,
		CustomerID:    tx.CustomerID,
		CustomerEmail: email,
		CustomerName:  name,
		Plan:          tx.PlanName(),
		VIN:           customDataVIN(tx),
		Total:         tx.TotalFormatted(),
		CurrencyCode:  tx.CurrencyCode,
		OccurredAt:    event.OccurredAt,
	}

	if err := p.handler(ctx, processed); err != nil {
		p.logger.Error().
			Err(err).
			Str("event_id", event.EventID).
			Str("transaction_id", tx.ID).
			Msg("Event handler failed")
	}
}

// confirmationItems maps transaction line items to email rows.
func confirmationItems(tx *Transaction) []LineItem {
	items := make([]LineItem, 0, len(tx.Items))
	for _, item := range tx.Items {
		if item.Price == nil {
			continue
		}

		description := item.Price.Name
		if description == "" {
			description = item.Price.Description
		}
		if description == "" {
			description = item.Price.ProductID
		}

		var amount string
		if item.Price.UnitPrice != nil {
			amount = FormatAmount(item.Price.UnitPrice.Amount, item.Price.UnitPrice.CurrencyCode)
		}

		items = append(items, LineItem{
			Description: description,
			Quantity:    item.Quantity,
			Amount:      amount,
		})
	}
	return items
}

func customDataVIN(tx *Transaction) string {
	if tx.CustomData == nil {
		return ""
	}
	return tx.CustomData.VIN
}
