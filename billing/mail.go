package billing

// LineItem is a purchased item row rendered in the confirmation email.
type LineItem struct {
	Description string
	Quantity    int
	Amount      string
}

// PaymentConfirmationEmail is the mail template with payment receipt data
type PaymentConfirmationEmail struct {
	CustomerName  string
	PlanName      string
	VIN           string
	TransactionID string
	InvoiceNumber string
	Total         string
	Items         []LineItem
	SupportEmail  string
}

// Template returns the email template name
func (*PaymentConfirmationEmail) Template() string { return "PaymentConfirmation" }

// Subject returns the email subject
func (*PaymentConfirmationEmail) Subject() string { return "Your payment was successful" }

// AdminSaleAlertEmail is the mail template with new sale data for operators
type AdminSaleAlertEmail struct {
	CustomerName  string
	CustomerEmail string
	PlanName      string
	VIN           string
	TransactionID string
	Total         string
	EventType     string
	OccurredAt    string
}

// Template returns the email template name
func (*AdminSaleAlertEmail) Template() string { return "AdminSaleAlert" }

// Subject returns the email subject
func (e *AdminSaleAlertEmail) Subject() string { return "New sale: " + e.TransactionID }

// AdminPaymentFailureEmail is the mail template with failed payment data
// for operators
type AdminPaymentFailureEmail struct {
	CustomerEmail string
	TransactionID string
	ErrorCode     string
	EventType     string
	OccurredAt    string
}

// Template returns the email template name
func (*AdminPaymentFailureEmail) Template() string { return "AdminPaymentFailure" }

// Subject returns the email subject
func (e *AdminPaymentFailureEmail) Subject() string { return "Payment failed: " + e.TransactionID }
