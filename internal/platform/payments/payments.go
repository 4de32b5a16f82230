package payments

import "context"

type CheckoutInput struct {
	TourID        int64
	TourName      string
	TourSummary   string
	Price         float64
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CompletedCheckout is the subset of a verified "checkout completed"
// event the booking path needs.
type CompletedCheckout struct {
	SessionID     string
	TourID        int64
	CustomerEmail string
	AmountTotal   float64
}

// Provider is the payment-session collaborator. VerifyWebhook
// authenticates the raw payload against the provider signature and
// returns nil for verified events the API does not care about.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*Session, error)
	VerifyWebhook(payload []byte, signature string) (*CompletedCheckout, error)
}
