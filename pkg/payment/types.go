package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestaonuvem/entitlements/pkg/plan"
)

// Channel is a payment rail.
type Channel string

const (
	ChannelCard   Channel = "credit_card"
	ChannelPix    Channel = "pix"
	ChannelBoleto Channel = "boleto"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelCard, ChannelPix, ChannelBoleto:
		return true
	default:
		return false
	}
}

// Async reports whether the channel confirms payment by polling.
func (c Channel) Async() bool {
	return c == ChannelPix || c == ChannelBoleto
}

// IntentStatus is the server-side state of a payment intent.
type IntentStatus string

const (
	StatusPending   IntentStatus = "pending"
	StatusSucceeded IntentStatus = "succeeded"
	StatusExpired   IntentStatus = "expired"
	StatusCanceled  IntentStatus = "canceled"
	StatusFailed    IntentStatus = "failed"
)

// Terminal reports whether no further status change can happen.
func (s IntentStatus) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusExpired, StatusCanceled, StatusFailed:
		return true
	default:
		return false
	}
}

// Intent is an asynchronous payment issued by the gateway for PIX or Boleto.
// An expired intent is never resurrected; a new one must be created.
type Intent struct {
	ID          string          `json:"paymentIntentId"`
	Channel     Channel         `json:"channel"`
	PlanID      plan.Tier       `json:"planId,omitempty"`
	Cycle       plan.Cycle      `json:"billingCycle,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	ExpiresAt   time.Time       `json:"expiresAt"`
	QRCode      string          `json:"qrCode,omitempty"`
	QRCodeImage string          `json:"qrCodeImage,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
	BoletoURL   string          `json:"boletoUrl,omitempty"`
	Status      IntentStatus    `json:"status"`
}

// ExpiredAt reports whether the payment window has closed at now.
func (i Intent) ExpiredAt(now time.Time) bool {
	return i.Status == StatusExpired || !i.ExpiresAt.After(now)
}

// IntentRequest asks the gateway for a new PIX or Boleto intent.
type IntentRequest struct {
	PlanID         plan.Tier       `json:"planId"`
	Cycle          plan.Cycle      `json:"billingCycle"`
	BillingDetails *BillingDetails `json:"billingDetails,omitempty"`
}

// CheckoutRequest asks the gateway to charge or set up a card subscription.
type CheckoutRequest struct {
	PlanID      plan.Tier  `json:"planId"`
	Cycle       plan.Cycle `json:"billingCycle"`
	FrontendURL string     `json:"frontendUrl,omitempty"`
}

// CardOutcome is the result of a card checkout. Either the existing card
// subscription was changed in place (Upgraded) or the tenant must complete a
// hosted checkout at CheckoutURL.
type CardOutcome struct {
	Upgraded    bool   `json:"upgraded"`
	Message     string `json:"message,omitempty"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
}

// RequiresRedirect reports whether the tenant must leave for a hosted checkout page.
func (o CardOutcome) RequiresRedirect() bool {
	return !o.Upgraded && o.CheckoutURL != ""
}
