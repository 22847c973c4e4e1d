package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestaonuvem/entitlements/pkg/payment"
)

const (
	pathCheckoutSession = "stripe/create-checkout-session"
	pathPixPayment      = "stripe/create-pix-payment"
	pathBoletoPayment   = "stripe/create-boleto-payment"
	pathPaymentStatus   = "stripe/check-payment-status"
)

var _ payment.Gateway = (*Client)(nil)

// CreateCheckoutSession starts a card checkout. Never retried.
func (c *Client) CreateCheckoutSession(ctx context.Context, req payment.CheckoutRequest) (payment.CardOutcome, error) {
	var out payment.CardOutcome
	if err := c.call(ctx, http.MethodPost, pathCheckoutSession, req, &out, false); err != nil {
		return payment.CardOutcome{}, err
	}
	return out, nil
}

// intentResponse accepts both id spellings the backend has used.
type intentResponse struct {
	PaymentIntentID string               `json:"paymentIntentId"`
	IntentID        string               `json:"intentId"`
	Amount          decimal.Decimal      `json:"amount"`
	ExpiresAt       time.Time            `json:"expiresAt"`
	QRCode          string               `json:"qrCode"`
	QRCodeImage     string               `json:"qrCodeImage"`
	Barcode         string               `json:"barcode"`
	BoletoURL       string               `json:"boletoUrl"`
	Status          payment.IntentStatus `json:"status"`
}

func (r intentResponse) intent(ch payment.Channel, req payment.IntentRequest) payment.Intent {
	id := r.PaymentIntentID
	if id == "" {
		id = r.IntentID
	}
	return payment.Intent{
		ID:          id,
		Channel:     ch,
		PlanID:      req.PlanID,
		Cycle:       req.Cycle,
		Amount:      r.Amount,
		ExpiresAt:   r.ExpiresAt,
		QRCode:      r.QRCode,
		QRCodeImage: r.QRCodeImage,
		Barcode:     r.Barcode,
		BoletoURL:   r.BoletoURL,
		Status:      r.Status,
	}
}

// CreatePixPayment issues a PIX intent. Never retried, a retry could issue a second charge.
func (c *Client) CreatePixPayment(ctx context.Context, req payment.IntentRequest) (payment.Intent, error) {
	var resp intentResponse
	if err := c.call(ctx, http.MethodPost, pathPixPayment, req, &resp, false); err != nil {
		return payment.Intent{}, err
	}
	return resp.intent(payment.ChannelPix, req), nil
}

// CreateBoletoPayment issues a boleto intent. Never retried.
func (c *Client) CreateBoletoPayment(ctx context.Context, req payment.IntentRequest) (payment.Intent, error) {
	var resp intentResponse
	if err := c.call(ctx, http.MethodPost, pathBoletoPayment, req, &resp, false); err != nil {
		return payment.Intent{}, err
	}
	return resp.intent(payment.ChannelBoleto, req), nil
}

type paymentStatusRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

type paymentStatusResponse struct {
	Status payment.IntentStatus `json:"status"`
}

// CheckPaymentStatus reads the status of an intent. It is a read and is retried.
func (c *Client) CheckPaymentStatus(ctx context.Context, intentID string) (payment.IntentStatus, error) {
	var resp paymentStatusResponse
	if err := c.call(ctx, http.MethodPost, pathPaymentStatus, paymentStatusRequest{PaymentIntentID: intentID}, &resp, true); err != nil {
		return "", err
	}
	if resp.Status == "" {
		return payment.StatusPending, nil
	}
	return resp.Status, nil
}
