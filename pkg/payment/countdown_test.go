package payment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gestaonuvem/entitlements/pkg/payment"
)

func TestCountdownString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		channel   payment.Channel
		remaining time.Duration
		want      string
	}{
		{"pix hours minutes seconds", payment.ChannelPix, time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{"pix drops sub-second", payment.ChannelPix, 59*time.Second + 900*time.Millisecond, "00:00:59"},
		{"pix zero", payment.ChannelPix, 0, "00:00:00"},
		{"pix negative clamps", payment.ChannelPix, -5 * time.Second, "00:00:00"},
		{"pix over a day keeps counting hours", payment.ChannelPix, 25 * time.Hour, "25:00:00"},
		{"boleto days hours minutes", payment.ChannelBoleto, 2*24*time.Hour + 5*time.Hour + 7*time.Minute + 30*time.Second, "2d 05h 07m"},
		{"boleto under a day", payment.ChannelBoleto, 90 * time.Minute, "0d 01h 30m"},
		{"boleto zero", payment.ChannelBoleto, 0, "0d 00h 00m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := payment.Countdown{Channel: tt.channel, Remaining: tt.remaining}
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestCountdownExpired(t *testing.T) {
	t.Parallel()
	assert.True(t, payment.Countdown{}.Expired())
	assert.False(t, payment.Countdown{Remaining: time.Second}.Expired())
}
