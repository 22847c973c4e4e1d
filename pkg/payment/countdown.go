package payment

import (
	"fmt"
	"time"
)

// Countdown is the time left before an intent's payment window closes.
type Countdown struct {
	Channel   Channel       `json:"channel"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Remaining time.Duration `json:"remaining"`
}

func countdownAt(i Intent, now time.Time) Countdown {
	remaining := i.ExpiresAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return Countdown{Channel: i.Channel, ExpiresAt: i.ExpiresAt, Remaining: remaining}
}

// Expired reports whether no time is left.
func (c Countdown) Expired() bool {
	return c.Remaining <= 0
}

// String renders the countdown for display. PIX windows are short and shown
// as HH:MM:SS; boleto windows span days and are shown as "Dd HHh MMm".
func (c Countdown) String() string {
	r := c.Remaining.Truncate(time.Second)
	if r < 0 {
		r = 0
	}
	if c.Channel == ChannelBoleto {
		days := int(r / (24 * time.Hour))
		hours := int(r % (24 * time.Hour) / time.Hour)
		minutes := int(r % time.Hour / time.Minute)
		return fmt.Sprintf("%dd %02dh %02dm", days, hours, minutes)
	}
	hours := int(r / time.Hour)
	minutes := int(r % time.Hour / time.Minute)
	seconds := int(r % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
