package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gestaonuvem/entitlements/pkg/logger"
)

func TestLogHandlerDecorator(t *testing.T) {
	t.Parallel()

	type key struct{}
	extract := func(ctx context.Context) (slog.Attr, bool) {
		v, ok := ctx.Value(key{}).(string)
		return slog.String("intent", v), ok
	}

	t.Run("extractors survive WithAttrs and WithGroup", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		h := logger.NewLogHandlerDecorator(slog.NewJSONHandler(buf, nil), nil, extract)
		log := slog.New(h).With(slog.String("channel", "pix")).WithGroup("payment")

		log.InfoContext(context.WithValue(context.Background(), key{}, "pi_1"), "confirmed")

		entry := decode(t, buf)
		assert.Equal(t, "pix", entry["channel"])
		group, ok := entry["payment"].(map[string]any)
		if assert.True(t, ok) {
			assert.Equal(t, "pi_1", group["intent"])
		}
	})

	t.Run("missing value adds nothing", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := slog.New(logger.NewLogHandlerDecorator(slog.NewJSONHandler(buf, nil), extract))
		log.InfoContext(context.Background(), "msg")

		assert.NotContains(t, decode(t, buf), "intent")
	})
}
