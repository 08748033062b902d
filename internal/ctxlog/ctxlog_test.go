package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("falls back to the default logger", func(t *testing.T) {
		t.Parallel()
		assert.Same(t, slog.Default(), FromContext(context.Background()))
	})

	t.Run("With adds attributes", func(t *testing.T) {
		t.Parallel()

		// --- Arrange ---
		var buf bytes.Buffer
		ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

		// --- Act ---
		FromContext(With(ctx, "year", 2024)).Info("resolved")

		// --- Assert ---
		assert.Contains(t, buf.String(), "msg=resolved year=2024")
	})
}
