package schwarzgo

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("nil falls back to noop", func(t *testing.T) {
		l := NewLogger(nil)
		require.NotNil(t, l)
		// Must not panic.
		l.LogFactorize(context.Background(), ModeGeneral, 4, time.Millisecond, nil)
	})

	t.Run("records carry attached attributes", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil))).WithRank(3).WithComponent("setup")

		l.LogFactorize(context.Background(), ModeGeneral, 4, time.Millisecond, nil)

		out := buf.String()
		assert.Contains(t, out, "factorization completed")
		assert.Contains(t, out, `"rank":3`)
		assert.Contains(t, out, `"component":"setup"`)
		assert.Contains(t, out, `"mode":"general"`)
	})

	t.Run("errors log on the error level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

		l.LogEigenSolve(context.Background(), 8, 0, time.Millisecond, assert.AnError)

		out := buf.String()
		assert.Contains(t, out, "eigensolve failed")
		assert.Contains(t, out, `"level":"ERROR"`)
	})
}
