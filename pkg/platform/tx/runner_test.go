package tx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	dErrors "registro/pkg/domain-errors"
)

func TestRunInTxEndedContext(t *testing.T) {
	r := NewRunner(nil, 0)
	called := false
	fn := func(context.Context) error {
		called = true
		return nil
	}

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := r.RunInTx(ctx, fn)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCanceled), "got %v", err)
		assert.False(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("deadline exceeded", func(t *testing.T) {
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		err := r.RunInTx(ctx, fn)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCanceled), "got %v", err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	assert.False(t, called, "fn must not run once the context has ended")
}
