package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithTimeout_DefaultsWhenUnset(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 0)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(DefaultTimeout), deadline, time.Second)
}

func TestClassifyContext(t *testing.T) {
	require.NoError(t, ClassifyContext(nil))

	err := ClassifyContext(context.DeadlineExceeded)
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	other := errors.New("boom")
	require.Equal(t, other, ClassifyContext(other))
}

func TestUnavailable(t *testing.T) {
	require.NoError(t, Unavailable(nil))
	require.ErrorIs(t, Unavailable(errors.New("dial tcp: refused")), ErrUnavailable)
}
