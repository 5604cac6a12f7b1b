package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/config"
	"github.com/urbanfrill/storefront/internal/email"
)

func TestWithRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	h := withRetry(func(ctx context.Context, key, value []byte) error {
		calls++
		if calls < 2 {
			return errors.New("smtp: 421 try again")
		}
		return nil
	}, zap.NewNop())

	require.NoError(t, h(context.Background(), []byte("order-1"), nil))
	assert.Equal(t, 2, calls)
}

func TestWithRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	h := withRetry(func(ctx context.Context, key, value []byte) error {
		calls++
		return errors.New("smtp: 550 mailbox unavailable")
	}, zap.NewNop())

	err := h(context.Background(), []byte("order-1"), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "550")
	assert.Equal(t, sendAttempts, calls)
}

func TestWithRetry_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := withRetry(func(context.Context, []byte, []byte) error {
		cancel()
		return errors.New("smtp down")
	}, zap.NewNop())

	assert.ErrorIs(t, h(ctx, nil, nil), context.Canceled)
}

func TestNewSender(t *testing.T) {
	smtp, err := newSender(config.MailConfig{Backend: config.MailSMTP, SMTPHost: "localhost", SMTPPort: "1025", From: "orders@urbanfrill.in"})
	require.NoError(t, err)
	assert.IsType(t, &email.SMTPSender{}, smtp)

	_, err = newSender(config.MailConfig{Backend: config.MailSendGrid, From: "orders@urbanfrill.in"})
	assert.ErrorIs(t, err, email.ErrSendGridKeyMissing)
}
