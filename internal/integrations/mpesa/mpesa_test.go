package mpesa

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	valid := map[string]string{
		"0712345678":    "254712345678",
		"+254712345678": "254712345678",
		"254112345678":  "254112345678",
		"0712 345 678":  "254712345678",
	}
	for in, want := range valid {
		got, err := NormalizePhone(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"", "12345", "0812345678", "+1555123456"} {
		_, err := NormalizePhone(in)
		assert.Error(t, err, in)
	}
}

func TestInitiateSTKPush(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	client := NewClient(log)

	resp, err := client.InitiateSTKPush(context.Background(), "0712345678", decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, "0", resp.ResponseCode)
	assert.NotEmpty(t, resp.CheckoutRequestID)

	_, err = client.InitiateSTKPush(context.Background(), "bogus", decimal.NewFromInt(50))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.InitiateSTKPush(ctx, "0712345678", decimal.NewFromInt(50))
	assert.ErrorIs(t, err, context.Canceled)
}
