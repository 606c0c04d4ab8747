package notary

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature(t *testing.T) {
	n := NewNotary(logrus.New())

	a, err := n.Signature()
	require.NoError(t, err)
	b, err := n.Signature()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "5tZ..."))
	assert.Len(t, a, len("5tZ...")+8)
	assert.NotEqual(t, a, b)
}

func TestRecordLoanEvent(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	n := NewNotary(log)

	sig, err := n.RecordLoanEvent(context.Background(), "FUNDING", uuid.New())
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = n.RecordLoanEvent(ctx, "FUNDING", uuid.New())
	assert.Error(t, err)
}
