package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryReputation struct {
	scores map[uuid.UUID]int
	err    error
}

func (m *memoryReputation) GetReputation(_ context.Context, userID uuid.UUID) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.scores[userID], nil
}

func (m *memoryReputation) IncrementReputation(_ context.Context, userID uuid.UUID, delta int) error {
	if m.err != nil {
		return m.err
	}
	m.scores[userID] += delta
	return nil
}

func TestMaxLoan(t *testing.T) {
	assert.True(t, dec("200").Equal(MaxLoan(100)))
	assert.True(t, dec("220").Equal(MaxLoan(110)))
	assert.True(t, dec("0").Equal(MaxLoan(0)))
}

func TestTrustEngine(t *testing.T) {
	user := uuid.New()
	store := &memoryReputation{scores: map[uuid.UUID]int{user: 100}}
	engine := NewTrustEngine(store, quietLogger())

	limit, rep, err := engine.Limit(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, 100, rep)
	assert.True(t, dec("200").Equal(limit))

	require.NoError(t, engine.OnRepayment(context.Background(), user))
	require.NoError(t, engine.OnRepayment(context.Background(), user))
	assert.Equal(t, 120, store.scores[user])

	limit, _, err = engine.Limit(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, dec("240").Equal(limit))
}

func TestTrustEngineWithStore(t *testing.T) {
	user := uuid.New()
	primary := &memoryReputation{scores: map[uuid.UUID]int{user: 100}}
	other := &memoryReputation{scores: map[uuid.UUID]int{user: 100}}
	engine := NewTrustEngine(primary, quietLogger())

	require.NoError(t, engine.WithStore(other).OnRepayment(context.Background(), user))
	assert.Equal(t, 100, primary.scores[user])
	assert.Equal(t, 110, other.scores[user])

	failing := &memoryReputation{err: errors.New("boom")}
	assert.Error(t, engine.WithStore(failing).OnRepayment(context.Background(), user))
}
