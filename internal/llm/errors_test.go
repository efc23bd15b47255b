package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRateLimit(t *testing.T) {
	rl := &RateLimitError{Provider: ProviderOpenAI, Model: "gpt-4o-mini", Message: "slow down"}

	assert.True(t, IsRateLimit(rl))
	assert.True(t, IsRateLimit(fmt.Errorf("wrapped: %w", rl)))
	assert.True(t, errors.Is(rl, ErrRateLimited))
	assert.False(t, IsRateLimit(errors.New("boom")))
	assert.False(t, IsRateLimit(nil))
}

func TestQuotaMessage(t *testing.T) {
	assert.True(t, quotaMessage("You exceeded your current quota: insufficient_quota"))
	assert.True(t, quotaMessage("RESOURCE_EXHAUSTED"))
	assert.False(t, quotaMessage("invalid model"))
}

func TestNewBackend_RequiresCredentials(t *testing.T) {
	for _, p := range []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderCerebras} {
		_, err := NewBackend(p, "")
		assert.Error(t, err, p)
	}

	_, err := NewBackend("unknown", "key")
	assert.Error(t, err)

	b, err := NewBackend(ProviderMock, "")
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, b.Provider())
}

func TestNewBackend_OpenAICompatibleProviders(t *testing.T) {
	b, err := NewBackend(ProviderCerebras, "key")
	require.NoError(t, err)
	assert.Equal(t, ProviderCerebras, b.Provider())

	b, err = NewBackend(ProviderGemini, "key")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, b.Provider())
}

func TestSplitSystem(t *testing.T) {
	system, rest := splitSystem([]domain.Message{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleSystem, Content: "be kind"},
	})
	assert.Equal(t, "be brief\n\nbe kind", system)
	require.Len(t, rest, 1)
	assert.Equal(t, "hi", rest[0].Content)
}

func TestMockBackend_StreamHonorsCancellation(t *testing.T) {
	b := NewMockBackend(ProviderMock)
	b.StreamChunks = []string{"a", "b", "c"}

	ctx, cancel := context.WithCancel(context.Background())
	s, err := b.Stream(ctx, Request{Model: "m"})
	require.NoError(t, err)

	require.True(t, s.Next())
	assert.Equal(t, "a", s.Chunk())
	cancel()
	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), context.Canceled)
	assert.NoError(t, s.Close())
}
