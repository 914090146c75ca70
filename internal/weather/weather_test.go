package weather

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubRanges(t *testing.T) {
	s := NewStub(1)
	for i := 0; i < 50; i++ {
		r, err := s.Current(context.Background(), "SEOUL_KR")
		require.NoError(t, err)
		assert.InDelta(t, 24.0, r.TempC, 3.05)
		assert.NotEmpty(t, r.Condition)
		assert.NotEmpty(t, r.IconURL)
		assert.False(t, r.UpdatedAt.IsZero())
	}
}

func TestStubHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStub(1).Current(ctx, "BUSAN_KR")
	assert.ErrorIs(t, err, context.Canceled)
}
