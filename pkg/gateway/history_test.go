package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownsample_NoDownsampling(t *testing.T) {
	src := []int{1, 2, 3}

	result := Downsample(nil, src, 10)
	assert.Equal(t, src, result)

	// Sufficient capacity is reused
	dst := make([]int, 0, 10)
	result = Downsample(dst, src, 10)
	assert.Equal(t, src, result)
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsample_WithDownsampling(t *testing.T) {
	src := make([]int, 100)
	for i := range src {
		src[i] = i
	}

	dst := make([]int, 0, 20)
	result := Downsample(dst, src, 10)
	require.Len(t, result, 10)
	assert.Equal(t, cap(dst), cap(result))

	assert.Equal(t, 0, result[0])
	assert.Equal(t, 90, result[9])
	for i := 1; i < len(result); i++ {
		assert.Greater(t, result[i], result[i-1])
	}
}

func TestDownsample_ExactMaxPoints(t *testing.T) {
	src := []int{1, 2, 3, 4, 5}
	assert.Equal(t, src, Downsample(nil, src, 5))
}

func TestDownsample_UnevenSpacing(t *testing.T) {
	src := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, []int{0, 2, 5, 7}, Downsample(nil, src, 4))
	assert.Empty(t, Downsample(nil, src, -1))
}

func TestDownsample_Empty(t *testing.T) {
	assert.Empty(t, Downsample[int](nil, nil, 10))
}

func TestHistory(t *testing.T) {
	h := NewHistory(5)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		require.NoError(t, h.Write(ctx, Message{Address: 1, MoisturePct: float64(i)}))
	}
	require.NoError(t, h.Write(ctx, Message{Address: 2, MoisturePct: 99}))

	all := h.Get(1, 0)
	require.Len(t, all, 5)
	assert.Equal(t, 3.0, all[0].MoisturePct, "oldest entries are dropped")
	assert.Equal(t, 7.0, all[4].MoisturePct)

	assert.Len(t, h.Get(1, 2), 2)
	assert.Len(t, h.Get(2, 0), 1)
	assert.Empty(t, h.Get(3, 10))
}

func TestHistory_DoesNotAliasStorage(t *testing.T) {
	h := NewHistory(10)
	ctx := context.Background()
	require.NoError(t, h.Write(ctx, Message{Address: 1, MoisturePct: 10}))

	got := h.Get(1, 0)
	got[0].MoisturePct = 50

	assert.Equal(t, 10.0, h.Get(1, 0)[0].MoisturePct)
}
