package store

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[0-9A-F]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		n := generateOrderNumber()
		require.Regexp(t, pattern, n)
		seen[n] = true
	}

	// 1000 draws from a 32-bit space colliding would be suspicious.
	assert.Greater(t, len(seen), 990)
}

func TestCursorRoundTrip(t *testing.T) {
	first, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<63-1), first.ID, "empty cursor starts from the newest order")

	encoded := EncodeCursor(OrderCursor{CreatedAt: first.CreatedAt, ID: 42})
	decoded, err := DecodeCursor(encoded)
	require.NoError(t, err)
	assert.Equal(t, int64(42), decoded.ID)
	assert.True(t, first.CreatedAt.Equal(decoded.CreatedAt))

	_, err = DecodeCursor("not-base64!!!")
	assert.Error(t, err)
}
