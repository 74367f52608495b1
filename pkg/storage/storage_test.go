package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorageUploadAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage("https://cdn.example.com")

	url, err := s.Upload(ctx, "payment-proofs/1/a.png", []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/payment-proofs/1/a.png", url)
	assert.True(t, s.Has("payment-proofs/1/a.png"))

	require.NoError(t, s.Delete(ctx, "payment-proofs/1/a.png"))
	assert.Equal(t, 0, s.Len())
}
