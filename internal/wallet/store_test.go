package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore(100)

	bal, err := s.Add(ctx, -30)
	require.NoError(t, err)
	assert.Equal(t, int64(70), bal)

	bal, err = s.Add(ctx, -80)
	assert.ErrorIs(t, err, ErrNegativeBalance)
	assert.Equal(t, int64(70), bal)

	require.NoError(t, s.Set(ctx, 12))
	bal, _ = s.Balance(ctx)
	assert.Equal(t, int64(12), bal)
}

func TestFromServer(t *testing.T) {
	assert.Equal(t, int64(120), FromServer(120.0))
	assert.Equal(t, int64(22), FromServer(22.4))
	assert.Equal(t, int64(5), FromServer(5.5))
	assert.Equal(t, int64(0), FromServer(-3))
}
