package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/alicecomoura/hook-shopping-cart/pkg/errors"
)

func TestStore_SetGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "@RocketShoes:cart")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, s.Set(ctx, "@RocketShoes:cart", []byte(`[]`)))
	got, err := s.Get(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)


	require.NoError(t, s.Set(ctx, "@RocketShoes:cart", []byte(`[{"id":1}]`)))
	got, err = s.Get(ctx, "@RocketShoes:cart")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(got))
	assert.NoError(t, s.Ping(ctx))
}

func TestStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	s := New()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	out[1] = 'y'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}
