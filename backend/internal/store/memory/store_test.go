package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circle-media/backend/internal/social"
	"circle-media/backend/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) social.Store { return New() })
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := storetest.NewUser("u1", "ada")
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	got.Followers = append(got.Followers, "intruder")

	again, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, again.Followers)
}
