package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreInTxDiscardsFailedWork(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	boom := errors.New("boom")

	err := m.InTx(ctx, func(r Repository) error {
		require.NoError(t, r.CreateClub(ctx, &Club{ID: "c1", Name: "Chess"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	_, err = m.GetClub(ctx, "c1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.InTx(ctx, func(r Repository) error {
		return r.CreateClub(ctx, &Club{ID: "c1", Name: "Chess"})
	}))
	club, err := m.GetClub(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Chess", club.Name)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, m.InTx(cancelled, func(Repository) error { return nil }), context.Canceled)
}
