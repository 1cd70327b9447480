package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelf-go/internal/models"
	"shelf-go/internal/storage"
	"shelf-go/internal/storage/storagetest"
)

func TestFriendEdgeRepository_AddIfMissing(t *testing.T) {
	db := storagetest.NewDB(t)
	repo := storage.NewGormFriendEdgeRepository(db)
	ctx := context.Background()

	written, err := repo.AddIfMissing(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = repo.AddIfMissing(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, written)

	exists, err := repo.Exists(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, exists)

	// Edges are directed.
	exists, err = repo.Exists(ctx, 2, 1)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFriendEdgeRepository_ListByOwnerKeepsDuplicates(t *testing.T) {
	db := storagetest.NewDB(t)
	repo := storage.NewGormFriendEdgeRepository(db)
	ctx := context.Background()

	for _, friendID := range []uint{3, 2, 3} {
		require.NoError(t, db.Create(&models.FriendEdge{OwnerID: 1, FriendID: friendID}).Error)
	}

	edges, err := repo.ListByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, edges, 3)
	assert.Equal(t, uint(3), edges[0].FriendID)
	assert.Equal(t, uint(2), edges[1].FriendID)
	assert.Equal(t, uint(3), edges[2].FriendID)

	deleted, err := repo.DeleteByIDs(ctx, []uint{edges[2].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = repo.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestFriendEdgeRepository_DeletePair(t *testing.T) {
	db := storagetest.NewDB(t)
	repo := storage.NewGormFriendEdgeRepository(db)
	ctx := context.Background()

	_, err := repo.AddIfMissing(ctx, 1, 2)
	require.NoError(t, err)
	_, err = repo.AddIfMissing(ctx, 2, 1)
	require.NoError(t, err)
	_, err = repo.AddIfMissing(ctx, 1, 3)
	require.NoError(t, err)

	deleted, err := repo.DeletePair(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	edges, err := repo.ListByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, uint(3), edges[0].FriendID)
}
