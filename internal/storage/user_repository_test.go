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

func TestUserRepository_SearchByName(t *testing.T) {
	db := storagetest.NewDB(t)
	repo := storage.NewGormUserRepository(db)
	ctx := context.Background()

	ana := storagetest.CreateUser(t, db, "Ana")
	storagetest.CreateUser(t, db, "Mariana")
	storagetest.CreateUser(t, db, "Bruno")
	storagetest.CreateUser(t, db, "ana_100")

	results, err := repo.SearchByName(ctx, "ANA", 0, 10)
	require.NoError(t, err)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{"Ana", "Mariana", "ana_100"}, names)

	results, err = repo.SearchByName(ctx, "ana", ana.ID, 10)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, ana.ID, r.ID)
	}

	// "_" is matched literally, not as a wildcard.
	results, err = repo.SearchByName(ctx, "a_1", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ana_100", results[0].Name)

	results, err = repo.SearchByName(ctx, "ana", 0, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestUserRepository_GetMultipleBasicInfoByIDs(t *testing.T) {
	db := storagetest.NewDB(t)
	repo := storage.NewGormUserRepository(db)
	ctx := context.Background()

	alice := storagetest.CreateUser(t, db, "alice")
	bob := storagetest.CreateUser(t, db, "bob")

	infos, err := repo.GetMultipleBasicInfoByIDs(ctx, []uint{alice.ID, bob.ID, 999})
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	infos, err = repo.GetMultipleBasicInfoByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, infos)

	exists, err := repo.Exists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserRepository_SearchByNameFoldsAccents(t *testing.T) {
	db := storagetest.NewDB(t)
	repo := storage.NewGormUserRepository(db)
	ctx := context.Background()

	angela := storagetest.CreateUser(t, db, "Ângela")
	storagetest.CreateUser(t, db, "João")

	for _, query := range []string{"Ângela", "ângela", "ÂNGELA", "ngel", "ÂNG"} {
		results, err := repo.SearchByName(ctx, query, 0, 10)
		require.NoError(t, err, query)
		require.Len(t, results, 1, query)
		assert.Equal(t, angela.ID, results[0].ID, query)
	}

	results, err := repo.SearchByName(ctx, "JOÃO", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "João", results[0].Name)
}

func TestUserRepository_NameLowerFollowsRename(t *testing.T) {
	db := storagetest.NewDB(t)
	repo := storage.NewGormUserRepository(db)
	ctx := context.Background()

	user := storagetest.CreateUser(t, db, "Otávio")
	user.Name = "Érica"
	require.NoError(t, repo.Update(ctx, user))

	results, err := repo.SearchByName(ctx, "érica", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = repo.SearchByName(ctx, "otávio", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAutoMigrateTables_BackfillsNameLower(t *testing.T) {
	db := storagetest.NewDB(t)
	repo := storage.NewGormUserRepository(db)
	ctx := context.Background()

	user := storagetest.CreateUser(t, db, "Ângela")
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumn("name_lower", "").Error)

	results, err := repo.SearchByName(ctx, "ângela", 0, 10)
	require.NoError(t, err)
	require.Empty(t, results)

	require.NoError(t, storage.AutoMigrateTables(db))

	results, err = repo.SearchByName(ctx, "ângela", 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, user.ID, results[0].ID)
}
