package repo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myyrakle/batchman/internal/model"
	"github.com/myyrakle/batchman/internal/repo"
)

func TestTaskDefinitionRepository_CreateFlipsIsLatest(t *testing.T) {
	db := openTestDB(t)
	r := repo.NewSQLiteTaskDefinitionRepository(db)
	ctx := context.Background()

	id1, err := r.Create(ctx, &model.TaskDefinition{Name: "etl", Image: "etl:v1", Enabled: true})
	require.NoError(t, err)

	id2, err := r.Create(ctx, &model.TaskDefinition{Name: "etl", Image: "etl:v2", Enabled: true})
	require.NoError(t, err)

	first, err := r.Get(ctx, id1)
	require.NoError(t, err)
	assert.False(t, first.IsLatest)
	assert.Equal(t, int64(1), first.Version)

	second, err := r.Get(ctx, id2)
	require.NoError(t, err)
	assert.True(t, second.IsLatest)
	assert.Equal(t, int64(2), second.Version)

	latest, err := r.GetLatest(ctx, "etl")
	require.NoError(t, err)
	assert.Equal(t, id2, latest.ID)
}

func TestTaskDefinitionRepository_GetNotFound(t *testing.T) {
	db := openTestDB(t)
	r := repo.NewSQLiteTaskDefinitionRepository(db)

	_, err := r.Get(context.Background(), 999)
	require.Error(t, err)
}

func TestTaskDefinitionRepository_UpdateAndDelete(t *testing.T) {
	db := openTestDB(t)
	r := repo.NewSQLiteTaskDefinitionRepository(db)
	ctx := context.Background()

	id, err := r.Create(ctx, &model.TaskDefinition{Name: "job", Image: "job:v1", Enabled: true})
	require.NoError(t, err)

	err = r.Update(ctx, id, repo.TaskDefinitionPatch{
		Description:   ptr("new description"),
		MemoryLimitMB: dptr(512),
		Enabled:       ptr(false),
	})
	require.NoError(t, err)

	updated, err := r.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new description", updated.Description)
	require.NotNil(t, updated.MemoryLimitMB)
	assert.Equal(t, 512, *updated.MemoryLimitMB)
	assert.False(t, updated.Enabled)

	require.NoError(t, r.Delete(ctx, id))
	_, err = r.Get(ctx, id)
	require.Error(t, err)
}

func TestTaskDefinitionRepository_List(t *testing.T) {
	db := openTestDB(t)
	r := repo.NewSQLiteTaskDefinitionRepository(db)
	ctx := context.Background()

	_, err := r.Create(ctx, &model.TaskDefinition{Name: "alpha", Image: "alpha:v1"})
	require.NoError(t, err)
	_, err = r.Create(ctx, &model.TaskDefinition{Name: "beta", Image: "beta:v1"})
	require.NoError(t, err)

	results, total, err := r.List(ctx, repo.TaskDefinitionFilter{
		ContainsName: ptr("alph"),
		PageNumber:   1,
		PageSize:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, "alpha", results[0].Name)
}
