package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenders-cl/budget-analyzer/internal/common"
	"github.com/tenders-cl/budget-analyzer/internal/entity"
)

func openTestStore(t *testing.T) *ResultStore {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := entity.FinalAnalysis{
		ID:          uuid.New(),
		ProjectInfo: entity.ProjectInfo{Name: "Ruta W-195", Region: "Región de Los Lagos"},
		Confidence:  87,
	}
	require.NoError(t, s.Save(ctx, a))

	got, err := s.Load(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ProjectInfo, got.ProjectInfo)
	assert.Equal(t, 87, got.Confidence)
}

func TestSaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := entity.FinalAnalysis{ID: uuid.New(), Confidence: 10}
	require.NoError(t, s.Save(ctx, a))
	a.Confidence = 90
	require.NoError(t, s.Save(ctx, a))

	got, err := s.Load(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, got.Confidence)
}

func TestLoadMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := entity.FinalAnalysis{ID: uuid.New()}
	require.NoError(t, s.Save(ctx, a))
	require.NoError(t, s.Delete(ctx, a.ID))

	_, err := s.Load(ctx, a.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, a.ID), common.ErrNotFound)
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := entity.FinalAnalysis{ID: uuid.New()}
	second := entity.FinalAnalysis{ID: uuid.New()}
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
