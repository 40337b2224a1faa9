package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cropsense/internal/types"
)

func testRecommendation() *types.Recommendation {
	return &types.Recommendation{
		ID:          "rec_xyz789",
		Title:       "Increase irrigation frequency",
		Description: "Sustained dry conditions detected",
		Category:    types.CategoryIrrigation,
		Priority:    types.PriorityHigh,
		TargetDate:  time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC),
		Location:    "Harare",
		Actions:     []string{"irrigate in early morning"},
		Conditions:  types.ConditionSnapshot{Severity: ptr(7.0)},
	}
}

func ptr[T any](v T) *T { return &v }

func TestRecommendationRepository_Upsert_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRecommendationRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.Upsert(context.Background(), testRecommendation())
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestRecommendationRepository_Upsert_EmptyCropTypeStoredAsNull(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRecommendationRepository(db)

	var captured []any
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).([]any)
		}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	rec := testRecommendation()
	rec.CropType = ""
	require.NoError(t, repo.Upsert(context.Background(), rec))

	// crop_type is the eighth insert parameter.
	require.GreaterOrEqual(t, len(captured), 8)
	assert.Nil(t, captured[7])
}

func TestRecommendationRepository_MarkRead_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRecommendationRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := repo.MarkRead(context.Background(), "rec_xyz789", true)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestRecommendationRepository_MarkRead_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRecommendationRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := repo.MarkRead(context.Background(), "rec_missing", true)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeNotFoundRecord, appErrorCode(t, err))
}

func TestRecommendationRepository_MarkRead_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRecommendationRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection reset"))

	err := repo.MarkRead(context.Background(), "rec_xyz789", false)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeInternalDB, appErrorCode(t, err))
}

func TestRecommendationRepository_DeleteOlderThan(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRecommendationRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 12"), nil)

	n, err := repo.DeleteOlderThan(context.Background(), time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestRecommendationRepository_ListByLocation_QueryError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRecommendationRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("timeout"))

	_, err := repo.ListByLocation(context.Background(), "Harare", false, 50)
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeInternalDB, appErrorCode(t, err))
}
