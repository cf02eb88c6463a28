package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/golang/mock/gomock"
	"github.com/smallbiznis/coffeeshop/internal/clock"
	"github.com/smallbiznis/coffeeshop/internal/config"
	"github.com/smallbiznis/coffeeshop/internal/event/domain"
	"github.com/smallbiznis/coffeeshop/internal/event/mocks"
	"github.com/smallbiznis/coffeeshop/internal/event/repository"
	"github.com/smallbiznis/coffeeshop/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func setupEventService(t *testing.T, repo domain.Repository, clk clock.Clock) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Event{}))

	if repo == nil {
		repo = repository.Provide()
	}
	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   mustNode(t),
		Clock:   clk,
		Repo:    repo,
		Catalog: config.NewStaticCatalogConfig(config.CatalogConfig{DefaultLimit: 2, MaxLimit: 3}),
	})
	return svc, db
}

func TestRecordPersistsPayload(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, db := setupEventService(t, nil, clk)
	ctx := context.Background()

	evt, err := svc.Record(ctx, nil, domain.RecordRequest{
		Name:    domain.NameRecommendCoffee,
		Type:    domain.TypeCoffee,
		Payload: map[string]any{"coffee_id": "42", "coffee_name": "Kopi Tubruk"},
	})
	require.NoError(t, err)
	assert.NotZero(t, evt.ID)
	assert.True(t, evt.CreatedAt.Equal(clk.Now()))

	var stored domain.Event
	require.NoError(t, db.First(&stored, "id = ?", evt.ID).Error)
	assert.Equal(t, "recommend_coffee", stored.Name)
	assert.Equal(t, "coffee", stored.Type)
	assert.Equal(t, "42", stored.Payload["coffee_id"])
	assert.Equal(t, "Kopi Tubruk", stored.Payload["coffee_name"])
}

func TestRecordRejectsBlankNameAndType(t *testing.T) {
	svc, _ := setupEventService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Record(ctx, nil, domain.RecordRequest{Name: "  ", Type: "coffee"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Record(ctx, nil, domain.RecordRequest{Name: "recommend_coffee"})
	assert.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestRecordUsesGivenTransaction(t *testing.T) {
	svc, db := setupEventService(t, nil, nil)
	ctx := context.Background()
	rollback := errors.New("rollback")

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Record(ctx, tx, domain.RecordRequest{Name: "recommend_coffee", Type: "coffee"}); err != nil {
			return err
		}
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	var count int64
	require.NoError(t, db.Model(&domain.Event{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordSurfacesRepositoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	boom := errors.New("insert failed")
	repo.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)

	svc, _ := setupEventService(t, repo, nil)
	_, err := svc.Record(context.Background(), nil, domain.RecordRequest{Name: "recommend_coffee", Type: "coffee"})
	assert.ErrorIs(t, err, boom)
}

func TestListNewestFirstWithFilters(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	svc, _ := setupEventService(t, nil, clk)
	ctx := context.Background()

	for _, name := range []string{"recommend_coffee", "other", "recommend_coffee", "recommend_coffee"} {
		_, err := svc.Record(ctx, nil, domain.RecordRequest{Name: name, Type: "coffee"})
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	resp, err := svc.List(ctx, domain.ListRequest{Name: "recommend_coffee"})
	require.NoError(t, err)
	require.Len(t, resp.Events, 2)
	assert.True(t, resp.HasMore)
	assert.True(t, resp.Events[0].CreatedAt.After(resp.Events[1].CreatedAt))

	resp, err = svc.List(ctx, domain.ListRequest{
		Name:       "recommend_coffee",
		Pagination: pagination.Pagination{Limit: 50, Offset: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Limit)
	assert.Len(t, resp.Events, 1)
	assert.False(t, resp.HasMore)
}

func TestListRejectsNegativePagination(t *testing.T) {
	svc, _ := setupEventService(t, nil, nil)

	_, err := svc.List(context.Background(), domain.ListRequest{Pagination: pagination.Pagination{Offset: -1}})
	assert.ErrorIs(t, err, domain.ErrInvalidPagination)
}
