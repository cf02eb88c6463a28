package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/golang/mock/gomock"
	"github.com/smallbiznis/coffeeshop/internal/clock"
	"github.com/smallbiznis/coffeeshop/internal/coffee/domain"
	"github.com/smallbiznis/coffeeshop/internal/coffee/repository"
	"github.com/smallbiznis/coffeeshop/internal/config"
	eventdomain "github.com/smallbiznis/coffeeshop/internal/event/domain"
	"github.com/smallbiznis/coffeeshop/internal/event/mocks"
	eventrepository "github.com/smallbiznis/coffeeshop/internal/event/repository"
	eventservice "github.com/smallbiznis/coffeeshop/internal/event/service"
	"github.com/smallbiznis/coffeeshop/internal/migration"
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

type testEnv struct {
	svc domain.Service
	db  *gorm.DB
}

func setupCoffeeService(t *testing.T, eventRepo eventdomain.Repository) testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(db))

	if eventRepo == nil {
		eventRepo = eventrepository.Provide()
	}

	node := mustNode(t)
	clk := clock.NewFakeClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	catalog := config.NewStaticCatalogConfig(config.CatalogConfig{DefaultLimit: 2, MaxLimit: 3})
	log := zap.NewNop()

	events := eventservice.New(eventservice.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		Repo:    eventRepo,
		Catalog: catalog,
	})
	svc := New(Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    clk,
		Repo:     repository.Provide(),
		EventSvc: events,
		Catalog:  catalog,
	})
	return testEnv{svc: svc, db: db}
}

func (e testEnv) countEvents(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&eventdomain.Event{}).Count(&count).Error)
	return count
}

func (e testEnv) countFlavors(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&domain.Flavor{}).Count(&count).Error)
	return count
}

func TestCreateReusesExistingFlavor(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, domain.CreateRequest{
		Name:    "Shipwreck Roast",
		Brand:   "Buddy Brew",
		Flavors: []string{"chocolate", "vanilla"},
	})
	require.NoError(t, err)

	second, err := env.svc.Create(ctx, domain.CreateRequest{
		Name:    "Harbor Blend",
		Brand:   "Buddy Brew",
		Flavors: []string{"vanilla"},
	})
	require.NoError(t, err)

	assert.EqualValues(t, 2, env.countFlavors(t))
	require.Len(t, second.Flavors, 1)

	var vanillaID string
	for _, flavor := range first.Flavors {
		if flavor.Name == "vanilla" {
			vanillaID = flavor.ID
		}
	}
	assert.Equal(t, vanillaID, second.Flavors[0].ID)
}

func TestCreateCollapsesRepeatedFlavorNames(t *testing.T) {
	env := setupCoffeeService(t, nil)

	resp, err := env.svc.Create(context.Background(), domain.CreateRequest{
		Name:    "Kopi Tubruk",
		Brand:   "Kapal Api",
		Flavors: []string{"caramel", " caramel ", "caramel"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Flavors, 1)
	assert.Equal(t, "caramel", resp.Flavors[0].Name)
	assert.EqualValues(t, 1, env.countFlavors(t))
	assert.Zero(t, resp.Recommendations)
}

func TestCreateReturnsFlavorsInReadOrder(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, domain.CreateRequest{
		Name:    "Mandheling",
		Brand:   "Sumatra",
		Flavors: []string{"vanilla", "caramel", "amaretto"},
	})
	require.NoError(t, err)

	names := make([]string, 0, len(created.Flavors))
	for _, flavor := range created.Flavors {
		names = append(names, flavor.Name)
	}
	assert.Equal(t, []string{"amaretto", "caramel", "vanilla"}, names)

	fetched, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Flavors, fetched.Flavors)
}

func TestCreateFlavorMatchIsCaseSensitive(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, domain.CreateRequest{Name: "A", Brand: "B", Flavors: []string{"Vanilla"}})
	require.NoError(t, err)
	_, err = env.svc.Create(ctx, domain.CreateRequest{Name: "C", Brand: "D", Flavors: []string{"vanilla"}})
	require.NoError(t, err)

	assert.EqualValues(t, 2, env.countFlavors(t))
}

func TestCreateValidatesInput(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, domain.CreateRequest{Name: " ", Brand: "B"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = env.svc.Create(ctx, domain.CreateRequest{Name: "A", Brand: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidBrand)

	_, err = env.svc.Create(ctx, domain.CreateRequest{Name: "A", Brand: "B", Flavors: []string{"ok", ""}})
	assert.ErrorIs(t, err, domain.ErrInvalidFlavor)
	assert.Zero(t, env.countFlavors(t))
}

func TestGetUnknownAndMalformedIDs(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()

	_, err := env.svc.Get(ctx, "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = env.svc.Get(ctx, "123456789")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUnknownCoffeeLeavesStoreUntouched(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()
	missing := "987654321"
	name := "Renamed"

	_, err := env.svc.Update(ctx, missing, domain.UpdateRequest{Name: &name, Flavors: []string{"cherry"}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.Delete(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.Recommend(ctx, missing)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrRecommendFailed)

	assert.Zero(t, env.countFlavors(t))
	assert.Zero(t, env.countEvents(t))
}

func TestUpdateMergesSuppliedFields(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, domain.CreateRequest{
		Name:    "Gayo",
		Brand:   "Aceh Coffee",
		Flavors: []string{"citrus", "honey"},
	})
	require.NoError(t, err)

	brand := "Gayo Highlands"
	updated, err := env.svc.Update(ctx, created.ID, domain.UpdateRequest{Brand: &brand})
	require.NoError(t, err)
	assert.Equal(t, "Gayo", updated.Name)
	assert.Equal(t, "Gayo Highlands", updated.Brand)
	assert.Len(t, updated.Flavors, 2)

	updated, err = env.svc.Update(ctx, created.ID, domain.UpdateRequest{Flavors: []string{"honey", "jasmine"}})
	require.NoError(t, err)
	names := []string{}
	for _, flavor := range updated.Flavors {
		names = append(names, flavor.Name)
	}
	assert.ElementsMatch(t, []string{"honey", "jasmine"}, names)
	assert.EqualValues(t, 3, env.countFlavors(t))

	updated, err = env.svc.Update(ctx, created.ID, domain.UpdateRequest{Flavors: []string{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Flavors)
}

func TestDeleteHidesCoffeeButKeepsFlavors(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, domain.CreateRequest{Name: "Toraja", Brand: "Sulawesi", Flavors: []string{"earthy"}})
	require.NoError(t, err)

	removed, err := env.svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, removed.ID)

	_, err = env.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.EqualValues(t, 1, env.countFlavors(t))
}

func TestRecommendIncrementsAndRecordsEvent(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, domain.CreateRequest{Name: "Flores Bajawa", Brand: "NTT", Flavors: []string{"spice"}})
	require.NoError(t, err)

	result, err := env.svc.Recommend(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Coffee.Recommendations)
	require.NotNil(t, result.Event)
	assert.Equal(t, "recommend_coffee", result.Event.Name)
	assert.Equal(t, "coffee", result.Event.Type)

	var events []eventdomain.Event
	require.NoError(t, env.db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, created.ID, events[0].Payload["coffee_id"])
	assert.Equal(t, "Flores Bajawa", events[0].Payload["coffee_name"])

	result, err = env.svc.Recommend(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Coffee.Recommendations)
	assert.EqualValues(t, 2, env.countEvents(t))
}

func TestRecommendRollsBackWhenEventWriteFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	eventRepo := mocks.NewMockRepository(ctrl)
	boom := errors.New("events table unavailable")
	eventRepo.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)

	env := setupCoffeeService(t, eventRepo)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, domain.CreateRequest{Name: "Kintamani", Brand: "Bali", Flavors: []string{"orange"}})
	require.NoError(t, err)

	_, err = env.svc.Recommend(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRecommendFailed)
	assert.ErrorIs(t, err, boom)

	after, err := env.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, after.Recommendations)
	assert.Zero(t, env.countEvents(t))
}

func TestListPaginatesInInsertionOrder(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()

	ids := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		resp, err := env.svc.Create(ctx, domain.CreateRequest{
			Name:    fmt.Sprintf("Coffee %d", i),
			Brand:   "Seed",
			Flavors: []string{"nutty"},
		})
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	page, err := env.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{Limit: 2, Offset: 0}})
	require.NoError(t, err)
	require.Len(t, page.Coffees, 2)
	assert.Equal(t, ids[0], page.Coffees[0].ID)
	assert.Equal(t, ids[1], page.Coffees[1].ID)
	assert.True(t, page.HasMore)
	require.Len(t, page.Coffees[0].Flavors, 1)

	page, err = env.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{Limit: 2, Offset: 4}})
	require.NoError(t, err)
	require.Len(t, page.Coffees, 1)
	assert.Equal(t, ids[4], page.Coffees[0].ID)
	assert.False(t, page.HasMore)
}

func TestListClampsLimit(t *testing.T) {
	env := setupCoffeeService(t, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := env.svc.Create(ctx, domain.CreateRequest{Name: fmt.Sprintf("C%d", i), Brand: "B", Flavors: []string{}})
		require.NoError(t, err)
	}

	page, err := env.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{Limit: 1000}})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Limit)
	assert.Len(t, page.Coffees, 3)

	page, err = env.svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Limit)
	assert.True(t, page.HasMore)

	_, err = env.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{Limit: -1}})
	assert.ErrorIs(t, err, domain.ErrInvalidPagination)
}
