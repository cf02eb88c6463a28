package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coffeeshop/internal/clock"
	"github.com/smallbiznis/coffeeshop/internal/coffee/domain"
	"github.com/smallbiznis/coffeeshop/internal/config"
	eventdomain "github.com/smallbiznis/coffeeshop/internal/event/domain"
	"github.com/smallbiznis/coffeeshop/internal/observability/metrics"
	"github.com/smallbiznis/coffeeshop/pkg/db"
	"github.com/smallbiznis/coffeeshop/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	EventSvc eventdomain.Service
	Catalog  *config.CatalogConfigHolder
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	eventSvc eventdomain.Service
	catalog  *config.CatalogConfigHolder
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	m := p.Metrics
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("coffee.service"),
		genID:    p.GenID,
		clock:    clk,
		repo:     p.Repo,
		eventSvc: p.EventSvc,
		catalog:  p.Catalog,
		metrics:  m,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	limits := s.catalog.Get()
	page, err := req.Pagination.Normalize(limits.DefaultLimit, limits.MaxLimit)
	if err != nil {
		return nil, domain.ErrInvalidPagination
	}

	items, err := s.repo.List(ctx, s.db, page.Limit+1, page.Offset)
	if err != nil {
		return nil, err
	}

	items, info := pagination.BuildPageInfo(items, page)
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, s.toResponse(&items[i]))
	}
	return &domain.ListResponse{PageInfo: info, Coffees: resp}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	coffee, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(coffee)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	brand := strings.TrimSpace(req.Brand)
	if brand == "" {
		return nil, domain.ErrInvalidBrand
	}
	flavorNames, err := normalizeFlavorNames(req.Flavors)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	coffee := &domain.Coffee{
		ID:        s.genID.Generate(),
		Name:      name,
		Brand:     brand,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var created *domain.Coffee
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flavors, err := s.resolveFlavors(ctx, tx, flavorNames)
		if err != nil {
			return err
		}
		coffee.Flavors = flavors
		if err := s.repo.Create(ctx, tx, coffee); err != nil {
			return err
		}
		created, err = s.repo.FindByID(ctx, tx, coffee.ID)
		if err != nil {
			return err
		}
		if created == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCoffeeCreated(ctx)
	s.log.Info("coffee created",
		zap.String("coffee_id", created.ID.String()),
		zap.Int("flavors", len(created.Flavors)),
	)

	resp := s.toResponse(created)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Response, error) {
	coffeeID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var name, brand string
	if req.Name != nil {
		if name = strings.TrimSpace(*req.Name); name == "" {
			return nil, domain.ErrInvalidName
		}
	}
	if req.Brand != nil {
		if brand = strings.TrimSpace(*req.Brand); brand == "" {
			return nil, domain.ErrInvalidBrand
		}
	}
	replaceFlavors := req.Flavors != nil
	var flavorNames []string
	if replaceFlavors {
		if flavorNames, err = normalizeFlavorNames(req.Flavors); err != nil {
			return nil, err
		}
	}

	var updated *domain.Coffee
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		coffee, err := s.repo.FindByID(ctx, tx, coffeeID)
		if err != nil {
			return err
		}
		if coffee == nil {
			return domain.ErrNotFound
		}

		if req.Name != nil {
			coffee.Name = name
		}
		if req.Brand != nil {
			coffee.Brand = brand
		}
		if replaceFlavors {
			flavors, err := s.resolveFlavors(ctx, tx, flavorNames)
			if err != nil {
				return err
			}
			coffee.Flavors = flavors
		}
		coffee.UpdatedAt = s.clock.Now()

		if err := s.repo.Update(ctx, tx, coffee, replaceFlavors); err != nil {
			return err
		}
		updated, err = s.repo.FindByID(ctx, tx, coffeeID)
		if err != nil {
			return err
		}
		if updated == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := s.toResponse(updated)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) (*domain.Response, error) {
	coffee, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, s.db, coffee.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	s.log.Info("coffee deleted", zap.String("coffee_id", coffee.ID.String()))
	resp := s.toResponse(coffee)
	return &resp, nil
}

// Recommend bumps the recommendation counter and appends a recommend_coffee
// event. Both writes commit together or not at all.
func (s *Service) Recommend(ctx context.Context, id string) (*domain.RecommendResult, error) {
	coffee, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var (
		updated *domain.Coffee
		event   *eventdomain.Event
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.IncrementRecommendations(ctx, tx, coffee.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}

		event, err = s.eventSvc.Record(ctx, tx, eventdomain.RecordRequest{
			Name: eventdomain.NameRecommendCoffee,
			Type: eventdomain.TypeCoffee,
			Payload: map[string]any{
				"coffee_id":   coffee.ID.String(),
				"coffee_name": coffee.Name,
			},
		})
		if err != nil {
			return err
		}

		updated, err = s.repo.FindByID(ctx, tx, coffee.ID)
		if err != nil {
			return err
		}
		if updated == nil {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.metrics.RecordRecommendFailure(ctx, err)
		s.log.Error("recommend transaction rolled back",
			zap.String("coffee_id", coffee.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrRecommendFailed, err)
	}

	s.metrics.RecordRecommendation(ctx)
	return &domain.RecommendResult{
		Coffee: s.toResponse(updated),
		Event:  event,
	}, nil
}

func (s *Service) find(ctx context.Context, tx *gorm.DB, id string) (*domain.Coffee, error) {
	coffeeID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	coffee, err := s.repo.FindByID(ctx, tx, coffeeID)
	if err != nil {
		return nil, err
	}
	if coffee == nil {
		return nil, domain.ErrNotFound
	}
	return coffee, nil
}

// resolveFlavors maps each name onto its flavor row, creating missing ones.
func (s *Service) resolveFlavors(ctx context.Context, tx *gorm.DB, names []string) ([]domain.Flavor, error) {
	flavors := make([]domain.Flavor, 0, len(names))
	for _, name := range names {
		flavor, err := s.findOrCreateFlavor(ctx, tx, name)
		if err != nil {
			return nil, err
		}
		flavors = append(flavors, *flavor)
	}
	return flavors, nil
}

func (s *Service) findOrCreateFlavor(ctx context.Context, tx *gorm.DB, name string) (*domain.Flavor, error) {
	existing, err := s.repo.FindFlavorByName(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.clock.Now()
	flavor := &domain.Flavor{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.repo.CreateFlavor(ctx, tx, flavor)
	if err != nil && !db.IsDuplicateKeyErr(err) {
		return nil, err
	}
	if created {
		s.metrics.RecordFlavorCreated(ctx)
		return flavor, nil
	}

	// Lost the insert race; the row now exists under another id.
	existing, err = s.repo.FindFlavorByName(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("flavor %q vanished after conflict", name)
	}
	return existing, nil
}

func (s *Service) toResponse(c *domain.Coffee) domain.Response {
	flavors := make([]domain.FlavorResponse, 0, len(c.Flavors))
	for _, flavor := range c.Flavors {
		flavors = append(flavors, domain.FlavorResponse{
			ID:   flavor.ID.String(),
			Name: flavor.Name,
		})
	}
	return domain.Response{
		ID:              c.ID.String(),
		Name:            c.Name,
		Brand:           c.Brand,
		Recommendations: c.Recommendations,
		Flavors:         flavors,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed <= 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}

// normalizeFlavorNames trims names and drops repeats, keeping first-seen order.
func normalizeFlavorNames(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, domain.ErrInvalidFlavor
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}
