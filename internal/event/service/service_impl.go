package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/coffeeshop/internal/clock"
	"github.com/smallbiznis/coffeeshop/internal/config"
	"github.com/smallbiznis/coffeeshop/internal/event/domain"
	"github.com/smallbiznis/coffeeshop/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Catalog *config.CatalogConfigHolder
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	catalog *config.CatalogConfigHolder
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("event.service"),
		genID:   p.GenID,
		clock:   clk,
		repo:    p.Repo,
		catalog: p.Catalog,
	}
}

func (s *Service) Record(ctx context.Context, db *gorm.DB, req domain.RecordRequest) (*domain.Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	eventType := strings.TrimSpace(req.Type)
	if eventType == "" {
		return nil, domain.ErrInvalidType
	}
	if db == nil {
		db = s.db
	}

	payload := datatypes.JSONMap{}
	for key, value := range req.Payload {
		payload[key] = value
	}

	event := &domain.Event{
		ID:        s.genID.Generate(),
		Name:      name,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, db, event); err != nil {
		s.log.Warn("failed to record event",
			zap.String("event_name", name),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return nil, err
	}
	return event, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	limits := s.catalog.Get()
	page, err := req.Pagination.Normalize(limits.DefaultLimit, limits.MaxLimit)
	if err != nil {
		return nil, domain.ErrInvalidPagination
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		Name:   strings.TrimSpace(req.Name),
		Type:   strings.TrimSpace(req.Type),
		Limit:  page.Limit + 1,
		Offset: page.Offset,
	})
	if err != nil {
		return nil, err
	}

	items, info := pagination.BuildPageInfo(items, page)
	if items == nil {
		items = []domain.Event{}
	}
	return &domain.ListResponse{PageInfo: info, Events: items}, nil
}
