package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/coffeeshop/internal/event/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	if event == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Event, error) {
	var items []domain.Event
	stmt := db.WithContext(ctx).Model(&domain.Event{})

	if name := strings.TrimSpace(filter.Name); name != "" {
		stmt = stmt.Where("name = ?", name)
	}
	if eventType := strings.TrimSpace(filter.Type); eventType != "" {
		stmt = stmt.Where("type = ?", eventType)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		stmt = stmt.Offset(filter.Offset)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
