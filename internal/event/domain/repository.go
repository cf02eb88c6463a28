package domain

import (
	"context"

	"gorm.io/gorm"
)

type ListFilter struct {
	Name   string
	Type   string
	Limit  int
	Offset int
}

//go:generate mockgen -source=repository.go -destination=../mocks/mock_repository.go -package=mocks

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, event *Event) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Event, error)
}
