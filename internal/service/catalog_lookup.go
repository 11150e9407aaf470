package service

import (
	"context"

	"github.com/iliyamo/course-platform/internal/model"
)

// CategoryInput is the body of POST and PUT /courses/categories.
type CategoryInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// LevelInput is the body of POST and PUT /courses/levels.
type LevelInput struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	out, err := s.categories.List(ctx)
	return out, storeError(err)
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	c := &model.Category{Name: in.Name, Description: in.Description}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*model.Category, error) {
	c := &model.Category{ID: id, Name: in.Name, Description: in.Description}
	if err := s.categories.Update(ctx, c); err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return storeError(s.categories.Delete(ctx, id))
}

func (s *CatalogService) ListLevels(ctx context.Context) ([]model.Level, error) {
	out, err := s.levels.List(ctx)
	return out, storeError(err)
}

func (s *CatalogService) GetLevel(ctx context.Context, id string) (*model.Level, error) {
	l, err := s.levels.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return l, nil
}

func (s *CatalogService) CreateLevel(ctx context.Context, in LevelInput) (*model.Level, error) {
	l := &model.Level{Name: in.Name}
	if err := s.levels.Create(ctx, l); err != nil {
		return nil, storeError(err)
	}
	return l, nil
}

func (s *CatalogService) UpdateLevel(ctx context.Context, id string, in LevelInput) (*model.Level, error) {
	l := &model.Level{ID: id, Name: in.Name}
	if err := s.levels.Update(ctx, l); err != nil {
		return nil, storeError(err)
	}
	return l, nil
}

func (s *CatalogService) DeleteLevel(ctx context.Context, id string) error {
	return storeError(s.levels.Delete(ctx, id))
}
