package service

import (
	"context"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/model"
)

// CreateChapterInput is the body of POST /courses/:courseId/chapters and
// POST /courses/chapters.  CourseID is only read from the body on the
// latter route.
type CreateChapterInput struct {
	CourseID    string  `json:"courseId" validate:"required,uuid"`
	Title       string  `json:"title" validate:"required,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Position    int     `json:"position" validate:"gte=0"`
	Published   bool    `json:"published"`
	Thumbnail   *string `json:"thumbnail" validate:"omitempty,url"`
	Content     string  `json:"content" validate:"required"`
	Duration    int     `json:"duration" validate:"required,gte=1"`
}

// UpdateChapterInput is the body of PUT /courses/chapters/:id.
type UpdateChapterInput struct {
	CourseID    *string `json:"courseId" validate:"omitempty,uuid"`
	Title       *string `json:"title" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Position    *int    `json:"position" validate:"omitempty,gte=0"`
	Published   *bool   `json:"published"`
	Thumbnail   *string `json:"thumbnail" validate:"omitempty,url"`
	Content     *string `json:"content" validate:"omitempty,min=1"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=1"`
}

// ListChapters returns the chapters of an existing course ordered by position.
func (s *CatalogService) ListChapters(ctx context.Context, courseID string) ([]model.Chapter, error) {
	if err := s.CourseExists(ctx, courseID); err != nil {
		return nil, err
	}
	out, err := s.chapters.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, storeError(err)
	}
	return out, nil
}

func (s *CatalogService) GetChapter(ctx context.Context, id string) (*model.Chapter, error) {
	ch, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return ch, nil
}

// CreateChapter adds a chapter authored by callerID.  An unknown course is
// reported as not found.
func (s *CatalogService) CreateChapter(ctx context.Context, callerID string, in CreateChapterInput) (*model.Chapter, error) {
	if err := s.CourseExists(ctx, in.CourseID); err != nil {
		return nil, err
	}
	now := s.now()
	ch := &model.Chapter{
		CourseID:    in.CourseID,
		Title:       in.Title,
		Description: in.Description,
		Position:    in.Position,
		Published:   in.Published,
		PublishedAt: model.PublishedAtFor(in.Published, now),
		AuthorID:    callerID,
		Thumbnail:   in.Thumbnail,
		Content:     in.Content,
		Duration:    in.Duration,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.chapters.Create(ctx, ch); err != nil {
		return nil, storeError(err)
	}
	return ch, nil
}

func (s *CatalogService) UpdateChapter(ctx context.Context, id string, in UpdateChapterInput) (*model.Chapter, error) {
	ch, err := s.chapters.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	now := s.now()

	if in.CourseID != nil && *in.CourseID != ch.CourseID {
		if err := s.CourseExists(ctx, *in.CourseID); err != nil {
			if apperror.IsKind(err, apperror.KindNotFound) {
				return nil, apperror.Validation("validation failed", map[string]string{"courseId": "does not exist"})
			}
			return nil, err
		}
		ch.CourseID = *in.CourseID
	}
	if in.Title != nil {
		ch.Title = *in.Title
	}
	if in.Description != nil {
		ch.Description = in.Description
	}
	if in.Position != nil {
		ch.Position = *in.Position
	}
	if in.Thumbnail != nil {
		ch.Thumbnail = in.Thumbnail
	}
	if in.Content != nil {
		ch.Content = *in.Content
	}
	if in.Duration != nil {
		ch.Duration = *in.Duration
	}
	if in.Published != nil && *in.Published != ch.Published {
		ch.Published = *in.Published
		ch.PublishedAt = model.PublishedAtFor(ch.Published, now)
	}
	ch.UpdatedAt = now

	if err := s.chapters.Update(ctx, ch); err != nil {
		return nil, storeError(err)
	}
	return ch, nil
}

func (s *CatalogService) DeleteChapter(ctx context.Context, id string) error {
	return storeError(s.chapters.Delete(ctx, id))
}
