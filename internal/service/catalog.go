package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/course-platform/internal/apperror"
	"github.com/iliyamo/course-platform/internal/model"
	"github.com/iliyamo/course-platform/internal/repository"
)

// Pagination bounds for course listings.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	MaxPage      = 1000000
)

type CourseStore interface {
	List(ctx context.Context, f model.CourseFilter) ([]model.Course, int64, error)
	GetByID(ctx context.Context, id string) (*model.Course, error)
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, c *model.Course) error
	Update(ctx context.Context, c *model.Course) error
	Delete(ctx context.Context, id string) error
}

type ChapterStore interface {
	ListByCourse(ctx context.Context, courseID string) ([]model.Chapter, error)
	GetByID(ctx context.Context, id string) (*model.Chapter, error)
	Create(ctx context.Context, ch *model.Chapter) error
	Update(ctx context.Context, ch *model.Chapter) error
	Delete(ctx context.Context, id string) error
}

type CategoryStore interface {
	List(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id string) error
}

type LevelStore interface {
	List(ctx context.Context) ([]model.Level, error)
	GetByID(ctx context.Context, id string) (*model.Level, error)
	Create(ctx context.Context, l *model.Level) error
	Update(ctx context.Context, l *model.Level) error
	Delete(ctx context.Context, id string) error
}

// CatalogService manages courses, chapters, categories and levels.
type CatalogService struct {
	courses    CourseStore
	chapters   ChapterStore
	categories CategoryStore
	levels     LevelStore
	now        func() time.Time
}

func NewCatalogService(courses CourseStore, chapters ChapterStore, categories CategoryStore, levels LevelStore) *CatalogService {
	return &CatalogService{
		courses:    courses,
		chapters:   chapters,
		categories: categories,
		levels:     levels,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// CoursePage is the response of GET /courses.
type CoursePage struct {
	Data       []model.Course `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

// CourseQuery holds the query string of GET /courses.
type CourseQuery struct {
	Query     string `query:"query" json:"query" validate:"omitempty,max=255"`
	Category  string `query:"category" json:"category" validate:"omitempty,uuid"`
	Level     string `query:"level" json:"level" validate:"omitempty,uuid"`
	AuthorID  string `query:"authorId" json:"authorId" validate:"omitempty,uuid"`
	Published string `query:"published" json:"published" validate:"omitempty,oneof=true false"`
	Page      int    `query:"page" json:"page" validate:"gte=0,lte=1000000"`
	Limit     int    `query:"limit" json:"limit" validate:"gte=0,lte=100"`
}

// CreateCourseInput is the body of POST /courses.
type CreateCourseInput struct {
	Title       string  `json:"title" validate:"required,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Level       *string `json:"level" validate:"omitempty,uuid"`
	Category    *string `json:"category" validate:"omitempty,uuid"`
	Published   bool    `json:"published"`
	AuthorID    *string `json:"authorId" validate:"omitempty,uuid"`
	Instructor  *string `json:"instructor" validate:"omitempty,uuid"`
	Thumbnail   *string `json:"thumbnail" validate:"omitempty,url"`
}

// UpdateCourseInput is the body of PUT /courses/:id.  Absent fields are left
// unchanged.
type UpdateCourseInput struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Level       *string `json:"level" validate:"omitempty,uuid"`
	Category    *string `json:"category" validate:"omitempty,uuid"`
	Published   *bool   `json:"published"`
	AuthorID    *string `json:"authorId" validate:"omitempty,uuid"`
	Instructor  *string `json:"instructor" validate:"omitempty,uuid"`
	Thumbnail   *string `json:"thumbnail" validate:"omitempty,url"`
}

// ListCourses returns a filtered page of courses, newest first.
func (s *CatalogService) ListCourses(ctx context.Context, q CourseQuery) (*CoursePage, error) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var published *bool
	if q.Published != "" {
		v := q.Published == "true"
		published = &v
	}

	items, total, err := s.courses.List(ctx, model.CourseFilter{
		Query:      q.Query,
		CategoryID: q.Category,
		LevelID:    q.Level,
		AuthorID:   q.AuthorID,
		Published:  published,
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &CoursePage{
		Data: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}

func (s *CatalogService) GetCourse(ctx context.Context, id string) (*model.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

// CreateCourse stores a new course.  The author defaults to callerID and
// publishedAt is stamped iff the course is created published.
func (s *CatalogService) CreateCourse(ctx context.Context, callerID string, in CreateCourseInput) (*model.Course, error) {
	now := s.now()
	c := &model.Course{
		Title:        in.Title,
		Description:  in.Description,
		LevelID:      in.Level,
		CategoryID:   in.Category,
		Published:    in.Published,
		PublishedAt:  model.PublishedAtFor(in.Published, now),
		AuthorID:     callerID,
		InstructorID: in.Instructor,
		Thumbnail:    in.Thumbnail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.AuthorID != nil {
		c.AuthorID = *in.AuthorID
	}
	if err := s.courses.Create(ctx, c); err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

// UpdateCourse applies the present fields of in.  Switching published on
// stamps publishedAt, switching it off clears it.
func (s *CatalogService) UpdateCourse(ctx context.Context, id string, in UpdateCourseInput) (*model.Course, error) {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	now := s.now()

	if in.Title != nil {
		c.Title = *in.Title
	}
	if in.Description != nil {
		c.Description = in.Description
	}
	if in.Level != nil {
		c.LevelID = in.Level
	}
	if in.Category != nil {
		c.CategoryID = in.Category
	}
	if in.AuthorID != nil {
		c.AuthorID = *in.AuthorID
	}
	if in.Instructor != nil {
		c.InstructorID = in.Instructor
	}
	if in.Thumbnail != nil {
		c.Thumbnail = in.Thumbnail
	}
	if in.Published != nil && *in.Published != c.Published {
		c.Published = *in.Published
		c.PublishedAt = model.PublishedAtFor(c.Published, now)
	}
	c.UpdatedAt = now

	if err := s.courses.Update(ctx, c); err != nil {
		return nil, storeError(err)
	}
	return c, nil
}

// SetCourseThumbnail records the public URL of an uploaded thumbnail.
func (s *CatalogService) SetCourseThumbnail(ctx context.Context, id, url string) (*model.Course, error) {
	return s.UpdateCourse(ctx, id, UpdateCourseInput{Thumbnail: &url})
}

func (s *CatalogService) DeleteCourse(ctx context.Context, id string) error {
	return storeError(s.courses.Delete(ctx, id))
}

// CourseExists is used before handing out upload URLs.
func (s *CatalogService) CourseExists(ctx context.Context, id string) error {
	ok, err := s.courses.Exists(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if !ok {
		return apperror.NotFound("course")
	}
	return nil
}

// storeError converts repository errors into apperror kinds.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var refErr *repository.ReferenceError
	switch {
	case errors.Is(err, repository.ErrCourseNotFound):
		return apperror.NotFound("course")
	case errors.Is(err, repository.ErrChapterNotFound):
		return apperror.NotFound("chapter")
	case errors.Is(err, repository.ErrCategoryNotFound):
		return apperror.NotFound("category")
	case errors.Is(err, repository.ErrLevelNotFound):
		return apperror.NotFound("level")
	case errors.As(err, &refErr):
		return apperror.Validation("validation failed", map[string]string{refErr.Field: "does not exist"})
	case errors.Is(err, repository.ErrConflict):
		return apperror.Conflict("resource already exists")
	}
	return apperror.Internal(err)
}
