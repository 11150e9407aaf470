package model

import (
	"math"
	"time"
)

// Level is a flat lookup row (Beginner, Intermediate, ...).
type Level struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Category is a flat lookup row grouping courses by subject.
type Category struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Course references an optional level and category, its author and an
// optional instructor.  PublishedAt is set iff Published is true.
type Course struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	LevelID      *string    `json:"level"`
	CategoryID   *string    `json:"category"`
	Published    bool       `json:"published"`
	PublishedAt  *time.Time `json:"publishedAt"`
	AuthorID     string     `json:"authorId"`
	InstructorID *string    `json:"instructor"`
	Thumbnail    *string    `json:"thumbnail"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Chapter belongs to exactly one course and is ordered by Position.
type Chapter struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"courseId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Position    int        `json:"position"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	AuthorID    string     `json:"authorId"`
	Thumbnail   *string    `json:"thumbnail"`
	Content     string     `json:"content"`
	Duration    int        `json:"duration"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CourseFilter narrows course listings.  Page is 1-based.
type CourseFilter struct {
	Query      string
	CategoryID string
	LevelID    string
	AuthorID   string
	Published  *bool
	Page       int
	Limit      int
}

// Offset converts Page/Limit into a SQL offset.  It saturates at
// math.MaxInt instead of wrapping negative.
func (f CourseFilter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// PublishedAtFor returns the published_at value matching a published flag.
func PublishedAtFor(published bool, now time.Time) *time.Time {
	if !published {
		return nil
	}
	t := now.UTC()
	return &t
}
