package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/course-platform/internal/model"
)

const chapterColumns = `id, course_id, title, description, position, published, published_at,
	author_id, thumbnail, content, duration, created_at, updated_at`

// ChapterRepo persists rows of the chapters table.
type ChapterRepo struct{ db *sql.DB }

func NewChapterRepo(db *sql.DB) *ChapterRepo { return &ChapterRepo{db: db} }

// ListByCourse returns the chapters of a course ordered by position.
func (r *ChapterRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Chapter, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+chapterColumns+" FROM chapters WHERE course_id=? ORDER BY position ASC, created_at ASC",
		courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Chapter, 0)
	for rows.Next() {
		ch, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ch)
	}
	return out, rows.Err()
}

func (r *ChapterRepo) GetByID(ctx context.Context, id string) (*model.Chapter, error) {
	ch, err := scanChapter(r.db.QueryRowContext(ctx,
		"SELECT "+chapterColumns+" FROM chapters WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChapterNotFound
	}
	return ch, err
}

// Create inserts ch.  An unknown course surfaces as *ReferenceError.
func (r *ChapterRepo) Create(ctx context.Context, ch *model.Chapter) error {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chapters (id, course_id, title, description, position, published, published_at,
			author_id, thumbnail, content, duration, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ch.ID, ch.CourseID, ch.Title, nullString(ch.Description), ch.Position, ch.Published,
		nullTime(ch.PublishedAt), ch.AuthorID, nullString(ch.Thumbnail), ch.Content, ch.Duration,
		ch.CreatedAt, ch.UpdatedAt)
	return translate(err, ErrConflict)
}

// Update overwrites every mutable column of ch.
func (r *ChapterRepo) Update(ctx context.Context, ch *model.Chapter) error {
	return execOne(ctx, r.db, ErrChapterNotFound,
		`UPDATE chapters SET course_id=?, title=?, description=?, position=?, published=?, published_at=?,
			thumbnail=?, content=?, duration=?, updated_at=?
		WHERE id=?`,
		ch.CourseID, ch.Title, nullString(ch.Description), ch.Position, ch.Published, nullTime(ch.PublishedAt),
		nullString(ch.Thumbnail), ch.Content, ch.Duration, ch.UpdatedAt, ch.ID)
}

func (r *ChapterRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, ErrChapterNotFound, "DELETE FROM chapters WHERE id=?", id)
}

func scanChapter(row rowScanner) (*model.Chapter, error) {
	var (
		ch          model.Chapter
		desc, thumb sql.NullString
		publishedAt sql.NullTime
	)
	err := row.Scan(&ch.ID, &ch.CourseID, &ch.Title, &desc, &ch.Position, &ch.Published, &publishedAt,
		&ch.AuthorID, &thumb, &ch.Content, &ch.Duration, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ch.Description = strPtr(desc)
	ch.Thumbnail = strPtr(thumb)
	ch.PublishedAt = timePtr(publishedAt)
	return &ch, nil
}
