package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/course-platform/internal/model"
)

const courseColumns = `id, title, description, level_id, category_id, published, published_at,
	author_id, instructor_id, thumbnail, created_at, updated_at`

// CourseRepo persists rows of the courses table.
type CourseRepo struct{ db *sql.DB }

func NewCourseRepo(db *sql.DB) *CourseRepo { return &CourseRepo{db: db} }

// List returns one page of courses matching f, newest first, together with
// the total number of matches.
func (r *CourseRepo) List(ctx context.Context, f model.CourseFilter) ([]model.Course, int64, error) {
	where := []string{}
	args := []any{}

	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)")
		like := "%" + escapeLike(strings.ToLower(q)) + "%"
		args = append(args, like, like)
	}
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.LevelID != "" {
		where = append(where, "level_id = ?")
		args = append(args, f.LevelID)
	}
	if f.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, f.AuthorID)
	}
	if f.Published != nil {
		where = append(where, "published = ?")
		args = append(args, *f.Published)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM courses WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := "SELECT " + courseColumns + " FROM courses WHERE " + cond +
		" ORDER BY created_at DESC LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), f.Limit, f.Offset())

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Course, 0, f.Limit)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *CourseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx,
		"SELECT "+courseColumns+" FROM courses WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	return c, err
}

// Exists reports whether a course with id is present.
func (r *CourseRepo) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM courses WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts c.  Missing level/category/author rows surface as
// *ReferenceError.
func (r *CourseRepo) Create(ctx context.Context, c *model.Course) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO courses (id, title, description, level_id, category_id, published, published_at,
			author_id, instructor_id, thumbnail, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.Title, nullString(c.Description), nullString(c.LevelID), nullString(c.CategoryID),
		c.Published, nullTime(c.PublishedAt), c.AuthorID, nullString(c.InstructorID),
		nullString(c.Thumbnail), c.CreatedAt, c.UpdatedAt)
	return translate(err, ErrConflict)
}

// Update overwrites every mutable column of c.
func (r *CourseRepo) Update(ctx context.Context, c *model.Course) error {
	return execOne(ctx, r.db, ErrCourseNotFound,
		`UPDATE courses SET title=?, description=?, level_id=?, category_id=?, published=?, published_at=?,
			author_id=?, instructor_id=?, thumbnail=?, updated_at=?
		WHERE id=?`,
		c.Title, nullString(c.Description), nullString(c.LevelID), nullString(c.CategoryID),
		c.Published, nullTime(c.PublishedAt), c.AuthorID, nullString(c.InstructorID),
		nullString(c.Thumbnail), c.UpdatedAt, c.ID)
}

// Delete removes a course; its chapters go with it (ON DELETE CASCADE).
func (r *CourseRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, ErrCourseNotFound, "DELETE FROM courses WHERE id=?", id)
}

func scanCourse(row rowScanner) (*model.Course, error) {
	var (
		c                                   model.Course
		desc, level, category, instr, thumb sql.NullString
		publishedAt                         sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Title, &desc, &level, &category, &c.Published, &publishedAt,
		&c.AuthorID, &instr, &thumb, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Description = strPtr(desc)
	c.LevelID = strPtr(level)
	c.CategoryID = strPtr(category)
	c.PublishedAt = timePtr(publishedAt)
	c.InstructorID = strPtr(instr)
	c.Thumbnail = strPtr(thumb)
	return &c, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string { return likeEscaper.Replace(s) }
