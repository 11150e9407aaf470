package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/course-platform/internal/model"
)

// LevelRepo persists rows of the levels table.
type LevelRepo struct{ db *sql.DB }

func NewLevelRepo(db *sql.DB) *LevelRepo { return &LevelRepo{db: db} }

// List returns all levels ordered by name.
func (r *LevelRepo) List(ctx context.Context) ([]model.Level, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM levels ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Level, 0)
	for rows.Next() {
		var l model.Level
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *LevelRepo) GetByID(ctx context.Context, id string) (*model.Level, error) {
	var l model.Level
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM levels WHERE id=? LIMIT 1", id).Scan(&l.ID, &l.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLevelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LevelRepo) Create(ctx context.Context, l *model.Level) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, "INSERT INTO levels (id, name) VALUES (?,?)", l.ID, l.Name)
	return translate(err, ErrConflict)
}

func (r *LevelRepo) Update(ctx context.Context, l *model.Level) error {
	return execOne(ctx, r.db, ErrLevelNotFound, "UPDATE levels SET name=? WHERE id=?", l.Name, l.ID)
}

func (r *LevelRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, ErrLevelNotFound, "DELETE FROM levels WHERE id=?", id)
}

// CategoryRepo persists rows of the categories table.
type CategoryRepo struct{ db *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns all categories ordered by name.
func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, description FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) GetByID(ctx context.Context, id string) (*model.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx,
		"SELECT id, name, description FROM categories WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	return c, err
}

func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, "INSERT INTO categories (id, name, description) VALUES (?,?,?)",
		c.ID, c.Name, nullString(c.Description))
	return translate(err, ErrConflict)
}

func (r *CategoryRepo) Update(ctx context.Context, c *model.Category) error {
	return execOne(ctx, r.db, ErrCategoryNotFound,
		"UPDATE categories SET name=?, description=? WHERE id=?", c.Name, nullString(c.Description), c.ID)
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, ErrCategoryNotFound, "DELETE FROM categories WHERE id=?", id)
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var (
		c    model.Category
		desc sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &desc); err != nil {
		return nil, err
	}
	c.Description = strPtr(desc)
	return &c, nil
}

// execOne runs a write that must touch exactly one row; zero rows yields
// notFound.  MySQL reports zero affected rows for an UPDATE that changes
// nothing, so the DSN enables clientFoundRows (see database.Open).
func execOne(ctx context.Context, db *sql.DB, notFound error, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return translate(err, ErrConflict)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
