// Package repository holds the MySQL-backed stores.  Sentinel errors defined
// here let higher layers tell failure scenarios apart without inspecting
// driver errors.
package repository

import (
	"errors"
	"regexp"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailExists      = errors.New("email already exists")
	ErrTokenNotActive   = errors.New("refresh token is not active")
	ErrInvalidToken     = errors.New("one-time token is invalid or expired")
	ErrCourseNotFound   = errors.New("course not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrLevelNotFound    = errors.New("level not found")
	ErrChapterNotFound  = errors.New("chapter not found")

	// ErrConflict is returned when a write would duplicate a unique key.
	ErrConflict = errors.New("conflict")

	// ErrInvalidReference is matched by every *ReferenceError.
	ErrInvalidReference = errors.New("referenced row does not exist")
)

// MySQL server error numbers the stores translate.
const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

// ReferenceError reports a foreign key pointing at a missing row.  Field is
// the API name of the offending attribute (e.g. "category").
type ReferenceError struct {
	Field string
}

func (e *ReferenceError) Error() string {
	return "referenced " + e.Field + " does not exist"
}

func (e *ReferenceError) Is(target error) bool { return target == ErrInvalidReference }

var fkColumn = regexp.MustCompile("FOREIGN KEY \\(`([a-z_]+)`\\)")

// fkFields maps FK columns to the names used in request bodies.
var fkFields = map[string]string{
	"level_id":      "level",
	"category_id":   "category",
	"instructor_id": "instructor",
	"author_id":     "authorId",
	"course_id":     "courseId",
	"user_id":       "userId",
}

// translate maps well-known MySQL errors onto package sentinels.  dup is
// returned for duplicate keys so each store can pick its own meaning.
func translate(err error, dup error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case mysqlDuplicateEntry:
		return dup
	case mysqlNoReferencedRow:
		field := "reference"
		if m := fkColumn.FindStringSubmatch(me.Message); m != nil {
			if f, ok := fkFields[m[1]]; ok {
				field = f
			}
		}
		return &ReferenceError{Field: field}
	}
	return err
}
