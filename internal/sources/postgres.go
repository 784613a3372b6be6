package sources

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/repository"
)

// Postgres reads ratings, enrollments, courses and teachers from the
// platform database.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres creates a Postgres source over db.
func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	return &Postgres{
		db:     db,
		logger: logger.With("system", "sources"),
	}
}

const ratingsQuery = `
	SELECT id, teacher_id, course_id, student_id, score, approved, active, created_at
	FROM ratings
	WHERE teacher_id = $1
	  AND approved
	  AND active
	  AND created_at BETWEEN $2 AND $3
	ORDER BY created_at`

const enrollmentsQuery = `
	SELECT e.id, e.course_id, e.student_id, e.status, e.final_grade, e.enrolled_at, e.completed_at
	FROM enrollments e
	JOIN courses c ON c.id = e.course_id
	WHERE c.teacher_id = $1
	  AND e.enrolled_at BETWEEN $2 AND $3
	ORDER BY e.enrolled_at`

const coursesQuery = `
	SELECT id, teacher_id, title, category, status, created_at, updated_at
	FROM courses
	WHERE teacher_id = $1
	ORDER BY created_at`

const teacherColumns = `id, name, email, department, active, created_at`

// Ratings returns the teacher's approved, active ratings created within [from, to].
func (p *Postgres) Ratings(ctx context.Context, teacherID uuid.UUID, from, to time.Time) (iter.Seq[scoring.Rating], error) {
	ratings, err := repository.QueryMany(ctx, p.db, ratingsQuery, []any{teacherID, from, to}, scanRating)
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	return slices.Values(ratings), nil
}

// Enrollments returns enrollments in the teacher's courses made within [from, to].
func (p *Postgres) Enrollments(ctx context.Context, teacherID uuid.UUID, from, to time.Time) (iter.Seq[scoring.Enrollment], error) {
	enrollments, err := repository.QueryMany(ctx, p.db, enrollmentsQuery, []any{teacherID, from, to}, scanEnrollment)
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	return slices.Values(enrollments), nil
}

// Courses returns every course the teacher owns.
func (p *Postgres) Courses(ctx context.Context, teacherID uuid.UUID) (iter.Seq[scoring.Course], error) {
	courses, err := repository.QueryMany(ctx, p.db, coursesQuery, []any{teacherID}, scanCourse)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	return slices.Values(courses), nil
}

// Teacher finds a teacher by id.
func (p *Postgres) Teacher(ctx context.Context, id uuid.UUID) (Teacher, error) {
	q := "SELECT " + teacherColumns + " FROM teachers WHERE id = $1"
	t, err := repository.QueryOne(ctx, p.db, q, []any{id}, scanTeacher)
	if err != nil {
		return Teacher{}, repository.MapError(err, ErrTeacherNotFound, err)
	}
	return t, nil
}

// ActiveTeachers lists active teachers ordered by creation time.
func (p *Postgres) ActiveTeachers(ctx context.Context) ([]Teacher, error) {
	q := "SELECT " + teacherColumns + " FROM teachers WHERE active ORDER BY created_at, id"
	teachers, err := repository.QueryMany(ctx, p.db, q, nil, scanTeacher)
	if err != nil {
		return nil, fmt.Errorf("query active teachers: %w", err)
	}
	p.logger.Debug("active teachers loaded", "count", len(teachers))
	return teachers, nil
}

func scanRating(s repository.Scanner) (scoring.Rating, error) {
	var r scoring.Rating
	var courseID uuid.NullUUID
	err := s.Scan(
		&r.ID,
		&r.TeacherID,
		&courseID,
		&r.StudentID,
		&r.Score,
		&r.Approved,
		&r.Active,
		&r.CreatedAt,
	)
	r.CourseID = courseID.UUID
	return r, err
}

func scanEnrollment(s repository.Scanner) (scoring.Enrollment, error) {
	var e scoring.Enrollment
	var grade sql.NullFloat64
	var completed sql.NullTime
	err := s.Scan(
		&e.ID,
		&e.CourseID,
		&e.StudentID,
		&e.Status,
		&grade,
		&e.EnrolledAt,
		&completed,
	)
	if grade.Valid {
		e.FinalGrade = &grade.Float64
	}
	if completed.Valid {
		e.CompletedAt = &completed.Time
	}
	return e, err
}

func scanCourse(s repository.Scanner) (scoring.Course, error) {
	var c scoring.Course
	err := s.Scan(
		&c.ID,
		&c.TeacherID,
		&c.Title,
		&c.Category,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func scanTeacher(s repository.Scanner) (Teacher, error) {
	var t Teacher
	err := s.Scan(
		&t.ID,
		&t.Name,
		&t.Email,
		&t.Department,
		&t.Active,
		&t.CreatedAt,
	)
	return t, err
}

var (
	_ scoring.MetricSource = (*Postgres)(nil)
	_ Directory            = (*Postgres)(nil)
)
