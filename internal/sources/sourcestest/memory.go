// Package sourcestest provides an in-memory metric source and teacher
// directory for tests.
package sourcestest

import (
	"context"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/internal/sources"
)

// Memory holds learning records in memory. Failures maps teacher ids to an
// error returned by every read for that teacher.
type Memory struct {
	mu          sync.RWMutex
	teachers    []sources.Teacher
	courses     []scoring.Course
	ratings     []scoring.Rating
	enrollments []scoring.Enrollment
	failures    map[uuid.UUID]error
}

// New creates an empty Memory.
func New() *Memory {
	return &Memory{failures: make(map[uuid.UUID]error)}
}

// AddTeacher registers an active teacher and returns its id.
func (m *Memory) AddTeacher(name, department string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := sources.Teacher{
		ID:         uuid.New(),
		Name:       name,
		Email:      name + "@example.edu",
		Department: department,
		Active:     true,
		CreatedAt:  time.Now().Add(time.Duration(len(m.teachers)) * time.Millisecond),
	}
	m.teachers = append(m.teachers, t)
	return t.ID
}

// AddCourse registers a course owned by teacherID and returns its id.
func (m *Memory) AddCourse(teacherID uuid.UUID, category string, status scoring.CourseStatus, created time.Time) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := scoring.Course{
		ID:        uuid.New(),
		TeacherID: teacherID,
		Title:     category + " course",
		Category:  category,
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
	m.courses = append(m.courses, c)
	return c.ID
}

// AddRating records an approved, active rating.
func (m *Memory) AddRating(teacherID, courseID uuid.UUID, score int, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ratings = append(m.ratings, scoring.Rating{
		ID:        uuid.New(),
		TeacherID: teacherID,
		CourseID:  courseID,
		StudentID: uuid.New(),
		Score:     score,
		Approved:  true,
		Active:    true,
		CreatedAt: at,
	})
}

// AddEnrollment records an enrollment in courseID.
func (m *Memory) AddEnrollment(courseID uuid.UUID, status scoring.EnrollmentStatus, grade *float64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.enrollments = append(m.enrollments, scoring.Enrollment{
		ID:         uuid.New(),
		CourseID:   courseID,
		StudentID:  uuid.New(),
		Status:     status,
		FinalGrade: grade,
		EnrolledAt: at,
	})
}

// Fail makes every read for teacherID return err.
func (m *Memory) Fail(teacherID uuid.UUID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[teacherID] = err
}

func (m *Memory) Ratings(_ context.Context, teacherID uuid.UUID, from, to time.Time) (iter.Seq[scoring.Rating], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failures[teacherID]; err != nil {
		return nil, err
	}

	var out []scoring.Rating
	for _, r := range m.ratings {
		if r.TeacherID == teacherID && !r.CreatedAt.Before(from) && !r.CreatedAt.After(to) {
			out = append(out, r)
		}
	}
	return slices.Values(out), nil
}

func (m *Memory) Enrollments(_ context.Context, teacherID uuid.UUID, from, to time.Time) (iter.Seq[scoring.Enrollment], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failures[teacherID]; err != nil {
		return nil, err
	}

	owned := make(map[uuid.UUID]bool)
	for _, c := range m.courses {
		if c.TeacherID == teacherID {
			owned[c.ID] = true
		}
	}

	var out []scoring.Enrollment
	for _, e := range m.enrollments {
		if owned[e.CourseID] && !e.EnrolledAt.Before(from) && !e.EnrolledAt.After(to) {
			out = append(out, e)
		}
	}
	return slices.Values(out), nil
}

func (m *Memory) Courses(_ context.Context, teacherID uuid.UUID) (iter.Seq[scoring.Course], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failures[teacherID]; err != nil {
		return nil, err
	}

	var out []scoring.Course
	for _, c := range m.courses {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	return slices.Values(out), nil
}

func (m *Memory) Teacher(_ context.Context, id uuid.UUID) (sources.Teacher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.teachers {
		if t.ID == id {
			return t, nil
		}
	}
	return sources.Teacher{}, sources.ErrTeacherNotFound
}

func (m *Memory) ActiveTeachers(context.Context) ([]sources.Teacher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []sources.Teacher
	for _, t := range m.teachers {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

var (
	_ scoring.MetricSource = (*Memory)(nil)
	_ sources.Directory    = (*Memory)(nil)
)
