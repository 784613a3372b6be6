package scoring

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
)

// EnrollmentStatus is the lifecycle state of a student's enrollment.
type EnrollmentStatus string

// Enrollment statuses. Dropped and cancelled both count as dropout.
const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// CourseStatus is the publication state of a course.
type CourseStatus string

// Course statuses.
const (
	CourseDraft     CourseStatus = "draft"
	CourseActive    CourseStatus = "active"
	CourseCompleted CourseStatus = "completed"
	CourseArchived  CourseStatus = "archived"
)

// Rating is a student's 1–5 rating of a teacher.
type Rating struct {
	ID        uuid.UUID `json:"id"`
	TeacherID uuid.UUID `json:"teacher_id"`
	CourseID  uuid.UUID `json:"course_id"`
	StudentID uuid.UUID `json:"student_id"`
	Score     int       `json:"score"`
	Approved  bool      `json:"approved"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Enrollment is a student's enrollment in one of a teacher's courses.
// FinalGrade is nil when no grade has been recorded.
type Enrollment struct {
	ID          uuid.UUID        `json:"id"`
	CourseID    uuid.UUID        `json:"course_id"`
	StudentID   uuid.UUID        `json:"student_id"`
	Status      EnrollmentStatus `json:"status"`
	FinalGrade  *float64         `json:"final_grade"`
	EnrolledAt  time.Time        `json:"enrolled_at"`
	CompletedAt *time.Time       `json:"completed_at"`
}

// Course is a course owned by a teacher.
type Course struct {
	ID        uuid.UUID    `json:"id"`
	TeacherID uuid.UUID    `json:"teacher_id"`
	Title     string       `json:"title"`
	Category  string       `json:"category"`
	Status    CourseStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// MetricSource reads the raw records a teacher's metrics are computed from.
// Each sequence is finite and may be ranged over more than once. An empty
// sequence is valid input.
type MetricSource interface {
	Ratings(ctx context.Context, teacherID uuid.UUID, from, to time.Time) (iter.Seq[Rating], error)
	Enrollments(ctx context.Context, teacherID uuid.UUID, from, to time.Time) (iter.Seq[Enrollment], error)
	Courses(ctx context.Context, teacherID uuid.UUID) (iter.Seq[Course], error)
}

// EngagementSignals carries raw engagement telemetry. Nil fields are unmeasured.
type EngagementSignals struct {
	AvgResponseHours  *float64 `json:"avg_response_hours,omitempty"`
	ForumPosts        *int     `json:"forum_posts,omitempty"`
	FeedbackQuality   *float64 `json:"feedback_quality,omitempty"`
	AvailabilityHours *float64 `json:"availability_hours,omitempty"`
}

// EngagementSource supplies engagement telemetry for a teacher.
// Implementations return ErrSignalsUnavailable when they have nothing to report.
type EngagementSource interface {
	Engagement(ctx context.Context, teacherID uuid.UUID, period Period) (EngagementSignals, error)
}

// DevelopmentSignals carries professional-development telemetry. Nil fields are unmeasured.
type DevelopmentSignals struct {
	ContentUpdates       *int     `json:"content_updates,omitempty"`
	SkillsImprovement    *float64 `json:"skills_improvement,omitempty"`
	CertificationsEarned *int     `json:"certifications_earned,omitempty"`
}

// DevelopmentSource supplies professional-development telemetry for a teacher.
// Implementations return ErrSignalsUnavailable when they have nothing to report.
type DevelopmentSource interface {
	Development(ctx context.Context, teacherID uuid.UUID, period Period) (DevelopmentSignals, error)
}
