package scores

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/query"
	"github.com/JaimeStill/merit/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "score_records", "s").
	Project("id", "ID").
	Project("teacher_id", "TeacherID").
	Project("department", "Department").
	Project("category", "Category").
	Project("period_type", "PeriodType").
	Project("period_start", "PeriodStart").
	Project("period_end", "PeriodEnd").
	Project("overall_score", "OverallScore").
	Project("previous_score", "PreviousScore").
	Project("score_change", "ScoreChange").
	Project("score_grade", "ScoreGrade").
	Project("metrics", "Metrics").
	Project("analytics", "Analytics").
	Project("goals", "Goals").
	Project("achievements", "Achievements").
	Project("status", "Status").
	Project("audit_log", "AuditLog").
	Project("metadata", "Metadata").
	Project("generated_at", "GeneratedAt").
	Project("updated_at", "UpdatedAt").
	Join("public", "teachers", "t", "LEFT JOIN", "s.teacher_id = t.id").
	Project("name", "TeacherName")

var defaultSort = query.SortField{
	Field:      "GeneratedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for record queries.
// Nil fields are ignored; all matching is exact.
type Filters struct {
	TeacherID   *uuid.UUID          `json:"teacher_id,omitempty"`
	Department  *string             `json:"department,omitempty"`
	Category    *string             `json:"category,omitempty"`
	PeriodType  *scoring.PeriodType `json:"period_type,omitempty"`
	PeriodStart *time.Time          `json:"period_start,omitempty"`
	Status      *Status             `json:"status,omitempty"`
	Grade       *scoring.Grade      `json:"grade,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("TeacherID", f.TeacherID).
		WhereEquals("Department", f.Department).
		WhereEquals("Category", f.Category).
		WhereEquals("PeriodType", f.PeriodType).
		WhereEquals("PeriodStart", f.PeriodStart).
		WhereEquals("Status", f.Status).
		WhereEquals("ScoreGrade", f.Grade)
}

// Matches reports whether r satisfies every set filter.
func (f Filters) Matches(r Record) bool {
	switch {
	case f.TeacherID != nil && *f.TeacherID != r.TeacherID,
		f.Department != nil && *f.Department != r.Department,
		f.Category != nil && *f.Category != r.Category,
		f.PeriodType != nil && *f.PeriodType != r.Period.Type,
		f.PeriodStart != nil && !f.PeriodStart.Equal(r.Period.Start),
		f.Status != nil && *f.Status != r.Status,
		f.Grade != nil && *f.Grade != r.ScoreGrade:
		return false
	}
	return true
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Malformed ids, period types and timestamps are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("teacher_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.TeacherID = &id
		}
	}

	if v := values.Get("department"); v != "" {
		f.Department = &v
	}

	if v := values.Get("category"); v != "" {
		f.Category = &v
	}

	if v := values.Get("period_type"); v != "" {
		if pt, err := scoring.ParsePeriodType(v); err == nil {
			f.PeriodType = &pt
		}
	}

	if v := values.Get("period_start"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			f.PeriodStart = &ts
		}
	}

	if v := values.Get("status"); v != "" {
		s := Status(v)
		f.Status = &s
	}

	if v := values.Get("grade"); v != "" {
		g := scoring.Grade(v)
		f.Grade = &g
	}

	return f
}

func scanRecord(s repository.Scanner) (Record, error) {
	var (
		r            Record
		previous     *int
		teacherName  *string
		metrics      []byte
		analytics    []byte
		goals        []byte
		achievements []byte
		auditLog     []byte
		metadata     []byte
	)

	err := s.Scan(
		&r.ID,
		&r.TeacherID,
		&r.Department,
		&r.Category,
		&r.Period.Type,
		&r.Period.Start,
		&r.Period.End,
		&r.OverallScore,
		&previous,
		&r.ScoreChange,
		&r.ScoreGrade,
		&metrics,
		&analytics,
		&goals,
		&achievements,
		&r.Status,
		&auditLog,
		&metadata,
		&r.GeneratedAt,
		&r.UpdatedAt,
		&teacherName,
	)
	if err != nil {
		return r, err
	}

	r.PreviousScore = previous
	if teacherName != nil {
		r.TeacherName = *teacherName
	}

	blocks := []struct {
		name string
		data []byte
		dst  any
	}{
		{"metrics", metrics, &r.Metrics},
		{"analytics", analytics, &r.Analytics},
		{"goals", goals, &r.Goals},
		{"achievements", achievements, &r.Achievements},
		{"audit_log", auditLog, &r.AuditLog},
		{"metadata", metadata, &r.Metadata},
	}
	for _, b := range blocks {
		if err := json.Unmarshal(b.data, b.dst); err != nil {
			return r, fmt.Errorf("decode %s: %w", b.name, err)
		}
	}

	return r, nil
}

// documents holds the JSON encodings of a record's JSONB columns.
type documents struct {
	metrics      string
	analytics    string
	goals        string
	achievements string
	auditLog     string
	metadata     string
}

func encodeRecord(r Record) (documents, error) {
	var d documents

	fields := []struct {
		name string
		src  any
		dst  *string
	}{
		{"metrics", r.Metrics, &d.metrics},
		{"analytics", r.Analytics, &d.analytics},
		{"goals", r.Goals, &d.goals},
		{"achievements", r.Achievements, &d.achievements},
		{"audit_log", auditLogOf(r), &d.auditLog},
		{"metadata", r.Metadata, &d.metadata},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.src)
		if err != nil {
			return d, fmt.Errorf("encode %s: %w", f.name, err)
		}
		*f.dst = string(b)
	}

	return d, nil
}

func auditLogOf(r Record) []AuditEntry {
	if r.AuditLog == nil {
		return []AuditEntry{}
	}
	return r.AuditLog
}
