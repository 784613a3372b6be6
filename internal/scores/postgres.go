package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/pkg/pagination"
	"github.com/JaimeStill/merit/pkg/query"
	"github.com/JaimeStill/merit/pkg/repository"
)

const maxUpsertAttempts = 3

type pgStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a Postgres-backed Store.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &pgStore{
		db:     db,
		logger: logger.With("system", "scores.store"),
		now:    time.Now,
	}
}

func (s *pgStore) Upsert(ctx context.Context, rec Record) (*Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	var (
		stored Record
		err    error
	)

	for attempt := 1; attempt <= maxUpsertAttempts; attempt++ {
		stored, err = repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Record, error) {
			return s.upsert(ctx, tx, rec)
		})
		if !repository.IsDuplicate(err) && !repository.IsSerializationFailure(err) {
			break
		}
		s.logger.Warn("score upsert conflict",
			"teacher_id", rec.TeacherID,
			"period", rec.Period.String(),
			"attempt", attempt,
		)
	}

	if err != nil {
		if errors.Is(err, ErrFinal) {
			return nil, err
		}
		return nil, s.fail("upsert score record", err)
	}

	s.logger.Debug("score record stored",
		"id", stored.ID,
		"teacher_id", stored.TeacherID,
		"supersedes", stored.Metadata.Supersedes,
	)
	return &stored, nil
}

func (s *pgStore) upsert(ctx context.Context, tx *sql.Tx, next Record) (Record, error) {
	now := s.now()

	qb := query.NewBuilder(projection).
		WhereEquals("TeacherID", next.TeacherID).
		WhereEquals("PeriodType", next.Period.Type).
		WhereEquals("PeriodStart", next.Period.Start).
		WhereNotEquals("Status", StatusArchived)
	q, args := qb.BuildSingleOrNull()

	prior, err := repository.QueryOne(ctx, tx, q+" FOR UPDATE OF s", args, scanRecord)
	switch {
	case err == nil:
		if err := Supersede(&prior, &next, now); err != nil {
			return Record{}, err
		}
		if err := s.write(ctx, tx, prior); err != nil {
			return Record{}, fmt.Errorf("archive prior record: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return Record{}, fmt.Errorf("lock current record: %w", err)
	}

	if next.GeneratedAt.IsZero() {
		next.GeneratedAt = now
	}
	next.UpdatedAt = now

	if err := s.insert(ctx, tx, next); err != nil {
		return Record{}, err
	}

	single, singleArgs := query.NewBuilder(projection).BuildSingle("ID", next.ID)
	return repository.QueryOne(ctx, tx, single, singleArgs, scanRecord)
}

const insertRecord = `
	INSERT INTO score_records(
		id, teacher_id, department, category, period_type, period_start, period_end,
		overall_score, previous_score, score_change, score_grade,
		metrics, analytics, goals, achievements, status, audit_log, metadata,
		generated_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
		$12, $13, $14, $15, $16, $17, $18, $19, $20)`

func (s *pgStore) insert(ctx context.Context, tx *sql.Tx, r Record) error {
	docs, err := encodeRecord(r)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, insertRecord,
		r.ID,
		r.TeacherID,
		r.Department,
		r.Category,
		r.Period.Type,
		r.Period.Start,
		r.Period.End,
		r.OverallScore,
		r.PreviousScore,
		r.ScoreChange,
		r.ScoreGrade,
		docs.metrics,
		docs.analytics,
		docs.goals,
		docs.achievements,
		r.Status,
		docs.auditLog,
		docs.metadata,
		r.GeneratedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert score record: %w", err)
	}
	return nil
}

const updateRecord = `
	UPDATE score_records
	SET status = $2, analytics = $3, goals = $4, achievements = $5,
		audit_log = $6, updated_at = $7
	WHERE id = $1`

// write persists the mutable blocks of r. Scores, metrics and metadata are
// immutable once inserted.
func (s *pgStore) write(ctx context.Context, tx *sql.Tx, r Record) error {
	docs, err := encodeRecord(r)
	if err != nil {
		return err
	}

	return repository.ExecExpectOne(ctx, tx, updateRecord,
		r.ID,
		r.Status,
		docs.analytics,
		docs.goals,
		docs.achievements,
		docs.auditLog,
		r.UpdatedAt,
	)
}

func (s *pgStore) FindLatest(
	ctx context.Context,
	teacherID uuid.UUID,
	periodType scoring.PeriodType,
	before time.Time,
) (*Record, error) {
	qb := query.NewBuilder(projection,
		query.SortField{Field: "PeriodStart", Descending: true},
		query.SortField{Field: "GeneratedAt", Descending: true},
	).
		WhereEquals("TeacherID", teacherID).
		WhereEquals("PeriodType", periodType).
		WhereLess("PeriodStart", before)
	q, args := qb.BuildFirst()

	r, err := repository.QueryOne(ctx, s.db, q, args, scanRecord)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, s.fail("find latest score record", err)
	}
	return &r, nil
}

func (s *pgStore) FindCohort(ctx context.Context, periodType scoring.PeriodType, periodStart time.Time) ([]Record, error) {
	qb := query.NewBuilder(projection,
		query.SortField{Field: "GeneratedAt"},
		query.SortField{Field: "ID"},
	).
		WhereEquals("PeriodType", periodType).
		WhereEquals("PeriodStart", periodStart).
		WhereNotEquals("Status", StatusArchived)
	q, args := qb.Build()

	cohort, err := repository.QueryMany(ctx, s.db, q, args, scanRecord)
	if err != nil {
		return nil, s.fail("find cohort", err)
	}
	return cohort, nil
}

func (s *pgStore) UpdateRankings(ctx context.Context, updates []RankingUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, len(updates))
	for i, u := range updates {
		ids[i] = u.ID
	}

	changed, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (int, error) {
		q, args := query.NewBuilder(projection).
			WhereAny("ID", ids).
			WhereNotEquals("Status", StatusArchived).
			Build()
		records, err := repository.QueryMany(ctx, tx, q+" FOR UPDATE OF s", args, scanRecord)
		if err != nil {
			return 0, fmt.Errorf("lock cohort: %w", err)
		}

		byID := make(map[uuid.UUID]*Record, len(records))
		for i := range records {
			byID[records[i].ID] = &records[i]
		}

		now := s.now()
		changed := 0
		for _, u := range updates {
			r, ok := byID[u.ID]
			if !ok {
				s.logger.Warn("ranked record no longer current", "id", u.ID)
				continue
			}
			if !ApplyRanking(r, u.Ranking, now) {
				continue
			}
			if err := s.write(ctx, tx, *r); err != nil {
				return 0, fmt.Errorf("write ranking %s: %w", u.ID, err)
			}
			changed++
		}
		return changed, nil
	})

	if err != nil {
		return 0, s.fail("update rankings", err)
	}
	return changed, nil
}

func (s *pgStore) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	r, err := repository.QueryOne(ctx, s.db, q, args, scanRecord)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, s.fail("find score record", err)
	}
	return &r, nil
}

func (s *pgStore) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Record], error) {
	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "TeacherName", "Department", "Category")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, s.fail("count score records", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	records, err := repository.QueryMany(ctx, s.db, pageSQL, pageArgs, scanRecord)
	if err != nil {
		return nil, s.fail("query score records", err)
	}

	result := pagination.NewPageResult(records, total, page.Page, page.PageSize)
	return &result, nil
}

func (s *pgStore) Mutate(ctx context.Context, id uuid.UUID, fn func(*Record) error) (*Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	r, err := repository.WithTx(ctx, s.db, func(tx *sql.Tx) (Record, error) {
		r, err := repository.QueryOne(ctx, tx, q+" FOR UPDATE OF s", args, scanRecord)
		if err != nil {
			return Record{}, err
		}
		if err := fn(&r); err != nil {
			return Record{}, err
		}
		if err := s.write(ctx, tx, r); err != nil {
			return Record{}, err
		}
		return r, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isDomainError(err) {
			return nil, err
		}
		return nil, s.fail("mutate score record", err)
	}
	return &r, nil
}

func (s *pgStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &PersistenceError{Op: "ping", Err: err, Unavailable: true}
	}
	return nil
}

func (s *pgStore) fail(op string, err error) error {
	if repository.IsDuplicate(err) {
		err = fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return &PersistenceError{
		Op:          op,
		Err:         err,
		Unavailable: repository.IsUnavailable(err),
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{ErrFinal, ErrInvalidTransition, ErrInvalidReview, ErrInvalidGoals} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
