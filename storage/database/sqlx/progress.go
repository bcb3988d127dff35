package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
)

type progressRow struct {
	ID                string         `db:"id"`
	UserID            string         `db:"user_id"`
	CourseID          string         `db:"course_id"`
	OverallProgress   float64        `db:"overall_progress"`
	CompletedSections pq.StringArray `db:"completed_sections"`
	CurrentModule     string         `db:"current_module"`
	CurrentSection    string         `db:"current_section"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`

	// course sections the stored percentage is computed against
	SectionIDs   pq.StringArray `db:"section_ids"`
	SectionTotal int            `db:"section_total"`
}

type courseProgressRow struct {
	CourseID        string  `db:"course_id"`
	OverallProgress float64 `db:"overall_progress"`
}

const (
	selectProgress = `SELECT id, user_id, course_id, overall_progress, completed_sections, current_module, current_section, created_at, updated_at
FROM course_progress WHERE user_id = $1 AND course_id = $2`

	selectCourseProgress = `SELECT course_id, overall_progress FROM course_progress WHERE user_id = $1`

	// completions are unioned server-side and the percentage is recomputed from the union;
	// an empty position keeps the stored one
	upsertProgress = `INSERT INTO course_progress (id, user_id, course_id, overall_progress, completed_sections, current_module, current_section, created_at, updated_at)
VALUES (:id, :user_id, :course_id, :overall_progress, :completed_sections, :current_module, :current_section, :created_at, :updated_at)
ON CONFLICT (user_id, course_id) DO UPDATE SET
	completed_sections = ARRAY(
		SELECT DISTINCT s FROM unnest(course_progress.completed_sections || EXCLUDED.completed_sections) AS s ORDER BY s
	),
	overall_progress = CASE WHEN :section_total = 0 THEN 0 ELSE
		100.0 * (
			SELECT count(DISTINCT s) FROM unnest(course_progress.completed_sections || EXCLUDED.completed_sections) AS s
			WHERE s = ANY(CAST(:section_ids AS TEXT[]))
		) / :section_total END,
	current_module = CASE WHEN EXCLUDED.current_module = '' OR EXCLUDED.current_section = ''
		THEN course_progress.current_module ELSE EXCLUDED.current_module END,
	current_section = CASE WHEN EXCLUDED.current_module = '' OR EXCLUDED.current_section = ''
		THEN course_progress.current_section ELSE EXCLUDED.current_section END,
	updated_at = EXCLUDED.updated_at`
)

// ProgressRepository stores progress records in the course_progress table.
type ProgressRepository struct {
	db *sqlx.DB
}

var (
	_ progress.Store        = (*ProgressRepository)(nil)
	_ course.ProgressReader = (*ProgressRepository)(nil)
)

func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

func (repo *ProgressRepository) Get(ctx context.Context, userID, courseID string) (progress.Record, error) {
	var row progressRow
	if err := repo.db.GetContext(ctx, &row, selectProgress, userID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return progress.Record{}, progress.ErrNotFound
		}
		return progress.Record{}, errors.Wrap(err, "selecting progress")
	}
	return progress.Record{
		ID:                row.ID,
		UserID:            row.UserID,
		CourseID:          row.CourseID,
		OverallProgress:   row.OverallProgress,
		CompletedSections: append([]string{}, row.CompletedSections...),
		CurrentModule:     row.CurrentModule,
		CurrentSection:    row.CurrentSection,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}, nil
}

func (repo *ProgressRepository) Put(ctx context.Context, rec progress.Record, sectionIDs []string) error {
	now := time.Now().UTC()
	completed := progress.MergeSections(rec.CompletedSections)
	sections := progress.MergeSections(sectionIDs)
	row := progressRow{
		ID:                rec.ID,
		UserID:            rec.UserID,
		CourseID:          rec.CourseID,
		OverallProgress:   progress.ProgressOf(sections, completed),
		CompletedSections: pq.StringArray(completed),
		CurrentModule:     rec.CurrentModule,
		CurrentSection:    rec.CurrentSection,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
		SectionIDs:        pq.StringArray(sections),
		SectionTotal:      len(sections),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}
	if _, err := repo.db.NamedExecContext(ctx, upsertProgress, row); err != nil {
		return errors.Wrap(err, "upserting progress")
	}
	return nil
}

// CourseProgress returns the stored overall progress of userID per course id.
func (repo *ProgressRepository) CourseProgress(ctx context.Context, userID string) (map[string]float64, error) {
	var rows []courseProgressRow
	if err := repo.db.SelectContext(ctx, &rows, selectCourseProgress, userID); err != nil {
		return nil, errors.Wrap(err, "selecting course progress")
	}
	res := make(map[string]float64, len(rows))
	for _, row := range rows {
		res[row.CourseID] = row.OverallProgress
	}
	return res, nil
}
