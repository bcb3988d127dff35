package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

type (
	courseRow struct {
		ID          string       `db:"id"`
		MainTitle   string       `db:"main_title"`
		Description string       `db:"description"`
		Status      string       `db:"status"`
		Thumbnail   string       `db:"thumbnail"`
		CreatedAt   sql.NullTime `db:"created_at"`
		UpdatedAt   sql.NullTime `db:"updated_at"`
	}

	moduleRow struct {
		CourseID    string `db:"course_id"`
		ID          string `db:"id"`
		Name        string `db:"module_name"`
		Description string `db:"description"`
		Order       int    `db:"ord"`
	}

	sectionRow struct {
		CourseID    string         `db:"course_id"`
		ModuleID    string         `db:"module_id"`
		ID          string         `db:"id"`
		Title       string         `db:"title"`
		Description string         `db:"description"`
		Order       int            `db:"ord"`
		VideoID     string         `db:"video_id"`
		Duration    int            `db:"duration"`
		Videos      types.JSONText `db:"videos"`
		Materials   types.JSONText `db:"materials"`
	}
)

const (
	selectCourse   = `SELECT id, main_title, description, status, thumbnail, created_at, updated_at FROM courses WHERE id = $1`
	selectModules  = `SELECT course_id, id, module_name, description, ord FROM modules WHERE course_id = $1 ORDER BY ord, id`
	selectSections = `SELECT course_id, module_id, id, title, description, ord, video_id, duration, videos, materials FROM sections WHERE course_id = $1 ORDER BY module_id, ord, id`

	listCourses = `SELECT c.id, c.main_title, c.description, c.status, c.thumbnail, c.created_at, c.updated_at,
	(SELECT count(*) FROM modules m WHERE m.course_id = c.id) AS module_count,
	(SELECT count(*) FROM sections s WHERE s.course_id = c.id) AS total_sections
FROM courses c ORDER BY c.id`

	upsertCourse = `INSERT INTO courses (id, main_title, description, status, thumbnail, created_at, updated_at)
VALUES (:id, :main_title, :description, :status, :thumbnail, COALESCE(:created_at, NOW()), COALESCE(:updated_at, NOW()))
ON CONFLICT (id) DO UPDATE SET
	main_title = EXCLUDED.main_title,
	description = EXCLUDED.description,
	status = EXCLUDED.status,
	thumbnail = EXCLUDED.thumbnail,
	updated_at = EXCLUDED.updated_at`
	deleteModules  = `DELETE FROM modules WHERE course_id = $1`
	insertModule   = `INSERT INTO modules (course_id, id, module_name, description, ord) VALUES (:course_id, :id, :module_name, :description, :ord)`
	insertSection  = `INSERT INTO sections (course_id, module_id, id, title, description, ord, video_id, duration, videos, materials)
VALUES (:course_id, :module_id, :id, :title, :description, :ord, :video_id, :duration, :videos, :materials)`
)

// CourseRepository reads and writes course structures split over the courses, modules and sections tables.
type CourseRepository struct {
	db *sqlx.DB
}

var (
	_ course.Catalog = (*CourseRepository)(nil)
	_ course.Writer  = (*CourseRepository)(nil)
)

func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (repo *CourseRepository) GetCourse(ctx context.Context, courseID string) (course.Course, error) {
	var cr courseRow
	if err := repo.db.GetContext(ctx, &cr, selectCourse, courseID); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "selecting course")
	}
	var mrs []moduleRow
	if err := repo.db.SelectContext(ctx, &mrs, selectModules, courseID); err != nil {
		return course.Course{}, errors.Wrap(err, "selecting modules")
	}
	var srs []sectionRow
	if err := repo.db.SelectContext(ctx, &srs, selectSections, courseID); err != nil {
		return course.Course{}, errors.Wrap(err, "selecting sections")
	}

	c := course.Course{
		ID:          cr.ID,
		MainTitle:   cr.MainTitle,
		Description: cr.Description,
		Status:      cr.Status,
		Thumbnail:   cr.Thumbnail,
		CreatedAt:   cr.CreatedAt.Time,
		UpdatedAt:   cr.UpdatedAt.Time,
		Modules:     make([]course.Module, 0, len(mrs)),
	}
	byID := make(map[string]int, len(mrs))
	for _, mr := range mrs {
		byID[mr.ID] = len(c.Modules)
		c.Modules = append(c.Modules, course.Module{
			ID:          mr.ID,
			Name:        mr.Name,
			Description: mr.Description,
			Order:       mr.Order,
			Sections:    []course.Section{},
		})
	}
	for _, sr := range srs {
		mi, ok := byID[sr.ModuleID]
		if !ok {
			continue
		}
		sec, err := sr.section()
		if err != nil {
			return course.Course{}, errors.Wrapf(err, "decoding section %q", sr.ID)
		}
		c.Modules[mi].Sections = append(c.Modules[mi].Sections, sec)
	}
	return c, nil
}

func (repo *CourseRepository) ListCourses(ctx context.Context) ([]course.Summary, error) {
	res := []course.Summary{}
	if err := repo.db.SelectContext(ctx, &res, listCourses); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	return res, nil
}

func (sr sectionRow) section() (course.Section, error) {
	sec := course.Section{
		ID:          sr.ID,
		Title:       sr.Title,
		Description: sr.Description,
		Order:       sr.Order,
		VideoID:     sr.VideoID,
		Duration:    sr.Duration,
	}
	if len(sr.Videos) > 0 {
		if err := sr.Videos.Unmarshal(&sec.Videos); err != nil {
			return sec, err
		}
	}
	if len(sr.Materials) > 0 {
		if err := sr.Materials.Unmarshal(&sec.Materials); err != nil {
			return sec, err
		}
	}
	if len(sec.Videos) == 0 {
		sec.Videos = nil
	}
	if len(sec.Materials) == 0 {
		sec.Materials = nil
	}
	return sec, nil
}

// PutCourse replaces the whole structure of c inside one transaction.
func (repo *CourseRepository) PutCourse(ctx context.Context, c course.Course) (err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	cr := courseRow{
		ID:          c.ID,
		MainTitle:   c.MainTitle,
		Description: c.Description,
		Status:      c.Status,
		Thumbnail:   c.Thumbnail,
		CreatedAt:   sql.NullTime{Time: c.CreatedAt, Valid: !c.CreatedAt.IsZero()},
		UpdatedAt:   sql.NullTime{Time: c.UpdatedAt, Valid: !c.UpdatedAt.IsZero()},
	}
	if _, err = tx.NamedExecContext(ctx, upsertCourse, cr); err != nil {
		return errors.Wrap(err, "upserting course")
	}
	if _, err = tx.ExecContext(ctx, deleteModules, c.ID); err != nil {
		return errors.Wrap(err, "deleting modules")
	}
	for _, m := range c.Modules {
		mr := moduleRow{CourseID: c.ID, ID: m.ID, Name: m.Name, Description: m.Description, Order: m.Order}
		if _, err = tx.NamedExecContext(ctx, insertModule, mr); err != nil {
			return errors.Wrapf(err, "inserting module %q", m.ID)
		}
		for _, s := range m.Sections {
			sr := sectionRow{
				CourseID:    c.ID,
				ModuleID:    m.ID,
				ID:          s.ID,
				Title:       s.Title,
				Description: s.Description,
				Order:       s.Order,
				VideoID:     s.VideoID,
				Duration:    s.Duration,
			}
			if sr.Videos, err = jsonList(s.Videos); err != nil {
				return errors.Wrapf(err, "encoding videos of section %q", s.ID)
			}
			if sr.Materials, err = jsonList(s.Materials); err != nil {
				return errors.Wrapf(err, "encoding materials of section %q", s.ID)
			}
			if _, err = tx.NamedExecContext(ctx, insertSection, sr); err != nil {
				return errors.Wrapf(err, "inserting section %q", s.ID)
			}
		}
	}
	return errors.Wrap(tx.Commit(), "committing course")
}

func jsonList(v interface{}) (types.JSONText, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return types.JSONText("[]"), nil
	}
	return types.JSONText(b), nil
}
