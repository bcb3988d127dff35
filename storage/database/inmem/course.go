package inmemdb

import (
	"context"
	"sort"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

type CourseRepository struct {
	db *courseTable
}

var (
	_ course.Catalog = (*CourseRepository)(nil)
	_ course.Writer  = (*CourseRepository)(nil)
)

func NewCourseRepository(db *DB) *CourseRepository {
	return &CourseRepository{db: db.course}
}

func (repo *CourseRepository) GetCourse(_ context.Context, courseID string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.table[courseID]; ok {
		return c.Copy(), nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *CourseRepository) PutCourse(_ context.Context, c course.Course) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cp := c.Copy()
	if orig, ok := repo.db.table[c.ID]; ok && cp.CreatedAt.IsZero() {
		cp.CreatedAt = orig.CreatedAt
	}
	repo.db.table[c.ID] = &cp
	return nil
}

func (repo *CourseRepository) ListCourses(_ context.Context) ([]course.Summary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]course.Summary, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		res = append(res, c.Summary())
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}
