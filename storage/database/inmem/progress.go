package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
)

type ProgressRepository struct {
	db *progressTable
}

var (
	_ progress.Store        = (*ProgressRepository)(nil)
	_ course.ProgressReader = (*ProgressRepository)(nil)
)

func NewProgressRepository(db *DB) *ProgressRepository {
	return &ProgressRepository{db: db.progress}
}

func (repo *ProgressRepository) Get(_ context.Context, userID, courseID string) (progress.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rec, ok := repo.db.table[progressKey{userID: userID, courseID: courseID}]
	if !ok {
		return progress.Record{}, progress.ErrNotFound
	}
	cp := *rec
	cp.CompletedSections = append([]string{}, rec.CompletedSections...)
	return cp, nil
}

func (repo *ProgressRepository) Put(_ context.Context, rec progress.Record, sectionIDs []string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := progressKey{userID: rec.UserID, courseID: rec.CourseID}
	orig, ok := repo.db.table[key]
	if !ok {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.CompletedSections = progress.MergeSections(rec.CompletedSections)
		rec.OverallProgress = progress.ProgressOf(sectionIDs, rec.CompletedSections)
		repo.db.table[key] = &rec
		return nil
	}

	// only save set fields; completions are never dropped
	orig.CompletedSections = progress.MergeSections(orig.CompletedSections, rec.CompletedSections)
	orig.OverallProgress = progress.ProgressOf(sectionIDs, orig.CompletedSections)
	if rec.CurrentModule != "" && rec.CurrentSection != "" {
		orig.CurrentModule = rec.CurrentModule
		orig.CurrentSection = rec.CurrentSection
	}
	if !rec.UpdatedAt.IsZero() {
		orig.UpdatedAt = rec.UpdatedAt
	}
	return nil
}

// CourseProgress returns the stored overall progress of userID per course id.
func (repo *ProgressRepository) CourseProgress(_ context.Context, userID string) (map[string]float64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make(map[string]float64)
	for key, rec := range repo.db.table {
		if key.userID == userID {
			res[key.courseID] = rec.OverallProgress
		}
	}
	return res, nil
}
