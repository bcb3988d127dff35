package inmemdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
)

func TestCourseRepository(t *testing.T) {
	repo := NewCourseRepository(Open())
	ctx := context.Background()

	_, err := repo.GetCourse(ctx, "go-101")
	assert.Equal(t, course.ErrNotFound, err)

	c := course.Course{ID: "go-101", MainTitle: "Go", Modules: []course.Module{
		{ID: "m1", Sections: []course.Section{{ID: "a", Videos: []course.Video{{ID: "v", Duration: 3}}}}},
	}}
	require.NoError(t, repo.PutCourse(ctx, c))

	// callers cannot alias stored data
	c.Modules[0].Sections[0].Videos[0].Duration = 99
	got, err := repo.GetCourse(ctx, "go-101")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Modules[0].Sections[0].Videos[0].Duration)
	got.Modules[0].ID = "changed"
	again, _ := repo.GetCourse(ctx, "go-101")
	assert.Equal(t, "m1", again.Modules[0].ID)
}

func TestCourseRepository_ListCourses(t *testing.T) {
	repo := NewCourseRepository(Open())
	ctx := context.Background()

	list, err := repo.ListCourses(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.PutCourse(ctx, course.Course{ID: "rust-101", MainTitle: "Rust"}))
	require.NoError(t, repo.PutCourse(ctx, course.Course{ID: "go-101", MainTitle: "Go", Modules: []course.Module{
		{ID: "m1", Sections: []course.Section{{ID: "a"}, {ID: "b"}}},
		{ID: "m2", Sections: []course.Section{{ID: "c"}}},
	}}))

	list, err = repo.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "go-101", list[0].ID)
	assert.Equal(t, 2, list[0].ModuleCount)
	assert.Equal(t, 3, list[0].TotalSections)
	assert.Equal(t, "rust-101", list[1].ID)
	assert.Zero(t, list[1].TotalSections)
}

func TestProgressRepository_Put(t *testing.T) {
	repo := NewProgressRepository(Open())
	ctx := context.Background()
	now := time.Now().UTC()
	sections := []string{"a", "b", "c", "d", "e"}

	_, err := repo.Get(ctx, "u1", "go-101")
	assert.Equal(t, progress.ErrNotFound, err)

	require.NoError(t, repo.Put(ctx, progress.Record{
		UserID: "u1", CourseID: "go-101", CompletedSections: []string{"b", "a"},
		CurrentModule: "m1", CurrentSection: "b", OverallProgress: 10, CreatedAt: now, UpdatedAt: now,
	}, sections))
	rec, err := repo.Get(ctx, "u1", "go-101")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, []string{"a", "b"}, rec.CompletedSections)
	assert.Equal(t, 50.0, rec.OverallProgress)

	tests := []struct {
		name          string
		put           progress.Record
		wantCompleted []string
		wantSection   string
		wantProgress  float64
	}{
		{
			name:          "union with stored completions",
			put:           progress.Record{UserID: "u1", CourseID: "go-101", CompletedSections: []string{"c"}, CurrentModule: "m2", CurrentSection: "c"},
			wantCompleted: []string{"a", "b", "c"},
			wantSection:   "c",
			wantProgress:  60,
		},
		{
			name:          "empty position left untouched",
			put:           progress.Record{UserID: "u1", CourseID: "go-101", CompletedSections: []string{"d"}},
			wantCompleted: []string{"a", "b", "c", "d"},
			wantSection:   "c",
			wantProgress:  80,
		},
		{
			name:          "nothing is ever dropped",
			put:           progress.Record{UserID: "u1", CourseID: "go-101", CurrentModule: "m1", CurrentSection: "a"},
			wantCompleted: []string{"a", "b", "c", "d"},
			wantSection:   "a",
			wantProgress:  80,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, repo.Put(ctx, tt.put, sections))
			rec, err := repo.Get(ctx, "u1", "go-101")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCompleted, rec.CompletedSections)
			assert.Equal(t, tt.wantSection, rec.CurrentSection)
			assert.Equal(t, tt.wantProgress, rec.OverallProgress)
			assert.Equal(t, now, rec.CreatedAt)
		})
	}
}

func TestProgressRepository_concurrentTrackers(t *testing.T) {
	db := Open()
	catalog := NewCourseRepository(db)
	store := NewProgressRepository(db)
	ctx := context.Background()
	require.NoError(t, catalog.PutCourse(ctx, course.Course{ID: "go-101", MainTitle: "Go", Modules: []course.Module{
		{ID: "m1", Order: 0, Sections: []course.Section{{ID: "a", Order: 0}, {ID: "b", Order: 1}}},
		{ID: "m2", Order: 1, Sections: []course.Section{{ID: "c", Order: 0}, {ID: "d", Order: 1}}},
	}}))

	var (
		wg    sync.WaitGroup
		ids   = []string{"a", "b", "c", "d"}
		mods  = []string{"m1", "m1", "m2", "m2"}
		trs   = make([]*progress.Tracker, len(ids))
		write = make([]*progress.Write, len(ids))
	)
	for i := range ids {
		trs[i] = progress.NewTracker(catalog, store, nopLogger{})
		_, err := trs[i].Hydrate(ctx, "go-101", "u1")
		require.NoError(t, err)
	}
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			write[i], _ = trs[i].MarkComplete(mods[i], ids[i])
		}(i)
	}
	wg.Wait()
	for i := range ids {
		require.NoError(t, write[i].Wait(ctx))
	}

	rec, err := store.Get(ctx, "u1", "go-101")
	require.NoError(t, err)
	assert.Equal(t, ids, rec.CompletedSections)
	assert.Equal(t, 100.0, rec.OverallProgress)
}

func TestProgressRepository_CourseProgress(t *testing.T) {
	repo := NewProgressRepository(Open())
	ctx := context.Background()
	sections := []string{"a", "b", "c", "d"}

	got, err := repo.CourseProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.Put(ctx, progress.Record{UserID: "u1", CourseID: "go-101", CompletedSections: []string{"a"}}, sections))
	require.NoError(t, repo.Put(ctx, progress.Record{UserID: "u1", CourseID: "rust-101"}, sections))
	require.NoError(t, repo.Put(ctx, progress.Record{UserID: "u2", CourseID: "go-101", CompletedSections: sections}, sections))

	got, err = repo.CourseProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"go-101": 25, "rust-101": 0}, got)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
