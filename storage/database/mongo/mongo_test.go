package mongorepos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
)

func lookup(d bson.D, key string) (interface{}, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func TestProgressUpdate(t *testing.T) {
	now := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	sections := []string{"a", "b", "c", "d"}

	tests := []struct {
		name         string
		rec          progress.Record
		sectionIDs   []string
		wantPosition bool
		wantMerged   []string
		wantPercent  bool
	}{
		{
			name:         "completion and position",
			rec:          progress.Record{CompletedSections: []string{"b", "a", "b"}, CurrentModule: "m1", CurrentSection: "b"},
			sectionIDs:   sections,
			wantPosition: true,
			wantMerged:   []string{"a", "b"},
			wantPercent:  true,
		},
		{
			name:         "position only",
			rec:          progress.Record{CurrentModule: "m1", CurrentSection: "a"},
			sectionIDs:   sections,
			wantPosition: true,
			wantMerged:   []string{},
			wantPercent:  true,
		},
		{
			name:        "half a position is ignored",
			rec:         progress.Record{CompletedSections: []string{"a"}, CurrentModule: "m1"},
			sectionIDs:  sections,
			wantMerged:  []string{"a"},
			wantPercent: true,
		},
		{
			name:       "course without sections",
			rec:        progress.Record{CompletedSections: []string{"a"}},
			wantMerged: []string{"a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pipeline := progressUpdate(tt.rec, tt.sectionIDs, now)
			require.Len(t, pipeline, 2)

			merge, ok := lookup(pipeline[0], "$set")
			require.True(t, ok)
			_, hasModule := lookup(merge.(bson.D), "current_module")
			assert.Equal(t, tt.wantPosition, hasModule)
			updatedAt, _ := lookup(merge.(bson.D), "updated_at")
			assert.Equal(t, now, updatedAt)

			recordID, _ := lookup(merge.(bson.D), "record_id")
			ifNull, _ := lookup(recordID.(bson.D), "$ifNull")
			_, err := uuid.Parse(ifNull.(bson.A)[1].(string))
			assert.NoError(t, err)

			completed, _ := lookup(merge.(bson.D), "completed_sections")
			union, _ := lookup(completed.(bson.D), "$setUnion")
			added, _ := lookup(union.(bson.A)[1].(bson.D), "$literal")
			assert.Equal(t, tt.wantMerged, added)

			percent, ok := lookup(pipeline[1], "$set")
			require.True(t, ok)
			value, _ := lookup(percent.(bson.D), "overall_progress")
			if !tt.wantPercent {
				assert.Equal(t, 0.0, value)
				return
			}
			// computed server-side from the merged set
			_, isExpr := value.(bson.D)
			assert.True(t, isExpr)
		})
	}
}

// openTestDB connects to MONGO_URI, skipping the test when no server is reachable.
func openTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping mongo integration test")
	}
	conf := core.NewTestConfig()
	conf.Mongo.URI = uri
	conf.Mongo.Database = "lms_test_" + uuid.NewString()[:8]

	db, err := Open(context.Background(), conf)
	if err != nil {
		t.Skipf("mongo not available: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = Close(context.Background(), db)
	})
	return db
}

func TestRepositories_integration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	courses := NewCourseRepository(db)
	store := NewProgressRepository(db)

	_, err := courses.GetCourse(ctx, "go-101")
	assert.Equal(t, course.ErrNotFound, err)

	c := course.Course{ID: "go-101", MainTitle: "Go", Modules: []course.Module{
		{ID: "m1", Sections: []course.Section{{ID: "a", Videos: []course.Video{{ID: "v", Duration: 3}}, Completed: true}}},
	}}
	require.NoError(t, courses.PutCourse(ctx, c))
	got, err := courses.GetCourse(ctx, "go-101")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Modules[0].Sections[0].Videos[0].Duration)
	assert.False(t, got.Modules[0].Sections[0].Completed, "view-state is not stored")

	list, err := courses.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ModuleCount)
	assert.Equal(t, 1, list[0].TotalSections)

	_, err = store.Get(ctx, "u1", "go-101")
	assert.Equal(t, progress.ErrNotFound, err)

	sections := []string{"a", "b", "c", "d"}
	require.NoError(t, store.Put(ctx, progress.Record{UserID: "u1", CourseID: "go-101", CurrentModule: "m1", CurrentSection: "a"}, sections))
	require.NoError(t, store.Put(ctx, progress.Record{UserID: "u1", CourseID: "go-101", CompletedSections: []string{"c"}}, sections))
	// the percentage sent along is ignored: the merged set decides it
	require.NoError(t, store.Put(ctx, progress.Record{UserID: "u1", CourseID: "go-101", CompletedSections: []string{"a"}, OverallProgress: 25}, sections))

	rec, err := store.Get(ctx, "u1", "go-101")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, rec.CompletedSections)
	assert.Equal(t, "a", rec.CurrentSection)
	assert.Equal(t, 50.0, rec.OverallProgress)
	assert.NotEmpty(t, rec.ID)

	byCourse, err := store.CourseProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"go-101": 50}, byCourse)
}
