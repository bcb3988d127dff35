package rediscache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

type countingCatalog struct {
	mu      sync.Mutex
	courses map[string]course.Course
	calls   int
}

func (cat *countingCatalog) GetCourse(_ context.Context, courseID string) (course.Course, error) {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	cat.calls++
	c, ok := cat.courses[courseID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

func (cat *countingCatalog) ListCourses(context.Context) ([]course.Summary, error) {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	cat.calls++
	res := make([]course.Summary, 0, len(cat.courses))
	for _, c := range cat.courses {
		res = append(res, c.Summary())
	}
	return res, nil
}

type warnCounter struct {
	mu    sync.Mutex
	warns int
}

func (l *warnCounter) Debug(string, ...interface{}) {}
func (l *warnCounter) Info(string, ...interface{})  {}
func (l *warnCounter) Warn(string, ...interface{}) {
	l.mu.Lock()
	l.warns++
	l.mu.Unlock()
}
func (l *warnCounter) Error(string, ...interface{}) {}
func (l *warnCounter) Fatal(string, ...interface{}) {}

func goCourse(id string) course.Course {
	return course.Course{ID: id, MainTitle: "Go", Modules: []course.Module{
		{ID: "m1", Sections: []course.Section{{ID: "a", Videos: []course.Video{{ID: "v", Duration: 7}}}}},
	}}
}

func TestCatalog_redisDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer func() { _ = client.Close() }()
	next := &countingCatalog{courses: map[string]course.Course{"go-101": goCourse("go-101")}}
	logger := &warnCounter{}
	cat := NewCatalog(client, next, time.Minute, logger)

	c, err := cat.GetCourse(context.Background(), "go-101")
	require.NoError(t, err)
	assert.Equal(t, 7, c.Modules[0].Sections[0].Videos[0].Duration)
	assert.Equal(t, 2, logger.warns, "failed read and failed write")

	_, err = cat.GetCourse(context.Background(), "nope")
	assert.Equal(t, course.ErrNotFound, err)

	// listing goes straight to the wrapped catalog
	list, err := cat.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].TotalSections)
	assert.Equal(t, 2, logger.warns)
}

// TestCatalog_integration requires a running Redis.
// We skip if connection fails.
func TestCatalog_integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer func() { _ = client.Close() }()
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	id := "go-" + uuid.NewString()
	next := &countingCatalog{courses: map[string]course.Course{id: goCourse(id)}}
	cat := NewCatalog(client, next, time.Minute, &warnCounter{})
	defer func() { _ = cat.Invalidate(ctx, id) }()

	for i := 0; i < 3; i++ {
		c, err := cat.GetCourse(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
	}
	assert.Equal(t, 1, next.calls)

	require.NoError(t, cat.Invalidate(ctx, id))
	_, err := cat.GetCourse(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)

	// unknown courses are never cached
	for i := 0; i < 2; i++ {
		_, err = cat.GetCourse(ctx, "missing-"+id)
		assert.Equal(t, course.ErrNotFound, err)
	}
	assert.Equal(t, 4, next.calls)
}
