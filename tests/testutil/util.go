package testutil

import (
	"context"
	"testing"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// TwoByTwoCourse returns a course of 2 modules (m1, m2) with 2 sections each (a, b and c, d).
func TwoByTwoCourse(id string) course.Course {
	return course.Course{
		ID:        id,
		MainTitle: "Go 101",
		Status:    "published",
		Modules: []course.Module{
			{ID: "m1", Name: "Basics", Order: 0, Sections: []course.Section{
				{ID: "a", Title: "Hello", Order: 0, VideoID: "va", Duration: 60},
				{ID: "b", Title: "Types", Order: 1, Videos: []course.Video{{ID: "vb1", Duration: 120}, {ID: "vb2", Duration: 180}}, Duration: 60},
			}},
			{ID: "m2", Name: "Concurrency", Order: 1, Sections: []course.Section{
				{ID: "c", Title: "Goroutines", Order: 0},
				{ID: "d", Title: "Channels", Order: 1, Materials: []course.Material{{Name: "slides", URL: "https://example.com/d.pdf"}}},
			}},
		},
	}
}

// CreateCourse stores c or fails the test.
func CreateCourse(t *testing.T, w course.Writer, c course.Course) course.Course {
	t.Helper()
	if err := w.PutCourse(context.Background(), c); err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}
