package progress_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
)

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

var _ core.Logger = (*recordingLogger)(nil)

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
	l.mu.Unlock()
}

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

func (l *recordingLogger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *recordingLogger) Fatal(msg string, _ ...interface{}) { l.log("fatal", msg) }

type fakeCatalog struct {
	courses map[string]course.Course
	err     error
	calls   int
	mu      sync.Mutex
}

func newCatalog(courses ...course.Course) *fakeCatalog {
	cat := &fakeCatalog{courses: make(map[string]course.Course)}
	for _, c := range courses {
		cat.courses[c.ID] = c
	}
	return cat
}

func (cat *fakeCatalog) GetCourse(_ context.Context, courseID string) (course.Course, error) {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	cat.calls++
	if cat.err != nil {
		return course.Course{}, cat.err
	}
	c, ok := cat.courses[courseID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return c.Copy(), nil
}

func (cat *fakeCatalog) ListCourses(context.Context) ([]course.Summary, error) {
	cat.mu.Lock()
	defer cat.mu.Unlock()
	if cat.err != nil {
		return nil, cat.err
	}
	res := make([]course.Summary, 0, len(cat.courses))
	for _, c := range cat.courses {
		res = append(res, c.Summary())
	}
	return res, nil
}

// fakeStore merges like the real stores do and counts calls.
type fakeStore struct {
	mu      sync.Mutex
	recs    map[string]progress.Record
	gets    int
	puts    int
	getErr  error
	putErr  error
	barrier *sync.WaitGroup // when set, every Get waits for the others

	delay       time.Duration // time spent inside every call
	inFlight    int
	maxInFlight int
	calls       []string // "get" or "put", in call order
}

// enter tracks a call for the duration of the returned func.
func (s *fakeStore) enter(call string) func() {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.calls = append(s.calls, call)
	delay := s.delay
	s.mu.Unlock()

	time.Sleep(delay)
	return func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}
}

func newStore() *fakeStore {
	return &fakeStore{recs: make(map[string]progress.Record)}
}

func storeKey(userID, courseID string) string {
	return fmt.Sprintf("%s/%s", userID, courseID)
}

func (s *fakeStore) Get(_ context.Context, userID, courseID string) (progress.Record, error) {
	defer s.enter("get")()

	s.mu.Lock()
	s.gets++
	b := s.barrier
	err := s.getErr
	s.mu.Unlock()

	if b != nil {
		b.Done()
		b.Wait()
	}
	if err != nil {
		return progress.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[storeKey(userID, courseID)]
	if !ok {
		return progress.Record{}, progress.ErrNotFound
	}
	rec.CompletedSections = append([]string(nil), rec.CompletedSections...)
	return rec, nil
}

func (s *fakeStore) Put(_ context.Context, rec progress.Record, sectionIDs []string) error {
	defer s.enter("put")()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	key := storeKey(rec.UserID, rec.CourseID)
	if old, ok := s.recs[key]; ok {
		rec.CompletedSections = progress.MergeSections(old.CompletedSections, rec.CompletedSections)
		if rec.CurrentModule == "" || rec.CurrentSection == "" {
			rec.CurrentModule, rec.CurrentSection = old.CurrentModule, old.CurrentSection
		}
		rec.CreatedAt = old.CreatedAt
	} else {
		rec.CompletedSections = progress.MergeSections(rec.CompletedSections)
	}
	rec.OverallProgress = progress.ProgressOf(sectionIDs, rec.CompletedSections)
	s.recs[key] = rec
	return nil
}

func (s *fakeStore) set(rec progress.Record) {
	s.mu.Lock()
	s.recs[storeKey(rec.UserID, rec.CourseID)] = rec
	s.mu.Unlock()
}

func (s *fakeStore) record(userID, courseID string) (progress.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[storeKey(userID, courseID)]
	return rec, ok
}

func (s *fakeStore) counts() (gets, puts int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets, s.puts
}

// twoByTwo is a course of 2 modules with 2 sections each, given out of order.
func twoByTwo() course.Course {
	return course.Course{
		ID:        "go-101",
		MainTitle: "Go 101",
		Modules: []course.Module{
			{ID: "m2", Order: 1, Sections: []course.Section{
				{ID: "c", Order: 0, Videos: []course.Video{{ID: "vc", Duration: 120}, {ID: "vc2", Duration: 180}}, Duration: 60},
				{ID: "d", Order: 1, VideoID: "vd", Duration: 90},
			}},
			{ID: "m1", Order: 0, Sections: []course.Section{
				{ID: "b", Order: 1},
				{ID: "a", Order: 0},
			}},
		},
	}
}

// withEmptyModule puts an empty module between m1 and m2.
func withEmptyModule() course.Course {
	c := twoByTwo()
	c.Modules[0].Order = 2
	c.Modules = append(c.Modules, course.Module{ID: "empty", Order: 1})
	return c
}

func accessibility(st progress.State) map[string]bool {
	acc := make(map[string]bool)
	for _, m := range st.Course.Modules {
		for _, s := range m.Sections {
			acc[s.ID] = s.Accessible
		}
	}
	return acc
}

// callLog returns the calls made so far and the highest number of overlapping ones.
func (s *fakeStore) callLog() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...), s.maxInFlight
}

func (s *fakeStore) resetCalls() {
	s.mu.Lock()
	s.calls, s.maxInFlight = nil, 0
	s.mu.Unlock()
}
