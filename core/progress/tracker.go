package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

var NowFunc = time.Now // mockable

// Tracker owns the view-state of one user viewing one course and mediates every
// read and write against the progress Store.
//
// Mutations are applied locally first and returned immediately; persistence runs
// in the background through a single-writer queue and never rolls local state back.
// A Tracker is safe for concurrent use.
type Tracker struct {
	catalog course.Catalog
	store   Store
	logger  core.Logger

	mu        sync.Mutex
	loaded    bool
	notFound  bool
	courseID  string
	userID    string
	course    course.Course // normalized
	seq       []course.Position
	completed map[string]bool
	currMod   string
	currSec   string
	progress  float64

	writes *writer
}

func NewTracker(catalog course.Catalog, store Store, logger core.Logger) *Tracker {
	return &Tracker{
		catalog:   catalog,
		store:     store,
		logger:    logger,
		completed: make(map[string]bool),
		writes:    newWriter(logger),
	}
}

// Hydrate loads the course structure and the user's progress record and derives the view-state.
// An empty userID runs the tracker in local-only mode: nothing is read from or written to the Store.
// An unknown course yields a State with NotFound set, not an error; the only error is an empty courseID.
func (t *Tracker) Hydrate(ctx context.Context, courseID, userID string) (State, error) {
	courseID = core.CleanString(courseID)
	userID = core.CleanString(userID)
	if err := core.CheckArguments(vala.StringNotEmpty(courseID, "courseID")); err != nil {
		return State{}, err
	}

	// a failed course read cancels the record read
	var (
		crs    course.Course
		rec    Record
		recErr = ErrNotFound
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		crs, err = t.catalog.GetCourse(gctx, courseID)
		return err
	})
	if userID != "" {
		g.Go(func() error {
			rec, recErr = t.store.Get(gctx, userID, courseID)
			return nil
		})
	}
	courseErr := g.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()

	rehydrate := t.loaded
	if rehydrate && (t.courseID != courseID || t.userID != userID) {
		return State{}, core.NewArgumentError(fmt.Sprintf("tracker already bound to course %q", t.courseID))
	}
	t.courseID = courseID
	t.userID = userID
	t.loaded = true

	if courseErr != nil {
		if errors.Cause(courseErr) == course.ErrNotFound {
			t.logger.Info(fmt.Sprintf("progress: course %q not found", courseID))
		} else {
			t.logger.Error(fmt.Sprintf("progress: loading course %q: %v", courseID, courseErr), courseErr, core.Person{ID: userID})
		}
		t.notFound = true
		return t.snapshot(), nil
	}
	t.notFound = false
	t.course = course.Normalize(crs)
	t.reindex()

	// the record is created lazily on first view; a failed read must not overwrite anything
	create := false
	switch {
	case recErr == nil:
	case errors.Cause(recErr) == ErrNotFound:
		rec = Record{}
		create = userID != ""
	default:
		t.logger.Error(fmt.Sprintf("progress: loading record: %v", recErr), recErr, core.Person{ID: userID})
		rec = Record{}
	}

	// local optimistic completions survive a reload
	if !rehydrate {
		t.completed = make(map[string]bool, len(rec.CompletedSections))
	}
	for _, id := range rec.CompletedSections {
		t.completed[id] = true
	}
	t.applyCompleted()

	t.currMod, t.currSec = rec.CurrentModule, rec.CurrentSection
	stale := false
	if _, ok := t.positionOf(t.currMod, t.currSec); !ok {
		stale = recErr == nil
		t.currMod, t.currSec = "", ""
		if len(t.seq) > 0 {
			t.currMod, t.currSec = t.seq[0].ModuleID, t.seq[0].SectionID
		}
	}
	if mi := t.course.ModuleIndex(t.currMod); mi >= 0 {
		t.course.Modules[mi].Expanded = true
	}
	t.recompute()

	if create || stale {
		t.persist("hydrate")
	}
	return t.snapshot(), nil
}

// State returns a snapshot of the current view-state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

// ToggleModuleExpanded flips the expanded flag of one module. Nothing is persisted.
func (t *Tracker) ToggleModuleExpanded(moduleID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready() {
		return false
	}
	mi := t.course.ModuleIndex(moduleID)
	if mi < 0 {
		return false
	}
	t.course.Modules[mi].Expanded = !t.course.Modules[mi].Expanded
	return true
}

// IsSectionAccessible reports whether the section at (moduleIndex, sectionIndex) of the
// normalized course may be navigated into: the first section overall always is, any
// other one iff the section right before it in the flattened sequence is completed.
func (t *Tracker) IsSectionAccessible(moduleIndex, sectionIndex int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready() || moduleIndex < 0 || moduleIndex >= len(t.course.Modules) {
		return false
	}
	secs := t.course.Modules[moduleIndex].Sections
	if sectionIndex < 0 || sectionIndex >= len(secs) {
		return false
	}
	pos, ok := t.positionOf(t.course.Modules[moduleIndex].ID, secs[sectionIndex].ID)
	return ok && t.accessibleAt(pos)
}

// ChangeSection moves the current position to an accessible section and expands its module.
// Unknown or locked sections are rejected without any state change or write.
func (t *Tracker) ChangeSection(moduleID, sectionID string) (*Write, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.changeSection(moduleID, sectionID)
}

// MarkComplete marks a section completed and recomputes the overall progress, then merges
// the completion into the remote record. Completing an already completed section is a no-op.
func (t *Tracker) MarkComplete(moduleID, sectionID string) (*Write, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.ready() {
		return nil, false
	}
	mi, si, ok := t.course.FindSection(moduleID, sectionID)
	if !ok {
		t.logger.Info(fmt.Sprintf("progress: mark complete: section %q of module %q not found", sectionID, moduleID))
		return nil, false
	}
	if t.completed[sectionID] {
		return nil, false
	}

	t.completed[sectionID] = true
	t.course.Modules[mi].Sections[si].Completed = true
	t.recompute()
	return t.persist("mark complete"), true
}

// GoToNext advances to the next section of the flattened sequence.
// Only permitted when the current section is completed; a no-op at the last section.
func (t *Tracker) GoToNext() (*Write, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.positionOf(t.currMod, t.currSec)
	if !t.ready() || !ok {
		return nil, false
	}
	if !t.completed[t.currSec] || pos+1 >= len(t.seq) {
		return nil, false
	}
	next := t.seq[pos+1]
	return t.changeSection(next.ModuleID, next.SectionID)
}

// GoToPrevious moves back to the previous section of the flattened sequence.
// A no-op at the first section.
func (t *Tracker) GoToPrevious() (*Write, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos, ok := t.positionOf(t.currMod, t.currSec)
	if !t.ready() || !ok || pos == 0 {
		return nil, false
	}
	prev := t.seq[pos-1]
	return t.changeSection(prev.ModuleID, prev.SectionID)
}

// Drain waits until every write issued so far has completed.
func (t *Tracker) Drain(ctx context.Context) error {
	return t.writes.drain(ctx)
}

// helpers; all of them expect t.mu to be held

func (t *Tracker) ready() bool {
	return t.loaded && !t.notFound
}

func (t *Tracker) changeSection(moduleID, sectionID string) (*Write, bool) {
	if !t.ready() {
		return nil, false
	}
	pos, ok := t.positionOf(moduleID, sectionID)
	if !ok {
		t.logger.Info(fmt.Sprintf("progress: change section: section %q of module %q not found", sectionID, moduleID))
		return nil, false
	}
	if !t.accessibleAt(pos) {
		t.logger.Info(fmt.Sprintf("progress: change section: section %q of module %q is locked", sectionID, moduleID))
		return nil, false
	}

	t.currMod, t.currSec = moduleID, sectionID
	t.course.Modules[t.seq[pos].ModuleIndex].Expanded = true
	return t.persist("change section"), true
}

func (t *Tracker) reindex() {
	t.seq = course.Flatten(&t.course)
}

// positionOf returns the position of (moduleID, sectionID) in the flattened sequence.
func (t *Tracker) positionOf(moduleID, sectionID string) (int, bool) {
	pos := course.IndexOf(t.seq, moduleID, sectionID)
	return pos, pos >= 0
}

func (t *Tracker) accessibleAt(pos int) bool {
	if pos <= 0 {
		return pos == 0
	}
	return t.completed[t.seq[pos-1].SectionID]
}

func (t *Tracker) applyCompleted() {
	for mi := range t.course.Modules {
		secs := t.course.Modules[mi].Sections
		for si := range secs {
			secs[si].Completed = t.completed[secs[si].ID]
		}
	}
}

func (t *Tracker) recompute() {
	t.progress = Progress(t.course.SectionIDs(), t.completed)
}

func (t *Tracker) snapshot() State {
	st := State{
		CourseID: t.courseID,
		UserID:   t.userID,
		NotFound: t.notFound,
	}
	if !t.ready() {
		st.Course.Modules = []course.Module{}
		st.CompletedSections = []string{}
		return st
	}
	st.Course = t.course.Copy()
	for pos, p := range t.seq {
		st.Course.Modules[p.ModuleIndex].Sections[p.SectionIndex].Accessible = t.accessibleAt(pos)
	}
	st.CurrentModule = t.currMod
	st.CurrentSection = t.currSec
	st.OverallProgress = t.progress
	st.CompletedSections = setToSlice(t.completed)
	return st
}

// persist enqueues a read-merge-write of the local progress into the Store.
// Returns nil in local-only mode.
func (t *Tracker) persist(name string) *Write {
	if t.userID == "" {
		return nil
	}
	userID, courseID := t.userID, t.courseID
	sectionIDs := t.course.SectionIDs()
	fields := map[string]interface{}{"course_id": courseID, "user_id": userID}
	return t.writes.enqueue(name, []interface{}{fields, core.Person{ID: userID}}, func(ctx context.Context) error {
		remote, err := t.store.Get(ctx, userID, courseID)
		if err != nil {
			if errors.Cause(err) != ErrNotFound {
				return errors.Wrap(err, "reading progress")
			}
			remote = Record{}
		}

		t.mu.Lock()
		// reconcile: completions made elsewhere become local too
		for _, id := range remote.CompletedSections {
			t.completed[id] = true
		}
		t.applyCompleted()
		t.recompute()
		now := NowFunc().UTC()
		rec := Record{
			ID:                remote.ID,
			UserID:            userID,
			CourseID:          courseID,
			OverallProgress:   t.progress,
			CompletedSections: setToSlice(t.completed),
			CurrentModule:     t.currMod,
			CurrentSection:    t.currSec,
			CreatedAt:         remote.CreatedAt,
			UpdatedAt:         now,
		}
		t.mu.Unlock()

		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		return errors.Wrap(t.store.Put(ctx, rec, sectionIDs), "writing progress")
	})
}
