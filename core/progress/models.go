package progress

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

var (
	// errors
	ErrNotFound = errors.New("progress record not found")
)

// Record is the persisted progress of one user in one course.
type Record struct {
	ID                string    `json:"id" bson:"record_id" db:"id"`
	UserID            string    `json:"userId" bson:"user_id" db:"user_id"`
	CourseID          string    `json:"courseId" bson:"course_id" db:"course_id"`
	OverallProgress   float64   `json:"overallProgress" bson:"overall_progress" db:"overall_progress"`
	CompletedSections []string  `json:"completedSections" bson:"completed_sections" db:"completed_sections"`
	CurrentModule     string    `json:"currentModule" bson:"current_module" db:"current_module"`
	CurrentSection    string    `json:"currentSection" bson:"current_section" db:"current_section"`
	CreatedAt         time.Time `json:"createdAt" bson:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updated_at" db:"updated_at"`
}

// Store persists progress records.
type Store interface {
	// Get returns the record of userID in courseID, or ErrNotFound.
	Get(ctx context.Context, userID, courseID string) (Record, error)
	// Put upserts rec. CompletedSections is merged (set union) into any existing record;
	// empty CurrentModule/CurrentSection leave the stored position untouched.
	// OverallProgress is not taken from rec: it is recomputed from the merged completions
	// against sectionIDs, the ids of every section of the course, in the same atomic step.
	Put(ctx context.Context, rec Record, sectionIDs []string) error
}

// State is a snapshot of the derived view-state of a user viewing a course.
type State struct {
	CourseID          string        `json:"courseId"`
	UserID            string        `json:"userId,omitempty"`
	NotFound          bool          `json:"notFound"`
	Course            course.Course `json:"course"`
	CurrentModule     string        `json:"currentModule"`
	CurrentSection    string        `json:"currentSection"`
	OverallProgress   float64       `json:"overallProgress"`
	CompletedSections []string      `json:"completedSections"`
}

// CurrentSectionData returns the section at the current position.
func (s State) CurrentSectionData() (course.Section, bool) {
	mi, si, ok := s.Course.FindSection(s.CurrentModule, s.CurrentSection)
	if !ok {
		return course.Section{}, false
	}
	return s.Course.Modules[mi].Sections[si], true
}

// Progress returns 100 × |completed ∩ sectionIDs| / |sectionIDs|, or 0 when there are no sections.
func Progress(sectionIDs []string, completed map[string]bool) float64 {
	if len(sectionIDs) == 0 {
		return 0
	}
	var n int
	for _, id := range sectionIDs {
		if completed[id] {
			n++
		}
	}
	return 100 * float64(n) / float64(len(sectionIDs))
}

// ProgressOf is Progress over id lists; duplicates in either list are ignored.
func ProgressOf(sectionIDs, completed []string) float64 {
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}
	return Progress(MergeSections(sectionIDs), done)
}

// MergeSections returns the sorted union of the given section id lists.
func MergeSections(lists ...[]string) []string {
	set := make(map[string]bool)
	for _, l := range lists {
		for _, id := range l {
			if id != "" {
				set[id] = true
			}
		}
	}
	return setToSlice(set)
}

func setToSlice(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SectionDuration is course.SectionDuration, exposed for consumers of the tracker.
func SectionDuration(s course.Section) int { return course.SectionDuration(s) }

// PrimaryVideoID is course.PrimaryVideoID, exposed for consumers of the tracker.
func PrimaryVideoID(s course.Section) (string, bool) { return course.PrimaryVideoID(s) }
