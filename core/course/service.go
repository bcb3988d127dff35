package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nxtwiseedu/nxtwise-lms/core"
)

var (
	// errors
	ErrNotFound = errors.New("course not found")
)

type (
	// Catalog gives read access to course structures.
	Catalog interface {
		// GetCourse returns the full nested course, or ErrNotFound.
		GetCourse(ctx context.Context, courseID string) (Course, error)
		// ListCourses returns the summary of every course, ordered by id.
		ListCourses(ctx context.Context) ([]Summary, error)
	}

	// Writer stores course structures. Authoring is external to the tracker;
	// this is only used by the admin tooling and tests.
	Writer interface {
		PutCourse(ctx context.Context, c Course) error
	}

	// ProgressReader reads the overall progress a user has stored, keyed by course id.
	// Courses the user never opened are absent.
	ProgressReader interface {
		CourseProgress(ctx context.Context, userID string) (map[string]float64, error)
	}

	// Listing splits the catalogue for one user: a course with stored progress above 0 is enrolled.
	Listing struct {
		Enrolled  []Summary `json:"enrolled"`
		Available []Summary `json:"available"`
	}

	Service struct {
		catalog  Catalog
		progress ProgressReader
	}
)

func NewService(catalog Catalog, progress ProgressReader) *Service {
	return &Service{catalog: catalog, progress: progress}
}

// Get returns the normalized course with the given id.
func (svc *Service) Get(ctx context.Context, courseID string) (Course, error) {
	courseID = core.CleanString(courseID)
	if courseID == "" {
		return Course{}, ErrNotFound
	}
	c, err := svc.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return Course{}, err
	}
	return Normalize(c), nil
}

// GetCourse implements Catalog so the Service can be handed to consumers of a Catalog.
func (svc *Service) GetCourse(ctx context.Context, courseID string) (Course, error) {
	return svc.Get(ctx, courseID)
}

func (svc *Service) ListCourses(ctx context.Context) ([]Summary, error) {
	return svc.catalog.ListCourses(ctx)
}

// ListForUser returns every course with the stored progress of userID, split into enrolled
// and available courses. Without a user, or without a ProgressReader, every course is available.
func (svc *Service) ListForUser(ctx context.Context, userID string) (Listing, error) {
	summaries, err := svc.catalog.ListCourses(ctx)
	if err != nil {
		return Listing{}, errors.Wrap(err, "listing courses")
	}

	var byCourse map[string]float64
	if userID = core.CleanString(userID); userID != "" && svc.progress != nil {
		if byCourse, err = svc.progress.CourseProgress(ctx, userID); err != nil {
			return Listing{}, errors.Wrap(err, "reading course progress")
		}
	}

	res := Listing{Enrolled: []Summary{}, Available: []Summary{}}
	for _, sum := range summaries {
		sum.Progress = byCourse[sum.ID]
		if sum.Progress > 0 {
			res.Enrolled = append(res.Enrolled, sum)
		} else {
			res.Available = append(res.Available, sum)
		}
	}
	return res, nil
}
