package mongorepos

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

// CourseRepository stores each course as one nested document.
type CourseRepository struct {
	coll *mongo.Collection
}

var (
	_ course.Catalog = (*CourseRepository)(nil)
	_ course.Writer  = (*CourseRepository)(nil)
)

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{coll: db.Collection(coursesCollection)}
}

func (repo *CourseRepository) GetCourse(ctx context.Context, courseID string) (course.Course, error) {
	var c course.Course
	if err := repo.coll.FindOne(ctx, bson.M{"_id": courseID}).Decode(&c); err != nil {
		if err == mongo.ErrNoDocuments {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return c, nil
}

func (repo *CourseRepository) PutCourse(ctx context.Context, c course.Course) error {
	_, err := repo.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	return errors.Wrap(err, "replacing course")
}

func (repo *CourseRepository) ListCourses(ctx context.Context) ([]course.Summary, error) {
	// the listing only needs the module and section counts
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.D{
			{Key: "modules.sections.videos", Value: 0},
			{Key: "modules.sections.materials", Value: 0},
		})
	cur, err := repo.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding courses")
	}
	var courses []course.Course
	if err = cur.All(ctx, &courses); err != nil {
		return nil, errors.Wrap(err, "decoding courses")
	}
	res := make([]course.Summary, len(courses))
	for i := range courses {
		res[i] = courses[i].Summary()
	}
	return res, nil
}
