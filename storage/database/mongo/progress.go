package mongorepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
)

// ProgressRepository stores one document per (user_id, course_id).
type ProgressRepository struct {
	coll *mongo.Collection
}

var (
	_ progress.Store        = (*ProgressRepository)(nil)
	_ course.ProgressReader = (*ProgressRepository)(nil)
)

func NewProgressRepository(db *mongo.Database) *ProgressRepository {
	return &ProgressRepository{coll: db.Collection(progressCollection)}
}

func progressFilter(userID, courseID string) bson.D {
	return bson.D{{Key: "user_id", Value: userID}, {Key: "course_id", Value: courseID}}
}

func (repo *ProgressRepository) Get(ctx context.Context, userID, courseID string) (progress.Record, error) {
	var rec progress.Record
	if err := repo.coll.FindOne(ctx, progressFilter(userID, courseID)).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return progress.Record{}, progress.ErrNotFound
		}
		return progress.Record{}, errors.Wrap(err, "finding progress")
	}
	// $setUnion does not keep an order
	rec.CompletedSections = progress.MergeSections(rec.CompletedSections)
	return rec, nil
}

// progressUpdate builds the upsert pipeline of rec: completions are unioned into the stored set,
// the percentage is recomputed from the union against sectionIDs, and the position is only
// set when rec has one.
func progressUpdate(rec progress.Record, sectionIDs []string, now time.Time) mongo.Pipeline {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}

	merge := bson.D{
		{Key: "user_id", Value: rec.UserID},
		{Key: "course_id", Value: rec.CourseID},
		{Key: "record_id", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$record_id", id}}}},
		{Key: "created_at", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$created_at", createdAt}}}},
		{Key: "updated_at", Value: updatedAt},
		{Key: "completed_sections", Value: bson.D{{Key: "$setUnion", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$completed_sections", bson.A{}}}},
			literal(progress.MergeSections(rec.CompletedSections)),
		}}}},
	}
	if rec.CurrentModule != "" && rec.CurrentSection != "" {
		merge = append(merge,
			bson.E{Key: "current_module", Value: literal(rec.CurrentModule)},
			bson.E{Key: "current_section", Value: literal(rec.CurrentSection)},
		)
	}

	var percent interface{} = 0.0
	if sections := progress.MergeSections(sectionIDs); len(sections) > 0 {
		done := bson.D{{Key: "$size", Value: bson.D{{Key: "$setIntersection", Value: bson.A{"$completed_sections", literal(sections)}}}}}
		percent = bson.D{{Key: "$multiply", Value: bson.A{
			100,
			bson.D{{Key: "$divide", Value: bson.A{done, len(sections)}}},
		}}}
	}

	return mongo.Pipeline{
		{{Key: "$set", Value: merge}},
		{{Key: "$set", Value: bson.D{{Key: "overall_progress", Value: percent}}}},
	}
}

// literal keeps ids starting with "$" from being read as field paths.
func literal(v interface{}) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

func (repo *ProgressRepository) Put(ctx context.Context, rec progress.Record, sectionIDs []string) error {
	update := progressUpdate(rec, sectionIDs, time.Now().UTC())
	opts := options.Update().SetUpsert(true)
	filter := progressFilter(rec.UserID, rec.CourseID)

	_, err := repo.coll.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// lost an upsert race: the document exists now
		_, err = repo.coll.UpdateOne(ctx, filter, update, opts)
	}
	return errors.Wrap(err, "upserting progress")
}

// CourseProgress returns the stored overall progress of userID per course id.
func (repo *ProgressRepository) CourseProgress(ctx context.Context, userID string) (map[string]float64, error) {
	opts := options.Find().SetProjection(bson.D{
		{Key: "course_id", Value: 1},
		{Key: "overall_progress", Value: 1},
	})
	cur, err := repo.coll.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "finding course progress")
	}
	var recs []progress.Record
	if err = cur.All(ctx, &recs); err != nil {
		return nil, errors.Wrap(err, "decoding course progress")
	}
	res := make(map[string]float64, len(recs))
	for _, rec := range recs {
		res[rec.CourseID] = rec.OverallProgress
	}
	return res, nil
}
