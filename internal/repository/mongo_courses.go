package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/certhub/admin-gateway/internal/domain"
)

type mongoCourseRepository struct {
	collection *mongo.Collection
}

// NewMongoCourseRepository returns a MongoDB-backed implementation.
func NewMongoCourseRepository(db *mongo.Database) CourseRepository {
	return &mongoCourseRepository{collection: db.Collection(CoursesCollection)}
}

func (r *mongoCourseRepository) IncrementEnrollments(ctx context.Context, id string, delta int64, at time.Time) error {
	update := bson.M{
		"$inc": bson.M{"totalEnrollments": delta},
		"$set": bson.M{"updatedAt": at},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no document to update: %s/%s: %w", CoursesCollection, id, ErrNotFound)
	}
	return nil
}

func (r *mongoCourseRepository) List(ctx context.Context) ([]domain.Course, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	courses := make([]domain.Course, 0)
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}
