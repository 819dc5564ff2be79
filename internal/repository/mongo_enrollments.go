package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/certhub/admin-gateway/internal/domain"
)

type mongoEnrollmentRepository struct {
	collection *mongo.Collection
}

// NewMongoEnrollmentRepository returns a MongoDB-backed implementation.
func NewMongoEnrollmentRepository(db *mongo.Database) EnrollmentRepository {
	return &mongoEnrollmentRepository{collection: db.Collection(EnrollmentsCollection)}
}

func (r *mongoEnrollmentRepository) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	if _, err := r.collection.InsertOne(ctx, enrollment); err != nil {
		return fmt.Errorf("create enrollment %s: %w", enrollment.ID, err)
	}
	return nil
}

func (r *mongoEnrollmentRepository) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&enrollment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

func (r *mongoEnrollmentRepository) ListByUser(ctx context.Context, userID string, status domain.EnrollmentStatus) ([]domain.Enrollment, error) {
	filter := bson.M{"userId": userID, "status": status}
	opts := options.Find().SetSort(bson.D{{Key: "enrolledAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	enrollments := make([]domain.Enrollment, 0)
	if err := cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *mongoEnrollmentRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no document to update: %s/%s: %w", EnrollmentsCollection, id, ErrNotFound)
	}
	return nil
}

func (r *mongoEnrollmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
