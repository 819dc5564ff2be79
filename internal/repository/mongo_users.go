package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/certhub/admin-gateway/internal/domain"
)

type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository returns a MongoDB-backed implementation.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{collection: db.Collection(UsersCollection)}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return fmt.Errorf("create user %s: %w", user.UID, err)
	}
	return nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, uid string) (*domain.User, error) {
	var user domain.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *mongoUserRepository) SetStatus(ctx context.Context, uid string, status domain.UserStatus, at time.Time) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": at}}
	return r.updateOne(ctx, uid, update)
}

func (r *mongoUserRepository) IncrementCoursesEnrolled(ctx context.Context, uid string, delta int64, at time.Time) error {
	update := bson.M{
		"$inc": bson.M{"totalCoursesEnrolled": delta},
		"$set": bson.M{"updatedAt": at},
	}
	return r.updateOne(ctx, uid, update)
}

func (r *mongoUserRepository) updateOne(ctx context.Context, uid string, update bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no document to update: %s/%s: %w", UsersCollection, uid, ErrNotFound)
	}
	return nil
}

func (r *mongoUserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]domain.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}
