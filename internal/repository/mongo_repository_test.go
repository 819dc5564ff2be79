package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/certhub/admin-gateway/internal/domain"
	apperrors "github.com/certhub/admin-gateway/pkg/util/errorutil"
)

var at = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func updateMatched(n int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func lastCommand(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	for evt := mt.GetStartedEvent(); evt != nil; evt = mt.GetStartedEvent() {
		if evt.CommandName == name {
			return evt.Command
		}
	}
	mt.Fatalf("no %s command sent", name)
	return nil
}

func TestMongoEnrollmentRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("update sets payment details", func(mt *mtest.T) {
		repo := NewMongoEnrollmentRepository(mt.DB)
		mt.AddMockResponses(updateMatched(1))

		err := repo.Update(context.Background(), "ENR_1_abc", map[string]any{
			"status": domain.EnrollmentStatusFailed,
			"paymentDetails": domain.PaymentDetails{
				PaymentID:     "pay_1",
				PaymentMethod: "bank_transfer",
				AmountPaid:    80,
			},
			"updatedAt": at,
		})
		require.NoError(mt, err)

		cmd := lastCommand(mt, "update")
		assert.Equal(mt, EnrollmentsCollection, cmd.Lookup("update").StringValue())
		assert.Equal(mt, "ENR_1_abc", cmd.Lookup("updates", "0", "q", "_id").StringValue())
		set := cmd.Lookup("updates", "0", "u", "$set").Document()
		assert.Equal(mt, "FAILED", set.Lookup("status").StringValue())
		assert.Equal(mt, "bank_transfer", set.Lookup("paymentDetails", "paymentMethod").StringValue())
		assert.Equal(mt, 80.0, set.Lookup("paymentDetails", "amountPaid").Double())
		assert.True(mt, at.Equal(set.Lookup("updatedAt").Time()))
	})

	mt.Run("update of unknown id wraps not found", func(mt *mtest.T) {
		repo := NewMongoEnrollmentRepository(mt.DB)
		mt.AddMockResponses(updateMatched(0))

		err := repo.Update(context.Background(), "ENR_missing", map[string]any{"status": "FAILED"})
		assert.ErrorIs(mt, err, ErrNotFound)
		assert.Contains(mt, err.Error(), "no document to update: enrollments/ENR_missing")
	})

	mt.Run("get missing returns not found", func(mt *mtest.T) {
		repo := NewMongoEnrollmentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "certification.enrollments", mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), "ENR_missing")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list by user filters and sorts", func(mt *mtest.T) {
		repo := NewMongoEnrollmentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "certification.enrollments", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "ENR_2"}, {Key: "userId", Value: "u1"}, {Key: "status", Value: "SUCCESS"}},
			bson.D{{Key: "_id", Value: "ENR_1"}, {Key: "userId", Value: "u1"}, {Key: "status", Value: "SUCCESS"}},
		))

		list, err := repo.ListByUser(context.Background(), "u1", domain.EnrollmentStatusSuccess)
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		assert.Equal(mt, "ENR_2", list[0].ID)

		cmd := lastCommand(mt, "find")
		assert.Equal(mt, "u1", cmd.Lookup("filter", "userId").StringValue())
		assert.Equal(mt, "SUCCESS", cmd.Lookup("filter", "status").StringValue())
		assert.EqualValues(mt, -1, cmd.Lookup("sort", "enrolledAt").AsInt64())
	})

	mt.Run("delete of unknown id returns not found", func(mt *mtest.T) {
		repo := NewMongoEnrollmentRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Delete(context.Background(), "ENR_missing")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("increment sends delta", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(updateMatched(1))

		require.NoError(mt, repo.IncrementCoursesEnrolled(context.Background(), "u1", -1, at))

		cmd := lastCommand(mt, "update")
		assert.Equal(mt, UsersCollection, cmd.Lookup("update").StringValue())
		assert.EqualValues(mt, -1, cmd.Lookup("updates", "0", "u", "$inc", "totalCoursesEnrolled").AsInt64())
		assert.True(mt, at.Equal(cmd.Lookup("updates", "0", "u", "$set", "updatedAt").Time()))
	})

	mt.Run("set status on missing user", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(updateMatched(0))

		err := repo.SetStatus(context.Background(), "ghost", domain.UserStatusInactive, at)
		assert.ErrorIs(mt, err, ErrNotFound)
		assert.Contains(mt, err.Error(), "users/ghost")
	})

	mt.Run("list pages newest first", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "certification.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "u3"}, {Key: "email", Value: "c@example.com"}, {Key: "isAdmin", Value: true}},
		))

		users, err := repo.List(context.Background(), 2, 5)
		require.NoError(mt, err)
		require.Len(mt, users, 1)
		assert.Equal(mt, "u3", users[0].UID)
		assert.True(mt, users[0].IsAdmin)

		cmd := lastCommand(mt, "find")
		assert.EqualValues(mt, 5, cmd.Lookup("skip").AsInt64())
		assert.EqualValues(mt, 2, cmd.Lookup("limit").AsInt64())
		assert.EqualValues(mt, -1, cmd.Lookup("sort", "createdAt").AsInt64())
	})
}

func TestMongoCourseRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("increment sends delta", func(mt *mtest.T) {
		repo := NewMongoCourseRepository(mt.DB)
		mt.AddMockResponses(updateMatched(1))

		require.NoError(mt, repo.IncrementEnrollments(context.Background(), "course-1", 1, at))

		cmd := lastCommand(mt, "update")
		assert.Equal(mt, "course-1", cmd.Lookup("updates", "0", "q", "_id").StringValue())
		assert.EqualValues(mt, 1, cmd.Lookup("updates", "0", "u", "$inc", "totalEnrollments").AsInt64())
	})

	mt.Run("increment on missing course", func(mt *mtest.T) {
		repo := NewMongoCourseRepository(mt.DB)
		mt.AddMockResponses(updateMatched(0))

		err := repo.IncrementEnrollments(context.Background(), "ghost", 1, at)
		assert.ErrorIs(mt, err, ErrNotFound)
		assert.Contains(mt, err.Error(), "no document to update: courses/ghost")
	})
}

func TestMongoTxRunner(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("callback errors pass through", func(mt *mtest.T) {
		runner := NewMongoTxRunner(mt.Client, true)
		repo := NewMongoEnrollmentRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "certification.enrollments", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
			if _, err := repo.GetByID(ctx, "ENR_missing"); errors.Is(err, ErrNotFound) {
				return apperrors.NewNotFound("Enrollment", nil)
			}
			return nil
		})

		de := apperrors.ToDomainError(err)
		require.NotNil(mt, de)
		assert.Equal(mt, apperrors.CodeNotFound, de.Code)

		cmd := lastCommand(mt, "find")
		assert.True(mt, cmd.Lookup("startTransaction").Boolean())
	})

	mt.Run("disabled runs callback directly", func(mt *mtest.T) {
		runner := NewMongoTxRunner(mt.Client, false)
		type ctxKey struct{}
		ctx := context.WithValue(context.Background(), ctxKey{}, "marker")

		var seen any
		err := runner.RunInTx(ctx, func(ctx context.Context) error {
			seen = ctx.Value(ctxKey{})
			return nil
		})
		require.NoError(mt, err)
		assert.Equal(mt, "marker", seen)
		assert.Empty(mt, mt.GetAllStartedEvents())
	})
}
