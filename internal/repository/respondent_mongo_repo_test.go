package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRespondentRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns object id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoRespondentRepository(mt.Coll, time.Second)

		respondent := sampleRespondent("Alice Johnson", "+10000000001")
		require.NoError(mt, repo.Create(context.Background(), &respondent))
		require.Len(mt, respondent.ID, 24)
		require.False(mt, respondent.CreatedAt.IsZero())
	})

	mt.Run("create maps duplicate key", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: respondents index: respondents_phone_unique",
		}))
		repo := NewMongoRespondentRepository(mt.Coll, time.Second)

		respondent := sampleRespondent("Alice Johnson", "+10000000001")
		require.ErrorIs(mt, repo.Create(context.Background(), &respondent), ErrDuplicateKey)
		require.Empty(mt, respondent.ID)
	})

	mt.Run("find by phone returns not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "registry.respondents", mtest.FirstBatch))
		repo := NewMongoRespondentRepository(mt.Coll, time.Second)

		_, err := repo.FindByPhone(context.Background(), "+10000000001")
		require.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list decodes documents", func(mt *mtest.T) {
		newer := primitive.NewObjectID()
		older := primitive.NewObjectID()
		dob := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
		created := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, "registry.respondents", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: newer},
				{Key: "name", Value: "Bob Stone"},
				{Key: "dob", Value: dob},
				{Key: "phone", Value: "+10000000002"},
				{Key: "height", Value: 180.0},
				{Key: "weight", Value: 80.0},
				{Key: "createdAt", Value: created.Add(time.Minute)},
			},
			bson.D{
				{Key: "_id", Value: older},
				{Key: "name", Value: "Alice Johnson"},
				{Key: "dob", Value: dob},
				{Key: "phone", Value: "+10000000001"},
				{Key: "height", Value: 170.0},
				{Key: "weight", Value: 70.0},
				{Key: "createdAt", Value: created},
			},
		))
		repo := NewMongoRespondentRepository(mt.Coll, time.Second)

		respondents, err := repo.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, respondents, 2)
		require.Equal(mt, newer.Hex(), respondents[0].ID)
		require.Equal(mt, "Alice Johnson", respondents[1].Name)
		require.True(mt, dob.Equal(respondents[1].DateOfBirth))
	})

	mt.Run("delete with malformed id is a no-op", func(mt *mtest.T) {
		repo := NewMongoRespondentRepository(mt.Coll, time.Second)
		require.NoError(mt, repo.Delete(context.Background(), "not-an-object-id"))
	})

	mt.Run("delete missing document succeeds", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})
		repo := NewMongoRespondentRepository(mt.Coll, time.Second)
		require.NoError(mt, repo.Delete(context.Background(), primitive.NewObjectID().Hex()))
	})

	mt.Run("update of unknown id is not found", func(mt *mtest.T) {
		repo := NewMongoRespondentRepository(mt.Coll, time.Second)
		_, err := repo.Update(context.Background(), "bogus", sampleRespondent("Alice Johnson", "+10000000001"))
		require.ErrorIs(mt, err, ErrNotFound)
	})
}
