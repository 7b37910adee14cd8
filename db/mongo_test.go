package db

import (
	"context"
	"testing"
	"time"

	"yatra/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoUsers(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &models.User{Name: "Alice", Email: " A@x.com", Password: "$2a$10$hash"}
		require.NoError(mt, s.Users().Create(context.Background(), u))
		assert.False(mt, u.ID.IsZero())
		assert.Equal(mt, "A@x.com", u.Email)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: pilgrimage.users index: email_1",
		}))

		err := s.Users().Create(context.Background(), &models.User{Name: "Alice", Email: "a@x.com", Password: "h"})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("invalid record never reaches the server", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		err := s.Users().Create(context.Background(), &models.User{Email: "a@x.com", Password: "h"})
		assert.ErrorIs(mt, err, models.ErrValidation)
	})

	mt.Run("find by email", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pilgrimage.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Alice"},
			{Key: "email", Value: "a@x.com"},
			{Key: "password", Value: "$2a$10$hash"},
			{Key: "role", Value: "pilgrim"},
		}))

		u, err := s.Users().FindByEmail(context.Background(), "a@x.com")
		require.NoError(mt, err)
		assert.Equal(mt, id, u.ID)
		assert.Equal(mt, "$2a$10$hash", u.Password)
		assert.Equal(mt, models.RolePilgrim, u.Role)
	})

	mt.Run("find by email missing", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pilgrimage.users", mtest.FirstBatch))

		_, err := s.Users().FindByEmail(context.Background(), "nobody@x.com")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoTemples(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find all", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pilgrimage.temples", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "Somnath"}, {Key: "currentCrowdLevel", Value: "Low"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "name", Value: "Dwarka"}, {Key: "currentCrowdLevel", Value: "High"}},
		))

		temples, err := s.Temples().FindAll(context.Background())
		require.NoError(mt, err)
		require.Len(mt, temples, 2)
		assert.Equal(mt, models.CrowdHigh, temples[1].CurrentCrowdLevel)
	})

	mt.Run("update crowd level", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Somnath"},
			{Key: "currentCrowdLevel", Value: "Very High"},
			{Key: "updatedAt", Value: time.Now()},
		}}))

		temple, err := s.Temples().UpdateCrowdLevel(context.Background(), id, models.CrowdVeryHigh)
		require.NoError(mt, err)
		assert.Equal(mt, models.CrowdVeryHigh, temple.CurrentCrowdLevel)
	})

	mt.Run("update crowd level rejects unknown level", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		_, err := s.Temples().UpdateCrowdLevel(context.Background(), primitive.NewObjectID(), "Crushing")
		assert.ErrorIs(mt, err, models.ErrValidation)
	})
}

func TestMongoBookings(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate qr code", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: pilgrimage.darshanbookings index: qrCode_1",
		}))

		b := models.NewBooking(primitive.NewObjectID(), primitive.NewObjectID(), time.Now(), time.Now())
		assert.ErrorIs(mt, s.Bookings().Create(context.Background(), b), ErrDuplicate)
	})

	mt.Run("find by user decodes joined temple", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		user := primitive.NewObjectID()
		templeID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "pilgrimage.darshanbookings", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "user", Value: user},
				{Key: "status", Value: "Booked"},
				{Key: "qrCode", Value: "QR-1-" + user.Hex()},
				{Key: "temple", Value: bson.D{
					{Key: "_id", Value: templeID},
					{Key: "name", Value: "Tirumala"},
					{Key: "location", Value: "Tirupati"},
				}},
			},
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "user", Value: user},
				{Key: "status", Value: "Booked"},
				{Key: "qrCode", Value: "QR-2-" + user.Hex()},
			},
		))

		list, err := s.Bookings().FindByUser(context.Background(), user)
		require.NoError(mt, err)
		require.Len(mt, list, 2)
		require.NotNil(mt, list[0].Temple)
		assert.Equal(mt, templeID, list[0].Temple.ID)
		assert.Equal(mt, "Tirumala", list[0].Temple.Name)
		assert.Nil(mt, list[1].Temple)
	})
}
