package db

import (
	"context"
	"errors"

	"yatra/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type TempleRepository interface {
	Create(ctx context.Context, t *models.Temple) error
	FindAll(ctx context.Context) ([]models.Temple, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Temple, error)
	// UpdateCrowdLevel returns ErrNotFound when no temple has the id.
	UpdateCrowdLevel(ctx context.Context, id primitive.ObjectID, level models.CrowdLevel) (*models.Temple, error)
	Count(ctx context.Context) (int64, error)
}

type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	// FindByUser joins each booking's temple name and location.
	FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.BookingWithTemple, error)
}

type CrowdSampleRepository interface {
	Create(ctx context.Context, s *models.CrowdSample) error
}

type AlertRepository interface {
	Create(ctx context.Context, a *models.Alert) error
}

// Store is the persistence layer. Every call is an independent round trip;
// callers get no atomicity across repositories.
type Store interface {
	Users() UserRepository
	Temples() TempleRepository
	Bookings() BookingRepository
	CrowdSamples() CrowdSampleRepository
	Alerts() AlertRepository

	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ParseID turns a hex id from a request into an ObjectID, reporting a
// validation error for malformed input.
func ParseID(field, hex string) (primitive.ObjectID, error) {
	if hex == "" {
		return primitive.NilObjectID, &models.ValidationError{Field: field, Msg: "is required"}
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, &models.ValidationError{Field: field, Msg: "is not a valid id"}
	}
	return id, nil
}
