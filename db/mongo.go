package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yatra/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names match the ones the existing deployment already holds.
const (
	UsersCollection        = "users"
	TemplesCollection      = "temples"
	BookingsCollection     = "darshanbookings"
	CrowdSamplesCollection = "crowddatas"
	AlertsCollection       = "emergencyalerts"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database

	users    *mongoUsers
	temples  *mongoTemples
	bookings *mongoBookings
	crowd    *mongoCrowdSamples
	alerts   *mongoAlerts
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := NewMongoStore(client.Database(database))
	s.client = client
	return s, nil
}

// NewMongoStore wraps an existing database handle.
func NewMongoStore(database *mongo.Database) *MongoStore {
	return &MongoStore{
		db:       database,
		users:    &mongoUsers{coll: database.Collection(UsersCollection)},
		temples:  &mongoTemples{coll: database.Collection(TemplesCollection)},
		bookings: &mongoBookings{coll: database.Collection(BookingsCollection)},
		crowd:    &mongoCrowdSamples{coll: database.Collection(CrowdSamplesCollection)},
		alerts:   &mongoAlerts{coll: database.Collection(AlertsCollection)},
	}
}

func (s *MongoStore) Users() UserRepository               { return s.users }
func (s *MongoStore) Temples() TempleRepository           { return s.temples }
func (s *MongoStore) Bookings() BookingRepository         { return s.bookings }
func (s *MongoStore) CrowdSamples() CrowdSampleRepository { return s.crowd }
func (s *MongoStore) Alerts() AlertRepository             { return s.alerts }

// EnsureIndexes creates the unique indexes backing email and qrCode
// uniqueness, plus the lookup index on booking owners.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users email index: %w", err)
	}
	if _, err := s.bookings.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "qrCode", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("bookings indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	*created = now
	*updated = now
}

func insertErr(what string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert %s: %w", what, ErrDuplicate)
	}
	return fmt.Errorf("insert %s: %w", what, err)
}

func findErr(what string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("find %s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", what, err)
}

// ---------- users ----------

type mongoUsers struct{ coll *mongo.Collection }

func (r *mongoUsers) Create(ctx context.Context, u *models.User) error {
	u.Email = models.NormalizeEmail(u.Email)
	u.ApplyDefaults()
	if err := u.Validate(); err != nil {
		return err
	}
	u.ID = primitive.NewObjectID()
	stamp(&u.CreatedAt, &u.UpdatedAt)
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		return insertErr("user", err)
	}
	return nil
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.coll.FindOne(ctx, bson.M{"email": models.NormalizeEmail(email)}).Decode(&u)
	if err != nil {
		return nil, findErr("user", err)
	}
	return &u, nil
}

// ---------- temples ----------

type mongoTemples struct{ coll *mongo.Collection }

func (r *mongoTemples) Create(ctx context.Context, t *models.Temple) error {
	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return err
	}
	t.ID = primitive.NewObjectID()
	stamp(&t.CreatedAt, &t.UpdatedAt)
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return insertErr("temple", err)
	}
	return nil
}

func (r *mongoTemples) FindAll(ctx context.Context) ([]models.Temple, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find temples: %w", err)
	}
	defer cur.Close(ctx)

	temples := []models.Temple{}
	if err := cur.All(ctx, &temples); err != nil {
		return nil, fmt.Errorf("decode temples: %w", err)
	}
	return temples, nil
}

func (r *mongoTemples) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Temple, error) {
	var t models.Temple
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, findErr("temple", err)
	}
	return &t, nil
}

func (r *mongoTemples) UpdateCrowdLevel(ctx context.Context, id primitive.ObjectID, level models.CrowdLevel) (*models.Temple, error) {
	if !level.Valid() {
		return nil, &models.ValidationError{Field: "crowdLevel", Msg: "must be one of Low, Medium, High, Very High"}
	}
	update := bson.M{"$set": bson.M{
		"currentCrowdLevel": level,
		"updatedAt":         time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t models.Temple
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&t); err != nil {
		return nil, findErr("temple", err)
	}
	return &t, nil
}

func (r *mongoTemples) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count temples: %w", err)
	}
	return n, nil
}

// ---------- bookings ----------

type mongoBookings struct{ coll *mongo.Collection }

func (r *mongoBookings) Create(ctx context.Context, b *models.Booking) error {
	b.ApplyDefaults()
	if err := b.Validate(); err != nil {
		return err
	}
	b.ID = primitive.NewObjectID()
	stamp(&b.CreatedAt, &b.UpdatedAt)
	if _, err := r.coll.InsertOne(ctx, b); err != nil {
		return insertErr("booking", err)
	}
	return nil
}

func (r *mongoBookings) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var b models.Booking
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, findErr("booking", err)
	}
	return &b, nil
}

func (r *mongoBookings) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.BookingWithTemple, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         TemplesCollection,
			"localField":   "temple",
			"foreignField": "_id",
			"as":           "temple",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$temple", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"user":            1,
			"slotTime":        1,
			"status":          1,
			"qrCode":          1,
			"createdAt":       1,
			"updatedAt":       1,
			"temple._id":      1,
			"temple.name":     1,
			"temple.location": 1,
		}}},
		{{Key: "$sort", Value: bson.M{"createdAt": 1}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate bookings: %w", err)
	}
	defer cur.Close(ctx)

	bookings := []models.BookingWithTemple{}
	if err := cur.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	return bookings, nil
}

// ---------- crowd samples ----------

type mongoCrowdSamples struct{ coll *mongo.Collection }

func (r *mongoCrowdSamples) Create(ctx context.Context, c *models.CrowdSample) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.ID = primitive.NewObjectID()
	stamp(&c.CreatedAt, &c.UpdatedAt)
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return insertErr("crowd sample", err)
	}
	return nil
}

// ---------- alerts ----------

type mongoAlerts struct{ coll *mongo.Collection }

func (r *mongoAlerts) Create(ctx context.Context, a *models.Alert) error {
	a.ApplyDefaults()
	if err := a.Validate(); err != nil {
		return err
	}
	a.ID = primitive.NewObjectID()
	stamp(&a.CreatedAt, &a.UpdatedAt)
	if _, err := r.coll.InsertOne(ctx, a); err != nil {
		return insertErr("alert", err)
	}
	return nil
}
