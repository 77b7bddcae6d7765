package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultCollection is the collection name used for outstanding
// challenges when the caller does not pick one.
const DefaultCollection = "otp_challenges"

type mongoChallenge struct {
	ID        string    `bson:"_id"`
	Code      string    `bson:"code"`
	Email     string    `bson:"email,omitempty"`
	Phone     string    `bson:"phone,omitempty"`
	Purpose   string    `bson:"purpose"`
	ExpiresAt int64     `bson:"expiresAt"`
	Attempts  int       `bson:"attempts"`
	Consumed  bool      `bson:"consumed"`
	CreatedAt time.Time `bson:"createdAt"`
}

// Mongo is the durable challenge backend. Creation timestamps are
// assigned by the server ($currentDate), so newest-wins ordering never
// trusts a client clock. Attempt increments go through a single
// FindOneAndUpdate and return the server's post-increment count.
type Mongo struct {
	col *mongo.Collection
}

// NewMongo wraps a challenge collection. Callers typically pass
// client.Database(db).Collection(store.DefaultCollection).
func NewMongo(col *mongo.Collection) *Mongo {
	return &Mongo{col: col}
}

func (s *Mongo) Put(ctx context.Context, ch *Challenge) error {
	update := bson.M{
		"$setOnInsert": bson.M{
			"code":      ch.Code,
			"email":     ch.Email,
			"phone":     ch.Phone,
			"purpose":   ch.Purpose,
			"expiresAt": ch.ExpiresAt,
			"attempts":  ch.Attempts,
			"consumed":  false,
		},
		"$currentDate": bson.M{"createdAt": true},
	}

	_, err := s.col.UpdateOne(ctx, bson.M{"_id": ch.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Mongo) GetActive(ctx context.Context, email, phone, purpose string) (*Challenge, error) {
	filter := bson.M{
		"purpose":  purpose,
		"consumed": false,
	}
	if email != "" {
		filter["email"] = email
	} else {
		filter["phone"] = phone
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	var doc mongoChallenge
	if err := s.col.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return doc.challenge(), nil
}

func (s *Mongo) IncrementAttempts(ctx context.Context, id string) (int, error) {
	filter := bson.M{"_id": id, "consumed": false}
	update := bson.M{"$inc": bson.M{"attempts": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoChallenge
	if err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return doc.Attempts, nil
}

func (s *Mongo) MarkConsumed(ctx context.Context, id string) error {
	filter := bson.M{"_id": id, "consumed": false}
	update := bson.M{
		"$set":         bson.M{"consumed": true},
		"$currentDate": bson.M{"consumedAt": true},
	}

	// A zero match count means the challenge is already consumed or never
	// existed; both are terminal, so there is nothing to report.
	if _, err := s.col.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.col.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (d *mongoChallenge) challenge() *Challenge {
	return &Challenge{
		ID:        d.ID,
		Code:      d.Code,
		Email:     d.Email,
		Phone:     d.Phone,
		Purpose:   d.Purpose,
		ExpiresAt: d.ExpiresAt,
		Attempts:  d.Attempts,
		Consumed:  d.Consumed,
		CreatedAt: d.CreatedAt.UnixMilli(),
	}
}
