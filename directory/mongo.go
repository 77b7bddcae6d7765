package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection is the users collection name.
const DefaultCollection = "users"

type mongoUser struct {
	ID               string    `bson:"_id"`
	FirstName        string    `bson:"firstName"`
	LastName         string    `bson:"lastName"`
	Email            string    `bson:"email,omitempty"`
	Phone            string    `bson:"phone,omitempty"`
	IsVerified       bool      `bson:"isVerified"`
	RegistrationDate time.Time `bson:"registrationDate"`
	LastLoginDate    time.Time `bson:"lastLoginDate,omitempty"`
}

// Mongo is the document-store Directory. Registration dates are
// server-assigned; creation is an upsert keyed on the identifier, which
// makes retried registrations idempotent instead of duplicating users.
type Mongo struct {
	col *mongo.Collection
}

// NewMongo wraps a users collection.
func NewMongo(col *mongo.Collection) *Mongo {
	return &Mongo{col: col}
}

func (d *Mongo) FindByIdentifier(ctx context.Context, identifier string) (*UserRecord, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": identifier},
		bson.M{"phone": identifier},
	}}

	var doc mongoUser
	if err := d.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return doc.record(), nil
}

func (d *Mongo) Create(ctx context.Context, profile Profile) (*UserRecord, error) {
	identifier := profile.identifier()
	if identifier == "" {
		return nil, ErrNotFound
	}

	filter := bson.M{"$or": bson.A{
		bson.M{"email": identifier},
		bson.M{"phone": identifier},
	}}
	id := uuid.NewString()
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        id,
			"firstName":  profile.FirstName,
			"lastName":   profile.LastName,
			"email":      profile.Email,
			"phone":      profile.Phone,
			"isVerified": true,
		},
	}

	res, err := d.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.UpsertedCount == 0 {
		// The filter matched an existing record: retried or duplicate
		// registration. Nothing was modified.
		return nil, ErrDuplicate
	}

	// Registration date is server-assigned, like every other timestamp in
	// the document store.
	stamp := bson.M{"$currentDate": bson.M{"registrationDate": true}}
	if _, err := d.col.UpdateOne(ctx, bson.M{"_id": id}, stamp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return d.FindByIdentifier(ctx, identifier)
}

func (d *Mongo) UpdateLastLogin(ctx context.Context, id string, _ time.Time) error {
	update := bson.M{"$currentDate": bson.M{"lastLoginDate": true}}

	res, err := d.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (u *mongoUser) record() *UserRecord {
	return &UserRecord{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Phone:            u.Phone,
		IsVerified:       u.IsVerified,
		RegistrationDate: u.RegistrationDate,
		LastLoginDate:    u.LastLoginDate,
	}
}
