package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/todo-api/internal/common"
	"github.com/ayush/todo-api/internal/models"
)

// accountDoc is the shape of a document in the users collection.
type accountDoc struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty"`
	FirstName                string             `bson:"firstName"`
	LastName                 string             `bson:"lastName"`
	Username                 string             `bson:"username"`
	Email                    string             `bson:"email"`
	Password                 string             `bson:"password"`
	Verified                 bool               `bson:"verified"`
	VerificationToken        *string            `bson:"verificationToken,omitempty"`
	VerificationTokenExpiry  *time.Time         `bson:"verificationTokenExpiry,omitempty"`
	ResetPasswordToken       *string            `bson:"resetPasswordToken,omitempty"`
	ResetPasswordTokenExpiry *time.Time         `bson:"resetPasswordTokenExpiry,omitempty"`
	CreatedAt                time.Time          `bson:"createdAt"`
	UpdatedAt                *time.Time         `bson:"updatedAt,omitempty"`
}

func (d *accountDoc) toModel() *models.Account {
	return &models.Account{
		ID:                       d.ID.Hex(),
		FirstName:                d.FirstName,
		LastName:                 d.LastName,
		Username:                 d.Username,
		Email:                    d.Email,
		PasswordHash:             d.Password,
		Verified:                 d.Verified,
		VerificationToken:        d.VerificationToken,
		VerificationTokenExpiry:  d.VerificationTokenExpiry,
		ResetPasswordToken:       d.ResetPasswordToken,
		ResetPasswordTokenExpiry: d.ResetPasswordTokenExpiry,
		CreatedAt:                d.CreatedAt,
		UpdatedAt:                d.UpdatedAt,
	}
}

// MongoAccountStore keeps accounts in the users collection.
type MongoAccountStore struct {
	col *mongo.Collection
	now func() time.Time
}

func NewMongoAccountStore(db *mongo.Database) *MongoAccountStore {
	return &MongoAccountStore{col: db.Collection("users"), now: time.Now}
}

// EnsureIndexes creates the unique indexes that back username, email and
// verification token uniqueness.
func (s *MongoAccountStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "verificationToken", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

func (s *MongoAccountStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}})
}

func (s *MongoAccountStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoAccountStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoAccountStore) FindByVerificationToken(ctx context.Context, token string, now time.Time) (*models.Account, error) {
	return s.findOne(ctx, bson.M{
		"verificationToken":       token,
		"verificationTokenExpiry": bson.M{"$gt": now},
	})
}

func (s *MongoAccountStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoAccountStore) Create(ctx context.Context, acc models.NewAccount) (*models.Account, error) {
	token := acc.VerificationToken
	expiry := acc.VerificationTokenExpiry
	doc := &accountDoc{
		FirstName:               acc.FirstName,
		LastName:                acc.LastName,
		Username:                acc.Username,
		Email:                   acc.Email,
		Password:                acc.PasswordHash,
		VerificationToken:       &token,
		VerificationTokenExpiry: &expiry,
		CreatedAt:               s.now().UTC(),
	}

	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("mongo create account: %w", common.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("mongo create account: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)

	return doc.toModel(), nil
}

// Save writes the mutable fields of acc. Nil token fields are removed from
// the document so the sparse index does not see them.
func (s *MongoAccountStore) Save(ctx context.Context, acc *models.Account) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(acc.ID)
	if err != nil {
		return nil, fmt.Errorf("mongo save account: invalid id: %w", err)
	}

	set := bson.M{
		"firstName": acc.FirstName,
		"lastName":  acc.LastName,
		"username":  acc.Username,
		"email":     acc.Email,
		"password":  acc.PasswordHash,
		"verified":  acc.Verified,
	}
	unset := bson.M{}
	optional := []struct {
		key   string
		value any
		isNil bool
	}{
		{"verificationToken", acc.VerificationToken, acc.VerificationToken == nil},
		{"verificationTokenExpiry", acc.VerificationTokenExpiry, acc.VerificationTokenExpiry == nil},
		{"resetPasswordToken", acc.ResetPasswordToken, acc.ResetPasswordToken == nil},
		{"resetPasswordTokenExpiry", acc.ResetPasswordTokenExpiry, acc.ResetPasswordTokenExpiry == nil},
		{"updatedAt", acc.UpdatedAt, acc.UpdatedAt == nil},
	}
	for _, f := range optional {
		if f.isNil {
			unset[f.key] = ""
		} else {
			set[f.key] = f.value
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc accountDoc
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("mongo save account: %w", common.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("mongo save account: %w", err)
	}

	return doc.toModel(), nil
}

func (s *MongoAccountStore) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var doc accountDoc
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("mongo find account: %w", err)
	}
	return doc.toModel(), nil
}
