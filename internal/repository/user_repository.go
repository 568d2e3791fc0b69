package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Raymond16-cyber/aura-backend/internal/model"
)

// UserRepository defines the methods we need for storing and retrieving users.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*model.User, error)
	GetByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error)
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository constructs a UserRepository backed by the users collection.
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{coll: db.Collection("users")}
}

// EnsureUserIndexes creates the unique email index. Called once at startup.
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating user indexes: %w", err)
	}
	return nil
}

// Create inserts a new user. The unique index on email turns duplicate
// registrations into ErrDuplicateEmail.
func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	res, err := r.coll.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

// GetByEmail fetches a user by email. Returns (nil, nil) if not found.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByVerificationToken fetches the user currently holding this exact
// verification token value. Returns (nil, nil) if no user does.
func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"verification_token": token})
}

// GetByResetToken fetches the user whose stored reset token matches and whose
// stored expiry is still in the future. Returns (nil, nil) otherwise, so the
// caller cannot tell a mismatch from an expiry.
func (r *userRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	return r.findOne(ctx, bson.M{
		"reset_token":   token,
		"reset_expires": bson.M{"$gt": now},
	})
}

// MarkVerified sets the verified flag and clears the verification token.
func (r *userRepository) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"is_email_verified": true, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"verification_token": ""},
	})
	if err != nil {
		return fmt.Errorf("error marking user verified: %w", err)
	}
	return nil
}

// SetResetToken stores a reset token with its expiry, replacing any previous
// one so at most one reset token is active per user.
func (r *userRepository) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{
			"reset_token":    token,
			"reset_expires":  expires,
			"reset_verified": false,
			"updated_at":     time.Now().UTC(),
		},
	})
	if err != nil {
		return fmt.Errorf("error setting reset token: %w", err)
	}
	return nil
}

// UpdatePassword stores a new password hash and clears all reset state, so a
// used reset token cannot be replayed.
func (r *userRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"reset_token": "", "reset_expires": "", "reset_verified": ""},
	})
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	err := r.coll.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("error selecting user: %w", err)
	}
	return &u, nil
}
