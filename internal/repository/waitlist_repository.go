package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Raymond16-cyber/aura-backend/internal/model"
)

// WaitlistRepository defines the methods we need for storing waitlist entries.
type WaitlistRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.WaitlistEntry, error)
	GetByReferralCode(ctx context.Context, code string) (*model.WaitlistEntry, error)
	// NextPosition atomically hands out the next 1-based waitlist position.
	NextPosition(ctx context.Context) (int64, error)
	Create(ctx context.Context, e *model.WaitlistEntry) error
	IncrementReferrals(ctx context.Context, code string) error
	// ListCreatedBefore returns all entries created at or before the cutoff.
	ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.WaitlistEntry, error)
}

type waitlistRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

// NewWaitlistRepository constructs a WaitlistRepository backed by the waitlist
// collection plus a counters document for position assignment.
func NewWaitlistRepository(db *mongo.Database) WaitlistRepository {
	return &waitlistRepository{
		coll:     db.Collection("waitlist"),
		counters: db.Collection("counters"),
	}
}

// EnsureWaitlistIndexes creates the unique email and referral code indexes.
func EnsureWaitlistIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("waitlist").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "referral_code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("referral_code_1"),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("creating waitlist indexes: %w", err)
	}
	return nil
}

func (r *waitlistRepository) GetByEmail(ctx context.Context, email string) (*model.WaitlistEntry, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *waitlistRepository) GetByReferralCode(ctx context.Context, code string) (*model.WaitlistEntry, error) {
	return r.findOne(ctx, bson.M{"referral_code": code})
}

// NextPosition increments the waitlist counter document and returns the new
// value. Concurrent joins each get a distinct position; count-then-insert is
// deliberately not used here.
func (r *waitlistRepository) NextPosition(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "waitlist_position"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("error allocating waitlist position: %w", err)
	}
	return doc.Seq, nil
}

// Create inserts a new waitlist entry. Unique index violations are mapped to
// ErrDuplicateEmail or ErrDuplicateCode depending on the offending index.
func (r *waitlistRepository) Create(ctx context.Context, e *model.WaitlistEntry) error {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = model.StatusWaiting
	}

	res, err := r.coll.InsertOne(ctx, e)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if strings.Contains(err.Error(), "referral_code") {
				return ErrDuplicateCode
			}
			return ErrDuplicateEmail
		}
		return fmt.Errorf("error inserting waitlist entry: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		e.ID = oid
	}
	return nil
}

// IncrementReferrals adds one successful referral to the entry holding the
// given code. This is an independent write, not atomic with the referred
// entry's insert.
func (r *waitlistRepository) IncrementReferrals(ctx context.Context, code string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"referral_code": code},
		bson.M{
			"$inc": bson.M{"referrals_count": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("error incrementing referrals for %s: %w", code, err)
	}
	return nil
}

func (r *waitlistRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.WaitlistEntry, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"created_at": bson.M{"$lte": cutoff}},
		options.Find().SetSort(bson.D{{Key: "waitlist_position", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("error listing waitlist entries: %w", err)
	}
	defer cur.Close(ctx)

	var entries []*model.WaitlistEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("error decoding waitlist entries: %w", err)
	}
	return entries, nil
}

func (r *waitlistRepository) findOne(ctx context.Context, filter bson.M) (*model.WaitlistEntry, error) {
	var e model.WaitlistEntry
	err := r.coll.FindOne(ctx, filter).Decode(&e)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("error selecting waitlist entry: %w", err)
	}
	return &e, nil
}
