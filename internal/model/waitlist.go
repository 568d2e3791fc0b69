package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Waitlist entry statuses.
const (
	StatusWaiting = "waiting"
	StatusInvited = "invited"
	StatusActive  = "active"
)

// WaitlistEntry is a position holder in the waitlist with referral metadata.
// Email is stored normalized (lowercase, trimmed); the referral code and the
// position are immutable once assigned.
type WaitlistEntry struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email            string             `bson:"email" json:"email"`
	Name             string             `bson:"name" json:"name"`
	WaitlistPosition int64              `bson:"waitlist_position" json:"waitlistPosition"`
	ReferralCode     string             `bson:"referral_code" json:"referralCode"`
	ReferralLink     string             `bson:"referral_link,omitempty" json:"referralLink,omitempty"`
	ReferralsCount   int64              `bson:"referrals_count" json:"referralsCount"`

	// ReferredBy holds the referral code of the inviting entry, if any.
	ReferredBy string `bson:"referred_by,omitempty" json:"referredBy,omitempty"`

	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
