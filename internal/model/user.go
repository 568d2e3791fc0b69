package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an identity and credential record. The password hash is never
// serialized into JSON responses.
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	PasswordHash      string             `bson:"password_hash" json:"-"`
	IsEmailVerified   bool               `bson:"is_email_verified" json:"isEmailVerified"`
	VerificationToken string             `bson:"verification_token,omitempty" json:"-"`

	// Reset fields are only honored while ResetExpires is in the future.
	ResetToken    string    `bson:"reset_token,omitempty" json:"-"`
	ResetExpires  time.Time `bson:"reset_expires,omitempty" json:"-"`
	ResetVerified bool      `bson:"reset_verified,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
