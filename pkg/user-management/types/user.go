package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the account document stored in the users collection.
//
// Password, login-security fields and the current refresh token are never
// serialized into API responses (json:"-"); they are only read through the
// storage layer.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	Email      string             `bson:"email" json:"email"`
	FullName   string             `bson:"fullName" json:"fullName"`
	Password   string             `bson:"password" json:"-"`
	Avatar     string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CoverImage string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`

	// Login security
	LoginAttempts       int64      `bson:"loginAttempts" json:"-"`
	LockUntil           *time.Time `bson:"lockUntil,omitempty" json:"-"`
	CurrentRefreshToken string     `bson:"currentRefreshToken,omitempty" json:"-"`

	WatchHistory []primitive.ObjectID `bson:"watchHistory,omitempty" json:"-"`

	Timestamps Timestamps `bson:"timestamps" json:"timestamps"`
}

type Timestamps struct {
	CreatedAt          int64 `bson:"createdAt" json:"createdAt"`
	UpdatedAt          int64 `bson:"updatedAt" json:"updatedAt"`
	LastLogin          int64 `bson:"lastLogin" json:"lastLogin"`
	LastPasswordChange int64 `bson:"lastPasswordChange" json:"lastPasswordChange"`
}

// IsLocked reports whether the account lockout is active at the given time.
// The lock expires implicitly; there is no unlock mutation.
func (u User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// PublicUser is the outward-facing projection of an account.
type PublicUser struct {
	ID         primitive.ObjectID `json:"id"`
	Username   string             `json:"username"`
	Email      string             `json:"email"`
	FullName   string             `json:"fullName"`
	Avatar     string             `json:"avatar,omitempty"`
	CoverImage string             `json:"coverImage,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	}
}
