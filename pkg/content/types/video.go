package types

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	VideoFile   string             `bson:"videoFile" json:"videoFile"`
	Thumbnail   string             `bson:"thumbnail" json:"thumbnail"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt   int64              `bson:"createdAt" json:"createdAt"`
	UpdatedAt   int64              `bson:"updatedAt" json:"updatedAt"`
}

// VideoWithOwner is the listing/detail projection with the owner's public
// fields joined in.
type VideoWithOwner struct {
	Video `bson:",inline"`
	OwnerInfo OwnerInfo `bson:"ownerInfo" json:"ownerInfo"`
}

// OwnerInfo is the public projection of a content owner used in joins.
type OwnerInfo struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
	FullName string             `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// VideoPage is one page of a video listing.
type VideoPage struct {
	Videos     []VideoWithOwner `json:"videos"`
	TotalCount int64            `json:"totalCount"`
	Page       int64            `json:"page"`
	Limit      int64            `json:"limit"`
}
