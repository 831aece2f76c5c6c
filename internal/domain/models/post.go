// internal/domain/models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post statuses
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post is a blog article. Body holds sanitized HTML.
type Post struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Slug          string             `bson:"slug" json:"slug"`
	Duration      string             `bson:"duration,omitempty" json:"duration,omitempty"`
	Category      string             `bson:"category,omitempty" json:"category,omitempty"`
	Tags          []string           `bson:"tags" json:"tags"`
	Body          string             `bson:"body,omitempty" json:"body,omitempty"`
	Author        string             `bson:"author" json:"author"`
	Status        string             `bson:"status" json:"status"`
	FeaturedImage string             `bson:"featured_image,omitempty" json:"featuredImage,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IsValidPostStatus reports whether s is a known post status.
func IsValidPostStatus(s string) bool {
	return s == PostStatusDraft || s == PostStatusPublished
}
