// internal/domain/models/section.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Section is one editable block of page content, addressed by (Page, Section).
//
// Content is deliberately schema-less: each section has its own shape
// (hero banner, FAQ list, team roster) and only the admin client knows it.
// Values read back from the store are plain map[string]any / []any trees.
type Section struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Page      string             `bson:"page" json:"page"`
	Section   string             `bson:"section" json:"section"`
	Content   any                `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}
