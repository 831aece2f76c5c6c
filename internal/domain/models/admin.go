// internal/domain/models/admin.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleAdmin is the only role ever issued in a session token.
const RoleAdmin = "admin"

// Admin is the single administrator account.
//
// Email is stored normalized (trimmed, lowercase); EmailCI is the folded
// form used for the unique index and lookups.
type Admin struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	EmailCI      string             `bson:"email_ci" json:"-"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Name         string             `bson:"name" json:"name"`
	Phone        *string            `bson:"phone,omitempty" json:"phone,omitempty"`
	AvatarPath   *string            `bson:"avatar_path,omitempty" json:"avatarPath,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}
