package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User covers volunteers, organizations and admins. Role decides which
// surfaces a token may call.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"passwordHash"`
	Role         string             `json:"role" bson:"role"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty"`

	// Volunteer fields
	Skills []string `json:"skills,omitempty" bson:"skills,omitempty"`
	City   string   `json:"city,omitempty" bson:"city,omitempty"`

	// Organization fields
	OrganizationType string `json:"organizationType,omitempty" bson:"organizationType,omitempty"`
	Website          string `json:"website,omitempty" bson:"website,omitempty"`

	IsActive  bool      `json:"isActive" bson:"isActive"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// User Role Constants
const (
	RoleVolunteer    = "volunteer"
	RoleOrganization = "organization"
	RoleAdmin        = "admin"
)
