package domain

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// UserProfile is the side document kept per authenticated identity. The
// identity provider owns email/password; this document owns the role claim
// and the contact fields used at checkout.
type UserProfile struct {
	UID         string    `bson:"_id" json:"uid"`
	Email       string    `bson:"email" json:"email"`
	DisplayName string    `bson:"display_name" json:"displayName"`
	Role        Role      `bson:"role" json:"role"`
	Phone       string    `bson:"phone" json:"phone"`
	Address     string    `bson:"address" json:"address"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}
