package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Roles attached to an identity. The role is decided once, when the user
// record is first created, and never re-evaluated afterwards.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	Email     string             `json:"email" bson:"email"`
	Name      string             `json:"name" bson:"name"`
	Password  string             `json:"-" bson:"password"`
	Role      string             `json:"role" bson:"role"`
	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// CreateUserRequest holds the structure for registering a user
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AdminLoginRequest holds the structure for the admin console login
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginResponse returns the signed token for admin routes
type AdminLoginResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
