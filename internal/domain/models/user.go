package models

import "time"

// Role gates access to API routes.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleFarmer  Role = "farmer"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleFarmer:
		return true
	default:
		return false
	}
}

// User is an operator or farmer account.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         Role      `bson:"role" json:"role"`
	FarmerID     string    `bson:"farmer_id,omitempty" json:"farmer_id,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// Farmer is a producer whose sales and stored produce are tracked.
type Farmer struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	Village   string    `bson:"village,omitempty" json:"village,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
