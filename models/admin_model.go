package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleLeader    Role = "leader"
	RoleAssistant Role = "assistant"
)

// Admin is an operator of the canteen committee. PINs are stored bcrypt-hashed;
// the plain PIN only travels in the login request.
type Admin struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty"`
	PinHash  string             `bson:"pinHash" json:"-"`
	Role     Role               `bson:"role" json:"role"`
	Language string             `bson:"language,omitempty" json:"language,omitempty"`
}
