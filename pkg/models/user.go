package models

// DefaultRole is assigned to every registered user.
const DefaultRole = "Administrator"

// User is an operator account. PasswordHash is never serialized.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
