package models

import "time"

// Role is derived from User.IsAdmin.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered library member. PasswordHash holds a bcrypt hash,
// never the plaintext password.
type User struct {
	ID           string
	Name         Name
	Email        Email
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// NewUser builds a user with a fresh id.
func NewUser(name Name, email Email, passwordHash string, isAdmin bool) *User {
	return &User{
		ID:           NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (u *User) Role() Role {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}
