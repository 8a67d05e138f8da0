package models

import "github.com/google/uuid"

// User is the authenticated principal as seen by handlers.
type User struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	IsAdmin  bool      `json:"is_admin"`
	IsActive bool      `json:"-"`
}

// UserAuth is the credential row used by the auth service. Password holds the
// bcrypt hash and is empty for provider-only accounts.
type UserAuth struct {
	ID       uuid.UUID
	Username string
	Email    string
	Password string
	IsAdmin  bool
}

// Principal converts the credential row to the handler-facing user.
func (u *UserAuth) Principal() *User {
	return &User{
		ID:       u.ID,
		Name:     u.Username,
		Email:    u.Email,
		IsAdmin:  u.IsAdmin,
		IsActive: true,
	}
}
