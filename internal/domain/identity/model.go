package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

// User is a coach account.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Name           *string   `json:"name"`
	HashedPassword string    `json:"-"`
	Role           auth.Role `json:"role"`
	TenantID       *string   `json:"tenantId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// AuthUser is the token identity of u.
func (u *User) AuthUser() auth.AuthUser {
	return auth.AuthUser{ID: u.ID.String(), Role: u.Role, TenantID: u.TenantID}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// Me is the public view of the current user.
type Me struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  *string   `json:"name"`
}
