package models

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RolePG         Role = "pg"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePG, RoleSupervisor, RoleAdmin:
		return true
	default:
		return false
	}
}

func ParseRole(value string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(value)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", value)
	}
	return r, nil
}

// User record as the backend sends it
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Role        Role   `json:"role"`
	Specialty   string `json:"specialty,omitempty"`
	Year        string `json:"year,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Account is the backend view of a user: the public record plus credentials
type Account struct {
	User
	PasswordHash string
	SupervisorID *int64
	CreatedAt    time.Time
}
