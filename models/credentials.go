package models

import "time"

type Credentials struct {
	Subject string
	Email   string
	Name    string
	Roles   []string
	IsAdmin bool
	// Actor recorded on the audit trail for the actions of this identity
	Actor string
}

type User struct {
	Id           string
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Roles    []string
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type LoginInput struct {
	Email    string
	Password string
}

type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}
