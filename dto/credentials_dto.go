package dto

import (
	"time"

	"github.com/checkmarble/kyc-backend/models"
)

type RegisterBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type APIUser struct {
	Id    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func AdaptUserDto(u models.User) APIUser {
	return APIUser{Id: u.Id, Email: u.Email, Name: u.Name}
}

type APIAccessToken struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

func AdaptAccessTokenDto(t models.AccessToken, now time.Time) APIAccessToken {
	return APIAccessToken{
		Token:     t.Token,
		ExpiresIn: int(t.ExpiresAt.Sub(now).Seconds()),
	}
}
