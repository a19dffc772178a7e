package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/checkmarble/kyc-backend/dto"
	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/usecases"
)

func handleRegister(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var body dto.RegisterBody
		if err := c.ShouldBindJSON(&body); err != nil {
			presentBindingError(ctx, c, err)
			return
		}

		usecase := uc.NewAccountUsecase()
		user, err := usecase.Register(ctx, models.CreateUserInput{
			Email:    body.Email,
			Name:     body.Name,
			Password: body.Password,
		})
		if presentError(ctx, c, err) {
			return
		}

		c.JSON(http.StatusCreated, dto.AdaptUserDto(user))
	}
}

func handleLogin(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var body dto.LoginBody
		if err := c.ShouldBindJSON(&body); err != nil {
			presentBindingError(ctx, c, err)
			return
		}

		usecase := uc.NewAccountUsecase()
		token, err := usecase.Login(ctx, models.LoginInput{
			Email:    body.Email,
			Password: body.Password,
		})
		if presentError(ctx, c, err) {
			return
		}

		c.JSON(http.StatusOK, dto.AdaptAccessTokenDto(token, uc.Repositories.Clock.Now()))
	}
}
