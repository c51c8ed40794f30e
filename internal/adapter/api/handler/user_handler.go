package handler

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/usecase"
	"gigmarket/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type updateProfileRequest struct {
	Name   *string  `json:"name" validate:"omitempty,min=2,max=100"`
	Bio    *string  `json:"bio" validate:"omitempty,max=1000"`
	Avatar *string  `json:"avatar" validate:"omitempty,max=2048"`
	Skills []string `json:"skills" validate:"omitempty,max=30,dive,min=1,max=50"`
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.userUseCase.GetPublicProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	updated, err := h.userUseCase.UpdateProfile(c.Request().Context(), user.ID, usecase.UpdateProfileInput{
		Name:   req.Name,
		Bio:    req.Bio,
		Avatar: req.Avatar,
		Skills: req.Skills,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, updated)
}
