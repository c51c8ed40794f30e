package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/middleware"
	"gigmarket/internal/domain/entity"
	"gigmarket/internal/usecase"
	"gigmarket/pkg/errors"
)

// SessionCookie describes the HTTP-only cookie that carries the session token.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

var (
	authHandler   *AuthHandler
	userHandler   *UserHandler
	gigHandler    *GigHandler
	orderHandler  *OrderHandler
	chatHandler   *ChatHandler
	reviewHandler *ReviewHandler
	fileHandler   *FileHandler
	adminHandler  *AdminHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	userUseCase *usecase.UserUseCase,
	gigUseCase *usecase.GigUseCase,
	orderUseCase *usecase.OrderUseCase,
	chatUseCase *usecase.ChatUseCase,
	reviewUseCase *usecase.ReviewUseCase,
	fileUseCase *usecase.FileUseCase,
	analyticsUseCase *usecase.AnalyticsUseCase,
	cookie SessionCookie,
) {
	authHandler = NewAuthHandler(authUseCase, cookie)
	userHandler = NewUserHandler(userUseCase)
	gigHandler = NewGigHandler(gigUseCase, reviewUseCase)
	orderHandler = NewOrderHandler(orderUseCase, chatUseCase)
	chatHandler = NewChatHandler(chatUseCase)
	reviewHandler = NewReviewHandler(reviewUseCase)
	fileHandler = NewFileHandler(fileUseCase)
	adminHandler = NewAdminHandler(userUseCase, gigUseCase, orderUseCase, reviewUseCase, analyticsUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetGigHandler() *GigHandler {
	return gigHandler
}

func GetOrderHandler() *OrderHandler {
	return orderHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetReviewHandler() *ReviewHandler {
	return reviewHandler
}

func GetFileHandler() *FileHandler {
	return fileHandler
}

func GetAdminHandler() *AdminHandler {
	return adminHandler
}

// bindAndValidate decodes the request into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.BadRequest("Invalid request body", err)
	}
	return c.Validate(req)
}

// currentUser is only nil on routes without authentication.
func currentUser(c echo.Context) (*entity.User, error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return nil, errors.Unauthorized("Authentication required", nil)
	}
	return user, nil
}
