package router

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/adapter/api/handler"
)

func SetupFileRouter(v1 *echo.Group, guards Guards) {
	fileHandler := handler.GetFileHandler()

	v1.POST("/uploads", fileHandler.Upload, guards.protected()...)
}
