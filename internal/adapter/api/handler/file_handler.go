package handler

import (
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"gigmarket/internal/usecase"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/response"
)

type FileHandler struct {
	fileUseCase *usecase.FileUseCase
}

func NewFileHandler(fileUseCase *usecase.FileUseCase) *FileHandler {
	return &FileHandler{
		fileUseCase: fileUseCase,
	}
}

// Upload stores the multipart "files" field. The optional "purpose" form
// value defaults to a message attachment.
func (h *FileHandler) Upload(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	files, closeAll, err := multipartFiles(c, "files")
	if err != nil {
		return response.Error(c, err)
	}
	defer closeAll()

	purpose := c.FormValue("purpose")
	if purpose == "" {
		purpose = usecase.PurposeAttachment
	}

	stored, err := h.fileUseCase.Upload(c.Request().Context(), user.ID, purpose, files)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, stored)
}

// multipartFiles opens every part under field. The returned func closes them.
func multipartFiles(c echo.Context, field string) ([]usecase.UploadFile, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, errors.BadRequest("Expected a multipart form", err)
	}

	headers := form.File[field]
	if len(headers) > usecase.MaxUploadFiles {
		return nil, func() {}, errors.BadRequest(fmt.Sprintf("At most %d files per upload", usecase.MaxUploadFiles), nil)
	}

	var opened []io.Closer
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	files := make([]usecase.UploadFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, errors.BadRequest(fmt.Sprintf("Failed to read %s", header.Filename), err)
		}
		opened = append(opened, f)
		files = append(files, usecase.UploadFile{
			Filename: header.Filename,
			Size:     header.Size,
			Content:  f,
		})
	}
	return files, closeAll, nil
}
