package handler

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/domain/repository"
	"gigmarket/internal/usecase"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/response"
	"gigmarket/pkg/utils"
)

type GigHandler struct {
	gigUseCase    *usecase.GigUseCase
	reviewUseCase *usecase.ReviewUseCase
}

func NewGigHandler(gigUseCase *usecase.GigUseCase, reviewUseCase *usecase.ReviewUseCase) *GigHandler {
	return &GigHandler{
		gigUseCase:    gigUseCase,
		reviewUseCase: reviewUseCase,
	}
}

type createGigRequest struct {
	Title        string   `json:"title" validate:"required,min=5,max=120"`
	Description  string   `json:"description" validate:"required,min=20,max=5000"`
	Category     string   `json:"category" validate:"required,max=60"`
	Subcategory  string   `json:"subcategory" validate:"omitempty,max=60"`
	Tags         []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=30"`
	Price        float64  `json:"price" validate:"required,gt=0"`
	DeliveryTime int      `json:"deliveryTime" validate:"required,min=1,max=365"`
	Revisions    int      `json:"revisions" validate:"min=0,max=20"`
}

type updateGigRequest struct {
	Title        *string  `json:"title" validate:"omitempty,min=5,max=120"`
	Description  *string  `json:"description" validate:"omitempty,min=20,max=5000"`
	Category     *string  `json:"category" validate:"omitempty,max=60"`
	Subcategory  *string  `json:"subcategory" validate:"omitempty,max=60"`
	Tags         []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=30"`
	Price        *float64 `json:"price" validate:"omitempty,gt=0"`
	DeliveryTime *int     `json:"deliveryTime" validate:"omitempty,min=1,max=365"`
	Revisions    *int     `json:"revisions" validate:"omitempty,min=0,max=20"`
}

type gigStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *GigHandler) ListGigs(c echo.Context) error {
	var filter repository.GigFilter
	err := echo.QueryParamsBinder(c).
		String("category", &filter.Category).
		String("subcategory", &filter.Subcategory).
		String("sellerId", &filter.SellerID).
		String("q", &filter.Query).
		Float64("minPrice", &filter.MinPrice).
		Float64("maxPrice", &filter.MaxPrice).
		BindError()
	if err != nil {
		return response.Error(c, errors.BadRequest("Invalid query parameters", err))
	}

	pagination := utils.GetPaginationParams(c)
	gigs, total, err := h.gigUseCase.ListPublic(c.Request().Context(), filter, pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, gigs, total, pagination.Page, pagination.PageSize)
}

// GetGig is public; a signed-in owner or admin also sees non-active gigs.
func (h *GigHandler) GetGig(c echo.Context) error {
	viewer, _ := currentUser(c)

	gig, err := h.gigUseCase.GetGig(c.Request().Context(), viewer, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, gig)
}

func (h *GigHandler) ListMyGigs(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	pagination := utils.GetPaginationParams(c)
	gigs, total, err := h.gigUseCase.ListBySeller(c.Request().Context(), user.ID, c.QueryParam("status"), pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, gigs, total, pagination.Page, pagination.PageSize)
}

func (h *GigHandler) CreateGig(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createGigRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	gig, err := h.gigUseCase.CreateGig(c.Request().Context(), user, usecase.CreateGigInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Subcategory:  req.Subcategory,
		Tags:         req.Tags,
		Price:        req.Price,
		DeliveryTime: req.DeliveryTime,
		Revisions:    req.Revisions,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, gig)
}

func (h *GigHandler) UpdateGig(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req updateGigRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	gig, err := h.gigUseCase.UpdateGig(c.Request().Context(), user, c.Param("id"), usecase.UpdateGigInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Subcategory:  req.Subcategory,
		Tags:         req.Tags,
		Price:        req.Price,
		DeliveryTime: req.DeliveryTime,
		Revisions:    req.Revisions,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, gig)
}

func (h *GigHandler) DeleteGig(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.gigUseCase.DeleteGig(c.Request().Context(), user, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

func (h *GigHandler) ChangeStatus(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req gigStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	gig, err := h.gigUseCase.ChangeStatus(c.Request().Context(), user, c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, gig)
}

func (h *GigHandler) AddImages(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	files, closeAll, err := multipartFiles(c, "files")
	if err != nil {
		return response.Error(c, err)
	}
	defer closeAll()

	gig, err := h.gigUseCase.AddImages(c.Request().Context(), user, c.Param("id"), files)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, gig)
}

func (h *GigHandler) RemoveImage(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	gig, err := h.gigUseCase.RemoveImage(c.Request().Context(), user, c.Param("id"), c.Param("imageId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, gig)
}

func (h *GigHandler) SetPrimaryImage(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	gig, err := h.gigUseCase.SetPrimaryImage(c.Request().Context(), user, c.Param("id"), c.Param("imageId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, gig)
}

func (h *GigHandler) ListReviews(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)
	reviews, total, err := h.reviewUseCase.ListGigReviews(c.Request().Context(), c.Param("id"), pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, reviews, total, pagination.Page, pagination.PageSize)
}
