package handler

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"gigmarket/internal/domain/repository"
	"gigmarket/internal/usecase"
	"gigmarket/pkg/errors"
	"gigmarket/pkg/response"
	"gigmarket/pkg/utils"
)

type AdminHandler struct {
	userUseCase      *usecase.UserUseCase
	gigUseCase       *usecase.GigUseCase
	orderUseCase     *usecase.OrderUseCase
	reviewUseCase    *usecase.ReviewUseCase
	analyticsUseCase *usecase.AnalyticsUseCase
}

func NewAdminHandler(
	userUseCase *usecase.UserUseCase,
	gigUseCase *usecase.GigUseCase,
	orderUseCase *usecase.OrderUseCase,
	reviewUseCase *usecase.ReviewUseCase,
	analyticsUseCase *usecase.AnalyticsUseCase,
) *AdminHandler {
	return &AdminHandler{
		userUseCase:      userUseCase,
		gigUseCase:       gigUseCase,
		orderUseCase:     orderUseCase,
		reviewUseCase:    reviewUseCase,
		analyticsUseCase: analyticsUseCase,
	}
}

type suspendUserRequest struct {
	Suspended bool   `json:"suspended"`
	Reason    string `json:"reason" validate:"max=1000"`
}

type userActiveRequest struct {
	Active bool `json:"active"`
}

type userRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=client freelancer admin"`
}

type moderateRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason" validate:"max=1000"`
}

func (h *AdminHandler) Overview(c echo.Context) error {
	overview, err := h.analyticsUseCase.Overview(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, overview)
}

func (h *AdminHandler) Trends(c echo.Context) error {
	from, err := timeParam(c, "from")
	if err != nil {
		return response.Error(c, err)
	}
	to, err := timeParam(c, "to")
	if err != nil {
		return response.Error(c, err)
	}

	series, err := h.analyticsUseCase.Trends(c.Request().Context(), usecase.TrendInput{
		Metric:   c.QueryParam("metric"),
		Interval: c.QueryParam("interval"),
		From:     from,
		To:       to,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, series)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)
	users, total, err := h.userUseCase.ListUsers(c.Request().Context(), repository.UserFilter{
		Role:  c.QueryParam("role"),
		State: c.QueryParam("state"),
	}, pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, users, total, pagination.Page, pagination.PageSize)
}

func (h *AdminHandler) SuspendUser(c echo.Context) error {
	admin, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req suspendUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.SetSuspended(c.Request().Context(), admin.ID, c.Param("id"), req.Suspended, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *AdminHandler) SetUserActive(c echo.Context) error {
	admin, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req userActiveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.SetActive(c.Request().Context(), admin.ID, c.Param("id"), req.Active)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *AdminHandler) ChangeUserRole(c echo.Context) error {
	admin, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req userRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.ChangeRole(c.Request().Context(), admin.ID, c.Param("id"), req.Role)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	admin, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.userUseCase.DeleteUser(c.Request().Context(), admin.ID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}

func (h *AdminHandler) ListGigs(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)
	gigs, total, err := h.gigUseCase.ListForAdmin(c.Request().Context(), c.QueryParam("status"), pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, gigs, total, pagination.Page, pagination.PageSize)
}

func (h *AdminHandler) ModerateGig(c echo.Context) error {
	admin, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req moderateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	gig, err := h.gigUseCase.Moderate(c.Request().Context(), admin.ID, c.Param("id"), req.Action, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, gig)
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	pagination := utils.GetPaginationParams(c)
	orders, total, err := h.orderUseCase.ListAll(c.Request().Context(), c.QueryParam("status"), c.QueryParam("paymentStatus"), pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, orders, total, pagination.Page, pagination.PageSize)
}

func (h *AdminHandler) ListReviews(c echo.Context) error {
	var reported *bool
	if raw := c.QueryParam("reported"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return response.Error(c, errors.BadRequest("reported must be true or false", err))
		}
		reported = &value
	}

	pagination := utils.GetPaginationParams(c)
	reviews, total, err := h.reviewUseCase.ListForModeration(c.Request().Context(), c.QueryParam("status"), reported, pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, reviews, total, pagination.Page, pagination.PageSize)
}

func (h *AdminHandler) ModerateReview(c echo.Context) error {
	admin, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req moderateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	review, err := h.reviewUseCase.Moderate(c.Request().Context(), admin, c.Param("id"), req.Action, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, review)
}

// timeParam accepts RFC 3339 timestamps or plain dates. Absent means nil.
func timeParam(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.BadRequest(name+" must be a date (YYYY-MM-DD) or RFC 3339 timestamp", nil)
}
