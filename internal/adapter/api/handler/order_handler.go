package handler

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/usecase"
	"gigmarket/pkg/response"
	"gigmarket/pkg/utils"
)

type OrderHandler struct {
	orderUseCase *usecase.OrderUseCase
	chatUseCase  *usecase.ChatUseCase
}

func NewOrderHandler(orderUseCase *usecase.OrderUseCase, chatUseCase *usecase.ChatUseCase) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		chatUseCase:  chatUseCase,
	}
}

type createOrderRequest struct {
	GigID        string `json:"gigId" validate:"required"`
	Requirements string `json:"requirements" validate:"max=5000"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=1000"`
}

type deliveryRequest struct {
	Message string   `json:"message" validate:"required,max=5000"`
	Files   []string `json:"files" validate:"omitempty,max=10,dive,url"`
}

type revisionRequest struct {
	Message string `json:"message" validate:"required,max=5000"`
}

type sendMessageRequest struct {
	Content     string   `json:"content" validate:"max=2000"`
	Attachments []string `json:"attachments" validate:"omitempty,max=10,dive,url"`
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.CreateOrder(c.Request().Context(), user, usecase.CreateOrderInput{
		GigID:        req.GigID,
		Requirements: req.Requirements,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	pagination := utils.GetPaginationParams(c)
	orders, total, err := h.orderUseCase.ListOrders(c.Request().Context(), user, usecase.ListOrdersInput{
		Role:   c.QueryParam("role"),
		Status: c.QueryParam("status"),
		Page:   pagination.Page,
		Limit:  pagination.PageSize,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, orders, total, pagination.Page, pagination.PageSize)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.GetOrder(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req orderStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.UpdateStatus(c.Request().Context(), user, c.Param("id"), req.Status, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *OrderHandler) Deliver(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req deliveryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.Deliver(c.Request().Context(), user, c.Param("id"), req.Message, req.Files)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *OrderHandler) RequestRevision(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req revisionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.RequestRevision(c.Request().Context(), user, c.Param("id"), req.Message)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *OrderHandler) CompleteRevision(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.CompleteRevision(c.Request().Context(), user, c.Param("id"), c.Param("revisionId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *OrderHandler) Pay(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.Pay(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

func (h *OrderHandler) Complete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	order, err := h.orderUseCase.Complete(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, order)
}

// ListMessages serves the order thread from its linked conversation.
func (h *OrderHandler) ListMessages(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	conversationID, err := h.chatUseCase.OrderConversationID(ctx, user, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	pagination := utils.GetPaginationParams(c)
	messages, total, err := h.chatUseCase.ListMessages(ctx, user, conversationID, pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, messages, total, pagination.Page, pagination.PageSize)
}

func (h *OrderHandler) SendMessage(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	conversationID, err := h.chatUseCase.OrderConversationID(ctx, user, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(ctx, user, conversationID, req.Content, req.Attachments)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}
