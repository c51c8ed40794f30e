package handler

import (
	"github.com/labstack/echo/v4"

	"gigmarket/internal/usecase"
	"gigmarket/pkg/response"
	"gigmarket/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createConversationRequest struct {
	ParticipantIDs []string `json:"participantIds" validate:"required,min=1,max=10,dive,required"`
	GigID          string   `json:"gigId"`
}

// CreateConversation answers 200 when an existing direct thread is reused.
func (h *ChatHandler) CreateConversation(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	conversation, created, err := h.chatUseCase.CreateConversation(c.Request().Context(), user, req.ParticipantIDs, req.GigID)
	if err != nil {
		return response.Error(c, err)
	}
	if !created {
		return response.Success(c, conversation)
	}
	return response.Created(c, conversation)
}

func (h *ChatHandler) ListConversations(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	pagination := utils.GetPaginationParams(c)
	conversations, total, err := h.chatUseCase.ListConversations(c.Request().Context(), user, pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, conversations, total, pagination.Page, pagination.PageSize)
}

func (h *ChatHandler) GetConversation(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	conversation, err := h.chatUseCase.GetConversation(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversation)
}

func (h *ChatHandler) ListMessages(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	pagination := utils.GetPaginationParams(c)
	messages, total, err := h.chatUseCase.ListMessages(c.Request().Context(), user, c.Param("id"), pagination.Page, pagination.PageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, messages, total, pagination.Page, pagination.PageSize)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), user, c.Param("id"), req.Content, req.Attachments)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	receipt, err := h.chatUseCase.MarkRead(c.Request().Context(), user, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, receipt)
}

func (h *ChatHandler) Unread(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	summary, err := h.chatUseCase.UnreadSummary(c.Request().Context(), user)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, summary)
}
