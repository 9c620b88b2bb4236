package chat

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/handler"
	"github.com/petify/petify-api/internal/model"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/httputil"
)

const keepAliveInterval = 25 * time.Second

type Service interface {
	Start(ctx context.Context, caller model.Caller, providerID uuid.UUID) (*model.Conversation, error)
	List(ctx context.Context, caller model.Caller) ([]*model.Conversation, error)
	Messages(ctx context.Context, caller model.Caller, conversationID uuid.UUID, before *time.Time, limit int) ([]*model.Message, error)
	Send(ctx context.Context, caller model.Caller, conversationID uuid.UUID, body string) (*model.Message, error)
	Stream(ctx context.Context, caller model.Caller, conversationID uuid.UUID) (<-chan *model.Message, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	conversations := r.Group("/conversations")
	{
		conversations.POST("", h.StartConversation)
		conversations.GET("", h.ListConversations)
		conversations.GET("/:id/messages", h.ListMessages)
		conversations.POST("/:id/messages", h.SendMessage)
		conversations.GET("/:id/stream", h.StreamMessages)
	}
}

func (h *Handler) StartConversation(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.StartConversationRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	conv, err := h.service.Start(c.Request.Context(), caller, req.ProviderID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, conv)
}

func (h *Handler) ListConversations(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	convs, err := h.service.List(c.Request.Context(), caller)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, convs)
}

// ListMessages pages backwards with ?before=<RFC3339>&limit=.
func (h *Handler) ListMessages(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var before *time.Time
	if v := c.Query("before"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewBadRequest("before must be an RFC3339 timestamp", err))
			return
		}
		before = &t
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	msgs, err := h.service.Messages(c.Request.Context(), caller, id, before, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, msgs)
}

func (h *Handler) SendMessage(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.SendMessageRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	msg, err := h.service.Send(c.Request.Context(), caller, id, req.Body)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, msg)
}

// StreamMessages pushes new messages as server-sent events until the
// client disconnects.
func (h *Handler) StreamMessages(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	stream, err := h.service.Stream(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-stream:
			if !ok {
				return
			}
			c.SSEvent("message", msg)
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
		case <-c.Request.Context().Done():
			return
		}
		c.Writer.Flush()
	}
}
