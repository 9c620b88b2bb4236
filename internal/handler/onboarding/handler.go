package onboarding

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/handler"
	"github.com/petify/petify-api/internal/onboarding"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/httputil"
	"github.com/petify/petify-api/pkg/storage"
)

type Service interface {
	Start(ownerID uuid.UUID) onboarding.State
	State(id, ownerID uuid.UUID) (onboarding.State, error)
	Next(id, ownerID uuid.UUID, raw json.RawMessage) (onboarding.State, error)
	Previous(id, ownerID uuid.UUID) (onboarding.State, error)
	Submit(ctx context.Context, id, ownerID uuid.UUID, consents onboarding.ReviewInput) (onboarding.State, error)
	Discard(id, ownerID uuid.UUID) error
	Upload(ctx context.Context, id, ownerID uuid.UUID, r io.Reader) (*storage.Object, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	sessions := r.Group("/onboarding")
	{
		sessions.POST("", h.StartSession)
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/next", h.Next)
		sessions.POST("/:id/previous", h.Previous)
		sessions.POST("/:id/submit", h.Submit)
		sessions.DELETE("/:id", h.Discard)
		sessions.POST("/:id/media", h.UploadMedia)
	}
}

func (h *Handler) StartSession(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, h.service.Start(caller.UserID))
}

func (h *Handler) GetSession(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	state, err := h.service.State(id, caller.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, state)
}

// Next takes the current step's form as its body; its shape depends on
// the step, so decoding happens in the wizard.
func (h *Handler) Next(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var raw json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	state, err := h.service.Next(id, caller.UserID, raw)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, state)
}

func (h *Handler) Previous(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	state, err := h.service.Previous(id, caller.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, state)
}

func (h *Handler) Submit(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var consents onboarding.ReviewInput
	if err := c.ShouldBindJSON(&consents); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid request body", err))
		return
	}

	state, err := h.service.Submit(c.Request.Context(), id, caller.UserID, consents)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, state)
}

func (h *Handler) Discard(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Discard(id, caller.UserID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadMedia accepts a multipart form with a single "file" image.
func (h *Handler) UploadMedia(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("file is required", err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("unreadable upload", err))
		return
	}
	defer f.Close()

	obj, err := h.service.Upload(c.Request.Context(), id, caller.UserID, f)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, obj)
}
