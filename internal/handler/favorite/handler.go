package favorite

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/handler"
	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/pkg/httputil"
)

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]*model.Favorite, error)
	Add(ctx context.Context, userID, providerID uuid.UUID) error
	Remove(ctx context.Context, userID, providerID uuid.UUID) error
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	favorites := r.Group("/favorites")
	{
		favorites.GET("", h.ListFavorites)
		favorites.POST("", h.AddFavorite)
		favorites.DELETE("/:provider_id", h.RemoveFavorite)
	}
}

func (h *Handler) ListFavorites(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	favorites, err := h.service.List(c.Request.Context(), caller.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, favorites)
}

func (h *Handler) AddFavorite(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.AddFavoriteRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Add(c.Request.Context(), caller.UserID, req.ProviderID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, gin.H{"provider_id": req.ProviderID})
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	caller, providerID, err := handler.CallerAndID(c, "provider_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.service.Remove(c.Request.Context(), caller.UserID, providerID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
