package provider

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/handler"
	"github.com/petify/petify-api/internal/model"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/httputil"
)

type CatalogueService interface {
	List(ctx context.Context, filters model.ProviderFilters) ([]*model.Provider, error)
	Get(ctx context.Context, id uuid.UUID) (*model.ProviderDetail, error)
	ListServices(ctx context.Context, providerID uuid.UUID) ([]*model.Service, error)
}

type ReviewService interface {
	List(ctx context.Context, providerID uuid.UUID, limit int) ([]*model.Review, error)
	Create(ctx context.Context, caller model.Caller, providerID uuid.UUID, req *model.CreateReviewRequest) (*model.Review, error)
}

type Handler struct {
	providers CatalogueService
	reviews   ReviewService
}

func NewHandler(providers CatalogueService, reviews ReviewService) *Handler {
	return &Handler{providers: providers, reviews: reviews}
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	providers := r.Group("/providers")
	{
		providers.GET("", h.ListProviders)
		providers.GET("/:id", h.GetProvider)
		providers.GET("/:id/services", h.ListServices)
		providers.GET("/:id/reviews", h.ListReviews)
	}
}

// RegisterRoutes expects an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/providers/:id/reviews", h.CreateReview)
}

func (h *Handler) ListProviders(c *gin.Context) {
	var filters model.ProviderFilters
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid pagination", err))
		return
	}
	filters.City = c.Query("city")
	if v := c.Query("category"); v != "" {
		filters.Category = model.ProviderCategory(v)
		if !filters.Category.Valid() {
			httputil.RespondWithError(c, apperrors.NewBadRequest("unknown category", nil))
			return
		}
	}

	providers, err := h.providers.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, providers)
}

func (h *Handler) GetProvider(c *gin.Context) {
	id, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	detail, err := h.providers.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, detail)
}

func (h *Handler) ListServices(c *gin.Context) {
	id, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	services, err := h.providers.ListServices(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, services)
}

func (h *Handler) ListReviews(c *gin.Context) {
	id, err := handler.UUIDParam(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	reviews, err := h.reviews.List(c.Request.Context(), id, limit)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, reviews)
}

func (h *Handler) CreateReview(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateReviewRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), caller, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, review)
}
