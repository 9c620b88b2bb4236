package admin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/handler"
	"github.com/petify/petify-api/internal/middleware"
	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/pkg/httputil"
)

type Service interface {
	Stats(ctx context.Context) (*model.AdminStats, error)
	ListUsers(ctx context.Context, filters model.ProfileFilters) ([]*model.Profile, error)
	UpdateRole(ctx context.Context, caller model.Caller, userID uuid.UUID, role model.Role) (*model.Profile, error)
	ListProviders(ctx context.Context, filters model.ProviderFilters) ([]*model.Provider, error)
	UpdateProviderStatus(ctx context.Context, caller model.Caller, id uuid.UUID, status model.ProviderStatus) (*model.Provider, error)
	ListBookings(ctx context.Context, filters model.BookingFilters) ([]*model.Booking, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the console under /admin. r must already
// authenticate the caller.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/stats", h.GetStats)
		admin.GET("/users", h.ListUsers)
		admin.PATCH("/users/:id/role", h.UpdateUserRole)
		admin.GET("/providers", h.ListProviders)
		admin.PATCH("/providers/:id/status", h.UpdateProviderStatus)
		admin.GET("/bookings", h.ListBookings)
	}
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, stats)
}

func (h *Handler) ListUsers(c *gin.Context) {
	page, err := handler.Page(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), model.ProfileFilters{
		Role:       model.Role(c.Query("role")),
		Search:     c.Query("search"),
		Pagination: page,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, users)
}

func (h *Handler) UpdateUserRole(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateRoleRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	profile, err := h.service.UpdateRole(c.Request.Context(), caller, id, req.Role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, profile)
}

func (h *Handler) ListProviders(c *gin.Context) {
	page, err := handler.Page(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	providers, err := h.service.ListProviders(c.Request.Context(), model.ProviderFilters{
		Status:     model.ProviderStatus(c.Query("status")),
		Category:   model.ProviderCategory(c.Query("category")),
		City:       c.Query("city"),
		Pagination: page,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, providers)
}

func (h *Handler) UpdateProviderStatus(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateProviderStatusRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	p, err := h.service.UpdateProviderStatus(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) ListBookings(c *gin.Context) {
	page, err := handler.Page(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	providerID, err := handler.UUIDQuery(c, "provider_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	customerID, err := handler.UUIDQuery(c, "customer_id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), model.BookingFilters{
		ProviderID: providerID,
		CustomerID: customerID,
		Status:     model.BookingStatus(c.Query("status")),
		Pagination: page,
	})
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, bookings)
}
