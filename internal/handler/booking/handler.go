package booking

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/handler"
	"github.com/petify/petify-api/internal/model"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/httputil"
)

type Service interface {
	List(ctx context.Context, caller model.Caller, filters *model.BookingFilters) ([]*model.Booking, error)
	Get(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.Booking, error)
	Create(ctx context.Context, caller model.Caller, req *model.CreateBookingRequest) (*model.Booking, error)
	Cancel(ctx context.Context, caller model.Caller, id uuid.UUID, reason string) (*model.Booking, error)
	UpdatePayment(ctx context.Context, caller model.Caller, id uuid.UUID, req *model.UpdatePaymentRequest) (*model.Booking, error)
	UpdateStatus(ctx context.Context, caller model.Caller, id uuid.UUID, status model.BookingStatus) (*model.Booking, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("", h.ListBookings)
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:id", h.GetBooking)
		bookings.PATCH("/:id/cancel", h.CancelBooking)
		bookings.PATCH("/:id/payment", h.UpdatePayment)
		bookings.PATCH("/:id/status", h.UpdateStatus)
	}
}

func (h *Handler) ListBookings(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var filters model.BookingFilters
	if err := c.ShouldBindQuery(&filters.Pagination); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid pagination", err))
		return
	}
	if filters.ProviderID, err = handler.UUIDQuery(c, "provider_id"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	if filters.CustomerID, err = handler.UUIDQuery(c, "customer_id"); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	filters.Status = model.BookingStatus(c.Query("status"))

	bookings, err := h.service.List(c.Request.Context(), caller, &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, bookings)
}

func (h *Handler) GetBooking(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	b, err := h.service.Get(c.Request.Context(), caller, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, b)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateBookingRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, b)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	// The body is optional.
	var req model.CancelBookingRequest
	if c.Request.ContentLength != 0 {
		if err := handler.BindJSON(c, &req); err != nil {
			httputil.RespondWithError(c, err)
			return
		}
	}

	b, err := h.service.Cancel(c.Request.Context(), caller, id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, b)
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdatePaymentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	b, err := h.service.UpdatePayment(c.Request.Context(), caller, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, b)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	caller, id, err := handler.CallerAndID(c, "id")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateBookingStatusRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), caller, id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, b)
}
