package payment

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/petify/petify-api/internal/handler"
	"github.com/petify/petify-api/internal/model"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/httputil"
	"github.com/petify/petify-api/pkg/payment"
)

// maxWebhookBytes matches the processor's own payload ceiling.
const maxWebhookBytes = 65536

type Service interface {
	Enabled() bool
	CreateCheckoutSession(ctx context.Context, caller model.Caller, req *model.CreateCheckoutRequest) (*payment.CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, caller model.Caller, req *model.CreateIntentRequest) (*payment.Intent, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type Handler struct {
	service        Service
	publishableKey string
}

func NewHandler(service Service, publishableKey string) *Handler {
	return &Handler{service: service, publishableKey: publishableKey}
}

// RegisterRoutes expects an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/checkout/create-session", h.CreateCheckoutSession)
	r.POST("/payments/create-intent", h.CreatePaymentIntent)
}

// RegisterPublicRoutes mounts the routes the processor and anonymous
// clients call.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/payments/webhook", h.Webhook)
	r.GET("/payments/config", h.Config)
}

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateCheckoutRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	session, err := h.service.CreateCheckoutSession(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, session)
}

func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	caller, err := handler.Caller(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.CreateIntentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	intent, err := h.service.CreatePaymentIntent(c.Request.Context(), caller, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, intent)
}

// Webhook must see the raw body; the signature covers its exact bytes.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("failed to read body", err))
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *Handler) Config(c *gin.Context) {
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"enabled":         h.service.Enabled(),
		"publishable_key": h.publishableKey,
	})
}
