package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petify/petify-api/internal/middleware"
	"github.com/petify/petify-api/internal/model"
	apperrors "github.com/petify/petify-api/pkg/errors"
)

type fakeService struct {
	Service
	created      *model.CreateBookingRequest
	cancelReason string
	filters      *model.BookingFilters
	payment      *model.UpdatePaymentRequest
	err          error
}

func (f *fakeService) List(_ context.Context, _ model.Caller, filters *model.BookingFilters) ([]*model.Booking, error) {
	f.filters = filters
	return []*model.Booking{}, f.err
}

func (f *fakeService) Create(_ context.Context, caller model.Caller, req *model.CreateBookingRequest) (*model.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = req
	return &model.Booking{ID: uuid.New(), CustomerID: caller.UserID, Status: model.BookingStatusPending, PaymentStatus: model.PaymentStatusUnpaid}, nil
}

func (f *fakeService) Cancel(_ context.Context, _ model.Caller, id uuid.UUID, reason string) (*model.Booking, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cancelReason = reason
	return &model.Booking{ID: id, Status: model.BookingStatusCancelled, CancellationReason: reason}, nil
}

func (f *fakeService) UpdatePayment(_ context.Context, _ model.Caller, id uuid.UUID, req *model.UpdatePaymentRequest) (*model.Booking, error) {
	f.payment = req
	return &model.Booking{ID: id, PaymentStatus: req.PaymentStatus, Status: model.StatusAfterPayment(req.PaymentStatus)}, nil
}

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (e envelope) booking(t *testing.T) model.Booking {
	t.Helper()
	var b model.Booking
	require.NoError(t, json.Unmarshal(e.Data, &b))
	return b
}

func newRouter(svc Service, authenticated bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	if authenticated {
		api.Use(func(c *gin.Context) {
			c.Set(middleware.ContextCaller, model.Caller{UserID: uuid.New(), Role: model.RoleCustomer})
		})
	}
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func send(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestCreateBooking(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, true)
	body := `{"provider_id":"` + uuid.NewString() + `","service_id":"` + uuid.NewString() + `","scheduled_at":"2026-11-02T10:00:00Z","notes":"first visit"}`

	w, env := send(t, r, http.MethodPost, "/api/bookings", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, model.BookingStatusPending, env.booking(t).Status)
	require.NotNil(t, svc.created)
	assert.Equal(t, "first visit", svc.created.Notes)
}

func TestCreateBooking_ValidationErrors(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, true)

	w, env := send(t, r, http.MethodPost, "/api/bookings", `{"notes":"no ids"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", env.Status)
	assert.Contains(t, env.Errors, "provider_id")
	assert.Contains(t, env.Errors, "scheduled_at")
	assert.Nil(t, svc.created, "invalid requests never reach the service")
}

func TestCancelBooking(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, true)
	id := uuid.NewString()

	w, env := send(t, r, http.MethodPatch, "/api/bookings/"+id+"/cancel", `{"reason":"Vet emergency"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.BookingStatusCancelled, env.booking(t).Status)
	assert.Equal(t, "Vet emergency", svc.cancelReason)

	w, _ = send(t, r, http.MethodPatch, "/api/bookings/"+id+"/cancel", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.cancelReason)
}

func TestUpdatePayment(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc, true)
	id := uuid.NewString()

	w, env := send(t, r, http.MethodPatch, "/api/bookings/"+id+"/payment", `{"payment_status":"paid","payment_intent_id":"pi_123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.BookingStatusConfirmed, env.booking(t).Status)

	w, env = send(t, r, http.MethodPatch, "/api/bookings/"+id+"/payment", `{"payment_status":"failed"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.BookingStatusPending, env.booking(t).Status)

	w, _ = send(t, r, http.MethodPatch, "/api/bookings/"+id+"/payment", `{"payment_status":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingErrors(t *testing.T) {
	t.Run("unauthenticated", func(t *testing.T) {
		w, _ := send(t, newRouter(&fakeService{}, false), http.MethodGet, "/api/bookings", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w, _ := send(t, newRouter(&fakeService{}, true), http.MethodPatch, "/api/bookings/nope/cancel", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service conflict", func(t *testing.T) {
		svc := &fakeService{err: apperrors.NewConflict("completed bookings cannot be cancelled", nil)}
		w, env := send(t, newRouter(svc, true), http.MethodPatch, "/api/bookings/"+uuid.NewString()+"/cancel", "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "completed bookings cannot be cancelled", env.Message)
	})

	t.Run("internal errors are generic", func(t *testing.T) {
		svc := &fakeService{err: assert.AnError}
		w, env := send(t, newRouter(svc, true), http.MethodGet, "/api/bookings", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", env.Message)
	})

	t.Run("list filters", func(t *testing.T) {
		svc := &fakeService{}
		provider := uuid.New()
		w, _ := send(t, newRouter(svc, true), http.MethodGet, "/api/bookings?provider_id="+provider.String()+"&status=confirmed&limit=10", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, provider, svc.filters.ProviderID)
		assert.Equal(t, model.BookingStatusConfirmed, svc.filters.Status)
		assert.Equal(t, 10, svc.filters.Limit)
	})
}
