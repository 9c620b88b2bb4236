package pet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/petify/petify-api/internal/middleware"
	"github.com/petify/petify-api/internal/model"
	apperrors "github.com/petify/petify-api/pkg/errors"
)

type fakeService struct {
	Service
	owner   uuid.UUID
	created *model.CreatePetRequest
	updated *model.UpdatePetRequest
	err     error
}

func (f *fakeService) Create(_ context.Context, ownerID uuid.UUID, req *model.CreatePetRequest) (*model.Pet, error) {
	f.owner = ownerID
	f.created = req
	return &model.Pet{ID: uuid.New(), OwnerID: ownerID, Name: req.Name, Species: req.Species}, nil
}

func (f *fakeService) Get(_ context.Context, _, id uuid.UUID) (*model.Pet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Pet{ID: id}, nil
}

func (f *fakeService) Update(_ context.Context, _, id uuid.UUID, req *model.UpdatePetRequest) (*model.Pet, error) {
	f.updated = req
	return &model.Pet{ID: id}, nil
}

func (f *fakeService) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return f.err
}

func newRouter(svc Service, callerID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set(middleware.ContextCaller, model.Caller{UserID: callerID, Role: model.RoleCustomer})
	})
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePet_UsesCallerAsOwner(t *testing.T) {
	svc := &fakeService{}
	callerID := uuid.New()
	w := do(newRouter(svc, callerID), http.MethodPost, "/api/pets", `{"name":"Rex","species":"dog"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, callerID, svc.owner)
	assert.Equal(t, "Rex", svc.created.Name)
}

func TestCreatePet_ValidationFailure(t *testing.T) {
	svc := &fakeService{}
	w := do(newRouter(svc, uuid.New()), http.MethodPost, "/api/pets", `{"name":"Rex","species":"dragon"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "species")
	assert.Nil(t, svc.created)
}

func TestUpdatePet_PartialBody(t *testing.T) {
	svc := &fakeService{}
	w := do(newRouter(svc, uuid.New()), http.MethodPatch, "/api/pets/"+uuid.NewString(), `{"notes":"allergic to chicken"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	if assert.NotNil(t, svc.updated.Notes) {
		assert.Equal(t, "allergic to chicken", *svc.updated.Notes)
	}
	assert.Nil(t, svc.updated.Name)
}

func TestGetPet_InvalidID(t *testing.T) {
	w := do(newRouter(&fakeService{}, uuid.New()), http.MethodGet, "/api/pets/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePet(t *testing.T) {
	w := do(newRouter(&fakeService{}, uuid.New()), http.MethodDelete, "/api/pets/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	svc := &fakeService{err: apperrors.NewConflict("pet has bookings and cannot be deleted", nil)}
	w = do(newRouter(svc, uuid.New()), http.MethodDelete, "/api/pets/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusConflict, w.Code)
}
