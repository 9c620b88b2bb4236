package provider

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

type fakeCatalogue struct {
	CatalogueService
	filters model.ProviderFilters
}

func (f *fakeCatalogue) List(_ context.Context, filters model.ProviderFilters) ([]*model.Provider, error) {
	f.filters = filters
	return []*model.Provider{}, nil
}

func (f *fakeCatalogue) Get(context.Context, uuid.UUID) (*model.ProviderDetail, error) {
	return nil, apperrors.NewNotFound("provider", nil)
}

type fakeReviews struct {
	ReviewService
	rating int
}

func (f *fakeReviews) Create(_ context.Context, _ model.Caller, providerID uuid.UUID, req *model.CreateReviewRequest) (*model.Review, error) {
	f.rating = req.Rating
	return &model.Review{ID: uuid.New(), ProviderID: providerID, Rating: req.Rating}, nil
}

func newRouter(cat CatalogueService, rev ReviewService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(cat, rev)
	h.RegisterPublicRoutes(r.Group("/api"))
	protected := r.Group("/api")
	protected.Use(func(c *gin.Context) {
		c.Set(middleware.ContextCaller, model.Caller{UserID: uuid.New()})
	})
	h.RegisterRoutes(protected)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListProviders_Filters(t *testing.T) {
	cat := &fakeCatalogue{}
	r := newRouter(cat, &fakeReviews{})

	w := get(r, "/api/providers?category=grooming&city=Austin&limit=5&offset=10")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.CategoryGrooming, cat.filters.Category)
	assert.Equal(t, "Austin", cat.filters.City)
	assert.Equal(t, 5, cat.filters.Limit)
	assert.Equal(t, 10, cat.filters.Offset)

	assert.Equal(t, http.StatusBadRequest, get(r, "/api/providers?category=plumbing").Code)
}

func TestGetProvider(t *testing.T) {
	r := newRouter(&fakeCatalogue{}, &fakeReviews{})

	assert.Equal(t, http.StatusNotFound, get(r, "/api/providers/"+uuid.NewString()).Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/providers/abc").Code)
}

func TestCreateReview_RatingBounds(t *testing.T) {
	rev := &fakeReviews{}
	r := newRouter(&fakeCatalogue{}, rev)
	path := "/api/providers/" + uuid.NewString() + "/reviews"

	for body, want := range map[string]int{
		`{"rating":5,"comment":"Lovely"}`: http.StatusCreated,
		`{"rating":0}`:                    http.StatusBadRequest,
		`{"rating":6}`:                    http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, body)
	}
	assert.Equal(t, 5, rev.rating)
}
