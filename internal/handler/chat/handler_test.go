package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/petify/petify-api/internal/middleware"
	"github.com/petify/petify-api/internal/model"
	apperrors "github.com/petify/petify-api/pkg/errors"
)

type fakeService struct {
	Service
	stream    chan *model.Message
	streamErr error
	sent      string
	before    *time.Time
	limit     int
}

func (f *fakeService) Send(_ context.Context, caller model.Caller, id uuid.UUID, body string) (*model.Message, error) {
	f.sent = body
	return &model.Message{ID: uuid.New(), ConversationID: id, SenderID: caller.UserID, Body: body}, nil
}

func (f *fakeService) Messages(_ context.Context, _ model.Caller, _ uuid.UUID, before *time.Time, limit int) ([]*model.Message, error) {
	f.before, f.limit = before, limit
	return []*model.Message{}, nil
}

func (f *fakeService) Stream(context.Context, model.Caller, uuid.UUID) (<-chan *model.Message, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.stream, nil
}

func newRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set(middleware.ContextCaller, model.Caller{UserID: uuid.New()})
	})
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func TestSendMessage(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)
	path := "/api/conversations/" + uuid.NewString() + "/messages"

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"body":"Is Saturday free?"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Is Saturday free?", svc.sent)

	req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"body":""}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListMessages_Paging(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)
	base := "/api/conversations/" + uuid.NewString() + "/messages"

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, base+"?before=2026-10-01T12:00:00Z&limit=20", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	if assert.NotNil(t, svc.before) {
		assert.Equal(t, 2026, svc.before.Year())
	}
	assert.Equal(t, 20, svc.limit)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, base+"?before=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamMessages(t *testing.T) {
	stream := make(chan *model.Message, 1)
	stream <- &model.Message{ID: uuid.New(), Body: "On my way"}
	close(stream)

	r := newRouter(&fakeService{stream: stream})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/conversations/"+uuid.NewString()+"/stream", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")
	assert.Contains(t, w.Body.String(), "event:message")
	assert.Contains(t, w.Body.String(), "On my way")
}

func TestStreamMessages_Unavailable(t *testing.T) {
	r := newRouter(&fakeService{streamErr: apperrors.NewUnavailable("live chat is not configured")})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/conversations/"+uuid.NewString()+"/stream", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
