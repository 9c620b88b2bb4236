package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/messaging"
	"github.com/petify/petify-api/pkg/metrics"
)

type fakeOutbox struct {
	mu        sync.Mutex
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    map[uuid.UUID]string
}

func (f *fakeOutbox) Create(context.Context, *model.OutboxEvent) error { return nil }

func (f *fakeOutbox) ClaimPending(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	out := f.pending[:limit]
	f.pending = f.pending[limit:]
	return out, nil
}

func (f *fakeOutbox) MarkProcessed(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(_ context.Context, id uuid.UUID, msg string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed == nil {
		f.failed = map[uuid.UUID]string{}
	}
	f.failed[id] = msg
	return nil
}

func (f *fakeOutbox) DeleteProcessedBefore(context.Context, time.Time) (int64, error) { return 0, nil }

type fakeBroker struct {
	mu        sync.Mutex
	failUntil int
	calls     int
	published []messaging.Message
}

func (b *fakeBroker) Publish(_ context.Context, channel string, msg interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.calls <= b.failUntil {
		return errors.New("redis unavailable")
	}
	if channel != messaging.EventsChannel {
		return errors.New("unexpected channel " + channel)
	}
	b.published = append(b.published, msg.(messaging.Message))
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) { return nil, nil }
func (b *fakeBroker) Close() error { return nil }

func newEvent(eventType string) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   json.RawMessage(`{"booking_id":"b1"}`),
		Status:    model.OutboxStatusProcessing,
	}
}

func newTestProcessor(repo *fakeOutbox, broker *fakeBroker) (*OutboxProcessor, *metrics.Metrics) {
	m := metrics.New("test", prometheus.NewRegistry())
	p := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, logger.Nop(), m)
	return p, m
}

func TestOutboxProcessor_PublishesAndMarksProcessed(t *testing.T) {
	ev := newEvent(model.EventBookingCreated)
	repo := &fakeOutbox{pending: []*model.OutboxEvent{ev}}
	broker := &fakeBroker{}
	p, m := newTestProcessor(repo, broker)

	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published, 1)
	assert.Equal(t, ev.ID.String(), broker.published[0].ID)
	assert.Equal(t, model.EventBookingCreated, broker.published[0].Type)
	assert.Equal(t, []uuid.UUID{ev.ID}, repo.processed)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsProcessed))
}

func TestOutboxProcessor_RetriesBeforeSucceeding(t *testing.T) {
	ev := newEvent(model.EventBookingCancelled)
	repo := &fakeOutbox{pending: []*model.OutboxEvent{ev}}
	broker := &fakeBroker{failUntil: 2}
	p, m := newTestProcessor(repo, broker)

	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, 3, broker.calls)
	assert.Equal(t, []uuid.UUID{ev.ID}, repo.processed)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OutboxRetries.WithLabelValues(model.EventBookingCancelled)))
}

func TestOutboxProcessor_MarksFailedAfterRetryBudget(t *testing.T) {
	ev := newEvent(model.EventProviderOnboarded)
	repo := &fakeOutbox{pending: []*model.OutboxEvent{ev}}
	broker := &fakeBroker{failUntil: 100}
	p, m := newTestProcessor(repo, broker)

	require.NoError(t, p.processEvents(context.Background()))

	assert.Equal(t, 3, broker.calls)
	assert.Empty(t, repo.processed)
	assert.Contains(t, repo.failed[ev.ID], "redis unavailable")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEventsFailed))
}

func TestNewOutboxProcessor_RejectsBadConfig(t *testing.T) {
	assert.Panics(t, func() {
		NewOutboxProcessor(&fakeOutbox{}, &fakeBroker{}, OutboxProcessorConfig{}, logger.Nop(), nil)
	})
}
