package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/metrics"
)

type fakePruner struct {
	before  time.Time
	deleted int64
	err     error
}

func (f *fakePruner) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.deleted, f.err
}

func TestOutboxCleanup_DeletesPastRetention(t *testing.T) {
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	repo := &fakePruner{deleted: 12}
	m := metrics.New("test", prometheus.NewRegistry())
	w := NewOutboxCleanupWorker(repo, 7*24*time.Hour, time.Hour, logger.Nop(), m)
	w.now = func() time.Time { return now }

	require.NoError(t, w.cleanup(context.Background()))

	assert.Equal(t, now.AddDate(0, 0, -7), repo.before)
	assert.Equal(t, 12.0, testutil.ToFloat64(m.OutboxEventsDeleted))
}

func TestOutboxCleanup_PropagatesErrors(t *testing.T) {
	w := NewOutboxCleanupWorker(&fakePruner{err: errors.New("db down")}, time.Hour, time.Hour, logger.Nop(), nil)
	assert.ErrorContains(t, w.cleanup(context.Background()), "db down")
}
