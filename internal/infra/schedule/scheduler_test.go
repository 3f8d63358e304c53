package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentdesk/internal/app/aggregates"
)

type countingReconciler struct{ runs atomic.Int32 }

func (c *countingReconciler) RefreshAll(ctx context.Context) (aggregates.Targets, error) {
	c.runs.Add(1)
	return aggregates.Targets{}, nil
}

func TestReconcileRunsPeriodically(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	rec := &countingReconciler{}
	require.NoError(t, s.AddReconcile(context.Background(), 20*time.Millisecond, rec))
	assert.Equal(t, 1, s.Jobs())

	s.Start()
	defer s.Shutdown()
	assert.Eventually(t, func() bool { return rec.runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestReconcileRejectsZeroInterval(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	assert.Error(t, s.AddReconcile(context.Background(), 0, &countingReconciler{}))
}
