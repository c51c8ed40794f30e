package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCompleter struct {
	before time.Time
	calls  int
	err    error
}

func (r *recordingCompleter) AutoCompleteDelivered(ctx context.Context, deliveredBefore time.Time) (int, error) {
	r.calls++
	r.before = deliveredBefore
	return 2, r.err
}

func TestRunAutoCompleteUsesGraceCutoff(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	c := &recordingCompleter{}

	RunAutoComplete(context.Background(), now, 72*time.Hour, c)

	assert.Equal(t, 1, c.calls)
	assert.Equal(t, time.Date(2026, 5, 7, 12, 0, 0, 0, time.UTC), c.before)
}

func TestRunAutoCompleteSwallowsErrors(t *testing.T) {
	c := &recordingCompleter{err: fmt.Errorf("firestore unavailable")}

	assert.NotPanics(t, func() {
		RunAutoComplete(context.Background(), time.Now(), time.Hour, c)
	})
}

func TestScheduleAutoComplete(t *testing.T) {
	s := New()

	require.NoError(t, s.ScheduleAutoComplete("@every 1h", 0, &recordingCompleter{}))
	assert.Empty(t, s.cron.Entries(), "disabled when grace is zero")

	require.NoError(t, s.ScheduleAutoComplete("@every 1h", time.Hour, &recordingCompleter{}))
	assert.Len(t, s.cron.Entries(), 1)

	assert.Error(t, s.ScheduleAutoComplete("not a schedule", time.Hour, &recordingCompleter{}))
}
