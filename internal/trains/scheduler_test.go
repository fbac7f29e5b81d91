package trains

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zugfinder.bahnradar.org/internal/hafas"
)

type blockingBoardClient struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBoardClient) Departures(ctx context.Context, stationID string, opts hafas.BoardOptions) ([]hafas.ScheduleRecord, error) {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []hafas.ScheduleRecord{scheduleRecord("trip-a", "ICE 513")}, nil
}

func (b *blockingBoardClient) Arrivals(ctx context.Context, stationID string, opts hafas.BoardOptions) ([]hafas.ScheduleRecord, error) {
	return nil, nil
}

func TestTriggerManualReturnsSummary(t *testing.T) {
	client := &fakeBoardClient{
		departures: map[string][]hafas.ScheduleRecord{
			"8000105": {scheduleRecord("trip-a", "ICE 513")},
		},
	}
	store := NewStore()
	builder := NewBuilder(client, store, testBuilderConfig([]Station{{ID: "8000105", Name: "Frankfurt (Main) Hbf"}}), nil, nil, nil)
	scheduler := NewScheduler(builder, time.Hour, nil)

	summary, err := scheduler.TriggerManual(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Entries)
	assert.Equal(t, StatusReady, store.Current().Meta().Status)
}

func TestTriggerManualRejectsConcurrentRebuild(t *testing.T) {
	client := &blockingBoardClient{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	store := NewStore()
	builder := NewBuilder(client, store, testBuilderConfig([]Station{{ID: "8000105", Name: "Frankfurt (Main) Hbf"}}), nil, nil, nil)
	scheduler := NewScheduler(builder, time.Hour, nil)

	done := make(chan error, 1)
	go func() {
		_, err := scheduler.TriggerManual(context.Background())
		done <- err
	}()

	select {
	case <-client.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first rebuild never started")
	}

	_, err := scheduler.TriggerManual(context.Background())
	assert.ErrorIs(t, err, ErrRebuildInProgress)

	close(client.release)
	require.NoError(t, <-done)

	// Once the first rebuild finishes, a new manual trigger succeeds.
	_, err = scheduler.TriggerManual(context.Background())
	assert.NoError(t, err)
}

func TestSchedulerStartRunsInitialRebuild(t *testing.T) {
	client := &fakeBoardClient{
		departures: map[string][]hafas.ScheduleRecord{
			"8000105": {scheduleRecord("trip-a", "ICE 513")},
		},
	}
	store := NewStore()
	builder := NewBuilder(client, store, testBuilderConfig([]Station{{ID: "8000105", Name: "Frankfurt (Main) Hbf"}}), nil, nil, nil)
	scheduler := NewScheduler(builder, time.Hour, nil)

	scheduler.Start()
	defer scheduler.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if store.Current().Meta().Status == StatusReady {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, StatusReady, store.Current().Meta().Status)
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	store := NewStore()
	builder := NewBuilder(&fakeBoardClient{}, store, testBuilderConfig(nil), nil, nil, nil)
	scheduler := NewScheduler(builder, time.Hour, nil)

	scheduler.Start()
	scheduler.Stop()
	scheduler.Stop()
}
