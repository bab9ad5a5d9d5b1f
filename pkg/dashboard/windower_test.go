package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprouthub/pkg/domain"
	"sprouthub/pkg/mocks"
)

// historySnapshot returns count readings newest first, the way the feed orders them.
func historySnapshot(base time.Time, count int) domain.Snapshot {
	docs := make([]domain.Document, 0, count)
	for i := count - 1; i >= 0; i-- {
		docs = append(docs, domain.Document{
			ID: fmt.Sprintf("r%02d", i),
			Data: map[string]any{
				"timestamp": base.Add(time.Duration(i) * time.Minute),
				"moisture":  float64(40 + i),
			},
		})
	}
	return domain.Snapshot{Documents: docs}
}

func TestBuildWindow_ReversesToAscending(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)
	window := BuildWindow(historySnapshot(base, 3), 20, time.UTC)

	require.Len(t, window, 3)
	assert.Equal(t, []string{"r00", "r01", "r02"}, []string{window[0].ID, window[1].ID, window[2].ID})
	assert.Equal(t, "01:00 PM", window[0].TimeLabel)
	assert.Equal(t, "01:02 PM", window[2].TimeLabel)
}

func TestBuildWindow_CapsToNewest(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	window := BuildWindow(historySnapshot(base, 30), 20, time.UTC)

	require.Len(t, window, 20)
	assert.Equal(t, "r10", window[0].ID)
	assert.Equal(t, "r29", window[19].ID)
}

func TestBuildWindow_KeepsMissingTimestamps(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 6, 1, 15, 4, 0, 0, time.UTC)
	snap := domain.Snapshot{Documents: []domain.Document{
		{ID: "new", Data: map[string]any{"timestamp": ts}},
		{ID: "old", Data: map[string]any{"moisture": 12.0}},
	}}

	window := BuildWindow(snap, 20, time.UTC)
	require.Len(t, window, 2)
	assert.Equal(t, "old", window[0].ID)
	assert.Equal(t, domain.MissingTimeLabel, window[0].TimeLabel)
	assert.Equal(t, "03:04 PM", window[1].TimeLabel)
}

func TestWindower_FollowSwitchesSubscription(t *testing.T) {
	t.Parallel()

	feed := &mocks.MockFeed{}
	w := NewWindower(feed, 20, time.UTC)

	subA, genA, err := w.Follow(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", w.Current())
	assert.Equal(t, HistoryQuery("A", 20), feed.Latest(HistoryCollection("A")).Query)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, w.Apply(genA, historySnapshot(base, 2)))

	_, genB, err := w.Follow(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, 1, subA.(*mocks.MockSubscription).StopCount())
	assert.Greater(t, genB, genA)

	assert.False(t, w.Apply(genA, historySnapshot(base, 5)), "stale generation must be ignored")

	cachedA, ok := w.History("A")
	require.True(t, ok)
	assert.Len(t, cachedA, 2)

	_, ok = w.History("B")
	assert.False(t, ok)

	w.Stop()
	assert.Equal(t, "", w.Current())
	assert.False(t, w.Apply(genB, historySnapshot(base, 1)))
	assert.Len(t, w.Cache(), 1)
}

func TestWindower_SubscribeError(t *testing.T) {
	t.Parallel()

	feed := &mocks.MockFeed{Err: fmt.Errorf("unavailable")}
	w := NewWindower(feed, 0, nil)

	_, _, err := w.Follow(context.Background(), "A")
	assert.Error(t, err)
	assert.Equal(t, "", w.Current())
}

func TestQueries(t *testing.T) {
	t.Parallel()

	alerts := ActiveAlertsQuery(10)
	assert.Equal(t, "alerts", alerts.Collection)
	assert.Equal(t, []domain.Filter{{Field: "status", Value: "active"}}, alerts.Filters)
	assert.Equal(t, "created_at", alerts.OrderBy)
	assert.Equal(t, domain.Descending, alerts.Direction)
	assert.Equal(t, 10, alerts.Limit)

	history := HistoryQuery("node_1", 20)
	assert.Equal(t, "readings/node_1/history", history.Collection)
	assert.Equal(t, "timestamp", history.OrderBy)
	assert.Equal(t, domain.Descending, history.Direction)

	assert.Equal(t, "nodes", NodesQuery().Collection)
}
