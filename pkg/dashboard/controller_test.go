package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprouthub/pkg/docstore"
	"sprouthub/pkg/domain"
	apperrors "sprouthub/pkg/errors"
	"sprouthub/pkg/mocks"
)

const waitFor = 2 * time.Second

type controllerFixture struct {
	feed    *mocks.MockFeed
	clock   *fakeClock
	metrics *mocks.MockMetricsCollector
	ctrl    *Controller
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	f := &controllerFixture{
		feed:    &mocks.MockFeed{},
		clock:   newFakeClock(),
		metrics: &mocks.MockMetricsCollector{},
	}
	f.ctrl = NewController(f.feed, Options{
		Location: time.UTC,
		Clock:    f.clock,
		Metrics:  f.metrics,
	})

	require.NoError(t, f.ctrl.Start(context.Background()))
	t.Cleanup(f.ctrl.Close)

	return f
}

func (f *controllerFixture) emitNodes(ids ...string) {
	f.feed.Latest(domain.CollectionNodes).Emit(nodeSnapshot(ids...))
}

func (f *controllerFixture) waitView(t *testing.T, cond func(View) bool) View {
	t.Helper()

	var v View
	require.Eventually(t, func() bool {
		v = f.ctrl.View()
		return cond(v)
	}, waitFor, 5*time.Millisecond)
	return v
}

func TestController_InitialState(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t)

	v := f.ctrl.View()
	assert.True(t, v.Loading)
	assert.Empty(t, v.Nodes)
	assert.Equal(t, "", v.SelectedNodeID)

	alerts := f.feed.Latest(domain.CollectionAlerts)
	require.NotNil(t, alerts)
	assert.Equal(t, ActiveAlertsQuery(domain.DefaultAlertLimit), alerts.Query)
	require.NotNil(t, f.feed.Latest(domain.CollectionNodes))
}

func TestController_AutoSelectAndNewNodeScenario(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t)

	f.emitNodes("A")
	v := f.waitView(t, func(v View) bool { return !v.Loading && v.SelectedNodeID == "A" })
	assert.Equal(t, 1, v.NodeCount)
	assert.Nil(t, v.Notification)

	f.emitNodes("A", "B")
	v = f.waitView(t, func(v View) bool { return v.NodeCount == 2 })
	assert.Equal(t, "A", v.SelectedNodeID)
	require.NotNil(t, v.Notification)
	assert.Equal(t, "B", v.Notification.NodeID)
	assert.Equal(t, "B", v.Notification.NodeName)
	assert.True(t, v.Nodes[1].IsNew)
	assert.False(t, v.Nodes[0].IsNew)
	assert.True(t, v.Nodes[0].Selected)
	assert.Equal(t, []string{"B"}, f.metrics.DiscoveredNodes())

	f.clock.Advance(4 * time.Second)
	assert.NotNil(t, f.ctrl.View().Notification)

	f.clock.Advance(time.Second)
	v = f.waitView(t, func(v View) bool { return v.Notification == nil })
	assert.Empty(t, v.Notifications)
	assert.False(t, v.Nodes[1].IsNew)
}

func TestController_EachNotificationHasOwnTimer(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t)

	f.emitNodes("A")
	f.waitView(t, func(v View) bool { return !v.Loading })

	f.emitNodes("A", "B", "C")
	v := f.waitView(t, func(v View) bool { return len(v.Notifications) == 2 })
	assert.Equal(t, "C", v.Notification.NodeID)
	assert.Equal(t, 2, f.clock.Pending())

	f.clock.Advance(2 * time.Second)
	f.emitNodes("A", "B", "C", "D")
	f.waitView(t, func(v View) bool { return len(v.Notifications) == 3 })

	f.clock.Advance(3 * time.Second)
	v = f.waitView(t, func(v View) bool { return len(v.Notifications) == 1 })
	assert.Equal(t, "D", v.Notification.NodeID)

	f.clock.Advance(2 * time.Second)
	f.waitView(t, func(v View) bool { return v.Notification == nil })
}

func TestController_SwitchingSelectionSwapsHistorySubscription(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t)

	f.emitNodes("A", "B")
	f.waitView(t, func(v View) bool { return v.SelectedNodeID == "A" })

	require.Eventually(t, func() bool {
		return len(f.feed.Subscriptions(HistoryCollection("A"))) == 1
	}, waitFor, 5*time.Millisecond)
	subA := f.feed.Latest(HistoryCollection("A"))

	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	subA.Emit(historySnapshot(base, 3))
	f.waitView(t, func(v View) bool { return len(v.History) == 3 })

	require.NoError(t, f.ctrl.SelectNode(context.Background(), "B"))

	v := f.waitView(t, func(v View) bool { return v.SelectedNodeID == "B" })
	assert.Empty(t, v.History)
	assert.Equal(t, 1, subA.StopCount())
	require.Len(t, f.feed.Subscriptions(HistoryCollection("B")), 1)
	assert.Len(t, f.feed.Subscriptions(HistoryCollection("A")), 1)

	subB := f.feed.Latest(HistoryCollection("B"))
	subB.Emit(historySnapshot(base, 2))
	v = f.waitView(t, func(v View) bool { return len(v.History) == 2 })
	assert.Equal(t, "10:00 AM", v.History[0].TimeLabel)

	cached, ok := f.ctrl.History("A")
	require.True(t, ok)
	assert.Len(t, cached, 3)

	assert.Equal(t, []string{"A", "B"}, f.metrics.FollowedNodes())
}

func TestController_SelectUnknownNode(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t)

	f.emitNodes("A")
	f.waitView(t, func(v View) bool { return v.SelectedNodeID == "A" })

	err := f.ctrl.SelectNode(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.NotFoundError))
	assert.Equal(t, "A", f.ctrl.View().SelectedNodeID)

	require.NoError(t, f.ctrl.SelectNode(context.Background(), "A"))
	assert.Len(t, f.feed.Subscriptions(HistoryCollection("A")), 1)
}

func TestController_VanishedSelectionFallsBack(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t)

	f.emitNodes("A", "B")
	f.waitView(t, func(v View) bool { return v.SelectedNodeID == "A" })

	f.emitNodes("B")
	v := f.waitView(t, func(v View) bool { return v.SelectedNodeID == "B" })
	assert.Equal(t, 1, v.NodeCount)

	f.emitNodes()
	v = f.waitView(t, func(v View) bool { return v.NodeCount == 0 })
	assert.Equal(t, "", v.SelectedNodeID)
	assert.Nil(t, v.Selected)

	require.Eventually(t, func() bool {
		return f.feed.Latest(HistoryCollection("B")).Stopped()
	}, waitFor, 5*time.Millisecond)
}

func TestController_AlertsProjectedVerbatim(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t)

	snap := domain.Snapshot{Documents: []domain.Document{
		{ID: "a2", Data: map[string]any{"message": "pH too low", "severity": "high", "status": "active"}},
		{ID: "a1", Data: map[string]any{"message": "pH too low", "severity": "high", "status": "active"}},
	}}
	f.feed.Latest(domain.CollectionAlerts).Emit(snap)

	v := f.waitView(t, func(v View) bool { return len(v.Alerts) == 2 })
	assert.Equal(t, "a2", v.Alerts[0].ID)
	assert.Equal(t, "a1", v.Alerts[1].ID)
}

func TestController_SelectedCard(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t)

	seen := time.Date(2024, 6, 1, 9, 15, 0, 0, time.UTC)
	f.feed.Latest(domain.CollectionNodes).Emit(domain.Snapshot{Documents: []domain.Document{{
		ID: "n1",
		Data: map[string]any{
			"node_id":   "n1",
			"node_name": "Rice Paddy",
			"status":    "online",
			"last_seen": seen,
			"latest_readings": map[string]any{
				"moisture":           25.0,
				"battery_percentage": 15.0,
			},
		},
	}}})

	v := f.waitView(t, func(v View) bool { return v.Selected != nil })
	assert.Equal(t, "Rice Paddy", v.Selected.DisplayName)
	assert.Equal(t, ConnectionOnline, v.Selected.Connection)
	assert.Equal(t, LevelCritical, v.Selected.BatteryLevel)
	assert.Equal(t, "Critical", v.Selected.Statuses.Moisture.Label)
	assert.Equal(t, NoData, v.Selected.Statuses.PH.Label)
	assert.Equal(t, "Jun 1, 2024 9:15:00 AM", v.Selected.LastSeenLabel)
}

func TestController_Watch(t *testing.T) {
	t.Parallel()

	f := newControllerFixture(t)

	ch, cancel := f.ctrl.Watch()
	defer cancel()

	initial := <-ch
	assert.True(t, initial.Loading)

	f.emitNodes("A")

	require.Eventually(t, func() bool {
		select {
		case v := <-ch:
			return v.SelectedNodeID == "A"
		default:
			return false
		}
	}, waitFor, 5*time.Millisecond)

	cancel()
	cancel()
}

func TestController_CloseStopsEverything(t *testing.T) {
	t.Parallel()

	feed := &mocks.MockFeed{}
	clock := newFakeClock()
	ctrl := NewController(feed, Options{Clock: clock, Location: time.UTC})
	require.NoError(t, ctrl.Start(context.Background()))
	assert.ErrorIs(t, ctrl.Start(context.Background()), ErrAlreadyRunning)

	feed.Latest(domain.CollectionNodes).Emit(nodeSnapshot("A"))
	require.Eventually(t, func() bool { return ctrl.View().SelectedNodeID == "A" }, waitFor, 5*time.Millisecond)
	require.Eventually(t, func() bool { return feed.Latest(HistoryCollection("A")) != nil }, waitFor, 5*time.Millisecond)

	feed.Latest(domain.CollectionNodes).Emit(nodeSnapshot("A", "B"))
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, waitFor, 5*time.Millisecond)

	ctrl.Close()
	ctrl.Close()

	for _, sub := range feed.Subs {
		assert.Equal(t, 1, sub.StopCount(), sub.Query.Collection)
	}
	assert.Equal(t, 0, clock.Pending())
	assert.ErrorIs(t, ctrl.SelectNode(context.Background(), "A"), ErrNotRunning)
}

func TestController_StartFailsWhenFeedFails(t *testing.T) {
	t.Parallel()

	ctrl := NewController(&mocks.MockFeed{Err: fmt.Errorf("offline")}, Options{})
	assert.Error(t, ctrl.Start(context.Background()))
	ctrl.Close()
}

func TestController_WithDocumentStore(t *testing.T) {
	t.Parallel()

	store := docstore.New()
	defer store.Close()

	ts := time.Date(2024, 6, 1, 15, 4, 0, 0, time.UTC)
	require.NoError(t, store.Put("nodes", "n1", map[string]any{"node_id": "n1", "status": "online"}))
	require.NoError(t, store.Put("readings/n1/history", "r1", map[string]any{"timestamp": ts, "moisture": 50.0}))
	require.NoError(t, store.Put("readings/n1/history", "r0", map[string]any{"moisture": 48.0}))

	ctrl := NewController(store, Options{Location: time.UTC})
	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Close()

	require.Eventually(t, func() bool { return len(ctrl.View().History) == 2 }, waitFor, 5*time.Millisecond)
	history := ctrl.View().History
	assert.Equal(t, domain.MissingTimeLabel, history[0].TimeLabel)
	assert.Equal(t, "03:04 PM", history[1].TimeLabel)

	require.NoError(t, store.Put("nodes", "n2", map[string]any{"node_id": "n2", "node_name": "Hillside"}))
	require.Eventually(t, func() bool {
		n := ctrl.View().Notification
		return n != nil && n.NodeName == "Hillside"
	}, waitFor, 5*time.Millisecond)
	assert.Equal(t, "n1", ctrl.View().SelectedNodeID)
}

func TestController_RestartFollowsHistoryAgain(t *testing.T) {
	t.Parallel()

	store := docstore.New()
	defer store.Close()

	require.NoError(t, store.Put("nodes", "n1", map[string]any{"node_id": "n1"}))

	ctrl := NewController(store, Options{Location: time.UTC})
	require.NoError(t, ctrl.Start(context.Background()))
	require.Eventually(t, func() bool { return store.SubscriberCount() == 3 }, waitFor, 5*time.Millisecond)

	ctrl.Close()
	assert.Equal(t, 0, store.SubscriberCount())

	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Close()

	require.Eventually(t, func() bool { return store.SubscriberCount() == 3 }, waitFor, 5*time.Millisecond)
	assert.Equal(t, "n1", ctrl.View().SelectedNodeID)

	require.NoError(t, store.Put("readings/n1/history", "r1", map[string]any{"moisture": 41.0}))
	require.Eventually(t, func() bool { return len(ctrl.View().History) == 1 }, waitFor, 5*time.Millisecond)
}

func TestController_RestartDropsNotifications(t *testing.T) {
	t.Parallel()

	feed := &mocks.MockFeed{}
	clock := newFakeClock()
	ctrl := NewController(feed, Options{Clock: clock, Location: time.UTC})
	require.NoError(t, ctrl.Start(context.Background()))

	feed.Latest(domain.CollectionNodes).Emit(nodeSnapshot("A"))
	require.Eventually(t, func() bool { return ctrl.View().SelectedNodeID == "A" }, waitFor, 5*time.Millisecond)
	feed.Latest(domain.CollectionNodes).Emit(nodeSnapshot("A", "B"))
	require.Eventually(t, func() bool { return ctrl.View().Notification != nil }, waitFor, 5*time.Millisecond)

	ctrl.Close()
	require.NoError(t, ctrl.Start(context.Background()))
	defer ctrl.Close()

	v := ctrl.View()
	assert.Nil(t, v.Notification)
	assert.Empty(t, v.Notifications)
	assert.Equal(t, 0, clock.Pending())

	// The first snapshot after a restart is a baseline, so nothing is new.
	feed.Latest(domain.CollectionNodes).Emit(nodeSnapshot("A", "B"))
	v = waitController(t, ctrl, func(v View) bool { return !v.Loading })
	assert.Nil(t, v.Notification)
	assert.Equal(t, "A", v.SelectedNodeID)
	require.Eventually(t, func() bool {
		sub := feed.Latest(HistoryCollection("A"))
		return sub != nil && len(feed.Subscriptions(HistoryCollection("A"))) == 2 && !sub.Stopped()
	}, waitFor, 5*time.Millisecond)
}

func waitController(t *testing.T, ctrl *Controller, cond func(View) bool) View {
	t.Helper()

	var v View
	require.Eventually(t, func() bool {
		v = ctrl.View()
		return cond(v)
	}, waitFor, 5*time.Millisecond)
	return v
}
