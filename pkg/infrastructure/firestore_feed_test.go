package infrastructure

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sprouthub/pkg/dashboard"
	"sprouthub/pkg/domain"
)

// fakeSource replays queued results and blocks until canceled when empty.
type fakeSource struct {
	ctx     context.Context
	results chan sourceResult

	mu      sync.Mutex
	stopped int
}

func newFakeSource(ctx context.Context) *fakeSource {
	return &fakeSource{ctx: ctx, results: make(chan sourceResult, 8)}
}

func (f *fakeSource) next() (domain.Snapshot, error) {
	select {
	case r := <-f.results:
		return r.snap, r.err
	case <-f.ctx.Done():
		return domain.Snapshot{}, status.Error(codes.Canceled, "listener canceled")
	}
}

func (f *fakeSource) stop() {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
}

func (f *fakeSource) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func startFakeSubscription(t *testing.T) (*feedSubscription, *fakeSource) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	source := newFakeSource(ctx)
	sub := newFeedSubscription(source, cancel)
	go sub.run()
	t.Cleanup(sub.Stop)
	return sub, source
}

func snapshotOf(ids ...string) domain.Snapshot {
	snap := domain.Snapshot{ReadTime: time.Now()}
	for _, id := range ids {
		snap.Documents = append(snap.Documents, domain.Document{ID: id, Data: map[string]any{"node_id": id}})
	}
	return snap
}

func TestFeedSubscription_DeliversSnapshots(t *testing.T) {
	t.Parallel()
	sub, source := startFakeSubscription(t)

	source.results <- sourceResult{snap: snapshotOf("node_1")}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	snap, err := sub.Next(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Documents, 1)
	assert.Equal(t, "node_1", snap.Documents[0].ID)
}

func TestFeedSubscription_CoalescesToLatest(t *testing.T) {
	t.Parallel()
	sub, source := startFakeSubscription(t)

	source.results <- sourceResult{snap: snapshotOf("a")}
	source.results <- sourceResult{snap: snapshotOf("a", "b")}
	source.results <- sourceResult{snap: snapshotOf("a", "b", "c")}

	require.Eventually(t, func() bool { return len(source.results) == 0 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	snap, err := sub.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Documents, 3)
}

func TestFeedSubscription_StopEndsListener(t *testing.T) {
	t.Parallel()
	sub, source := startFakeSubscription(t)

	sub.Stop()
	sub.Stop()

	_, err := sub.Next(context.Background())
	assert.ErrorIs(t, err, ErrFeedStopped)
	require.Eventually(t, func() bool { return source.stopCount() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestFeedSubscription_SourceError(t *testing.T) {
	t.Parallel()
	sub, source := startFakeSubscription(t)

	source.results <- sourceResult{err: status.Error(codes.PermissionDenied, "missing rules")}

	_, err := sub.Next(context.Background())
	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestFeedSubscription_NextHonorsContext(t *testing.T) {
	t.Parallel()
	sub, _ := startFakeSubscription(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsStopError(t *testing.T) {
	t.Parallel()

	assert.True(t, isStopError(iterator.Done))
	assert.True(t, isStopError(context.Canceled))
	assert.True(t, isStopError(status.Error(codes.Canceled, "canceled")))
	assert.False(t, isStopError(status.Error(codes.Unavailable, "unavailable")))
	assert.False(t, isStopError(assert.AnError))
}

func TestFirestoreDirection(t *testing.T) {
	t.Parallel()

	assert.Equal(t, firestore.Desc, firestoreDirection(domain.Descending))
	assert.Equal(t, firestore.Asc, firestoreDirection(domain.Ascending))
}

// TestFirestoreFeed_Emulator runs against a local emulator when FIRESTORE_EMULATOR_HOST is set.
func TestFirestoreFeed_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	feed, err := NewFirestoreFeed(ctx, "sprouthub-test", "")
	require.NoError(t, err)
	defer feed.Close()

	history := feed.client.Collection(dashboard.HistoryCollection("node_emu"))
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		_, err := history.Doc(fmt.Sprintf("r%02d", i)).Set(ctx, map[string]any{
			"moisture":  float64(30 + i),
			"timestamp": base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	sub, err := feed.Subscribe(ctx, dashboard.HistoryQuery("node_emu", domain.DefaultHistoryLimit))
	require.NoError(t, err)
	defer sub.Stop()

	snap, err := sub.Next(ctx)
	require.NoError(t, err)

	window := dashboard.BuildWindow(snap, domain.DefaultHistoryLimit, time.UTC)
	require.Len(t, window, domain.DefaultHistoryLimit)
	assert.Equal(t, 35.0, window[0].Moisture)
	assert.Equal(t, 54.0, window[len(window)-1].Moisture)
}
