package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"sprouthub/pkg/domain"
)

var ErrSubscriptionStopped = errors.New("mock subscription stopped")

type MockMetricsCollector struct {
	mu              sync.Mutex
	Registry        *prometheus.Registry
	Snapshots       map[string]int
	ObservedNodes   [][]domain.Node
	Discovered      []string
	ActiveAlerts    int
	HistoryFollowed []string
	BackendRequests map[string]int
}

func (m *MockMetricsCollector) ObserveSnapshot(feed string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Snapshots == nil {
		m.Snapshots = make(map[string]int)
	}
	m.Snapshots[feed]++
}

func (m *MockMetricsCollector) ObserveNodes(nodes []domain.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ObservedNodes = append(m.ObservedNodes, nodes)
}

func (m *MockMetricsCollector) NodeDiscovered(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Discovered = append(m.Discovered, nodeID)
}

func (m *MockMetricsCollector) SetActiveAlerts(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ActiveAlerts = count
}

func (m *MockMetricsCollector) HistorySubscribed(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HistoryFollowed = append(m.HistoryFollowed, nodeID)
}

func (m *MockMetricsCollector) ObserveBackendRequest(endpoint, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BackendRequests == nil {
		m.BackendRequests = make(map[string]int)
	}
	m.BackendRequests[endpoint+"/"+outcome]++
}

func (m *MockMetricsCollector) GetRegistry() *prometheus.Registry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Registry == nil {
		m.Registry = prometheus.NewRegistry()
	}
	return m.Registry
}

func (m *MockMetricsCollector) DiscoveredNodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Discovered...)
}

func (m *MockMetricsCollector) FollowedNodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.HistoryFollowed...)
}

func (m *MockMetricsCollector) BackendRequestCount(endpoint, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.BackendRequests[endpoint+"/"+outcome]
}

type MockMessageProcessor struct {
	mu                   sync.Mutex
	ProcessMessageCalled bool
	LastTopic            string
	LastPayload          []byte
	Err                  error
}

func (m *MockMessageProcessor) ProcessMessage(ctx context.Context, topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProcessMessageCalled = true
	m.LastTopic = topic
	m.LastPayload = payload
	return m.Err
}

func (m *MockMessageProcessor) Called() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ProcessMessageCalled
}

type WrittenDocument struct {
	Collection string
	ID         string
	Data       map[string]any
	Deleted    bool
}

type MockDocumentWriter struct {
	mu     sync.Mutex
	Writes []WrittenDocument
	Err    error
}

func (m *MockDocumentWriter) Put(collection, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Writes = append(m.Writes, WrittenDocument{Collection: collection, ID: id, Data: data})
	return nil
}

func (m *MockDocumentWriter) Delete(collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Writes = append(m.Writes, WrittenDocument{Collection: collection, ID: id, Deleted: true})
	return nil
}

type MockPreferenceStore struct {
	mu       sync.Mutex
	Language string
	Sets     int
	Closed   bool
	Err      error
}

func (m *MockPreferenceStore) GetLanguage() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Language, m.Err
}

func (m *MockPreferenceStore) SetLanguage(lang string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Language = lang
	m.Sets++
	return nil
}

func (m *MockPreferenceStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

type MockFeed struct {
	mu          sync.Mutex
	Subs        []*MockSubscription
	Err         error
	OnSubscribe func(q domain.Query) []domain.Snapshot
}

func (f *MockFeed) Subscribe(ctx context.Context, q domain.Query) (domain.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}

	sub := &MockSubscription{
		Query: q,
		ch:    make(chan domain.Snapshot, 16),
		done:  make(chan struct{}),
	}
	if f.OnSubscribe != nil {
		for _, snap := range f.OnSubscribe(q) {
			sub.ch <- snap
		}
	}
	f.Subs = append(f.Subs, sub)
	return sub, nil
}

func (f *MockFeed) Subscriptions(collection string) []*MockSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*MockSubscription
	for _, s := range f.Subs {
		if s.Query.Collection == collection {
			out = append(out, s)
		}
	}
	return out
}

func (f *MockFeed) Latest(collection string) *MockSubscription {
	subs := f.Subscriptions(collection)
	if len(subs) == 0 {
		return nil
	}
	return subs[len(subs)-1]
}

type MockSubscription struct {
	Query domain.Query

	mu    sync.Mutex
	ch    chan domain.Snapshot
	done  chan struct{}
	stops int
}

func (s *MockSubscription) Emit(snap domain.Snapshot) {
	select {
	case s.ch <- snap:
	case <-s.done:
	}
}

func (s *MockSubscription) Next(ctx context.Context) (domain.Snapshot, error) {
	select {
	case snap := <-s.ch:
		return snap, nil
	case <-s.done:
		return domain.Snapshot{}, ErrSubscriptionStopped
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
}

func (s *MockSubscription) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stops++
	if s.stops == 1 {
		close(s.done)
	}
}

func (s *MockSubscription) StopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *MockSubscription) Stopped() bool {
	return s.StopCount() > 0
}
